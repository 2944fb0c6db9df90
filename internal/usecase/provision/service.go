package provision

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/kailas-cloud/seqclass/internal/domain"
	"github.com/kailas-cloud/seqclass/internal/domain/database"
)

// Action records what Prepare did with a database.
type Action string

// Prepare outcomes.
const (
	Reused Action = "reused"
	Built  Action = "built"
)

// Prepared is a database ready for searching.
type Prepared struct {
	database.Database
	Action Action
}

// Service makes sure every configured database is indexed.
type Service struct {
	builder Builder
	cache   CachePurger
	logger  *zap.Logger
}

// New creates a provisioning service. cache can be nil.
func New(builder Builder, cache CachePurger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{builder: builder, cache: cache, logger: logger}
}

// Prepare reuses existing indexes and builds missing ones from FASTA. With
// force every database with a FASTA source is rebuilt. Databases are handled
// in order and the first failure stops the run.
func (s *Service) Prepare(ctx context.Context, dbs []database.Database, force bool) ([]Prepared, error) {
	out := make([]Prepared, 0, len(dbs))
	for _, d := range dbs {
		p, err := s.prepare(ctx, d, force)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Service) prepare(ctx context.Context, d database.Database, force bool) (Prepared, error) {
	exists := s.builder.Exists(d)
	if exists && (!force || d.FASTA == "") {
		s.logger.Info("Using existing database", zap.String("database", d.Name), zap.String("path", d.Path))
		return Prepared{Database: d, Action: Reused}, nil
	}

	if d.FASTA == "" {
		return Prepared{}, fmt.Errorf("database %q: no index at %s and no fasta configured: %w",
			d.Name, d.Path, domain.ErrDatabaseNotFound)
	}
	if _, err := os.Stat(d.FASTA); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Prepared{}, fmt.Errorf("database %q: fasta %s: %w", d.Name, d.FASTA, domain.ErrDatabaseNotFound)
		}
		return Prepared{}, fmt.Errorf("database %q: stat fasta: %w", d.Name, err)
	}

	s.logger.Info("Building database",
		zap.String("database", d.Name),
		zap.String("fasta", d.FASTA),
		zap.String("type", string(d.Type)),
		zap.Bool("force", force),
	)
	if err := s.builder.Build(ctx, d); err != nil {
		return Prepared{}, fmt.Errorf("database %q: %w", d.Name, err)
	}
	if !s.builder.Exists(d) {
		return Prepared{}, fmt.Errorf("database %q: index files missing after build: %w", d.Name, domain.ErrDatabaseBuild)
	}

	if exists && s.cache != nil {
		if _, err := s.cache.Purge(ctx, d.Name); err != nil {
			s.logger.Warn("Failed to purge cached hits", zap.String("database", d.Name), zap.Error(err))
		}
	}
	return Prepared{Database: d, Action: Built}, nil
}
