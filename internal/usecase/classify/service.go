package classify

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/seqclass/internal/domain"
	"github.com/kailas-cloud/seqclass/internal/domain/classification"
	"github.com/kailas-cloud/seqclass/internal/domain/database"
	"github.com/kailas-cloud/seqclass/internal/domain/hit"
	"github.com/kailas-cloud/seqclass/internal/domain/sequence"
	"github.com/kailas-cloud/seqclass/internal/metrics"
)

// Config holds classification settings.
type Config struct {
	Thresholds       classification.Thresholds
	Workers          int
	ParallelSearches int
}

// Result is a completed run: predictions plus the raw hits they came from.
type Result struct {
	classification.Outcome
	Hits hit.ResultSet
}

// Service searches queries across databases and classifies the merged hits.
type Service struct {
	searcher Searcher
	cfg      Config
	logger   *zap.Logger
}

// New creates a classification service. searcher may be nil when only
// precomputed hits are classified.
func New(searcher Searcher, cfg Config, logger *zap.Logger) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.ParallelSearches <= 0 {
		cfg.ParallelSearches = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{searcher: searcher, cfg: cfg, logger: logger}
}

// Thresholds returns the configured acceptance thresholds.
func (s *Service) Thresholds() classification.Thresholds { return s.cfg.Thresholds }

// Run searches every query against every database and classifies the results
// with the configured thresholds.
func (s *Service) Run(ctx context.Context, queries []sequence.Record, dbs []database.Database) (Result, error) {
	set, err := s.Search(ctx, queries, dbs)
	if err != nil {
		return Result{}, err
	}
	out, err := s.ClassifyResults(ctx, set, s.cfg.Thresholds)
	if err != nil {
		return Result{}, err
	}
	return Result{Outcome: out, Hits: set}, nil
}

// Search runs all (query, database) searches concurrently. Every query appears
// in the result, with hits concatenated in database order. The first failure
// cancels the remaining searches.
func (s *Service) Search(ctx context.Context, queries []sequence.Record, dbs []database.Database) (hit.ResultSet, error) {
	if s.searcher == nil {
		return nil, errors.New("classify: no searcher configured")
	}
	seen := make(map[string]struct{}, len(queries))
	for i, q := range queries {
		if q.ID == "" {
			return nil, fmt.Errorf("query %d: id is required: %w", i, domain.ErrInvalidInput)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("query %q: duplicate id: %w", q.ID, domain.ErrInvalidInput)
		}
		seen[q.ID] = struct{}{}
	}

	start := time.Now()
	grid := make([][]hit.Hit, len(queries)*len(dbs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ParallelSearches)
	for qi, q := range queries {
		for di, d := range dbs {
			g.Go(func() error {
				hits, err := s.searcher.Search(gctx, q, d)
				if err != nil {
					return fmt.Errorf("query %q database %q: %w", q.ID, d.Name, err)
				}
				grid[qi*len(dbs)+di] = hits
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // already wrapped with query and database
	}

	set := make(hit.ResultSet, len(queries))
	total := 0
	for qi, q := range queries {
		merged := make([]hit.Hit, 0)
		for di := range dbs {
			merged = append(merged, grid[qi*len(dbs)+di]...)
		}
		set[q.ID] = merged
		total += len(merged)
	}

	s.logger.Info("Searches completed",
		zap.Int("queries", len(queries)),
		zap.Int("databases", len(dbs)),
		zap.Int("hits", total),
		zap.Duration("duration", time.Since(start)),
	)
	return set, nil
}

type queryOutcome struct {
	label  string
	ranked []hit.Scored
}

// ClassifyResults classifies every query in set. All hits are validated in
// query id order before any query is ranked, so a malformed hit fails the
// whole batch without partial predictions.
func (s *Service) ClassifyResults(ctx context.Context, set hit.ResultSet, th classification.Thresholds) (classification.Outcome, error) {
	if err := th.Validate(); err != nil {
		return classification.Outcome{}, err //nolint:wrapcheck // domain error
	}
	if err := classification.Validate(set); err != nil {
		return classification.Outcome{}, err //nolint:wrapcheck // carries query and index
	}

	ids := classification.QueryIDs(set)
	results := make([]queryOutcome, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, q := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err //nolint:wrapcheck // context error
			}
			label, ranked, err := classification.ClassifyQuery(set[q], th)
			if err != nil {
				return fmt.Errorf("classify %q: %w", q, err)
			}
			results[i] = queryOutcome{label: label, ranked: ranked}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return classification.Outcome{}, err //nolint:wrapcheck // wrapped per query
	}

	out := classification.Outcome{
		Predictions: make(classification.Predictions, len(ids)),
		Ranked:      make(map[string][]hit.Scored, len(ids)),
	}
	for i, q := range ids {
		out.Predictions[q] = results[i].label
		out.Ranked[q] = results[i].ranked
	}

	unclassified := out.Unclassified()
	metrics.ClassificationsTotal.WithLabelValues("classified").Add(float64(len(ids) - unclassified))
	metrics.ClassificationsTotal.WithLabelValues("unclassified").Add(float64(unclassified))

	s.logger.Info("Classification completed",
		zap.Int("queries", len(ids)),
		zap.Int("unclassified", unclassified),
		zap.Float64("e_value_threshold", th.EValue),
		zap.Float64("identity_threshold", th.Identity),
	)
	return out, nil
}

// SelectBest returns the top accepted hit for a single query.
func (s *Service) SelectBest(hits []hit.Hit, th classification.Thresholds) (hit.Scored, bool, error) {
	if err := th.Validate(); err != nil {
		return hit.Scored{}, false, err //nolint:wrapcheck // domain error
	}
	return classification.SelectBest(hits, th) //nolint:wrapcheck // domain error
}
