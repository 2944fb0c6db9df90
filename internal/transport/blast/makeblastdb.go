package blast

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/seqclass/internal/domain"
	"github.com/kailas-cloud/seqclass/internal/domain/database"
	"github.com/kailas-cloud/seqclass/internal/metrics"
)

// MakeDBProgram is the database formatting tool.
const MakeDBProgram = "makeblastdb"

// Builder formats FASTA files into local search databases.
type Builder struct {
	binDir string
	run    Command
	logger *zap.Logger
}

// NewBuilder creates a database builder.
func NewBuilder(binDir string, logger *zap.Logger, opts ...BuilderOption) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Builder{binDir: binDir, run: execCommand, logger: logger}
	for _, o := range opts {
		o(b)
	}
	return b
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithBuildCommand replaces process execution.
func WithBuildCommand(c Command) BuilderOption {
	return func(b *Builder) { b.run = c }
}

// BuildArgs returns the makeblastdb command line for db.
func BuildArgs(db database.Database) []string {
	return []string{
		"-in", db.FASTA,
		"-dbtype", string(db.Type),
		"-out", db.Path,
		"-parse_seqids",
		"-title", db.Title,
	}
}

// Build runs makeblastdb for db.
func (b *Builder) Build(ctx context.Context, db database.Database) error {
	if dir := filepath.Dir(db.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	var stdout, stderr bytes.Buffer
	start := time.Now()
	err := b.run(ctx, binary(b.binDir, MakeDBProgram), BuildArgs(db), nil, &stdout, &stderr)
	if err != nil {
		metrics.DatabaseBuildsTotal.WithLabelValues(db.Name, "error").Inc()
		return fmt.Errorf("build %s: %v: %s: %w", db.Name, err, excerpt(stderr.String()), domain.ErrDatabaseBuild)
	}
	metrics.DatabaseBuildsTotal.WithLabelValues(db.Name, "ok").Inc()

	b.logger.Info("database built",
		zap.String("database", db.Name),
		zap.String("path", db.Path),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// Exists reports whether the index files for db are present. Single-volume
// databases need the index and sequence files; multi-volume ones an alias file.
func (b *Builder) Exists(db database.Database) bool {
	return Exists(db)
}

// Exists is the package-level form of Builder.Exists.
func Exists(db database.Database) bool {
	prefix := "n"
	if db.Type == database.Protein {
		prefix = "p"
	}
	if fileExists(db.Path + "." + prefix + "al") {
		return true
	}
	return fileExists(db.Path+"."+prefix+"in") && fileExists(db.Path+"."+prefix+"sq")
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
