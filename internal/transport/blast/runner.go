package blast

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/seqclass/internal/domain"
	"github.com/kailas-cloud/seqclass/internal/domain/database"
	"github.com/kailas-cloud/seqclass/internal/domain/hit"
	"github.com/kailas-cloud/seqclass/internal/domain/sequence"
	"github.com/kailas-cloud/seqclass/internal/metrics"
)

// Config holds search tool settings.
type Config struct {
	Program       string
	BinDir        string
	EValue        float64
	WordSize      int
	MaxTargetSeqs int
	Threads       int
	Timeout       time.Duration
	Logger        *zap.Logger
}

// Runner searches one query against one local database per call.
type Runner struct {
	cfg    Config
	run    Command
	logger *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithCommand replaces process execution.
func WithCommand(c Command) Option {
	return func(r *Runner) { r.run = c }
}

// NewRunner creates a search runner.
func NewRunner(cfg *Config, opts ...Option) *Runner {
	r := &Runner{cfg: *cfg, run: execCommand, logger: cfg.Logger}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Program returns the configured search program.
func (r *Runner) Program() string { return r.cfg.Program }

// Fingerprint identifies every setting that affects the hits returned for db.
func (r *Runner) Fingerprint(db database.Database) string {
	return strings.Join([]string{
		r.cfg.Program,
		db.Path,
		strconv.FormatFloat(r.cfg.EValue, 'g', -1, 64),
		strconv.Itoa(r.cfg.WordSize),
		strconv.Itoa(r.cfg.MaxTargetSeqs),
	}, "|")
}

// Args builds the command line for a search against db.
func (r *Runner) Args(db database.Database) []string {
	args := []string{
		"-db", db.Path,
		"-outfmt", OutFormat,
		"-evalue", strconv.FormatFloat(r.cfg.EValue, 'g', -1, 64),
	}
	if r.cfg.MaxTargetSeqs > 0 {
		args = append(args, "-max_target_seqs", strconv.Itoa(r.cfg.MaxTargetSeqs))
	}
	if r.cfg.Threads > 0 {
		args = append(args, "-num_threads", strconv.Itoa(r.cfg.Threads))
	}
	if r.cfg.WordSize > 0 {
		args = append(args, "-word_size", strconv.Itoa(r.cfg.WordSize))
	}
	return args
}

// Search runs the configured program with q on stdin and parses its tabular output.
func (r *Runner) Search(ctx context.Context, q sequence.Record, db database.Database) ([]hit.Hit, error) {
	runCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	start := time.Now()
	err := r.run(runCtx, binary(r.cfg.BinDir, r.cfg.Program), r.Args(db),
		strings.NewReader(q.FASTA()), &stdout, &stderr)
	duration := time.Since(start)
	metrics.SearchDuration.WithLabelValues(db.Name).Observe(duration.Seconds())

	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(db.Name, "error").Inc()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("search %s in %s: %w", q.ID, db.Name, ctx.Err())
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("search %s in %s: timed out after %s: %w",
				q.ID, db.Name, r.cfg.Timeout, domain.ErrSearchFailed)
		}
		return nil, fmt.Errorf("search %s in %s: %s: %v: %s: %w",
			q.ID, db.Name, r.cfg.Program, err, excerpt(stderr.String()), domain.ErrSearchFailed)
	}

	hits, err := ParseTabular(&stdout, db.Name)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(db.Name, "error").Inc()
		return nil, fmt.Errorf("search %s: %w", q.ID, err)
	}
	metrics.SearchRequestsTotal.WithLabelValues(db.Name, "ok").Inc()

	r.logger.Debug("search completed",
		zap.String("query", q.ID),
		zap.String("database", db.Name),
		zap.Int("hits", len(hits)),
		zap.Duration("duration", duration),
	)
	return hits, nil
}

// CheckTools verifies the search program can be executed.
func (r *Runner) CheckTools(_ context.Context) error {
	if _, err := LookPath(r.cfg.BinDir, r.cfg.Program); err != nil {
		return fmt.Errorf("%s: %w", r.cfg.Program, err)
	}
	return nil
}
