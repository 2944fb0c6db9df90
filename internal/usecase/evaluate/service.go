package evaluate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/seqclass/internal/domain"
	"github.com/kailas-cloud/seqclass/internal/domain/evaluation"
)

// Service scores predictions against ground truth and keeps a run history.
type Service struct {
	store  RunStore
	opts   evaluation.Options
	now    func() time.Time
	logger *zap.Logger
}

// New creates an evaluation service. store can be nil, in which case runs
// are scored but not persisted.
func New(store RunStore, opts evaluation.Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, opts: opts, now: time.Now, logger: logger}
}

// Evaluate computes metrics for predictions, assigns a run id and persists the run.
func (s *Service) Evaluate(
	ctx context.Context, params evaluation.Params, predictions, truth map[string]string,
) (*evaluation.Run, error) {
	if len(truth) == 0 {
		return nil, fmt.Errorf("ground truth is empty: %w", domain.ErrInvalidInput)
	}

	m := evaluation.Compute(predictions, truth, s.opts)
	run := &evaluation.Run{
		RunSummary: evaluation.RunSummary{
			ID:        uuid.New().String(),
			CreatedAt: s.now().UTC(),
			Params:    params,
			Total:     m.Total,
			Correct:   m.Correct,
			Accuracy:  m.Accuracy,
		},
		Metrics:     m,
		Predictions: evaluation.JoinPredictions(predictions, truth),
	}

	if s.store != nil {
		if err := s.store.Save(ctx, run); err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
	}

	s.logger.Info("Evaluation completed",
		zap.String("run_id", run.ID),
		zap.Int("total", m.Total),
		zap.Int("correct", m.Correct),
		zap.Float64("accuracy", m.Accuracy),
		zap.Int("missing", m.Missing),
	)
	return run, nil
}

// GetRun loads a persisted run.
func (s *Service) GetRun(ctx context.Context, id string) (*evaluation.Run, error) {
	if s.store == nil {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrRunNotFound)
	}
	run, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns recent run summaries, newest first.
func (s *Service) ListRuns(ctx context.Context, limit int) ([]evaluation.RunSummary, error) {
	if s.store == nil {
		return nil, nil
	}
	runs, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// DeleteRun removes a persisted run.
func (s *Service) DeleteRun(ctx context.Context, id string) error {
	if s.store == nil {
		return fmt.Errorf("run %s: %w", id, domain.ErrRunNotFound)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

// Compare groups the most recent runs by dimension and reports per-setting accuracy.
func (s *Service) Compare(ctx context.Context, d evaluation.Dimension, limit int) ([]evaluation.Effect, error) {
	if !d.IsValid() {
		return nil, fmt.Errorf("unknown dimension %q: %w", d, domain.ErrInvalidInput)
	}
	runs, err := s.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	return evaluation.CompareRuns(runs, d), nil
}
