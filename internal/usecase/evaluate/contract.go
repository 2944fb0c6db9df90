package evaluate

import (
	"context"

	"github.com/kailas-cloud/seqclass/internal/domain/evaluation"
)

// RunStore persists evaluation runs.
type RunStore interface {
	Save(ctx context.Context, run *evaluation.Run) error
	Get(ctx context.Context, id string) (*evaluation.Run, error)
	List(ctx context.Context, limit int) ([]evaluation.RunSummary, error)
	Delete(ctx context.Context, id string) error
}
