package evaluate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/seqclass/internal/domain"
	"github.com/kailas-cloud/seqclass/internal/domain/evaluation"
)

// --- Mocks ---

type mockRunStore struct {
	saved   []*evaluation.Run
	saveErr error
	list    []evaluation.RunSummary
	listErr error
}

func (m *mockRunStore) Save(_ context.Context, run *evaluation.Run) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, run)
	return nil
}

func (m *mockRunStore) Get(_ context.Context, id string) (*evaluation.Run, error) {
	for _, r := range m.saved {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, domain.ErrRunNotFound
}

func (m *mockRunStore) List(_ context.Context, _ int) ([]evaluation.RunSummary, error) {
	return m.list, m.listErr
}

func (m *mockRunStore) Delete(_ context.Context, id string) error {
	for i, r := range m.saved {
		if r.ID == id {
			m.saved = append(m.saved[:i], m.saved[i+1:]...)
			return nil
		}
	}
	return domain.ErrRunNotFound
}

// --- Tests ---

func TestEvaluate_PersistsRun(t *testing.T) {
	store := &mockRunStore{}
	svc := New(store, evaluation.Options{}, nil)
	fixed := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	params := evaluation.Params{EValueThreshold: 1e-5, IdentityThreshold: 70, Databases: []string{"viral"}}
	run, err := svc.Evaluate(context.Background(), params,
		map[string]string{"q1": "A", "q2": "Unclassified"},
		map[string]string{"q1": "A", "q2": "B"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := uuid.Parse(run.ID); err != nil {
		t.Errorf("run id %q is not a uuid: %v", run.ID, err)
	}
	if !run.CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v", run.CreatedAt)
	}
	if run.Accuracy != 0.5 || run.Total != 2 || run.Metrics.Unclassified != 1 {
		t.Errorf("summary = %+v", run.RunSummary)
	}
	if len(run.Predictions) != 2 {
		t.Errorf("predictions = %+v", run.Predictions)
	}
	if len(store.saved) != 1 || store.saved[0] != run {
		t.Error("run was not saved")
	}
}

func TestEvaluate_EmptyTruth(t *testing.T) {
	svc := New(&mockRunStore{}, evaluation.Options{}, nil)
	_, err := svc.Evaluate(context.Background(), evaluation.Params{}, map[string]string{"q": "A"}, nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEvaluate_SaveError(t *testing.T) {
	svc := New(&mockRunStore{saveErr: errors.New("disk full")}, evaluation.Options{}, nil)
	_, err := svc.Evaluate(context.Background(), evaluation.Params{}, nil, map[string]string{"q": "A"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestEvaluate_WithoutStore(t *testing.T) {
	svc := New(nil, evaluation.Options{IgnoreCase: true}, nil)
	run, err := svc.Evaluate(context.Background(), evaluation.Params{}, map[string]string{"q": "a"}, map[string]string{"q": "A"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Correct != 1 {
		t.Errorf("expected case-insensitive match, got %+v", run.RunSummary)
	}
	if runs, err := svc.ListRuns(context.Background(), 10); err != nil || runs != nil {
		t.Errorf("ListRuns() = %v, %v", runs, err)
	}
	if _, err := svc.GetRun(context.Background(), run.ID); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestGetAndDeleteRun(t *testing.T) {
	store := &mockRunStore{}
	svc := New(store, evaluation.Options{}, nil)
	run, err := svc.Evaluate(context.Background(), evaluation.Params{}, nil, map[string]string{"q": "A"})
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetRun(context.Background(), run.ID)
	if err != nil || got.ID != run.ID {
		t.Fatalf("GetRun() = %v, %v", got, err)
	}
	if err := svc.DeleteRun(context.Background(), run.ID); err != nil {
		t.Fatalf("DeleteRun() = %v", err)
	}
	if _, err := svc.GetRun(context.Background(), run.ID); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound after delete, got %v", err)
	}
}

func TestCompare(t *testing.T) {
	store := &mockRunStore{list: []evaluation.RunSummary{
		{ID: "1", Params: evaluation.Params{IdentityThreshold: 70}, Accuracy: 0.9},
		{ID: "2", Params: evaluation.Params{IdentityThreshold: 90}, Accuracy: 0.7},
	}}
	svc := New(store, evaluation.Options{}, nil)

	effects, err := svc.Compare(context.Background(), evaluation.ByIdentity, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(effects) != 2 || effects[0].Setting != "identity=70" {
		t.Errorf("effects = %+v", effects)
	}

	if _, err := svc.Compare(context.Background(), "colour", 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown dimension, got %v", err)
	}
}
