package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockToolChecker struct {
	err error
}

func (m *mockToolChecker) CheckTools(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockToolChecker{}, &mockPinger{}, &mockPinger{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, c := range []string{ComponentBlast, ComponentCache, ComponentRunsStore} {
		if r.Checks[c] != CheckOK {
			t.Errorf("expected %s %q, got %q", c, CheckOK, r.Checks[c])
		}
	}
}

func TestCheck_Failures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name   string
		tools  error
		cache  error
		runs   error
		failed string
	}{
		{"blast missing", boom, nil, nil, ComponentBlast},
		{"cache down", nil, boom, nil, ComponentCache},
		{"runs store down", nil, nil, boom, ComponentRunsStore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&mockToolChecker{err: tt.tools}, &mockPinger{err: tt.cache}, &mockPinger{err: tt.runs})
			r := svc.Check(context.Background())

			if r.Status != Degraded {
				t.Errorf("expected %q, got %q", Degraded, r.Status)
			}
			if r.Checks[tt.failed] != CheckError {
				t.Errorf("expected %s %q, got %q", tt.failed, CheckError, r.Checks[tt.failed])
			}
		})
	}
}

func TestCheck_OptionalComponentsAbsent(t *testing.T) {
	svc := New(&mockToolChecker{}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks[ComponentCache]; ok {
		t.Error("cache check should be absent when cache is nil")
	}
	if _, ok := r.Checks[ComponentRunsStore]; ok {
		t.Error("runs_store check should be absent when store is nil")
	}
}
