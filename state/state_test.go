package state

import (
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(StoreOptions{
		Dir: t.TempDir(),
		Now: func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func TestEnsureCreatesOnFirstContact(t *testing.T) {
	s := newTestStore(t)

	st, err := s.Ensure(42, "ivan")
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if st.ID == "" {
		t.Fatalf("Ensure() returned empty id")
	}
	if !st.CanShowAlerts {
		t.Fatalf("new state must allow alerts")
	}

	again, err := s.Ensure(42, "ivan")
	if err != nil {
		t.Fatalf("Ensure() second call error = %v", err)
	}
	if again.ID != st.ID {
		t.Fatalf("Ensure() created a new state for an existing user")
	}
}

func TestGetMissingReturnsErrNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(7); err != ErrNotFound {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestConsumeAlertsRemovesOnlyMatchingKind(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.AddAlert("st-1", AlertVideoGenerated, nil); err != nil {
		t.Fatalf("AddAlert() error = %v", err)
	}
	if _, err := s.AddAlert("st-1", AlertPublicationRejected, map[string]any{"comment": "Не по теме"}); err != nil {
		t.Fatalf("AddAlert() error = %v", err)
	}

	consumed, err := s.ConsumeAlerts("st-1", AlertVideoGenerated)
	if err != nil {
		t.Fatalf("ConsumeAlerts() error = %v", err)
	}
	if len(consumed) != 1 || consumed[0].Kind != AlertVideoGenerated {
		t.Fatalf("ConsumeAlerts() = %+v", consumed)
	}

	rest, err := s.Alerts("st-1")
	if err != nil {
		t.Fatalf("Alerts() error = %v", err)
	}
	if len(rest) != 1 || rest[0].Kind != AlertPublicationRejected {
		t.Fatalf("remaining alerts = %+v", rest)
	}

	// Second consume of the same kind is empty.
	consumed, err = s.ConsumeAlerts("st-1", AlertVideoGenerated)
	if err != nil {
		t.Fatalf("ConsumeAlerts() error = %v", err)
	}
	if len(consumed) != 0 {
		t.Fatalf("ConsumeAlerts() second call = %+v, want empty", consumed)
	}
}
