package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"workspace-tracker/internal/telemetry/domain"
)

// mockEventEmitter implements EventEmitter for tests.
type mockEventEmitter struct {
	mu      sync.Mutex
	events  []*domain.Event
	emitErr error
	done    chan struct{}
}

func (m *mockEventEmitter) Emit(ctx context.Context, event *domain.Event) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.done != nil {
		m.done <- struct{}{}
	}
	return m.emitErr
}

func (m *mockEventEmitter) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func TestFanout(t *testing.T) {
	a := &mockEventEmitter{}
	b := &mockEventEmitter{emitErr: errors.New("kafka down")}
	ev := domain.NewEvent("test", "unit", nil)

	err := Fanout{a, nil, b}.Emit(context.Background(), ev)
	if err == nil || !errors.Is(err, b.emitErr) {
		t.Errorf("err = %v, want joined kafka error", err)
	}
	if a.count() != 1 || b.count() != 1 {
		t.Errorf("counts = %d, %d, want 1, 1", a.count(), b.count())
	}
}

func TestNewEvent_Metadata(t *testing.T) {
	ev := domain.NewEvent("authz_decision", "authz", map[string]any{"code": "forbidden"})
	if string(ev.Metadata) != `{"code":"forbidden"}` {
		t.Errorf("metadata = %s", ev.Metadata)
	}
	if ev.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
	if ev := domain.NewEvent("x", "y", func() {}); ev.Metadata != nil {
		t.Error("unencodable metadata should be dropped")
	}
}
