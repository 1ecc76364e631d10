package emitter

import (
	"context"
	"errors"
	"testing"

	"github.com/vietddude/feedwatch/internal/core/domain"
)

// MockEmitter for testing
type MockEmitter struct {
	Emitted    []domain.Notification
	BatchCount int
	Err        error
	Closed     bool
}

func (m *MockEmitter) Emit(ctx context.Context, n domain.Notification) error {
	m.Emitted = append(m.Emitted, n)
	return m.Err
}

func (m *MockEmitter) EmitBatch(ctx context.Context, ns []domain.Notification) error {
	m.Emitted = append(m.Emitted, ns...)
	m.BatchCount++
	return m.Err
}

func (m *MockEmitter) Close() error {
	m.Closed = true
	return nil
}

func TestMulti_FansOutDespiteErrors(t *testing.T) {
	failing := &MockEmitter{Err: errors.New("boom")}
	ok := &MockEmitter{}
	m := NewMulti(failing, nil, ok, NewLog())
	ctx := context.Background()

	n := domain.ItemNotification("id:1", domain.StatePending, nil, nil)
	if err := m.Emit(ctx, n); err == nil {
		t.Error("expected joined error from failing emitter")
	}
	if len(ok.Emitted) != 1 {
		t.Errorf("expected healthy emitter to receive notification, got %d", len(ok.Emitted))
	}

	batch := []domain.Notification{n, n}
	_ = m.EmitBatch(ctx, batch)
	if ok.BatchCount != 1 || len(ok.Emitted) != 3 {
		t.Errorf("unexpected batch delivery: count=%d emitted=%d", ok.BatchCount, len(ok.Emitted))
	}

	if err := m.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if !failing.Closed || !ok.Closed {
		t.Error("expected all emitters closed")
	}
}
