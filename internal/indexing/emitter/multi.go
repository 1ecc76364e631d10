package emitter

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vietddude/feedwatch/internal/core/domain"
)

// Multi fans notifications out to several emitters. A failing emitter does
// not stop delivery to the others.
type Multi struct {
	emitters []Emitter
}

var _ Emitter = (*Multi)(nil)

// NewMulti creates a fan-out emitter. Nil emitters are ignored.
func NewMulti(emitters ...Emitter) *Multi {
	m := &Multi{}
	for _, e := range emitters {
		if e != nil {
			m.emitters = append(m.emitters, e)
		}
	}
	return m
}

func (m *Multi) Emit(ctx context.Context, n domain.Notification) error {
	var errs []error
	for _, e := range m.emitters {
		if err := e.Emit(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) EmitBatch(ctx context.Context, ns []domain.Notification) error {
	var errs []error
	for _, e := range m.emitters {
		if err := e.EmitBatch(ctx, ns); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, e := range m.emitters {
		if err := e.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log writes notifications to the structured log.
type Log struct {
	log *slog.Logger
}

var _ Emitter = (*Log)(nil)

// NewLog creates a log emitter.
func NewLog() *Log {
	return &Log{log: slog.Default().With("component", "notifications")}
}

func (l *Log) Emit(ctx context.Context, n domain.Notification) error {
	switch n.Type {
	case domain.NotificationIntervention:
		if n.Intervention != nil && n.Intervention.Phase != domain.PhaseTick {
			l.log.Info("Intervention",
				"session_id", n.Intervention.SessionID,
				"phase", n.Intervention.Phase,
				"message", n.Intervention.Message,
			)
		}
	default:
		attrs := []any{"identity", n.Identity, "state", n.State}
		if len(n.Labels) > 0 {
			attrs = append(attrs, "labels", n.Labels)
		}
		if n.Error != "" {
			attrs = append(attrs, "error", n.Error)
		}
		l.log.Debug("Item update", attrs...)
	}
	return nil
}

func (l *Log) EmitBatch(ctx context.Context, ns []domain.Notification) error {
	for _, n := range ns {
		_ = l.Emit(ctx, n)
	}
	return nil
}

func (l *Log) Close() error {
	return nil
}
