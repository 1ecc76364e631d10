package emitter

import (
	"context"

	"github.com/vietddude/feedwatch/internal/core/domain"
)

// Emitter defines the interface for pushing notifications to the presentation layer
type Emitter interface {
	// Emit sends a single notification
	Emit(ctx context.Context, n domain.Notification) error

	// EmitBatch sends multiple notifications
	EmitBatch(ctx context.Context, ns []domain.Notification) error

	// Close closes the emitter
	Close() error
}
