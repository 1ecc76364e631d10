package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vietddude/feedwatch/internal/core/domain"
	"github.com/vietddude/feedwatch/internal/indexing/emitter"
)

// Publisher forwards notifications to a Redis channel so other processes
// can render them. Ticks are dropped to keep the channel quiet.
type Publisher struct {
	client *Client
}

var _ emitter.Emitter = (*Publisher)(nil)

// NewPublisher creates a notification publisher.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Emit(ctx context.Context, n domain.Notification) error {
	if n.Intervention != nil && n.Intervention.Phase == domain.PhaseTick {
		return nil
	}
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := p.client.rdb.Publish(ctx, p.client.notificationsChannel(), data).Err(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}
	return nil
}

func (p *Publisher) EmitBatch(ctx context.Context, ns []domain.Notification) error {
	for _, n := range ns {
		if err := p.Emit(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op; the client is closed by its owner.
func (p *Publisher) Close() error {
	return nil
}
