package source

import (
	"context"

	"github.com/vietddude/feedwatch/internal/core/domain"
)

// Static emits a fixed list of items once, then waits for ctx.
type Static struct {
	items []domain.Item
}

var _ Source = (*Static)(nil)

// NewStatic creates a static source. Items without an identity get one.
func NewStatic(items ...domain.Item) *Static {
	out := make([]domain.Item, len(items))
	for i, item := range items {
		if item.Identity == "" {
			item.Identity = domain.NewIdentity(item.ID, item.Author, item.Text, item.Timestamp)
		}
		out[i] = item
	}
	return &Static{items: out}
}

func (s *Static) Name() string {
	return "static"
}

func (s *Static) Run(ctx context.Context, emit EmitFunc) error {
	for _, item := range s.items {
		if ctx.Err() != nil {
			return nil
		}
		emit(item)
	}
	<-ctx.Done()
	return nil
}
