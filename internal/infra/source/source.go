// Package source delivers observed feed items and keeps track of which of
// them are still reachable for automation.
package source

import (
	"context"
	"time"

	"github.com/vietddude/feedwatch/internal/core/domain"
)

// EmitFunc receives one observation. The same item may be emitted many times.
type EmitFunc func(item domain.Item)

// Source produces observations until ctx is done.
type Source interface {
	Run(ctx context.Context, emit EmitFunc) error
	Name() string
}

// FeedConfig configures the feed poller and the live window.
type FeedConfig struct {
	Feeds        []string      `yaml:"feeds"         validate:"dive,url"`
	PollInterval time.Duration `yaml:"poll_interval"`
	LiveWindow   int           `yaml:"live_window"   validate:"gte=0"`
	UserAgent    string        `yaml:"user_agent"`
}

// WithDefaults fills unset fields.
func (c FeedConfig) WithDefaults() FeedConfig {
	if c.PollInterval == 0 {
		c.PollInterval = time.Minute
	}
	if c.LiveWindow == 0 {
		c.LiveWindow = 200
	}
	if c.UserAgent == "" {
		c.UserAgent = "feedwatch/1.0"
	}
	return c
}
