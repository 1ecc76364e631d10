// Package automation drives the page the items are displayed on. The markup
// and selectors live behind a bridge; this package only speaks its protocol.
package automation

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoAffordance is returned when an item has no action button.
	ErrNoAffordance = errors.New("no action affordance")
	// ErrNoMenu is returned when the action menu is not (yet) open.
	ErrNoMenu = errors.New("action menu not open")
)

// MenuEntry is one entry of an open action menu.
type MenuEntry struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Driver performs UI actions on the rendered feed.
type Driver interface {
	// OpenActions opens the action menu of the item behind handle.
	OpenActions(ctx context.Context, handle string) error
	// MenuEntries lists the entries of the currently open menu.
	MenuEntries(ctx context.Context) ([]MenuEntry, error)
	// Click activates one menu entry.
	Click(ctx context.Context, entry MenuEntry) error
}

// Config holds the automation bridge settings.
type Config struct {
	BridgeURL string        `yaml:"bridge_url" validate:"omitempty,url"`
	Timeout   time.Duration `yaml:"timeout"`
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	return c
}

// Enabled reports whether a bridge is configured.
func (c Config) Enabled() bool {
	return c.BridgeURL != ""
}
