package classifier

import (
	"context"
	"fmt"
	"time"

	"github.com/vietddude/feedwatch/internal/core/domain"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"

	DefaultAnthropicModel    = "claude-3-7-sonnet-20250219"
	DefaultGeminiModel       = "gemini-2.0-flash"
	DefaultAnthropicEndpoint = "https://api.anthropic.com/"
	DefaultMaxTokens         = 16
)

// Config holds classifier adapter settings.
type Config struct {
	Provider  string        `yaml:"provider"   validate:"oneof=anthropic gemini"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"api_key"`
	Endpoint  string        `yaml:"endpoint"   validate:"omitempty,url"`
	Prompt    string        `yaml:"prompt"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxTokens int           `yaml:"max_tokens" validate:"gte=0"`
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Provider == "" {
		c.Provider = ProviderAnthropic
	}
	if c.Model == "" {
		if c.Provider == ProviderGemini {
			c.Model = DefaultGeminiModel
		} else {
			c.Model = DefaultAnthropicModel
		}
	}
	if c.Endpoint == "" && c.Provider == ProviderAnthropic {
		c.Endpoint = DefaultAnthropicEndpoint
	}
	if c.Timeout == 0 {
		c.Timeout = 20 * time.Second
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	return c
}

// Request is the classifier input for one item.
type Request struct {
	Text       string
	Author     string
	Engagement domain.Engagement
	// Model overrides the configured model when set.
	Model string
}

// RequestFromItem builds a request from an observed item.
func RequestFromItem(item *domain.Item) Request {
	return Request{
		Text:       item.Text,
		Author:     item.Author,
		Engagement: item.Engagement,
	}
}

// Client classifies one item. Implementations return a validated
// classification or an *Error; they never default a rating.
type Client interface {
	Classify(ctx context.Context, req Request) (domain.Classification, error)
	Name() string
}

// New builds the adapter selected by cfg.Provider.
func New(ctx context.Context, cfg Config, monitor *ProviderMonitor) (Client, error) {
	cfg = cfg.WithDefaults()
	switch cfg.Provider {
	case ProviderAnthropic:
		return NewAnthropic(cfg, monitor), nil
	case ProviderGemini:
		return NewGemini(ctx, cfg, monitor)
	default:
		return nil, fmt.Errorf("unknown classifier provider %q", cfg.Provider)
	}
}
