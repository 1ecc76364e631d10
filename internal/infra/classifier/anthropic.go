package classifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/vietddude/feedwatch/internal/core/domain"
)

// Anthropic classifies items with the Messages API.
type Anthropic struct {
	cfg     Config
	client  anthropic.Client
	monitor *ProviderMonitor
}

var _ Client = (*Anthropic)(nil)

// NewAnthropic creates an Anthropic adapter. monitor may be nil.
// Cfg.Endpoint is the API base URL.
func NewAnthropic(cfg Config, monitor *ProviderMonitor) *Anthropic {
	cfg = cfg.WithDefaults()
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.Endpoint),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		// failed items are terminal
		option.WithMaxRetries(0),
	)
	return &Anthropic{
		cfg:     cfg,
		client:  client,
		monitor: monitor,
	}
}

func (a *Anthropic) Name() string {
	return ProviderAnthropic
}

// Classify sends one item and parses the "A,B" answer.
func (a *Anthropic) Classify(ctx context.Context, req Request) (domain.Classification, error) {
	if strings.TrimSpace(req.Text) == "" {
		return domain.Classification{}, &Error{Kind: KindRequest, Err: ErrMissingText}
	}
	if a.cfg.APIKey == "" {
		return domain.Classification{}, &Error{
			Kind:    KindAuth,
			Message: "missing Anthropic API key",
			Err:     ErrMissingCredentials,
		}
	}

	model := a.cfg.Model
	if req.Model != "" {
		model = req.Model
	}

	start := time.Now()
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(a.cfg.MaxTokens),
		Temperature: anthropic.Float(0),
		System:      []anthropic.TextBlockParam{{Text: SystemPrompt(a.cfg.Prompt)}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(UserMessage(req))),
		},
	})
	if err != nil {
		return domain.Classification{}, a.wrapError(err)
	}
	if a.monitor != nil {
		a.monitor.RecordRequest(time.Since(start))
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	return Parse(text)
}

func (a *Anthropic) wrapError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return &Error{
			Kind:    KindTransport,
			Message: fmt.Sprintf("send classify request: %v", err),
			Err:     err,
		}
	}

	status := apiErr.StatusCode
	if a.monitor != nil && (status == http.StatusTooManyRequests || status == http.StatusForbidden) {
		retryAfter := ""
		if apiErr.Response != nil {
			retryAfter = apiErr.Response.Header.Get("retry-after")
		}
		a.monitor.RecordThrottle(status, retryAfter)
	}
	return apiError(status, http.StatusText(status), apiErr.RawJSON())
}
