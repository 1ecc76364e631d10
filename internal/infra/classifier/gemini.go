package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/vietddude/feedwatch/internal/core/domain"
)

// Gemini classifies items with the Gemini API.
type Gemini struct {
	cfg     Config
	client  *genai.Client
	monitor *ProviderMonitor
}

var _ Client = (*Gemini)(nil)

// NewGemini creates a Gemini adapter. Without an API key the adapter is
// still returned and every call fails with ErrMissingCredentials.
func NewGemini(ctx context.Context, cfg Config, monitor *ProviderMonitor) (*Gemini, error) {
	cfg = cfg.WithDefaults()
	g := &Gemini{cfg: cfg, monitor: monitor}
	if cfg.APIKey == "" {
		return g, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	g.client = client
	return g, nil
}

func (g *Gemini) Name() string {
	return ProviderGemini
}

// Classify sends one item and parses the "A,B" answer.
func (g *Gemini) Classify(ctx context.Context, req Request) (domain.Classification, error) {
	if strings.TrimSpace(req.Text) == "" {
		return domain.Classification{}, &Error{Kind: KindRequest, Err: ErrMissingText}
	}
	if g.client == nil {
		return domain.Classification{}, &Error{
			Kind:    KindAuth,
			Message: "missing Gemini API key",
			Err:     ErrMissingCredentials,
		}
	}

	model := g.cfg.Model
	if req.Model != "" {
		model = req.Model
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	content := genai.NewContentFromText(UserMessage(req), genai.RoleUser)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt(g.cfg.Prompt), genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
		MaxOutputTokens:   int32(g.cfg.MaxTokens),
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, model, []*genai.Content{content}, config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			if g.monitor != nil && (apiErr.Code == 429 || apiErr.Code == 403) {
				g.monitor.RecordThrottle(apiErr.Code, "")
			}
			return domain.Classification{}, apiError(apiErr.Code, apiErr.Status, apiErr.Message)
		}
		return domain.Classification{}, &Error{
			Kind:    ClassifyError(err),
			Message: fmt.Sprintf("gemini generate: %v", err),
			Err:     err,
		}
	}
	if g.monitor != nil {
		g.monitor.RecordRequest(time.Since(start))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return domain.Classification{}, parseError("", fmt.Errorf("empty gemini response"))
	}
	return Parse(resp.Text())
}
