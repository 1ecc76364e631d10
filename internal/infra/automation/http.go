package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPDriver talks to an automation bridge running next to the page.
//
//	POST {base}/actions/open  {"handle": "..."}   404 = no affordance
//	GET  {base}/menu                              409 = menu not open
//	POST {base}/menu/click    {"id": "..."}
type HTTPDriver struct {
	baseURL    string
	httpClient *http.Client
}

var _ Driver = (*HTTPDriver)(nil)

// NewHTTPDriver creates a driver for the bridge at cfg.BridgeURL.
func NewHTTPDriver(cfg Config) *HTTPDriver {
	cfg = cfg.WithDefaults()
	return &HTTPDriver{
		baseURL:    strings.TrimRight(cfg.BridgeURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (d *HTTPDriver) OpenActions(ctx context.Context, handle string) error {
	resp, err := d.do(ctx, http.MethodPost, "/actions/open", map[string]string{"handle": handle})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNoAffordance
	case resp.StatusCode >= http.StatusBadRequest:
		return statusError("open actions", resp)
	}
	return nil
}

func (d *HTTPDriver) MenuEntries(ctx context.Context) ([]MenuEntry, error) {
	resp, err := d.do(ctx, http.MethodGet, "/menu", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusNotFound:
		return nil, ErrNoMenu
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, statusError("list menu", resp)
	}

	var entries []MenuEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode menu entries: %w", err)
	}
	return entries, nil
}

func (d *HTTPDriver) Click(ctx context.Context, entry MenuEntry) error {
	resp, err := d.do(ctx, http.MethodPost, "/menu/click", map[string]string{"id": entry.ID})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError("click menu entry", resp)
	}
	return nil
}

func (d *HTTPDriver) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal bridge payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("new bridge request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bridge %s %s: %w", method, path, err)
	}
	return resp, nil
}

func statusError(op string, resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s: bridge returned %d: %s", op, resp.StatusCode, strings.TrimSpace(string(msg)))
}
