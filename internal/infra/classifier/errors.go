package classifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrMissingCredentials is returned when no API key is configured.
	ErrMissingCredentials = errors.New("missing classifier API key")
	// ErrMissingText is returned for requests without item text.
	ErrMissingText = errors.New("missing item text")
	// ErrUnparsable is returned when the answer is not a valid classification.
	ErrUnparsable = errors.New("unparsable classification")
)

// Kind groups classifier failures for metrics and logging.
type Kind string

const (
	KindAuth      Kind = "auth"
	KindThrottle  Kind = "throttle"
	KindParse     Kind = "parse"
	KindRequest   Kind = "request"
	KindTransport Kind = "transport"
	KindUnknown   Kind = "unknown"
)

// Error is a typed classifier failure.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// apiError builds the error for a non-2xx response.
func apiError(status int, statusText, body string) *Error {
	msg := strings.TrimSpace(body)
	if msg == "" {
		msg = statusText
	}
	return &Error{
		Kind:    kindForStatus(status),
		Status:  status,
		Message: fmt.Sprintf("API %d: %s", status, msg),
	}
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindThrottle
	case status >= 500:
		return KindTransport
	case status >= 400:
		return KindRequest
	default:
		return KindUnknown
	}
}

// ClassifyError maps any classifier error to a Kind.
func ClassifyError(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var cerr *Error
	if errors.As(err, &cerr) && cerr.Kind != "" && cerr.Kind != KindUnknown {
		return cerr.Kind
	}

	switch {
	case errors.Is(err, ErrMissingCredentials):
		return KindAuth
	case errors.Is(err, ErrUnparsable):
		return KindParse
	case errors.Is(err, ErrMissingText):
		return KindRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindTransport
	}

	s := err.Error()
	sLower := strings.ToLower(s)

	if strings.Contains(s, "429") || strings.Contains(sLower, "too many requests") ||
		strings.Contains(sLower, "rate limit") || strings.Contains(sLower, "quota") ||
		strings.Contains(sLower, "overloaded") || strings.Contains(sLower, "resource_exhausted") {
		return KindThrottle
	}

	if strings.Contains(s, "401") || strings.Contains(s, "403") ||
		strings.Contains(sLower, "unauthorized") || strings.Contains(sLower, "forbidden") ||
		strings.Contains(sLower, "api key") || strings.Contains(sLower, "permission_denied") {
		return KindAuth
	}

	if strings.Contains(sLower, "connection refused") || strings.Contains(sLower, "timeout") ||
		strings.Contains(sLower, "no such host") || strings.Contains(sLower, "eof") ||
		strings.Contains(sLower, "unavailable") {
		return KindTransport
	}

	return KindUnknown
}
