package storage

import (
	"context"
	"errors"
	"time"

	"github.com/vietddude/feedwatch/internal/core/domain"
)

var (
	// ErrNotFound is returned when a record doesn't exist
	ErrNotFound = errors.New("record not found")
)

// AuditRepository records classification results and replay outcomes.
// It is write-mostly and never used to restore pipeline state.
type AuditRepository interface {
	// SaveClassification records a terminal classification result
	SaveClassification(ctx context.Context, rec *domain.ClassificationRecord) error

	// SaveOutcome records one replay outcome
	SaveOutcome(ctx context.Context, outcome *domain.Outcome) error

	// LatestClassification returns the most recent record for an identity
	LatestClassification(ctx context.Context, id domain.Identity) (*domain.ClassificationRecord, error)

	// Summary aggregates everything recorded since the given time
	Summary(ctx context.Context, since time.Time) (*Summary, error)

	// DeleteOlderThan prunes records created before the given time
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// Summary is the aggregate shown by the status command.
type Summary struct {
	States          map[domain.ItemState]int     `json:"states"`
	RatedCount      int                          `json:"rated_count"`
	AverageRating   float64                      `json:"average_rating"`
	ReplaySucceeded int                          `json:"replay_succeeded"`
	ReplayFailures  map[domain.FailureReason]int `json:"replay_failures"`
}

// NewSummary returns an empty summary.
func NewSummary() *Summary {
	return &Summary{
		States:         make(map[domain.ItemState]int),
		ReplayFailures: make(map[domain.FailureReason]int),
	}
}
