package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/feedwatch/internal/core/domain"
	"github.com/vietddude/feedwatch/internal/infra/storage"
)

// AuditStore keeps audit records in process memory.
type AuditStore struct {
	classifications []*domain.ClassificationRecord
	outcomes        []*domain.Outcome
	mu              sync.RWMutex
}

var _ storage.AuditRepository = (*AuditStore)(nil)

func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

func (s *AuditStore) SaveClassification(ctx context.Context, rec *domain.ClassificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.classifications = append(s.classifications, &cp)
	return nil
}

func (s *AuditStore) SaveOutcome(ctx context.Context, outcome *domain.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *outcome
	if cp.At.IsZero() {
		cp.At = time.Now()
	}
	s.outcomes = append(s.outcomes, &cp)
	return nil
}

func (s *AuditStore) LatestClassification(ctx context.Context, id domain.Identity) (*domain.ClassificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.classifications) - 1; i >= 0; i-- {
		if rec := s.classifications[i]; rec.Identity == id {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *AuditStore) Summary(ctx context.Context, since time.Time) (*storage.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := storage.NewSummary()
	total := 0
	for _, rec := range s.classifications {
		if rec.CreatedAt.Before(since) {
			continue
		}
		sum.States[rec.State]++
		if rec.State == domain.StateDone && domain.ValidRating(rec.Rating) {
			sum.RatedCount++
			total += rec.Rating
		}
	}
	if sum.RatedCount > 0 {
		sum.AverageRating = float64(total) / float64(sum.RatedCount)
	}

	for _, o := range s.outcomes {
		if o.At.Before(since) {
			continue
		}
		if o.Success {
			sum.ReplaySucceeded++
		} else {
			sum.ReplayFailures[o.Reason]++
		}
	}
	return sum, nil
}

func (s *AuditStore) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	keptRecs := s.classifications[:0]
	for _, rec := range s.classifications {
		if rec.CreatedAt.Before(before) {
			deleted++
			continue
		}
		keptRecs = append(keptRecs, rec)
	}
	s.classifications = keptRecs

	keptOutcomes := s.outcomes[:0]
	for _, o := range s.outcomes {
		if o.At.Before(before) {
			deleted++
			continue
		}
		keptOutcomes = append(keptOutcomes, o)
	}
	s.outcomes = keptOutcomes
	return deleted, nil
}
