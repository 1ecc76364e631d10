package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/vietddude/feedwatch/internal/core/domain"
	"github.com/vietddude/feedwatch/internal/infra/storage"
)

const (
	classificationsTable = "classifications"
	outcomesTable        = "replay_outcomes"
)

// AuditRepo implements storage.AuditRepository on SQL.
type AuditRepo struct {
	db *DB
}

var _ storage.AuditRepository = (*AuditRepo)(nil)

func NewAuditRepo(db *DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) SaveClassification(ctx context.Context, rec *domain.ClassificationRecord) error {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query, args, err := r.db.builder.
		Insert(classificationsTable).
		Columns("id", "identity", "state", "rating", "ideology", "error", "model", "created_at").
		Values(id, string(rec.Identity), string(rec.State), rec.Rating, rec.Ideology, rec.Error, rec.Model, createdAt.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert classification: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert classification: %w", err)
	}
	return nil
}

func (r *AuditRepo) SaveOutcome(ctx context.Context, outcome *domain.Outcome) error {
	at := outcome.At
	if at.IsZero() {
		at = time.Now()
	}

	query, args, err := r.db.builder.
		Insert(outcomesTable).
		Columns("id", "batch_id", "position", "identity", "success", "reason", "error", "created_at").
		Values(uuid.NewString(), outcome.BatchID, outcome.Index, string(outcome.Identity),
			outcome.Success, string(outcome.Reason), outcome.Error, at.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert outcome: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

func (r *AuditRepo) LatestClassification(ctx context.Context, id domain.Identity) (*domain.ClassificationRecord, error) {
	query, args, err := r.db.builder.
		Select("id", "identity", "state", "rating", "ideology", "error", "model", "created_at").
		From(classificationsTable).
		Where(sq.Eq{"identity": string(id)}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select classification: %w", err)
	}

	var rec domain.ClassificationRecord
	if err := r.db.GetContext(ctx, &rec, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("select classification: %w", err)
	}
	return &rec, nil
}

type stateCount struct {
	State string `db:"state"`
	Count int    `db:"n"`
}

type ratingAggregate struct {
	Count   int             `db:"n"`
	Average sql.NullFloat64 `db:"average"`
}

type outcomeCount struct {
	Success bool   `db:"success"`
	Reason  string `db:"reason"`
	Count   int    `db:"n"`
}

func (r *AuditRepo) Summary(ctx context.Context, since time.Time) (*storage.Summary, error) {
	sum := storage.NewSummary()
	since = since.UTC()

	query, args, err := r.db.builder.
		Select("state", "COUNT(*) AS n").
		From(classificationsTable).
		Where(sq.GtOrEq{"created_at": since}).
		GroupBy("state").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build state summary: %w", err)
	}
	var states []stateCount
	if err := r.db.SelectContext(ctx, &states, query, args...); err != nil {
		return nil, fmt.Errorf("state summary: %w", err)
	}
	for _, s := range states {
		sum.States[domain.ItemState(s.State)] = s.Count
	}

	query, args, err = r.db.builder.
		Select("COUNT(*) AS n", "AVG(rating) AS average").
		From(classificationsTable).
		Where(sq.And{
			sq.Eq{"state": string(domain.StateDone)},
			sq.GtOrEq{"rating": domain.MinRating},
			sq.LtOrEq{"rating": domain.MaxRating},
			sq.GtOrEq{"created_at": since},
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build rating summary: %w", err)
	}
	var ratings ratingAggregate
	if err := r.db.GetContext(ctx, &ratings, query, args...); err != nil {
		return nil, fmt.Errorf("rating summary: %w", err)
	}
	sum.RatedCount = ratings.Count
	if ratings.Average.Valid {
		sum.AverageRating = ratings.Average.Float64
	}

	query, args, err = r.db.builder.
		Select("success", "reason", "COUNT(*) AS n").
		From(outcomesTable).
		Where(sq.GtOrEq{"created_at": since}).
		GroupBy("success", "reason").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build replay summary: %w", err)
	}
	var outcomes []outcomeCount
	if err := r.db.SelectContext(ctx, &outcomes, query, args...); err != nil {
		return nil, fmt.Errorf("replay summary: %w", err)
	}
	for _, o := range outcomes {
		if o.Success {
			sum.ReplaySucceeded += o.Count
		} else {
			sum.ReplayFailures[domain.FailureReason(o.Reason)] += o.Count
		}
	}
	return sum, nil
}

func (r *AuditRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	var total int64
	for _, table := range []string{classificationsTable, outcomesTable} {
		query, args, err := r.db.builder.
			Delete(table).
			Where(sq.Lt{"created_at": before.UTC()}).
			ToSql()
		if err != nil {
			return total, fmt.Errorf("build delete %s: %w", table, err)
		}
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return total, fmt.Errorf("delete %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}
