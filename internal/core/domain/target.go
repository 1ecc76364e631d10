package domain

import "time"

// Target is one identity to suppress in a replay batch.
type Target struct {
	Identity Identity `json:"identity" binding:"required"`
}

// FailureReason explains why a replay target was not suppressed.
type FailureReason string

const (
	ReasonNone            FailureReason = ""
	ReasonUnresolvable    FailureReason = "unresolvable"
	ReasonAlreadyActioned FailureReason = "already_actioned"
	ReasonNoAffordance    FailureReason = "no_affordance"
	ReasonMenuTimeout     FailureReason = "menu_timeout"
	ReasonDriverError     FailureReason = "driver_error"
)

// Outcome is the observable result of one replay target.
type Outcome struct {
	BatchID  string        `json:"batch_id"`
	Index    int           `json:"index"`
	Identity Identity      `json:"identity"`
	Success  bool          `json:"success"`
	Reason   FailureReason `json:"reason,omitempty"`
	Error    string        `json:"error,omitempty"`
	At       time.Time     `json:"at"`
}

// ClassificationRecord is an audited classification result.
type ClassificationRecord struct {
	ID        string    `db:"id"`
	Identity  Identity  `db:"identity"`
	State     ItemState `db:"state"`
	Rating    int       `db:"rating"`
	Ideology  int       `db:"ideology"`
	Error     string    `db:"error"`
	Model     string    `db:"model"`
	CreatedAt time.Time `db:"created_at"`
}
