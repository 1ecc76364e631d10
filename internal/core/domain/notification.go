package domain

import "time"

// NotificationType identifies what a presentation notification carries.
type NotificationType string

const (
	NotificationItem         NotificationType = "item"
	NotificationIntervention NotificationType = "intervention"
)

// Notification is pushed one-way to the presentation layer.
type Notification struct {
	Type     NotificationType `json:"type"`
	Identity Identity         `json:"identity,omitempty"`
	State    ItemState        `json:"state,omitempty"`
	Rating   *int             `json:"rating,omitempty"`
	Ideology *int             `json:"ideology,omitempty"`
	Labels   []string         `json:"labels,omitempty"`
	Error    string           `json:"error,omitempty"`

	Intervention *InterventionEvent `json:"intervention,omitempty"`
	At           time.Time          `json:"at"`
}

// ItemNotification builds the badge update for one item.
func ItemNotification(id Identity, state ItemState, c *Classification, err error) Notification {
	n := Notification{
		Type:     NotificationItem,
		Identity: id,
		State:    state,
		At:       time.Now(),
	}
	switch {
	case c != nil:
		rating, ideology := c.Rating, c.Ideology
		n.Rating = &rating
		n.Ideology = &ideology
		n.Labels = []string{RatingLabel(rating), IdeologyLabel(ideology)}
	case state == StateError:
		n.Labels = []string{RatingLabel(0), "IDEO ?"}
	}
	if err != nil {
		n.Error = err.Error()
	}
	return n
}

// InterventionPhase is a step of the intervention session.
type InterventionPhase string

const (
	PhaseOpened   InterventionPhase = "opened"
	PhaseBreak    InterventionPhase = "break"
	PhaseTick     InterventionPhase = "tick"
	PhaseZen      InterventionPhase = "zen"
	PhaseCleanse  InterventionPhase = "cleanse"
	PhaseCleansed InterventionPhase = "cleansed"
	PhaseClosed   InterventionPhase = "closed"
)

// InterventionEvent describes an overlay state change.
type InterventionEvent struct {
	SessionID string            `json:"session_id"`
	Phase     InterventionPhase `json:"phase"`
	Title     string            `json:"title,omitempty"`
	Message   string            `json:"message,omitempty"`
	Track     string            `json:"track,omitempty"`
	Remaining string            `json:"remaining,omitempty"`
	Progress  float64           `json:"progress,omitempty"`
	Stats     *Stats            `json:"stats,omitempty"`
}
