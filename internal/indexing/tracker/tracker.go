package tracker

import (
	"sync"

	"github.com/vietddude/feedwatch/internal/core/domain"
)

// Action is what the caller must do after observing an identity.
type Action int

const (
	// ActionSkip means the identity is pending or terminal; nothing to do.
	ActionSkip Action = iota
	// ActionEnqueue means the identity moved to pending and must be classified.
	ActionEnqueue
	// ActionCached means a valid cached rating exists and should be re-applied.
	ActionCached
)

func (a Action) String() string {
	switch a {
	case ActionEnqueue:
		return "enqueue"
	case ActionCached:
		return "cached"
	default:
		return "skip"
	}
}

// Decision is the result of Observe.
type Decision struct {
	Action Action
	State  domain.ItemState
	Rating int
}

// RatingLookup returns a cached rating for an identity.
type RatingLookup interface {
	Get(id domain.Identity) (int, bool)
}

// Tracker owns the per-identity lifecycle unseen -> pending -> done|error.
// An identity is pending at most once, and a terminal state is never left.
type Tracker struct {
	mu     sync.Mutex
	states map[domain.Identity]domain.ItemState
	cache  RatingLookup
}

// New creates a tracker backed by cache for short-circuiting.
func New(cache RatingLookup) *Tracker {
	return &Tracker{
		states: make(map[domain.Identity]domain.ItemState),
		cache:  cache,
	}
}

// Observe records an observation of id. When allowEnqueue is false only the
// cached short-circuit is applied and unseen identities are left unseen.
func (t *Tracker) Observe(id domain.Identity, allowEnqueue bool) Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	state := t.stateLocked(id)
	if state == domain.StatePending {
		return Decision{Action: ActionSkip, State: state}
	}

	if t.cache != nil {
		if rating, ok := t.cache.Get(id); ok && domain.ValidRating(rating) {
			if state == domain.StateUnseen {
				t.states[id] = domain.StateDone
				state = domain.StateDone
			}
			return Decision{Action: ActionCached, State: state, Rating: rating}
		}
	}

	if state.Terminal() || !allowEnqueue {
		return Decision{Action: ActionSkip, State: state}
	}

	t.states[id] = domain.StatePending
	return Decision{Action: ActionEnqueue, State: domain.StatePending}
}

// Complete moves a pending identity to done. It reports false when id was not pending.
func (t *Tracker) Complete(id domain.Identity) bool {
	return t.finish(id, domain.StateDone)
}

// Fail moves a pending identity to error. It reports false when id was not pending.
func (t *Tracker) Fail(id domain.Identity) bool {
	return t.finish(id, domain.StateError)
}

func (t *Tracker) finish(id domain.Identity, to domain.ItemState) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stateLocked(id) != domain.StatePending {
		return false
	}
	t.states[id] = to
	return true
}

// State returns the current state of id.
func (t *Tracker) State(id domain.Identity) domain.ItemState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked(id)
}

func (t *Tracker) stateLocked(id domain.Identity) domain.ItemState {
	if s, ok := t.states[id]; ok {
		return s
	}
	return domain.StateUnseen
}

// Counts returns the number of identities per state.
func (t *Tracker) Counts() map[domain.ItemState]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[domain.ItemState]int, 3)
	for _, s := range t.states {
		out[s]++
	}
	return out
}

// Pending returns the size of the pending set.
func (t *Tracker) Pending() int {
	return t.Counts()[domain.StatePending]
}
