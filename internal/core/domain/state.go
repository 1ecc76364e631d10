package domain

// ItemState is the per-identity classification lifecycle.
type ItemState string

const (
	StateUnseen  ItemState = "unseen"
	StatePending ItemState = "pending"
	StateDone    ItemState = "done"
	StateError   ItemState = "error"
)

// Terminal reports whether the state can no longer change.
func (s ItemState) Terminal() bool {
	return s == StateDone || s == StateError
}
