package filter

import "github.com/vietddude/feedwatch/internal/core/domain"

// Filter records identities that have already been acted on.
type Filter interface {
	// Contains checks if an identity is recorded
	Contains(id domain.Identity) bool

	// Add records an identity and reports whether it was new
	Add(id domain.Identity) bool

	// AddBatch records multiple identities
	AddBatch(ids []domain.Identity)

	// Remove forgets an identity
	Remove(id domain.Identity)

	// Size returns the number of recorded identities
	Size() int
}
