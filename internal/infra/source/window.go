package source

import (
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vietddude/feedwatch/internal/core/domain"
)

// ErrUnresolvable is returned for identities no longer in the live window.
var ErrUnresolvable = errors.New("item no longer reachable")

// LiveWindow remembers the handles of the most recently observed items.
// Items that fall out of the window behave like items scrolled off the page.
type LiveWindow struct {
	handles *lru.Cache[domain.Identity, string]
}

// NewLiveWindow creates a window holding up to size handles.
func NewLiveWindow(size int) (*LiveWindow, error) {
	if size <= 0 {
		size = 200
	}
	cache, err := lru.New[domain.Identity, string](size)
	if err != nil {
		return nil, err
	}
	return &LiveWindow{handles: cache}, nil
}

// Track records the handle of an observed item.
func (w *LiveWindow) Track(item domain.Item) {
	if item.Identity == "" {
		return
	}
	w.handles.Add(item.Identity, handleOf(item))
}

// Resolve returns the handle of a live item.
func (w *LiveWindow) Resolve(id domain.Identity) (string, error) {
	handle, ok := w.handles.Get(id)
	if !ok || handle == "" {
		return "", ErrUnresolvable
	}
	return handle, nil
}

// Len returns the number of live items.
func (w *LiveWindow) Len() int {
	return w.handles.Len()
}

func handleOf(item domain.Item) string {
	switch {
	case item.Handle != "":
		return item.Handle
	case item.Link != "":
		return item.Link
	case item.ID != "":
		return item.ID
	default:
		return string(item.Identity)
	}
}
