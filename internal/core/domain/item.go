package domain

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Identity is a best-effort key for one content item within a session.
type Identity string

const (
	primaryPrefix  = "id:"
	fallbackPrefix = "fb:"

	// FallbackTextPrefix is the number of runes of normalized text kept in a fallback identity.
	FallbackTextPrefix = 100
)

// IsFallback reports whether the identity was built without a stable id.
func (id Identity) IsFallback() bool {
	return strings.HasPrefix(string(id), fallbackPrefix)
}

// String implements fmt.Stringer.
func (id Identity) String() string {
	return string(id)
}

// NewIdentity builds the identity of an item. The stable id wins; otherwise the
// composite of author, normalized text prefix and timestamp is used. Returns an
// empty identity when neither an id nor text is available.
func NewIdentity(id, author, text, timestamp string) Identity {
	if id = strings.TrimSpace(id); id != "" {
		return Identity(primaryPrefix + id)
	}
	prefix := NormalizeText(text)
	if prefix == "" {
		return ""
	}
	if r := []rune(prefix); len(r) > FallbackTextPrefix {
		prefix = string(r[:FallbackTextPrefix])
	}
	return Identity(fallbackPrefix + strings.TrimSpace(author) + "|" + prefix + "|" + strings.TrimSpace(timestamp))
}

// NormalizeText strips diacritics, lowercases and collapses whitespace.
func NormalizeText(s string) string {
	if s == "" {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	normalized, _, err := transform.String(t, s)
	if err != nil {
		normalized = s
	}
	return strings.Join(strings.Fields(strings.ToLower(normalized)), " ")
}

// Engagement holds the visible interaction counters of an item.
type Engagement struct {
	Likes    int `json:"likes"`
	Reposts  int `json:"reposts"`
	Comments int `json:"comments"`
}

// Item is a single observation delivered by an item source.
// The same item may be delivered many times.
type Item struct {
	Identity   Identity   `json:"identity"`
	ID         string     `json:"id,omitempty"`
	Text       string     `json:"text"`
	Author     string     `json:"author"`
	Handle     string     `json:"handle,omitempty"`
	Timestamp  string     `json:"timestamp,omitempty"`
	Link       string     `json:"link,omitempty"`
	Engagement Engagement `json:"engagement"`
	ObservedAt time.Time  `json:"observed_at"`
}

// Extractable reports whether the item carries enough data to be classified.
func (i *Item) Extractable() bool {
	return i != nil && i.Identity != "" && strings.TrimSpace(i.Text) != ""
}
