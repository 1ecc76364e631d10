package domain

import (
	"strings"
	"testing"
)

func TestNewIdentity_PrefersStableID(t *testing.T) {
	id := NewIdentity(" 12345 ", "alice", "hello", "2025-01-01")
	if id != "id:12345" {
		t.Errorf("expected id:12345, got %s", id)
	}
	if id.IsFallback() {
		t.Error("primary identity reported as fallback")
	}
}

func TestNewIdentity_FallbackIsStable(t *testing.T) {
	a := NewIdentity("", "alice", "Café   Olé\nworld", "t1")
	b := NewIdentity("", "alice", "cafe ole world", "t1")
	if a != b {
		t.Errorf("expected normalized fallbacks to match: %q vs %q", a, b)
	}
	if !a.IsFallback() {
		t.Error("expected fallback identity")
	}

	c := NewIdentity("", "alice", "cafe ole world!", "t1")
	if a == c {
		t.Error("different text must produce different fallback identities")
	}
}

func TestNewIdentity_TruncatesTextPrefix(t *testing.T) {
	long := strings.Repeat("a", 300)
	id := NewIdentity("", "bob", long, "t")
	want := "fb:bob|" + strings.Repeat("a", FallbackTextPrefix) + "|t"
	if string(id) != want {
		t.Errorf("unexpected identity length %d", len(id))
	}
}

func TestNewIdentity_EmptyWithoutIDOrText(t *testing.T) {
	if id := NewIdentity("", "bob", "   ", "t"); id != "" {
		t.Errorf("expected empty identity, got %q", id)
	}
}

func TestItem_Extractable(t *testing.T) {
	tests := []struct {
		name string
		item *Item
		want bool
	}{
		{"nil", nil, false},
		{"no identity", &Item{Text: "x"}, false},
		{"no text", &Item{Identity: "id:1", Text: "  "}, false},
		{"ok", &Item{Identity: "id:1", Text: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.Extractable(); got != tt.want {
				t.Errorf("Extractable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassification_Validate(t *testing.T) {
	tests := []struct {
		c       Classification
		wantErr bool
	}{
		{Classification{Rating: 1, Ideology: -2}, false},
		{Classification{Rating: 5, Ideology: 2}, false},
		{Classification{Rating: 3, Ideology: IdeologyUnscored}, false},
		{Classification{Rating: 0, Ideology: 0}, true},
		{Classification{Rating: 7, Ideology: 0}, true},
		{Classification{Rating: 3, Ideology: 3}, true},
		{Classification{Rating: 3, Ideology: -9}, true},
	}
	for _, tt := range tests {
		err := tt.c.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) error = %v, wantErr %v", tt.c, err, tt.wantErr)
		}
	}
}

func TestLabels(t *testing.T) {
	if got := IdeologyLabel(-1); got != "CL" {
		t.Errorf("IdeologyLabel(-1) = %s", got)
	}
	if got := IdeologyLabel(IdeologyUnscored); got != "IDEO -10" {
		t.Errorf("IdeologyLabel(-10) = %s", got)
	}
	if got := RatingLabel(4); got != "INF 4" {
		t.Errorf("RatingLabel(4) = %s", got)
	}
	if got := RatingLabel(0); got != "INF ?" {
		t.Errorf("RatingLabel(0) = %s", got)
	}
}
