package filter

import (
	"testing"

	"github.com/vietddude/feedwatch/internal/core/domain"
)

func TestMemoryFilter(t *testing.T) {
	f := NewMemoryFilter()

	// Test Add and Contains
	if !f.Add("id:1") {
		t.Error("Expected first Add to report a new identity")
	}
	if f.Add("id:1") {
		t.Error("Expected second Add to report an existing identity")
	}
	if !f.Contains("id:1") {
		t.Error("Expected filter to contain id:1")
	}
	if f.Contains("id:2") {
		t.Error("Expected filter not to contain id:2")
	}

	// Test AddBatch
	f.AddBatch([]domain.Identity{"id:b", "id:a"})
	if !f.Contains("id:a") || !f.Contains("id:b") {
		t.Error("Expected filter to contain batch added identities")
	}

	// Test Size
	if f.Size() != 3 {
		t.Errorf("Expected size to be 3, got %d", f.Size())
	}

	// Test Remove
	f.Remove("id:1")
	if f.Contains("id:1") {
		t.Error("Expected filter not to contain id:1 after removal")
	}

	// Test Identities
	ids := f.Identities()
	if len(ids) != 2 || ids[0] != "id:a" || ids[1] != "id:b" {
		t.Errorf("Expected [id:a id:b], got %v", ids)
	}
}
