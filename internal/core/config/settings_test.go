package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestStore_SetNotifiesSubscribers(t *testing.T) {
	s := NewStore(DefaultSettings())

	var mu sync.Mutex
	var got []Settings
	unsubscribe := s.Subscribe(func(next Settings) {
		mu.Lock()
		got = append(got, next)
		mu.Unlock()
	})

	next := Settings{Enabled: false, NumberBound: 5, ScoreBound: 2}
	if err := s.Set(next); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	// Same value again is not a change.
	if err := s.Set(next); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	unsubscribe()
	if err := s.Set(DefaultSettings()); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != next {
		t.Errorf("expected exactly one notification with %+v, got %+v", next, got)
	}
	if s.Enabled() != true {
		t.Error("expected settings to be updated after unsubscribe")
	}
}

func TestStore_RejectsInvalid(t *testing.T) {
	s := NewStore(DefaultSettings())
	if err := s.Set(Settings{Enabled: true, NumberBound: -1, ScoreBound: 3}); err == nil {
		t.Error("expected negative number bound to be rejected")
	}
	if n, sc := s.Thresholds(); n != 40 || sc != 3.5 {
		t.Errorf("thresholds changed after rejected set: %d %v", n, sc)
	}
}

func TestLoadSettings_KeepsMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("score_bound: 4.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadSettings(path, DefaultSettings())
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	want := Settings{Enabled: true, NumberBound: 40, ScoreBound: 4.5}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestSettingsWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("enabled: true\nnumber_bound: 40\nscore_bound: 3.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(DefaultSettings())
	changed := make(chan Settings, 4)
	store.Subscribe(func(s Settings) { changed <- s })

	w := NewSettingsWatcher(path, store)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("enabled: false\nnumber_bound: 3\nscore_bound: 1.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case s := <-changed:
		want := Settings{Enabled: false, NumberBound: 3, ScoreBound: 1.5}
		if s != want {
			t.Errorf("expected %+v, got %+v", want, s)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("settings were not reloaded")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned error: %v", err)
	}
}

func TestSettingsWatcher_MissingFile(t *testing.T) {
	w := NewSettingsWatcher(filepath.Join(t.TempDir(), "missing.yaml"), NewStore(DefaultSettings()))
	if err := w.Run(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}
