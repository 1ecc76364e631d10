package config

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v2"
)

// Settings are the values that can change while the pipeline runs.
type Settings struct {
	Enabled     bool    `yaml:"enabled"      json:"enabled"`
	NumberBound int     `yaml:"number_bound" json:"number_bound" validate:"gte=0"`
	ScoreBound  float64 `yaml:"score_bound"  json:"score_bound"  validate:"gte=0,lte=5"`
}

// DefaultSettings returns the startup defaults.
func DefaultSettings() Settings {
	return Settings{
		Enabled:     true,
		NumberBound: 40,
		ScoreBound:  3.5,
	}
}

// Validate checks the settings ranges.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// Store holds the current settings and notifies subscribers on change.
type Store struct {
	mu          sync.RWMutex
	current     Settings
	nextID      int
	subscribers map[int]func(Settings)
}

// NewStore creates a store with initial settings.
func NewStore(initial Settings) *Store {
	return &Store{
		current:     initial,
		subscribers: make(map[int]func(Settings)),
	}
}

// Get returns the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Enabled reports whether new items should be classified.
func (s *Store) Enabled() bool {
	return s.Get().Enabled
}

// Thresholds returns the intervention bounds.
func (s *Store) Thresholds() (int, float64) {
	cur := s.Get()
	return cur.NumberBound, cur.ScoreBound
}

// Set validates and stores next, notifying subscribers when it differs.
func (s *Store) Set(next Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.current == next {
		s.mu.Unlock()
		return nil
	}
	s.current = next
	subs := make([]func(Settings), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return nil
}

// Subscribe registers fn for changes and returns a function that removes it.
func (s *Store) Subscribe(fn func(Settings)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// LoadSettings reads a settings file. Missing keys keep the values of base.
func LoadSettings(path string, base Settings) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read settings file: %w", err)
	}
	out := base
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &out); err != nil {
		return base, fmt.Errorf("failed to parse settings file: %w", err)
	}
	if err := out.Validate(); err != nil {
		return base, err
	}
	return out, nil
}
