package replay

import "time"

// Config controls menu polling and pacing.
type Config struct {
	InitialDelay time.Duration `yaml:"initial_delay"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxAttempts  int           `yaml:"max_attempts"  validate:"gte=0"`
	MinPause     time.Duration `yaml:"min_pause"`
	MaxPause     time.Duration `yaml:"max_pause"     validate:"gtefield=MinPause"`
	Phrases      []string      `yaml:"phrases"`
	// MinRating selects cleanse targets from the result cache.
	MinRating int `yaml:"min_rating" validate:"gte=0,lte=5"`
}

// DefaultConfig returns the pacing used against a live page.
func DefaultConfig() Config {
	return Config{
		InitialDelay: 25 * time.Millisecond,
		PollInterval: 75 * time.Millisecond,
		MaxAttempts:  8,
		MinPause:     50 * time.Millisecond,
		MaxPause:     150 * time.Millisecond,
		Phrases:      []string{"not interested", "show fewer"},
		MinRating:    4,
	}
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.InitialDelay == 0 {
		c.InitialDelay = def.InitialDelay
	}
	if c.PollInterval == 0 {
		c.PollInterval = def.PollInterval
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.MinPause == 0 && c.MaxPause == 0 {
		c.MinPause = def.MinPause
		c.MaxPause = def.MaxPause
	}
	if c.MaxPause < c.MinPause {
		c.MaxPause = c.MinPause
	}
	if len(c.Phrases) == 0 {
		c.Phrases = def.Phrases
	}
	if c.MinRating == 0 {
		c.MinRating = def.MinRating
	}
	return c
}
