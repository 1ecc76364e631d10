package intervention

import "time"

const (
	Title   = "Woah, Slow Down! It's time for a sanity check!"
	Message = "Consider a break or cleanse highly inflammatory items from your feed. Get some coffee, talk to a friend, or go outside!"
)

// ZenMessages rotate during a break.
var ZenMessages = []string{
	"Step away from the screen and breathe...",
	"Feel the sunlight on your skin...",
	"Listen to the birds singing...",
	"Notice the world around you...",
	"Your mind is clearing...",
	"Disconnect to reconnect...",
	"Nature is calling your name...",
	"Peace is found in stillness...",
	"Your soul is recharging...",
	"Almost time to return refreshed...",
}

// Config controls the break timer and ambient audio.
type Config struct {
	BreakDuration time.Duration `yaml:"break_duration"`
	TickInterval  time.Duration `yaml:"tick_interval"`
	ZenInterval   time.Duration `yaml:"zen_interval"`
	Tracks        []string      `yaml:"tracks"`
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.BreakDuration == 0 {
		c.BreakDuration = 3 * time.Minute
	}
	if c.TickInterval == 0 {
		c.TickInterval = time.Second
	}
	if c.ZenInterval == 0 {
		c.ZenInterval = 20 * time.Second
	}
	if len(c.Tracks) == 0 {
		c.Tracks = []string{"audio/music1.mp3", "audio/music2.mp3"}
	}
	return c
}
