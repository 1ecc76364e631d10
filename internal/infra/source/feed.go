package source

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/vietddude/feedwatch/internal/core/domain"
)

// IntervalFunc returns the delay before the next poll.
type IntervalFunc func() time.Duration

// FeedPoller polls RSS/Atom/JSON feeds and emits every entry on each poll.
type FeedPoller struct {
	cfg      FeedConfig
	parser   *gofeed.Parser
	interval IntervalFunc
	log      *slog.Logger
}

var _ Source = (*FeedPoller)(nil)

// NewFeedPoller creates a poller. interval may be nil to use cfg.PollInterval.
func NewFeedPoller(cfg FeedConfig, interval IntervalFunc) *FeedPoller {
	cfg = cfg.WithDefaults()
	parser := gofeed.NewParser()
	parser.UserAgent = cfg.UserAgent
	if interval == nil {
		interval = func() time.Duration { return cfg.PollInterval }
	}
	return &FeedPoller{
		cfg:      cfg,
		parser:   parser,
		interval: interval,
		log:      slog.Default().With("component", "feed-poller"),
	}
}

func (p *FeedPoller) Name() string {
	return "feed"
}

// Run polls all feeds until ctx is done. Feed errors are logged and the
// feed is retried on the next round.
func (p *FeedPoller) Run(ctx context.Context, emit EmitFunc) error {
	p.log.Info("Feed poller started", "feeds", len(p.cfg.Feeds))
	for {
		for _, url := range p.cfg.Feeds {
			if ctx.Err() != nil {
				return nil
			}
			n, err := p.PollOnce(ctx, url, emit)
			if err != nil {
				p.log.Warn("Feed poll failed", "url", url, "error", err)
				continue
			}
			p.log.Debug("Feed polled", "url", url, "items", n)
		}

		timer := time.NewTimer(p.interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			p.log.Info("Feed poller stopped")
			return nil
		case <-timer.C:
		}
	}
}

// PollOnce fetches one feed and emits its items.
func (p *FeedPoller) PollOnce(ctx context.Context, url string, emit EmitFunc) (int, error) {
	feed, err := p.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	for _, entry := range feed.Items {
		emit(ItemFromEntry(feed, entry, now))
	}
	return len(feed.Items), nil
}

// ItemFromEntry converts a parsed feed entry into an observation.
func ItemFromEntry(feed *gofeed.Feed, entry *gofeed.Item, observedAt time.Time) domain.Item {
	id := entry.GUID
	if id == "" {
		id = entry.Link
	}

	author := ""
	switch {
	case entry.Author != nil && entry.Author.Name != "":
		author = entry.Author.Name
	case len(entry.Authors) > 0 && entry.Authors[0] != nil:
		author = entry.Authors[0].Name
	case feed != nil:
		author = feed.Title
	}

	text := ExtractText(entry.Content)
	if text == "" {
		text = ExtractText(entry.Description)
	}
	if text == "" {
		text = ExtractText(entry.Title)
	}

	timestamp := entry.Published
	if entry.PublishedParsed != nil {
		timestamp = entry.PublishedParsed.UTC().Format(time.RFC3339)
	}

	return domain.Item{
		Identity:   domain.NewIdentity(id, author, text, timestamp),
		ID:         id,
		Text:       text,
		Author:     author,
		Handle:     entry.Link,
		Timestamp:  timestamp,
		Link:       entry.Link,
		ObservedAt: observedAt,
	}
}
