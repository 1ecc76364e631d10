package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/feedwatch/internal/core/domain"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Example</title>
  <item>
    <guid>post-1</guid>
    <title>First</title>
    <link>https://example.com/1</link>
    <description><![CDATA[<p>Hello <b>world</b></p><script>alert(1)</script>]]></description>
    <author>alice@example.com (Alice)</author>
    <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
  </item>
  <item>
    <title>Second</title>
    <link>https://example.com/2</link>
    <description>Plain   text  body</description>
  </item>
</channel>
</rss>`

func TestFeedPoller_PollOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssFixture))
	}))
	defer srv.Close()

	p := NewFeedPoller(FeedConfig{Feeds: []string{srv.URL}}, nil)

	var items []domain.Item
	n, err := p.PollOnce(context.Background(), srv.URL, func(item domain.Item) {
		items = append(items, item)
	})
	if err != nil {
		t.Fatalf("PollOnce failed: %v", err)
	}
	if n != 2 || len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.Identity != "id:post-1" {
		t.Errorf("unexpected identity %q", first.Identity)
	}
	if first.Text != "Hello world" {
		t.Errorf("unexpected text %q", first.Text)
	}
	if first.Handle != "https://example.com/1" {
		t.Errorf("unexpected handle %q", first.Handle)
	}

	second := items[1]
	if second.Identity != "id:https://example.com/2" {
		t.Errorf("expected link fallback identity, got %q", second.Identity)
	}
	if second.Text != "Plain text body" {
		t.Errorf("unexpected text %q", second.Text)
	}
}

func TestFeedPoller_RunUntilCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rssFixture))
	}))
	defer srv.Close()

	p := NewFeedPoller(FeedConfig{Feeds: []string{srv.URL}}, func() time.Duration { return 5 * time.Millisecond })
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	count := 0
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, func(domain.Item) {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}()

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		c := count
		mu.Unlock()
		if c >= 4 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected repeated polls, got %d items", c)
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned error: %v", err)
	}
}

func TestLiveWindow(t *testing.T) {
	w, err := NewLiveWindow(2)
	if err != nil {
		t.Fatalf("NewLiveWindow failed: %v", err)
	}

	w.Track(domain.Item{Identity: "id:1", Handle: "h1"})
	w.Track(domain.Item{Identity: "id:2", Link: "https://example.com/2"})

	if h, err := w.Resolve("id:1"); err != nil || h != "h1" {
		t.Errorf("expected h1, got %q (%v)", h, err)
	}

	// id:2 is now the least recently used and scrolls out.
	w.Track(domain.Item{Identity: "id:3", ID: "3"})
	if _, err := w.Resolve("id:2"); !errors.Is(err, ErrUnresolvable) {
		t.Errorf("expected ErrUnresolvable, got %v", err)
	}
	if h, _ := w.Resolve("id:3"); h != "3" {
		t.Errorf("expected handle 3, got %q", h)
	}
	if w.Len() != 2 {
		t.Errorf("expected 2 live items, got %d", w.Len())
	}
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  plain  text ", "plain text"},
		{"<div>a <i>b</i></div><style>x{}</style>", "a b"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
	}
	for _, tt := range tests {
		if got := ExtractText(tt.in); got != tt.want {
			t.Errorf("ExtractText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatic_AssignsIdentity(t *testing.T) {
	s := NewStatic(domain.Item{Author: "bob", Text: "Hi there"})
	ctx, cancel := context.WithCancel(context.Background())

	var got []domain.Item
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_ = s.Run(ctx, func(item domain.Item) { got = append(got, item) })

	if len(got) != 1 || got[0].Identity != "fb:bob|hi there|" {
		t.Errorf("unexpected items %+v", got)
	}
}
