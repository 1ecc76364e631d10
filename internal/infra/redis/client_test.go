package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/vietddude/feedwatch/internal/core/domain"
)

// These tests need a live Redis; set FEEDWATCH_TEST_REDIS_URL to run them.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	url := os.Getenv("FEEDWATCH_TEST_REDIS_URL")
	if url == "" {
		t.Skip("FEEDWATCH_TEST_REDIS_URL not set")
	}
	c, err := NewClient(Config{URL: url, Prefix: "feedwatch-test-" + time.Now().Format("150405.000")})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	t.Cleanup(func() {
		_ = c.ClearRatings(context.Background())
		_ = c.Close()
	})
	return c
}

func TestClient_Ratings(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	for id, rating := range map[string]int{"id:1": 5, "id:2": 2, "id:3": 4} {
		if err := c.SaveRating(ctx, domain.Identity(id), rating); err != nil {
			t.Fatalf("SaveRating failed: %v", err)
		}
	}
	if err := c.RemoveRating(ctx, "id:3"); err != nil {
		t.Fatalf("RemoveRating failed: %v", err)
	}

	entries, err := c.RatingsAtLeast(ctx, 4, 10)
	if err != nil {
		t.Fatalf("RatingsAtLeast failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Identity != "id:1" || entries[0].Rating != 5 {
		t.Errorf("unexpected entries %+v", entries)
	}
}

func TestClient_AcquireOnce(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	first, err := c.AcquireOnce(ctx, "intervention", time.Minute)
	if err != nil || !first {
		t.Fatalf("expected first acquire to succeed, got %v (%v)", first, err)
	}
	second, err := c.AcquireOnce(ctx, "intervention", time.Minute)
	if err != nil || second {
		t.Errorf("expected second acquire to fail, got %v (%v)", second, err)
	}
	_ = c.rdb.Del(ctx, c.onceKey("intervention")).Err()
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()
	if cfg.Prefix != "feedwatch" || cfg.SnapshotTTL != 24*time.Hour {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Enabled() {
		t.Error("expected disabled without url")
	}
}
