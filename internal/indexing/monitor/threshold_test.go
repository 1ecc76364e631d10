package monitor

import (
	"context"
	"sync"
	"testing"

	"github.com/vietddude/feedwatch/internal/core/domain"
	"github.com/vietddude/feedwatch/internal/indexing/cache"
)

type countingIntervention struct {
	mu    sync.Mutex
	calls int
	last  domain.Stats
}

func (c *countingIntervention) Open(ctx context.Context, stats domain.Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.last = stats
}

func TestMonitor_FiresOnlyAfterCountExceedsBound(t *testing.T) {
	c := cache.NewPriority(0, nil)
	iv := &countingIntervention{}
	m := New(c, StaticBounds{NumberBound: 2, ScoreBound: 3.0}, iv)
	ctx := context.Background()

	c.Insert("a", 4)
	m.MaybeTrigger(ctx)
	c.Insert("b", 5)
	if m.MaybeTrigger(ctx) {
		t.Fatal("count=2 is not > 2, monitor must not fire")
	}

	c.Insert("c", 4)
	if !m.MaybeTrigger(ctx) {
		t.Fatal("count=3 and avg=4.33 should fire")
	}
	if iv.calls != 1 {
		t.Errorf("expected one intervention, got %d", iv.calls)
	}
	if iv.last.Count != 3 {
		t.Errorf("expected stats count 3, got %d", iv.last.Count)
	}

	c.Insert("d", 5)
	if m.MaybeTrigger(ctx) {
		t.Error("monitor must not fire twice")
	}
	if iv.calls != 1 {
		t.Errorf("expected intervention exactly once, got %d", iv.calls)
	}
}

func TestMonitor_AverageMustExceedScoreBound(t *testing.T) {
	c := cache.NewPriority(0, nil)
	iv := &countingIntervention{}
	m := New(c, StaticBounds{NumberBound: 1, ScoreBound: 3.0}, iv)

	c.Insert("a", 3)
	c.Insert("b", 3)
	if m.MaybeTrigger(context.Background()) {
		t.Error("avg=3.0 is not > 3.0, monitor must not fire")
	}
	if m.Fired() {
		t.Error("flag must stay unset")
	}
}

func TestMonitor_CrossingTwiceFiresOnce(t *testing.T) {
	c := cache.NewPriority(0, nil)
	iv := &countingIntervention{}
	m := New(c, nil, iv)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		c.Insert(domain.Identity(string(rune('A'+i%26))+string(rune('a'+i/26))), 5)
		m.MaybeTrigger(ctx)
	}
	for i := 0; i < 100; i++ {
		c.Insert(domain.Identity("z"+string(rune('a'+i%26))+string(rune('a'+i/26))), 4)
		m.MaybeTrigger(ctx)
	}
	if iv.calls != 1 {
		t.Errorf("expected exactly one intervention, got %d", iv.calls)
	}
}

type mutableBounds struct {
	mu sync.Mutex
	n  int
	s  float64
}

func (b *mutableBounds) Thresholds() (int, float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.n, b.s
}

func TestMonitor_ReadsBoundsOnEveryCheck(t *testing.T) {
	c := cache.NewPriority(0, nil)
	iv := &countingIntervention{}
	b := &mutableBounds{n: 10, s: 4.5}
	m := New(c, b, iv)

	c.Insert("a", 5)
	c.Insert("b", 5)
	if m.MaybeTrigger(context.Background()) {
		t.Fatal("should not fire with high bounds")
	}

	b.mu.Lock()
	b.n, b.s = 1, 4.0
	b.mu.Unlock()
	if !m.MaybeTrigger(context.Background()) {
		t.Error("should fire after bounds are lowered")
	}
}
