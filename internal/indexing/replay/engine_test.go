package replay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vietddude/feedwatch/internal/core/domain"
	"github.com/vietddude/feedwatch/internal/indexing/filter"
	"github.com/vietddude/feedwatch/internal/infra/automation"
)

type mapResolver map[domain.Identity]string

func (m mapResolver) Resolve(id domain.Identity) (string, error) {
	h, ok := m[id]
	if !ok {
		return "", errors.New("not on page")
	}
	return h, nil
}

// fakeDriver shows a menu after menuAfter polls for each opened handle.
type fakeDriver struct {
	mu           sync.Mutex
	noAffordance map[string]bool
	openErr      map[string]error
	menus        map[string][]automation.MenuEntry
	menuAfter    int
	onClick      func()

	current string
	polls   int
	opened  []string
	clicked []string
}

func (d *fakeDriver) OpenActions(ctx context.Context, handle string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = append(d.opened, handle)
	if d.noAffordance[handle] {
		return automation.ErrNoAffordance
	}
	if err := d.openErr[handle]; err != nil {
		return err
	}
	d.current = handle
	d.polls = 0
	return nil
}

func (d *fakeDriver) MenuEntries(ctx context.Context) ([]automation.MenuEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.polls++
	if d.polls <= d.menuAfter {
		return nil, automation.ErrNoMenu
	}
	return d.menus[d.current], nil
}

func (d *fakeDriver) Click(ctx context.Context, entry automation.MenuEntry) error {
	d.mu.Lock()
	d.clicked = append(d.clicked, d.current+"/"+entry.ID)
	onClick := d.onClick
	d.mu.Unlock()
	if onClick != nil {
		onClick()
	}
	return nil
}

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

var menu = []automation.MenuEntry{
	{ID: "copy", Label: "Copy link"},
	{ID: "ni", Label: "Not Interested in this post"},
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PollInterval = time.Millisecond
	return cfg
}

func TestEngine_ProcessesInOrderWithPerTargetFailures(t *testing.T) {
	resolver := mapResolver{"id:1": "h1", "id:3": "h3", "id:4": "h4"}
	driver := &fakeDriver{
		noAffordance: map[string]bool{"h3": true},
		menus:        map[string][]automation.MenuEntry{"h1": menu, "h4": {{ID: "sf", Label: "Show fewer posts like this"}}},
	}
	rec := &sleepRecorder{}

	var mu sync.Mutex
	var observed []domain.Identity
	e := New(testConfig(), resolver, driver,
		WithSleep(rec.sleep),
		WithPause(func() time.Duration { return 100 * time.Millisecond }),
		WithOutcomeHook(func(_ context.Context, o domain.Outcome) {
			mu.Lock()
			observed = append(observed, o.Identity)
			mu.Unlock()
		}),
	)

	targets := []domain.Target{{Identity: "id:1"}, {Identity: "id:2"}, {Identity: "id:3"}, {Identity: "id:4"}}
	outcomes := e.Run(context.Background(), targets)

	type result struct {
		Identity domain.Identity
		Index    int
		Success  bool
		Reason   domain.FailureReason
	}
	var got []result
	for _, o := range outcomes {
		got = append(got, result{o.Identity, o.Index, o.Success, o.Reason})
	}
	want := []result{
		{"id:1", 0, true, domain.ReasonNone},
		{"id:2", 1, false, domain.ReasonUnresolvable},
		{"id:3", 2, false, domain.ReasonNoAffordance},
		{"id:4", 3, true, domain.ReasonNone},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("outcomes mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"h1/ni", "h4/sf"}, driver.clicked); diff != "" {
		t.Errorf("clicks mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]domain.Identity{"id:1", "id:2", "id:3", "id:4"}, observed); diff != "" {
		t.Errorf("hook order mismatch (-want +got):\n%s", diff)
	}

	batch := outcomes[0].BatchID
	for _, o := range outcomes {
		if o.BatchID == "" || o.BatchID != batch {
			t.Errorf("expected shared batch id, got %q", o.BatchID)
		}
	}

	for _, id := range []domain.Identity{"id:1", "id:3", "id:4"} {
		if !e.Processed(id) {
			t.Errorf("expected %s to be marked processed", id)
		}
	}
	if e.Processed("id:2") {
		t.Errorf("unresolvable target must not be marked processed")
	}

	// id:1 and id:4: initial delay + pause; id:3: pause only.
	wantWaits := []time.Duration{
		25 * time.Millisecond, 100 * time.Millisecond,
		100 * time.Millisecond,
		25 * time.Millisecond, 100 * time.Millisecond,
	}
	if diff := cmp.Diff(wantWaits, rec.waits); diff != "" {
		t.Errorf("waits mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_AlreadyActionedIsSkipped(t *testing.T) {
	resolver := mapResolver{"id:1": "h1"}
	driver := &fakeDriver{menus: map[string][]automation.MenuEntry{"h1": menu}}
	rec := &sleepRecorder{}
	e := New(testConfig(), resolver, driver, WithSleep(rec.sleep))

	first := e.Run(context.Background(), []domain.Target{{Identity: "id:1"}})
	second := e.Run(context.Background(), []domain.Target{{Identity: "id:1"}})

	if !first[0].Success {
		t.Fatalf("expected first run to succeed, got %+v", first[0])
	}
	if second[0].Success || second[0].Reason != domain.ReasonAlreadyActioned {
		t.Errorf("expected already_actioned, got %+v", second[0])
	}
	if len(driver.opened) != 1 {
		t.Errorf("expected a single OpenActions call, got %d", len(driver.opened))
	}
}

func TestEngine_MenuPolling(t *testing.T) {
	tests := []struct {
		name      string
		menuAfter int
		wantOK    bool
		wantPolls int
	}{
		{name: "immediate", menuAfter: 0, wantOK: true, wantPolls: 1},
		{name: "last attempt", menuAfter: 7, wantOK: true, wantPolls: 8},
		{name: "never appears", menuAfter: 100, wantOK: false, wantPolls: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver := &fakeDriver{menuAfter: tt.menuAfter, menus: map[string][]automation.MenuEntry{"h1": menu}}
			rec := &sleepRecorder{}
			e := New(testConfig(), mapResolver{"id:1": "h1"}, driver, WithSleep(rec.sleep))

			out := e.Run(context.Background(), []domain.Target{{Identity: "id:1"}})[0]
			if out.Success != tt.wantOK {
				t.Fatalf("expected success=%v, got %+v", tt.wantOK, out)
			}
			if !tt.wantOK && out.Reason != domain.ReasonMenuTimeout {
				t.Errorf("expected menu_timeout, got %s", out.Reason)
			}
			if driver.polls != tt.wantPolls {
				t.Errorf("expected %d polls, got %d", tt.wantPolls, driver.polls)
			}
			if !e.Processed("id:1") {
				t.Errorf("expected target marked processed")
			}
		})
	}
}

func TestEngine_NoMatchingEntryTimesOut(t *testing.T) {
	driver := &fakeDriver{menus: map[string][]automation.MenuEntry{"h1": {{ID: "x", Label: "Mute"}}}}
	rec := &sleepRecorder{}
	e := New(testConfig(), mapResolver{"id:1": "h1"}, driver, WithSleep(rec.sleep))

	out := e.Run(context.Background(), []domain.Target{{Identity: "id:1"}})[0]
	if out.Reason != domain.ReasonMenuTimeout {
		t.Errorf("expected menu_timeout, got %+v", out)
	}
	if len(driver.clicked) != 0 {
		t.Errorf("expected no clicks, got %v", driver.clicked)
	}
}

func TestEngine_DriverError(t *testing.T) {
	driver := &fakeDriver{openErr: map[string]error{"h1": errors.New("bridge down")}, menus: map[string][]automation.MenuEntry{"h2": menu}}
	rec := &sleepRecorder{}
	e := New(testConfig(), mapResolver{"id:1": "h1", "id:2": "h2"}, driver, WithSleep(rec.sleep))

	outs := e.Run(context.Background(), []domain.Target{{Identity: "id:1"}, {Identity: "id:2"}})
	if outs[0].Reason != domain.ReasonDriverError || outs[0].Error == "" {
		t.Errorf("expected driver_error with message, got %+v", outs[0])
	}
	if !outs[1].Success {
		t.Errorf("expected batch to continue after driver error, got %+v", outs[1])
	}
}

func TestEngine_DefaultPauseWithinBounds(t *testing.T) {
	e := New(Config{}, mapResolver{}, &fakeDriver{})
	for i := 0; i < 200; i++ {
		p := e.pause()
		if p < 50*time.Millisecond || p > 150*time.Millisecond {
			t.Fatalf("pause %s out of [50ms,150ms]", p)
		}
	}
}

func TestEngine_RunAsync(t *testing.T) {
	driver := &fakeDriver{menus: map[string][]automation.MenuEntry{"h1": menu}}
	rec := &sleepRecorder{}

	var mu sync.Mutex
	var got []domain.Outcome
	e := New(testConfig(), mapResolver{"id:1": "h1"}, driver,
		WithSleep(rec.sleep),
		WithOutcomeHook(func(_ context.Context, o domain.Outcome) {
			mu.Lock()
			got = append(got, o)
			mu.Unlock()
		}),
	)

	e.RunAsync(context.Background(), []domain.Target{{Identity: "id:1"}})
	e.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || !got[0].Success {
		t.Errorf("expected one successful outcome, got %+v", got)
	}
}

func TestEngine_CancelledContextDoesNotStopBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	menus := map[string][]automation.MenuEntry{"h1": menu, "h2": menu, "h3": menu}
	driver := &fakeDriver{menus: menus, onClick: cancel}
	rec := &sleepRecorder{}
	e := New(testConfig(), mapResolver{"id:1": "h1", "id:2": "h2", "id:3": "h3"}, driver, WithSleep(rec.sleep))

	outs := e.Run(ctx, []domain.Target{{Identity: "id:1"}, {Identity: "id:2"}, {Identity: "id:3"}})
	for _, o := range outs {
		if !o.Success {
			t.Errorf("expected %s to succeed after cancellation, got %+v", o.Identity, o)
		}
	}
	if diff := cmp.Diff([]string{"h1", "h2", "h3"}, driver.opened); diff != "" {
		t.Errorf("opened handles mismatch (-want +got):\n%s", diff)
	}
}

func TestEngine_SharedProcessedSet(t *testing.T) {
	processed := filter.NewMemoryFilter()
	processed.Add("id:2")
	driver := &fakeDriver{menus: map[string][]automation.MenuEntry{"h1": menu, "h2": menu}}
	rec := &sleepRecorder{}
	e := New(testConfig(), mapResolver{"id:1": "h1", "id:2": "h2"}, driver,
		WithSleep(rec.sleep),
		WithProcessed(processed),
	)

	outs := e.Run(context.Background(), []domain.Target{{Identity: "id:1"}, {Identity: "id:2"}})
	if !outs[0].Success {
		t.Errorf("expected id:1 to succeed, got %+v", outs[0])
	}
	if outs[1].Reason != domain.ReasonAlreadyActioned {
		t.Errorf("expected id:2 already actioned, got %+v", outs[1])
	}
	if !processed.Contains("id:1") {
		t.Error("expected the shared set to record id:1")
	}
}

func TestMatchEntry(t *testing.T) {
	phrases := DefaultConfig().Phrases
	if _, ok := MatchEntry([]automation.MenuEntry{{Label: "SHOW FEWER like this"}}, phrases); !ok {
		t.Errorf("expected case-insensitive match")
	}
	if _, ok := MatchEntry([]automation.MenuEntry{{Label: "Block"}}, phrases); ok {
		t.Errorf("unexpected match")
	}
}
