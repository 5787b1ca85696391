package workflow

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/laxmi/internal/notify"
	"github.com/yanizio/laxmi/internal/record"
)

// fakeClock fires timers only when Advance is called.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	c       *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{c: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.c.mu.Lock()
	defer t.c.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

// gatedStore blocks every Append until release is closed.
type gatedStore struct {
	inner   *record.Memory
	entered chan struct{}
	release chan struct{}

	mu    sync.Mutex
	calls int
	ctxOK []bool
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		inner:   record.NewMemory(),
		entered: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (g *gatedStore) Append(ctx context.Context, path string, f record.Fields) (record.ID, error) {
	g.mu.Lock()
	g.calls++
	g.ctxOK = append(g.ctxOK, ctx.Err() == nil)
	g.mu.Unlock()
	g.entered <- struct{}{}
	<-g.release
	return g.inner.Append(ctx, path, f)
}

func (g *gatedStore) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// dispatchLog records deep links.
type dispatchLog struct {
	mu   sync.Mutex
	urls []string
}

func (d *dispatchLog) Dispatch(_ context.Context, url string) {
	d.mu.Lock()
	d.urls = append(d.urls, url)
	d.mu.Unlock()
}

func (d *dispatchLog) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

type harness struct {
	clock *fakeClock
	mem   *record.Memory
	disp  *dispatchLog
	deps  *Deps
}

func newHarness() *harness {
	clk := newFakeClock()
	mem := record.NewMemory()
	disp := &dispatchLog{}
	log := zap.NewNop().Sugar()
	return &harness{
		clock: clk,
		mem:   mem,
		disp:  disp,
		deps: &Deps{
			Records:  record.NewClient(mem, log, record.WithClock(clk.Now)),
			Notifier: notify.New("+91 96739 61161", disp),
			Clock:    clk,
			Log:      log,
		},
	}
}

func (h *harness) form(kind Kind) *Form {
	return NewForm(DefaultDefinitions()[kind], h.deps)
}
