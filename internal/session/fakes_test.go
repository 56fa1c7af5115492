package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/DoyleJ11/wordchain-client/internal/conn"
	"github.com/DoyleJ11/wordchain-client/internal/engine"
)

type fakeConn struct {
	events chan conn.Event

	mu       sync.Mutex
	gen      uint64
	open     bool
	targets  []conn.Target
	playerID string
	sent     []string
	closes   int
}

func newFakeConn() *fakeConn {
	return &fakeConn{events: make(chan conn.Event, 32)}
}

func (c *fakeConn) Events() <-chan conn.Event { return c.events }

func (c *fakeConn) IsCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen
}

func (c *fakeConn) Connect(t conn.Target) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.open = false
	c.targets = append(c.targets, t)
	c.playerID = t.PlayerID
	return nil
}

func (c *fakeConn) SetPlayerID(id string) {
	c.mu.Lock()
	c.playerID = id
	c.mu.Unlock()
}

func (c *fakeConn) Send(_ context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return conn.ErrNotOpen
	}
	c.sent = append(c.sent, string(data))
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.gen++
	c.open = false
	c.closes++
	c.mu.Unlock()
}

// opened marks the current attempt open and tells the session.
func (c *fakeConn) opened() {
	c.mu.Lock()
	c.open = true
	gen := c.gen
	c.mu.Unlock()
	c.events <- conn.Event{Kind: conn.EventOpened, Gen: gen}
}

func (c *fakeConn) message(data string) {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	c.events <- conn.Event{Kind: conn.EventMessage, Data: []byte(data), Gen: gen}
}

func (c *fakeConn) closed(code int, fatal bool) {
	c.mu.Lock()
	c.open = false
	gen := c.gen
	c.mu.Unlock()
	c.events <- conn.Event{Kind: conn.EventClosed, Code: code, Fatal: fatal, Gen: gen}
}

func (c *fakeConn) snapshot() (targets []conn.Target, sent []string, closes int, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]conn.Target(nil), c.targets...), append([]string(nil), c.sent...), c.closes, c.playerID
}

type fakeRooms struct {
	code string
	err  error
}

func (r fakeRooms) CreateRoom(context.Context, map[string]any) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return r.code, nil
}

var errServerDown = errors.New("server down")

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) conn.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// pending returns the durations of timers that have not fired or stopped.
func (c *fakeClock) pending() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []time.Duration
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t.d)
		}
	}
	return out
}

func (c *fakeClock) fire() {
	c.mu.Lock()
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

type recordingPublisher struct {
	mu    sync.Mutex
	views []engine.ViewModel
}

func (p *recordingPublisher) Publish(vm engine.ViewModel) {
	p.mu.Lock()
	p.views = append(p.views, vm)
	p.mu.Unlock()
}

func (p *recordingPublisher) last() (engine.ViewModel, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.views) == 0 {
		return engine.ViewModel{}, false
	}
	return p.views[len(p.views)-1], true
}
