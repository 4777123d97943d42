// Package testutil holds fakes shared by package tests.
package testutil

import (
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/dkeye/TaskRoom/internal/core"
)

// FakeConn is an in-memory core.SignalConnection that records every frame.
type FakeConn struct {
	mu       sync.Mutex
	frames   []core.Frame
	closed   bool
	notReady bool
	full     bool
	capacity int
}

func NewFakeConn() *FakeConn { return &FakeConn{} }

func (c *FakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.notReady {
		return core.ErrConnClosed
	}
	if c.full || (c.capacity > 0 && len(c.frames) >= c.capacity) {
		return core.ErrBackpressure
	}
	c.frames = append(c.frames, append(core.Frame(nil), f...))
	return nil
}

func (c *FakeConn) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && !c.notReady
}

func (c *FakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// SetReady toggles readiness without closing, like a half-closed socket.
func (c *FakeConn) SetReady(ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notReady = !ready
}

// SetFull makes every send fail with backpressure.
func (c *FakeConn) SetFull(full bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.full = full
}

// SetCapacity bounds how many frames the conn holds before it reports
// backpressure, like a send buffer nobody drains. Zero means unbounded.
func (c *FakeConn) SetCapacity(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capacity = n
}

func (c *FakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Reset forgets recorded frames.
func (c *FakeConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

// Events decodes every recorded frame as a generic JSON object.
func (c *FakeConn) Events() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err == nil {
			out = append(out, m)
		}
	}
	return out
}

// Types lists the "type" tag of every recorded frame in order.
func (c *FakeConn) Types() []string {
	events := c.Events()
	out := make([]string, 0, len(events))
	for _, ev := range events {
		t, _ := ev["type"].(string)
		out = append(out, t)
	}
	return out
}

// OfType returns recorded events with the given type tag.
func (c *FakeConn) OfType(typ string) []map[string]any {
	var out []map[string]any
	for _, ev := range c.Events() {
		if ev["type"] == typ {
			out = append(out, ev)
		}
	}
	return out
}

// Last returns the newest event with the given type tag, or nil.
func (c *FakeConn) Last(typ string) map[string]any {
	evs := c.OfType(typ)
	if len(evs) == 0 {
		return nil
	}
	return evs[len(evs)-1]
}

// Clock is a settable clock for tests.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock { return &Clock{now: now} }

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
