// Package clock supplies the current time, in milliseconds since the Unix epoch,
// to components that need to judge request freshness.
package clock

import (
	"sync"
	"time"
)

// Clock produces the current instant on demand. Reading it has no side effects.
type Clock interface {
	NowMillis() int64
}

// Wall reads the system clock.
type Wall struct{}

// NowMillis returns the system time in milliseconds.
func (Wall) NowMillis() int64 {
	return time.Now().UnixMilli()
}

// Func adapts a plain function to the Clock interface.
type Func func() int64

// NowMillis calls f.
func (f Func) NowMillis() int64 {
	return f()
}

// Reference is a controllable clock for tests. Its instant only moves when
// Set or Advance is called. It is safe for concurrent use.
type Reference struct {
	mu  sync.RWMutex
	now int64
}

// NewReference creates a reference clock reading ms.
func NewReference(ms int64) *Reference {
	return &Reference{now: ms}
}

// NowMillis returns the current reference instant.
func (r *Reference) NowMillis() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.now
}

// Set moves the clock to ms.
func (r *Reference) Set(ms int64) {
	r.mu.Lock()
	r.now = ms
	r.mu.Unlock()
}

// Advance moves the clock by deltaMs, which may be negative.
func (r *Reference) Advance(deltaMs int64) {
	r.mu.Lock()
	r.now += deltaMs
	r.mu.Unlock()
}
