package clock

import (
	"context"
	"sync"
	"time"
)

// Clock is the time source used by every component that waits. Its After
// method makes it usable as a retry-go Timer.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Sleep blocks for d on the given clock, returning early with the context error
// if ctx is done first.
func Sleep(ctx context.Context, c Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	select {
	case <-c.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fake is a manually driven clock. After advances the clock by the requested
// duration and fires immediately, recording every wait.
type Fake struct {
	mu    sync.Mutex
	now   time.Time
	waits []time.Duration
}

func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.waits = append(f.waits, d)
	if d > 0 {
		f.now = f.now.Add(d)
	}

	ch := make(chan time.Time, 1)
	ch <- f.now
	return ch
}

func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Waits returns a copy of all durations passed to After so far.
func (f *Fake) Waits() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()

	waits := make([]time.Duration, len(f.waits))
	copy(waits, f.waits)
	return waits
}

func (f *Fake) ResetWaits() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waits = nil
}
