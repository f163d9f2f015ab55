package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/lysyi3m/anime-comb/app/clock"
)

const (
	DefaultCapacity       = 10
	DefaultRefillInterval = time.Second
)

var ErrWaitExceeded = errors.New("rate limit wait exceeded")

// Limiter is a token bucket shared by every outbound call to the secondary
// source. It is safe for concurrent use.
type Limiter struct {
	limiter        *rate.Limiter
	clock          clock.Clock
	capacity       int
	refillInterval time.Duration
	maxWait        time.Duration
}

// NewLimiter creates a full bucket of capacity tokens that regains one token
// per refillInterval. A positive maxWait bounds how long Wait may block.
func NewLimiter(capacity int, refillInterval, maxWait time.Duration, c clock.Clock) *Limiter {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if refillInterval <= 0 {
		refillInterval = DefaultRefillInterval
	}
	if c == nil {
		c = clock.Real{}
	}

	l := &Limiter{
		limiter:        rate.NewLimiter(rate.Every(refillInterval), capacity),
		clock:          c,
		capacity:       capacity,
		refillInterval: refillInterval,
		maxWait:        maxWait,
	}
	// Pin the bucket's reference time to the injected clock.
	l.limiter.SetLimitAt(c.Now(), rate.Every(refillInterval))
	return l
}

func (l *Limiter) TryAcquire() bool {
	return l.limiter.AllowN(l.clock.Now(), 1)
}

// Wait suspends until a token is granted. Without a max wait it never gives
// up on its own; only ctx can stop it.
func (l *Limiter) Wait(ctx context.Context) error {
	var waited time.Duration

	for {
		if l.TryAcquire() {
			return nil
		}

		delay := l.nextTokenIn()
		if l.maxWait > 0 && waited+delay > l.maxWait {
			return fmt.Errorf("%w after %s", ErrWaitExceeded, waited)
		}

		if err := clock.Sleep(ctx, l.clock, delay); err != nil {
			return err
		}
		waited += delay
	}
}

func (l *Limiter) Tokens() float64 {
	return l.limiter.TokensAt(l.clock.Now())
}

func (l *Limiter) Capacity() int {
	return l.capacity
}

func (l *Limiter) RefillInterval() time.Duration {
	return l.refillInterval
}

func (l *Limiter) nextTokenIn() time.Duration {
	missing := 1 - l.limiter.TokensAt(l.clock.Now())
	if missing <= 0 {
		return time.Millisecond
	}

	delay := time.Duration(missing * float64(l.refillInterval))
	if delay < time.Millisecond {
		delay = time.Millisecond
	}
	return delay
}
