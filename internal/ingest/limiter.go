package ingest

// limiter.go bounds how many files are parsed and validated at once.
//
// Large files are CPU-bound for the duration of a run; without a cap a burst
// of uploads can saturate the host. The limiter is a semaphore with a wait
// timeout: when every slot is occupied, callers wait up to maxWait before
// receiving ErrTooManyIngestions.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyIngestions is returned when no slot frees up within the wait
// window. Clients should retry after a short delay.
var ErrTooManyIngestions = errors.New("too many concurrent ingestions, please try again later")

// DefaultMaxConcurrentIngestions is the default parallel-run limit.
const DefaultMaxConcurrentIngestions = 4

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// Limiter controls concurrent pipeline runs.
type Limiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewLimiter creates a limiter allowing at most maxConcurrent simultaneous
// runs, with requests waiting up to maxWait for a slot.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentIngestions
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &Limiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire blocks until a slot is free, the wait window expires, or ctx is
// cancelled. The caller must Release exactly once per successful Acquire.
func (l *Limiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyIngestions
	}
}

// Release frees a previously acquired slot.
func (l *Limiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.semaphore
}

// ActiveCount returns the number of runs currently holding a slot.
func (l *Limiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// Available returns the number of free slots.
func (l *Limiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}
