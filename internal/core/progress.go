package core

import (
	"sync"
	"time"
)

// ProgressFunc observes chunk progress. It is called synchronously from the
// inserting goroutine and must return promptly.
type ProgressFunc func(ProgressSnapshot)

// ThrottleProgress forwards a snapshot to next only when more than interval
// has passed since the last forwarded one. The snapshot that completes the
// import is always forwarded.
func ThrottleProgress(interval time.Duration, next ProgressFunc) ProgressFunc {
	return newThrottle(interval, time.Now, next)
}

func newThrottle(interval time.Duration, now func() time.Time, next ProgressFunc) ProgressFunc {
	var (
		mu   sync.Mutex
		last = now()
	)
	return func(p ProgressSnapshot) {
		mu.Lock()
		t := now()
		final := p.Total > 0 && p.Processed >= p.Total
		if !final && t.Sub(last) <= interval {
			mu.Unlock()
			return
		}
		last = t
		mu.Unlock()

		next(p)
	}
}

// ChannelProgress publishes snapshots to ch without blocking. When the
// consumer falls behind, snapshots are dropped rather than stalling chunks.
func ChannelProgress(ch chan<- ProgressSnapshot) ProgressFunc {
	return func(p ProgressSnapshot) {
		select {
		case ch <- p:
		default:
		}
	}
}

// MultiProgress fans a snapshot out to every non-nil observer in order.
func MultiProgress(fns ...ProgressFunc) ProgressFunc {
	return func(p ProgressSnapshot) {
		for _, fn := range fns {
			if fn != nil {
				fn(p)
			}
		}
	}
}
