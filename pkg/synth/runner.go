package synth

import (
	"context"
	"sync"
	"time"
)

// Runner drives a tick function from a time.Ticker goroutine. It is the
// host-side stand-in for the hardware sample timer: Suspend stops the
// goroutine and waits for any in-flight tick to finish, Resume starts a
// fresh one at the new interval.
type Runner struct {
	tick func()

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner creates a suspended runner for the given tick function.
func NewRunner(tick func()) *Runner {
	return &Runner{tick: tick}
}

// Suspend stops ticking. It blocks until the ticking goroutine has
// exited, so no tick runs concurrently with whatever follows.
func (r *Runner) Suspend() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

// Resume starts ticking at the given interval, replacing any previous
// schedule.
func (r *Runner) Resume(interval time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()

	if interval <= 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.tick()
			}
		}
	}()
}

// Close stops the runner for good.
func (r *Runner) Close() {
	r.Suspend()
}

// Running reports whether the runner currently ticks.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

func (r *Runner) stopLocked() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
	r.done = nil
}
