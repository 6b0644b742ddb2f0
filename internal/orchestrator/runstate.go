package orchestrator

import (
	"context"
	"sync"
	"time"
)

// pollInterval is the upper bound on control-signal latency while a loop
// is suspended in a gate. Control mutations additionally signal the
// run-state's notify channel, so the usual wake-up is immediate.
const pollInterval = 100 * time.Millisecond

// runState is the ephemeral coordination record for one actively driven
// debate. It exists from stream start until the loop exits, and is only
// reachable through the Registry.
type runState struct {
	mu             sync.Mutex
	paused         bool
	stopRequested  bool
	waitingForNext bool
	agentIndex     int
	turnCount      int
	startTime      time.Time

	// notify wakes any gate wait after a control mutation. Buffered so
	// signaling never blocks a request handler.
	notify chan struct{}
}

func newRunState() *runState {
	return &runState{
		startTime: time.Now(),
		notify:    make(chan struct{}, 1),
	}
}

// signal wakes a pending gate wait, if any.
func (r *runState) signal() {
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

func (r *runState) setPaused(v bool) {
	r.mu.Lock()
	r.paused = v
	r.mu.Unlock()
	r.signal()
}

func (r *runState) isPaused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

func (r *runState) requestStop() {
	r.mu.Lock()
	r.stopRequested = true
	r.paused = false
	r.waitingForNext = false
	r.mu.Unlock()
	r.signal()
}

func (r *runState) stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopRequested
}

func (r *runState) setWaitingForNext(v bool) {
	r.mu.Lock()
	r.waitingForNext = v
	r.mu.Unlock()
	r.signal()
}

func (r *runState) isWaitingForNext() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.waitingForNext
}

// await suspends until done returns true, the stop flag is set, or ctx is
// canceled. It wakes on control signals and at least every pollInterval.
// Returns false when the wait ended because of stop or cancellation.
func (r *runState) await(ctx context.Context, done func() bool) bool {
	for {
		if r.stopped() {
			return false
		}
		if done() {
			return true
		}
		select {
		case <-ctx.Done():
			r.requestStop()
			return false
		case <-r.notify:
		case <-time.After(pollInterval):
		}
	}
}

// sleep pauses for d but returns early (false) on stop or cancellation.
// Used for the per-fragment pacing delay.
func (r *runState) sleep(ctx context.Context, d time.Duration) bool {
	deadline := time.NewTimer(d)
	defer deadline.Stop()
	for {
		if r.stopped() {
			return false
		}
		select {
		case <-ctx.Done():
			r.requestStop()
			return false
		case <-deadline.C:
			return !r.stopped()
		case <-r.notify:
			// Re-check stop, keep waiting out the remaining delay.
		}
	}
}
