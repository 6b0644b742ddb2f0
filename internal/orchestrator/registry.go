package orchestrator

import (
	"errors"
	"sync"
)

// ErrAlreadyActive is returned when a stream start races an existing
// run-state for the same debate id. Double starts are rejected rather
// than taking over the running loop.
var ErrAlreadyActive = errors.New("debate is already being driven")

// Registry maps debate ids to their run-states. It is the only shared
// mutable state between concurrently running debates and the control
// signal paths, and is safe for concurrent use. Entries are transient and
// vanish on process restart.
type Registry struct {
	mu   sync.Mutex
	runs map[string]*runState
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]*runState)}
}

// add inserts a fresh run-state for the debate, failing if one exists.
func (r *Registry) add(debateID string) (*runState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[debateID]; ok {
		return nil, ErrAlreadyActive
	}
	rs := newRunState()
	r.runs[debateID] = rs
	return rs, nil
}

// lookup returns the run-state for a debate, if it is active.
func (r *Registry) lookup(debateID string) (*runState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rs, ok := r.runs[debateID]
	return rs, ok
}

// remove deletes the debate's run-state. Safe to call when absent.
func (r *Registry) remove(debateID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runs, debateID)
}

// IsActive reports whether the debate is currently being driven.
func (r *Registry) IsActive(debateID string) bool {
	_, ok := r.lookup(debateID)
	return ok
}

// Len returns the number of active run-states.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}
