package provider

import (
	"context"
	"io"
	"sync"
	"time"
)

// Scripted is a deterministic Provider for tests and dry runs. Each call
// to StreamCompletion replays the configured fragments; an optional error
// terminates the stream after ErrAfter fragments.
type Scripted struct {
	// Fragments is the sequence every completion yields.
	Fragments []string

	// Delay, when set, is slept before each fragment to simulate a slow
	// upstream.
	Delay time.Duration

	// Err, when set, terminates the stream after ErrAfter fragments.
	Err      error
	ErrAfter int

	mu    sync.Mutex
	calls []Context
}

func (s *Scripted) Name() string { return "scripted" }

// Calls returns the contexts of all completions requested so far.
func (s *Scripted) Calls() []Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Context, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *Scripted) StreamCompletion(ctx context.Context, _ string, pctx Context) (Stream, error) {
	s.mu.Lock()
	s.calls = append(s.calls, pctx)
	s.mu.Unlock()

	return &scriptedStream{provider: s, ctx: ctx}, nil
}

type scriptedStream struct {
	provider *Scripted
	ctx      context.Context
	pos      int
	closed   bool
}

func (st *scriptedStream) Recv() (string, error) {
	if st.closed {
		return "", io.EOF
	}
	p := st.provider
	if p.Err != nil && st.pos >= p.ErrAfter {
		return "", p.Err
	}
	if st.pos >= len(p.Fragments) {
		return "", io.EOF
	}
	if p.Delay > 0 {
		select {
		case <-time.After(p.Delay):
		case <-st.ctx.Done():
			return "", st.ctx.Err()
		}
	}
	frag := p.Fragments[st.pos]
	st.pos++
	return frag, nil
}

func (st *scriptedStream) Close() error {
	st.closed = true
	return nil
}

var _ Provider = (*Scripted)(nil)
