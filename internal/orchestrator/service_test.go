package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/debated/internal/debate"
	"github.com/fyrsmithlabs/debated/internal/provider"
	"github.com/fyrsmithlabs/debated/internal/store"
)

// eventRecorder is a threadsafe EventSink for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []debate.Event
}

func (r *eventRecorder) sink(ev debate.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) snapshot() []debate.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]debate.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *eventRecorder) count(typ debate.EventType) int {
	n := 0
	for _, ev := range r.snapshot() {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func (r *eventRecorder) types() []debate.EventType {
	evs := r.snapshot()
	out := make([]debate.EventType, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	store    *store.MemoryStore
	provider *provider.Scripted
	registry *Registry
	svc      Service
}

func newFixture(t *testing.T, prov *provider.Scripted) *fixture {
	t.Helper()
	st := store.NewMemoryStore()
	reg := NewRegistry()
	svc, err := NewService(reg, st, prov, zap.NewNop())
	require.NoError(t, err)
	return &fixture{store: st, provider: prov, registry: reg, svc: svc}
}

func (f *fixture) createDebate(t *testing.T, mutate func(*debate.CreateParams)) *debate.Debate {
	t.Helper()
	zero := 0.0
	p := debate.CreateParams{
		Standpoints: []string{"Knowledge requires certainty", "Knowledge is fallible"},
		// Stream at full speed so the loop tests finish quickly.
		ResponseDelaySeconds: &zero,
	}
	if mutate != nil {
		mutate(&p)
	}
	p.ApplyDefaults()
	require.NoError(t, p.Validate())
	d, err := f.store.CreateDebate(context.Background(), p)
	require.NoError(t, err)
	return d
}

// start runs StartDebate in the background and returns a wait func.
func (f *fixture) start(ctx context.Context, debateID string, rec *eventRecorder) func() error {
	done := make(chan error, 1)
	go func() {
		done <- f.svc.StartDebate(ctx, debateID, rec.sink)
	}()
	return func() error {
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			return errors.New("debate loop did not finish in time")
		}
	}
}

func TestNewService_Validation(t *testing.T) {
	st := store.NewMemoryStore()
	prov := &provider.Scripted{}
	reg := NewRegistry()

	_, err := NewService(nil, st, prov, nil)
	assert.ErrorContains(t, err, "registry is required")
	_, err = NewService(reg, nil, prov, nil)
	assert.ErrorContains(t, err, "store is required")
	_, err = NewService(reg, st, nil, nil)
	assert.ErrorContains(t, err, "provider is required")
	_, err = NewService(reg, st, prov, nil)
	assert.NoError(t, err)
}

func TestStartDebate_NotFound(t *testing.T) {
	f := newFixture(t, &provider.Scripted{})
	rec := &eventRecorder{}
	err := f.svc.StartDebate(context.Background(), "missing", rec.sink)
	assert.ErrorIs(t, err, store.ErrDebateNotFound)
	require.Len(t, rec.snapshot(), 1)
	assert.Equal(t, debate.EventError, rec.snapshot()[0].Type)
}

// Scenario A: maxTurns=2 yields exactly two turns, strictly ordered, then
// a single max-turns debate-end, and never a third turn.
func TestRunToMaxTurns(t *testing.T) {
	f := newFixture(t, &provider.Scripted{Fragments: []string{"I ", "argue ", "thus."}})
	d := f.createDebate(t, func(p *debate.CreateParams) { p.MaxTurns = 2 })

	rec := &eventRecorder{}
	wait := f.start(context.Background(), d.ID, rec)
	require.NoError(t, wait())

	want := []debate.EventType{
		debate.EventToken, debate.EventToken, debate.EventToken, debate.EventTurnEnd,
		debate.EventToken, debate.EventToken, debate.EventToken, debate.EventTurnEnd,
		debate.EventDebateEnd,
	}
	assert.Equal(t, want, rec.types())

	evs := rec.snapshot()
	assert.Equal(t, debate.EndReasonMaxTurns, evs[len(evs)-1].Reason)

	// Turn 1 is agent 0, turn 2 is agent 1.
	assert.Equal(t, 0, *evs[0].AgentIndex)
	assert.Equal(t, 0, *evs[3].AgentIndex)
	assert.Equal(t, 1, *evs[4].AgentIndex)
	assert.Equal(t, 1, *evs[7].AgentIndex)

	got, err := f.store.FindDebate(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, debate.StatusCompleted, got.Status)
	assert.Equal(t, debate.EndReasonMaxTurns, got.EndReason)
	assert.Equal(t, 2, got.TurnCount)
	require.NotNil(t, got.StartedAt)
	require.NotNil(t, got.EndedAt)

	msgs, err := f.store.ListMessages(context.Background(), d.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "I argue thus.", msgs[0].Content)
	assert.Equal(t, 0, msgs[0].AgentIndex)
	assert.Equal(t, 1, msgs[1].AgentIndex)

	assert.False(t, f.registry.IsActive(d.ID))
}

// Scenario B: an expired time budget terminates with reason timeout at the
// next iteration boundary; messages from completed turns survive and no
// partial message appears.
func TestRunTimeout(t *testing.T) {
	f := newFixture(t, &provider.Scripted{Fragments: []string{"never sent"}})
	d := f.createDebate(t, nil)

	prior, err := f.store.AppendMessage(context.Background(), d.ID, 0, "from an earlier turn")
	require.NoError(t, err)

	rs := newRunState()
	rs.startTime = time.Now().Add(-time.Duration(d.TimeLimitMinutes+1) * time.Minute)

	svc := f.svc.(*service)
	rec := &eventRecorder{}
	require.NoError(t, svc.runLoop(context.Background(), d, rs, rec.sink))

	require.Len(t, rec.snapshot(), 1)
	assert.Equal(t, debate.EventDebateEnd, rec.snapshot()[0].Type)
	assert.Equal(t, debate.EndReasonTimeout, rec.snapshot()[0].Reason)

	got, err := f.store.FindDebate(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, debate.StatusCompleted, got.Status)
	assert.Equal(t, debate.EndReasonTimeout, got.EndReason)

	msgs, err := f.store.ListMessages(context.Background(), d.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, prior.ID, msgs[0].ID)
}

// Scenario C: stop mid-stream abandons the turn: no turn-end, no persisted
// message, a manual debate-end, and prompt run-state removal.
func TestStopMidStream(t *testing.T) {
	prov := &provider.Scripted{
		Fragments: manyFragments(200),
		Delay:     10 * time.Millisecond,
	}
	f := newFixture(t, prov)
	d := f.createDebate(t, nil)

	rec := &eventRecorder{}
	wait := f.start(context.Background(), d.ID, rec)

	require.Eventually(t, func() bool {
		return rec.count(debate.EventToken) >= 2
	}, 2*time.Second, 5*time.Millisecond)

	assert.True(t, f.svc.Stop(d.ID))
	require.NoError(t, wait())

	evs := rec.snapshot()
	assert.Equal(t, 0, rec.count(debate.EventTurnEnd))
	assert.Equal(t, debate.EventDebateEnd, evs[len(evs)-1].Type)
	assert.Equal(t, debate.EndReasonManual, evs[len(evs)-1].Reason)

	msgs, err := f.store.ListMessages(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	assert.False(t, f.registry.IsActive(d.ID))
}

// Scenario D: step-by-step mode holds before every turn after the first
// until TriggerNext releases it.
func TestStepByStep(t *testing.T) {
	f := newFixture(t, &provider.Scripted{Fragments: []string{"point"}})
	d := f.createDebate(t, func(p *debate.CreateParams) {
		p.StepByStepMode = true
		p.MaxTurns = 2
	})

	rec := &eventRecorder{}
	wait := f.start(context.Background(), d.ID, rec)

	require.Eventually(t, func() bool {
		return rec.count(debate.EventWaitingForNext) == 1
	}, 2*time.Second, 5*time.Millisecond)

	// Turn 1 completed, loop now holds before turn 2.
	types := rec.types()
	require.Equal(t, []debate.EventType{debate.EventToken, debate.EventTurnEnd, debate.EventWaitingForNext}, types)
	evs := rec.snapshot()
	require.NotNil(t, evs[2].NextAgentIndex)
	assert.Equal(t, 1, *evs[2].NextAgentIndex)

	got, err := f.store.FindDebate(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, debate.StatusWaitingForNext, got.Status)

	// TriggerNext releases the hold exactly once.
	assert.True(t, f.svc.TriggerNext(d.ID))
	assert.False(t, f.svc.TriggerNext(d.ID))

	require.NoError(t, wait())
	assert.Equal(t, 2, rec.count(debate.EventTurnEnd))
	assert.Equal(t, debate.EndReasonMaxTurns, rec.snapshot()[len(rec.snapshot())-1].Reason)
}

// A step-by-step debate never auto-pauses regardless of the configured
// interval; creation-time defaults clear the interval, and the loop gate
// is guarded besides.
func TestStepModeExcludesAutoPause(t *testing.T) {
	f := newFixture(t, &provider.Scripted{Fragments: []string{"point"}})
	d := f.createDebate(t, func(p *debate.CreateParams) {
		p.StepByStepMode = true
		p.AutoPauseEveryNTurns = 1
		p.MaxTurns = 3
	})
	assert.Zero(t, d.AutoPauseEveryNTurns)

	rec := &eventRecorder{}
	wait := f.start(context.Background(), d.ID, rec)

	for i := 0; i < 2; i++ {
		require.Eventually(t, func() bool {
			return rec.count(debate.EventWaitingForNext) == i+1
		}, 2*time.Second, 5*time.Millisecond)
		require.True(t, f.svc.TriggerNext(d.ID))
	}
	require.NoError(t, wait())

	assert.Zero(t, rec.count(debate.EventPaused))
	assert.Equal(t, 3, rec.count(debate.EventTurnEnd))
}

func TestAutoPause(t *testing.T) {
	f := newFixture(t, &provider.Scripted{Fragments: []string{"point"}})
	d := f.createDebate(t, func(p *debate.CreateParams) {
		p.AutoPauseEveryNTurns = 2
		p.MaxTurns = 4
	})

	rec := &eventRecorder{}
	wait := f.start(context.Background(), d.ID, rec)

	require.Eventually(t, func() bool {
		return rec.count(debate.EventPaused) == 1
	}, 2*time.Second, 5*time.Millisecond)

	// Paused after exactly two completed turns.
	assert.Equal(t, 2, rec.count(debate.EventTurnEnd))
	got, err := f.store.FindDebate(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, debate.StatusPaused, got.Status)

	// Idempotent pause on an already-paused active debate.
	assert.True(t, f.svc.Pause(d.ID))
	assert.True(t, f.svc.Pause(d.ID))

	require.True(t, f.svc.Resume(d.ID))
	require.NoError(t, wait())

	assert.Equal(t, 1, rec.count(debate.EventResumed))
	assert.Equal(t, 4, rec.count(debate.EventTurnEnd))
	assert.Equal(t, debate.EndReasonMaxTurns, rec.snapshot()[len(rec.snapshot())-1].Reason)
}

func TestControlSignals_InactiveDebate(t *testing.T) {
	f := newFixture(t, &provider.Scripted{})
	assert.False(t, f.svc.Pause("ghost"))
	assert.False(t, f.svc.Resume("ghost"))
	assert.False(t, f.svc.Stop("ghost"))
	assert.False(t, f.svc.TriggerNext("ghost"))
	assert.False(t, f.svc.IsActive("ghost"))
}

func TestResume_NotPaused(t *testing.T) {
	f := newFixture(t, &provider.Scripted{Fragments: []string{"point"}})
	d := f.createDebate(t, func(p *debate.CreateParams) { p.StepByStepMode = true })

	rec := &eventRecorder{}
	wait := f.start(context.Background(), d.ID, rec)

	require.Eventually(t, func() bool {
		return rec.count(debate.EventWaitingForNext) == 1
	}, 2*time.Second, 5*time.Millisecond)

	// Active but waiting, not paused: resume must decline.
	assert.True(t, f.svc.IsActive(d.ID))
	assert.False(t, f.svc.Resume(d.ID))

	require.True(t, f.svc.Stop(d.ID))
	require.NoError(t, wait())
}

func TestDoubleStartRejected(t *testing.T) {
	prov := &provider.Scripted{
		Fragments: manyFragments(100),
		Delay:     10 * time.Millisecond,
	}
	f := newFixture(t, prov)
	d := f.createDebate(t, nil)

	rec := &eventRecorder{}
	wait := f.start(context.Background(), d.ID, rec)

	require.Eventually(t, func() bool {
		return f.registry.IsActive(d.ID)
	}, 2*time.Second, time.Millisecond)

	rec2 := &eventRecorder{}
	err := f.svc.StartDebate(context.Background(), d.ID, rec2.sink)
	assert.ErrorIs(t, err, ErrAlreadyActive)
	require.Len(t, rec2.snapshot(), 1)
	assert.Equal(t, debate.EventError, rec2.snapshot()[0].Type)

	require.True(t, f.svc.Stop(d.ID))
	require.NoError(t, wait())
}

func TestProviderFailure(t *testing.T) {
	f := newFixture(t, &provider.Scripted{
		Fragments: []string{"doomed", "fragments"},
		Err:       fmt.Errorf("upstream exploded"),
		ErrAfter:  1,
	})
	d := f.createDebate(t, nil)

	rec := &eventRecorder{}
	err := f.svc.StartDebate(context.Background(), d.ID, rec.sink)
	require.ErrorContains(t, err, "upstream exploded")

	evs := rec.snapshot()
	last := evs[len(evs)-1]
	assert.Equal(t, debate.EventError, last.Type)
	assert.Contains(t, last.Message, "upstream exploded")
	assert.Zero(t, rec.count(debate.EventDebateEnd))

	// Status is untouched by the failure; no partial message was saved.
	got, gerr := f.store.FindDebate(context.Background(), d.ID)
	require.NoError(t, gerr)
	assert.Equal(t, debate.StatusRunning, got.Status)
	msgs, merr := f.store.ListMessages(context.Background(), d.ID)
	require.NoError(t, merr)
	assert.Empty(t, msgs)

	assert.False(t, f.registry.IsActive(d.ID))
}

// Client disconnect (context cancellation) is indistinguishable from an
// explicit stop: manual end reason, no partial message.
func TestClientDisconnect(t *testing.T) {
	prov := &provider.Scripted{
		Fragments: manyFragments(200),
		Delay:     10 * time.Millisecond,
	}
	f := newFixture(t, prov)
	d := f.createDebate(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	rec := &eventRecorder{}
	wait := f.start(ctx, d.ID, rec)

	require.Eventually(t, func() bool {
		return rec.count(debate.EventToken) >= 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, wait())

	got, err := f.store.FindDebate(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, debate.StatusCompleted, got.Status)
	assert.Equal(t, debate.EndReasonManual, got.EndReason)
	assert.False(t, f.registry.IsActive(d.ID))
}

// The persisted turn counter equals k after turn k and never skips.
func TestTurnCounterMonotonic(t *testing.T) {
	f := newFixture(t, &provider.Scripted{Fragments: []string{"a"}})
	d := f.createDebate(t, func(p *debate.CreateParams) { p.MaxTurns = 5 })

	rec := &eventRecorder{}
	wait := f.start(context.Background(), d.ID, rec)
	require.NoError(t, wait())

	got, err := f.store.FindDebate(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.TurnCount)

	msgs, err := f.store.ListMessages(context.Background(), d.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 5)
	for i, m := range msgs {
		assert.Equal(t, i%2, m.AgentIndex, "turn %d", i+1)
	}
}

// The provider receives the accumulated history and the agents alternate
// perspectives.
func TestProviderContext(t *testing.T) {
	prov := &provider.Scripted{Fragments: []string{"a"}}
	f := newFixture(t, prov)
	d := f.createDebate(t, func(p *debate.CreateParams) { p.MaxTurns = 3 })

	rec := &eventRecorder{}
	wait := f.start(context.Background(), d.ID, rec)
	require.NoError(t, wait())

	calls := prov.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, d.Standpoints[0], calls[0].Standpoint)
	assert.Equal(t, d.Standpoints[1], calls[0].OpponentStandpoint)
	assert.Empty(t, calls[0].History)

	assert.Equal(t, d.Standpoints[1], calls[1].Standpoint)
	assert.Len(t, calls[1].History, 1)

	assert.Equal(t, d.Standpoints[0], calls[2].Standpoint)
	assert.Len(t, calls[2].History, 2)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	rs, err := reg.add("d1")
	require.NoError(t, err)
	require.NotNil(t, rs)
	assert.True(t, reg.IsActive("d1"))
	assert.Equal(t, 1, reg.Len())

	_, err = reg.add("d1")
	assert.ErrorIs(t, err, ErrAlreadyActive)

	got, ok := reg.lookup("d1")
	assert.True(t, ok)
	assert.Same(t, rs, got)

	reg.remove("d1")
	assert.False(t, reg.IsActive("d1"))
	reg.remove("d1") // safe when absent
}

func manyFragments(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "frag "
	}
	return out
}
