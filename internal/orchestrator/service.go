package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/debated/internal/debate"
	"github.com/fyrsmithlabs/debated/internal/provider"
	"github.com/fyrsmithlabs/debated/internal/store"
)

const instrumentationName = "github.com/fyrsmithlabs/debated/internal/orchestrator"

// EventSink receives the ordered event stream of one debate run. The
// orchestrator never blocks on a sink; transport adapters are expected to
// write-and-forget (an SSE adapter drops events once the client is gone,
// which the loop observes through context cancellation instead).
type EventSink func(debate.Event)

// Service drives debate runs and routes control signals to them.
type Service interface {
	// StartDebate drives the debate's turn loop, streaming events to sink
	// until a termination condition. It returns once the debate has fully
	// ended. Cancellation of ctx (e.g. client disconnect) is treated as a
	// stop request. Starting an already-active debate fails with
	// ErrAlreadyActive.
	StartDebate(ctx context.Context, debateID string, sink EventSink) error

	// Pause suspends an active run. Idempotent: pausing an already-paused
	// active debate reports success.
	Pause(debateID string) bool

	// Resume clears the paused flag. Fails unless the run is paused.
	Resume(debateID string) bool

	// Stop requests termination, clearing any paused/waiting state so the
	// loop unblocks promptly.
	Stop(debateID string) bool

	// TriggerNext releases a run holding in step-by-step mode. Fails
	// unless the run is waiting for the next turn.
	TriggerNext(debateID string) bool

	// IsActive reports whether the debate has a live run-state.
	IsActive(debateID string) bool
}

// service implements Service.
type service struct {
	registry *Registry
	store    store.Store
	provider provider.Provider
	logger   *zap.Logger

	tracer        trace.Tracer
	meter         metric.Meter
	turnsCounter  metric.Int64Counter
	activeDebates metric.Int64UpDownCounter
	turnDuration  metric.Float64Histogram
}

// NewService creates the orchestrator service.
func NewService(registry *Registry, st store.Store, prov provider.Provider, logger *zap.Logger) (Service, error) {
	if registry == nil {
		return nil, errors.New("registry is required")
	}
	if st == nil {
		return nil, errors.New("store is required")
	}
	if prov == nil {
		return nil, errors.New("provider is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &service{
		registry: registry,
		store:    st,
		provider: prov,
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
		meter:    otel.Meter(instrumentationName),
	}
	s.initMetrics()
	return s, nil
}

func (s *service) initMetrics() {
	var err error

	s.turnsCounter, err = s.meter.Int64Counter(
		"debated.orchestrator.turns_total",
		metric.WithDescription("Total completed debate turns"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		s.logger.Warn("failed to create turns counter", zap.Error(err))
	}

	s.activeDebates, err = s.meter.Int64UpDownCounter(
		"debated.orchestrator.active_debates",
		metric.WithDescription("Number of debates currently being driven"),
		metric.WithUnit("{debate}"),
	)
	if err != nil {
		s.logger.Warn("failed to create active debates counter", zap.Error(err))
	}

	s.turnDuration, err = s.meter.Float64Histogram(
		"debated.orchestrator.turn_duration_seconds",
		metric.WithDescription("Wall-clock duration of one debate turn, prompt construction through persistence"),
		metric.WithUnit("s"),
	)
	if err != nil {
		s.logger.Warn("failed to create turn duration histogram", zap.Error(err))
	}
}

func (s *service) StartDebate(ctx context.Context, debateID string, sink EventSink) error {
	ctx, span := s.tracer.Start(ctx, "orchestrator.StartDebate",
		trace.WithAttributes(attribute.String("debate.id", debateID)))
	defer span.End()

	d, err := s.store.FindDebate(ctx, debateID)
	if err != nil {
		sink(debate.ErrorEvent("debate not found"))
		return err
	}

	rs, err := s.registry.add(debateID)
	if err != nil {
		sink(debate.ErrorEvent("debate is already running"))
		return err
	}
	// Cleanup must run on every exit path, including panics in the loop.
	defer s.registry.remove(debateID)

	if s.activeDebates != nil {
		s.activeDebates.Add(ctx, 1)
		defer s.activeDebates.Add(ctx, -1)
	}

	if err := s.store.UpdateStatus(ctx, debateID, debate.StatusRunning); err != nil {
		sink(debate.ErrorEvent(err.Error()))
		return err
	}

	s.logger.Info("debate started",
		zap.String("debate_id", debateID),
		zap.Int("max_turns", d.MaxTurns),
		zap.Int("time_limit_minutes", d.TimeLimitMinutes),
		zap.Bool("step_by_step", d.StepByStepMode),
	)

	if err := s.runLoop(ctx, d, rs, sink); err != nil {
		// A store/provider failure aborts the run without touching the
		// persisted status; partially generated text is discarded.
		s.logger.Error("debate loop aborted", zap.String("debate_id", debateID), zap.Error(err))
		sink(debate.ErrorEvent(err.Error()))
		return err
	}
	return nil
}

// runLoop is the debate turn loop. One iteration attempts one agent turn.
// It returns nil after persisting a terminal state and emitting the single
// debate-end event, or an error on store/provider failure.
func (s *service) runLoop(ctx context.Context, d *debate.Debate, rs *runState, sink EventSink) error {
	pacing := d.PacingDelay()
	timeLimit := d.TimeLimit()
	prompt := provider.OpeningPrompt(d.Standpoints[0], d.Standpoints[1])

	end := func(reason debate.EndReason) error {
		if err := s.store.EndDebate(context.WithoutCancel(ctx), d.ID, reason); err != nil {
			return fmt.Errorf("end debate: %w", err)
		}
		sink(debate.DebateEndEvent(reason))
		s.logger.Info("debate ended",
			zap.String("debate_id", d.ID),
			zap.String("reason", string(reason)),
			zap.Int("turns", rs.turnCount),
		)
		return nil
	}

	for {
		if rs.stopped() || ctx.Err() != nil {
			return end(debate.EndReasonManual)
		}

		// Termination checks, in priority order.
		if d.MaxTurns > 0 && rs.turnCount >= d.MaxTurns {
			return end(debate.EndReasonMaxTurns)
		}
		if time.Since(rs.startTime) > timeLimit {
			return end(debate.EndReasonTimeout)
		}

		// Pause gate: an externally requested pause suspends the loop
		// here until resumed or stopped.
		if rs.isPaused() {
			if !rs.await(ctx, func() bool { return !rs.isPaused() }) {
				return end(debate.EndReasonManual)
			}
			sink(debate.ResumedEvent())
		}

		// Step-by-step gate: hold before every turn after the first.
		if d.StepByStepMode && rs.turnCount > 0 {
			rs.setWaitingForNext(true)
			if err := s.store.UpdateStatus(ctx, d.ID, debate.StatusWaitingForNext); err != nil {
				return fmt.Errorf("persist waiting-for-next: %w", err)
			}
			sink(debate.WaitingForNextEvent(rs.agentIndex))
			if !rs.await(ctx, func() bool { return !rs.isWaitingForNext() }) {
				return end(debate.EndReasonManual)
			}
		}

		// Auto-pause gate: every N completed turns, unless in step mode.
		if !d.StepByStepMode && d.AutoPauseEveryNTurns > 0 &&
			rs.turnCount > 0 && rs.turnCount%d.AutoPauseEveryNTurns == 0 {
			rs.setPaused(true)
			if err := s.store.UpdateStatus(ctx, d.ID, debate.StatusPaused); err != nil {
				return fmt.Errorf("persist auto-pause: %w", err)
			}
			sink(debate.PausedEvent())
			if !rs.await(ctx, func() bool { return !rs.isPaused() }) {
				return end(debate.EndReasonManual)
			}
			sink(debate.ResumedEvent())
		}

		if rs.stopped() {
			return end(debate.EndReasonManual)
		}

		turnStart := time.Now()
		agentIndex := rs.agentIndex
		opponent := debate.Opponent(agentIndex)

		history, err := s.store.ListMessages(ctx, d.ID)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}

		pctx := provider.Context{
			Standpoint:         d.Standpoints[agentIndex],
			OpponentStandpoint: d.Standpoints[opponent],
			History:            historyForAgent(history, agentIndex),
			AgentConfig:        d.AgentConfigs[agentIndex],
			AgentIndex:         agentIndex,
			Temperature:        d.Temperature,
		}

		s.logger.Debug("generating turn",
			zap.String("debate_id", d.ID),
			zap.Int("agent_index", agentIndex),
			zap.Int("turn", rs.turnCount+1),
		)

		content, stopped, err := s.streamTurn(ctx, rs, agentIndex, prompt, pctx, pacing, sink)
		if err != nil {
			return fmt.Errorf("generate turn: %w", err)
		}
		if stopped {
			// Abandoned mid-stream: the partial message is never saved.
			return end(debate.EndReasonManual)
		}

		msg, err := s.store.AppendMessage(ctx, d.ID, agentIndex, content)
		if err != nil {
			return fmt.Errorf("persist message: %w", err)
		}
		sink(debate.TurnEndEvent(agentIndex, msg.ID))

		rs.turnCount++
		if err := s.store.UpdateTurnCount(ctx, d.ID, rs.turnCount); err != nil {
			return fmt.Errorf("persist turn count: %w", err)
		}

		if s.turnsCounter != nil {
			s.turnsCounter.Add(ctx, 1, metric.WithAttributes(attribute.Int("agent_index", agentIndex)))
		}
		if s.turnDuration != nil {
			s.turnDuration.Record(ctx, time.Since(turnStart).Seconds())
		}

		rs.agentIndex = opponent
		prompt = provider.FollowUpPrompt()
	}
}

// streamTurn pulls one completion from the provider, relaying fragments as
// token events with the configured pacing delay. It reports stopped=true
// when a stop request or cancellation abandoned the stream mid-turn.
func (s *service) streamTurn(
	ctx context.Context,
	rs *runState,
	agentIndex int,
	prompt string,
	pctx provider.Context,
	pacing time.Duration,
	sink EventSink,
) (content string, stopped bool, err error) {
	stream, err := s.provider.StreamCompletion(ctx, prompt, pctx)
	if err != nil {
		return "", false, err
	}
	defer func() {
		if cerr := stream.Close(); cerr != nil && err == nil {
			s.logger.Warn("closing completion stream", zap.Error(cerr))
		}
	}()

	var b strings.Builder
	for {
		if rs.stopped() || ctx.Err() != nil {
			return "", true, nil
		}
		frag, rerr := stream.Recv()
		if rerr == io.EOF {
			return b.String(), false, nil
		}
		if rerr != nil {
			if rs.stopped() || ctx.Err() != nil {
				// Cancellation surfacing through the provider's transport.
				return "", true, nil
			}
			return "", false, rerr
		}

		b.WriteString(frag)
		sink(debate.TokenEvent(agentIndex, frag))

		if pacing > 0 {
			if !rs.sleep(ctx, pacing) {
				return "", true, nil
			}
		}
	}
}

// historyForAgent projects the raw message log into one agent's view.
// Today this is the identity transform; the seam exists for future
// role-specific projections (e.g. swapping author labels).
func historyForAgent(history []debate.Message, _ int) []debate.Message {
	return history
}

func (s *service) Pause(debateID string) bool {
	rs, ok := s.registry.lookup(debateID)
	if !ok {
		return false
	}
	rs.setPaused(true)
	s.logger.Info("debate paused", zap.String("debate_id", debateID))
	return true
}

func (s *service) Resume(debateID string) bool {
	rs, ok := s.registry.lookup(debateID)
	if !ok || !rs.isPaused() {
		return false
	}
	rs.setPaused(false)
	s.logger.Info("debate resumed", zap.String("debate_id", debateID))
	return true
}

func (s *service) Stop(debateID string) bool {
	rs, ok := s.registry.lookup(debateID)
	if !ok {
		return false
	}
	rs.requestStop()
	s.logger.Info("debate stop requested", zap.String("debate_id", debateID))
	return true
}

func (s *service) TriggerNext(debateID string) bool {
	rs, ok := s.registry.lookup(debateID)
	if !ok || !rs.isWaitingForNext() {
		return false
	}
	rs.setWaitingForNext(false)
	s.logger.Info("debate next turn triggered", zap.String("debate_id", debateID))
	return true
}

func (s *service) IsActive(debateID string) bool {
	return s.registry.IsActive(debateID)
}
