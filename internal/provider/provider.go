package provider

import (
	"context"

	"github.com/fyrsmithlabs/debated/internal/debate"
)

// Context carries everything a provider needs to generate one debate turn.
type Context struct {
	// Standpoint is the position of the agent speaking this turn.
	Standpoint string

	// OpponentStandpoint is the other agent's position.
	OpponentStandpoint string

	// History is the debate's message log, oldest first, already projected
	// into this agent's view.
	History []debate.Message

	// AgentConfig is the speaking agent's configuration.
	AgentConfig debate.AgentConfig

	// AgentIndex identifies the speaking agent (0 or 1).
	AgentIndex int

	// Temperature is the sampling temperature for this debate.
	Temperature float64
}

// Stream is a finite, non-restartable sequence of text fragments.
//
// Recv returns io.EOF when the sequence ends normally and any other error
// on terminal failure. Close releases the underlying resources and must be
// safe to call at any point, including before the sequence is exhausted
// (early abandonment on stop).
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Provider produces streamed completions for debate turns.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string

	// StreamCompletion starts a completion for the given turn prompt and
	// context. The returned stream honors ctx cancellation.
	StreamCompletion(ctx context.Context, prompt string, pctx Context) (Stream, error)
}
