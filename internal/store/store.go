package store

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/debated/internal/debate"
)

// Errors returned by store implementations.
var (
	ErrDebateNotFound  = errors.New("debate not found")
	ErrMessageNotFound = errors.New("message not found")
)

// Store is the persistence contract consumed by the orchestrator and the
// HTTP layer.
type Store interface {
	// CreateDebate persists a new debate in pending status and returns it.
	CreateDebate(ctx context.Context, params debate.CreateParams) (*debate.Debate, error)

	// FindDebate returns a debate by id, or ErrDebateNotFound.
	FindDebate(ctx context.Context, id string) (*debate.Debate, error)

	// ListDebates returns all debates, newest first.
	ListDebates(ctx context.Context) ([]*debate.Debate, error)

	// UpdateStatus transitions a debate's status. Transitioning to running
	// stamps the started-at time.
	UpdateStatus(ctx context.Context, id string, status debate.Status) error

	// UpdateTurnCount persists the completed-turn counter.
	UpdateTurnCount(ctx context.Context, id string, count int) error

	// EndDebate atomically sets status completed, the end time, and the
	// end reason.
	EndDebate(ctx context.Context, id string, reason debate.EndReason) error

	// DeleteDebate removes a debate and all of its messages.
	DeleteDebate(ctx context.Context, id string) error

	// ListMessages returns a debate's messages ordered by timestamp.
	ListMessages(ctx context.Context, debateID string) ([]debate.Message, error)

	// AppendMessage persists a new message and returns it.
	AppendMessage(ctx context.Context, debateID string, agentIndex int, content string) (*debate.Message, error)

	// GetMessage returns a message by id, or ErrMessageNotFound.
	GetMessage(ctx context.Context, id string) (*debate.Message, error)

	// ReplaceMessageContent overwrites a message's content and marks it
	// edited. The timestamp is left unchanged.
	ReplaceMessageContent(ctx context.Context, id string, content string) error

	// DeleteMessagesAfter removes all of the debate's messages strictly
	// newer than the reference message and returns the deleted count.
	// Fails with ErrMessageNotFound when the reference is absent.
	DeleteMessagesAfter(ctx context.Context, debateID, messageID string) (int, error)

	// Close releases the store's resources.
	Close() error
}
