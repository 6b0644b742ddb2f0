package debate

// EventType discriminates the records on a debate's live event stream.
type EventType string

const (
	EventToken          EventType = "token"
	EventTurnEnd        EventType = "turn-end"
	EventPaused         EventType = "paused"
	EventResumed        EventType = "resumed"
	EventWaitingForNext EventType = "waiting-for-next"
	EventDebateEnd      EventType = "debate-end"
	EventError          EventType = "error"
)

// Event is one record on the live stream. The stream is push-only and
// one-directional; control signals travel out-of-band. Within one debate
// events are emitted in strict causal order: all tokens of a turn, then
// that turn's turn-end, before the next turn's tokens begin.
type Event struct {
	Type EventType `json:"type"`

	// AgentIndex identifies the authoring agent for token and turn-end
	// events. A pointer so that agent 0 survives omitempty.
	AgentIndex *int `json:"agentIndex,omitempty"`

	// Content is the relayed fragment for token events.
	Content string `json:"content,omitempty"`

	// MessageID is the persisted message id for turn-end events.
	MessageID string `json:"messageId,omitempty"`

	// NextAgentIndex announces the upcoming agent for waiting-for-next.
	NextAgentIndex *int `json:"nextAgentIndex,omitempty"`

	// Reason is the termination reason for debate-end events.
	Reason EndReason `json:"reason,omitempty"`

	// Message carries the human-readable description for error events.
	Message string `json:"message,omitempty"`
}

// TokenEvent builds a token event for one relayed fragment.
func TokenEvent(agentIndex int, content string) Event {
	idx := agentIndex
	return Event{Type: EventToken, AgentIndex: &idx, Content: content}
}

// TurnEndEvent builds a turn-end event for a persisted message.
func TurnEndEvent(agentIndex int, messageID string) Event {
	idx := agentIndex
	return Event{Type: EventTurnEnd, AgentIndex: &idx, MessageID: messageID}
}

// PausedEvent signals that the run entered the paused state.
func PausedEvent() Event {
	return Event{Type: EventPaused}
}

// ResumedEvent signals that a paused run resumed.
func ResumedEvent() Event {
	return Event{Type: EventResumed}
}

// WaitingForNextEvent signals that step-by-step mode is holding before the
// next turn.
func WaitingForNextEvent(nextAgentIndex int) Event {
	idx := nextAgentIndex
	return Event{Type: EventWaitingForNext, NextAgentIndex: &idx}
}

// DebateEndEvent is the single terminal event of a run.
func DebateEndEvent(reason EndReason) Event {
	return Event{Type: EventDebateEnd, Reason: reason}
}

// ErrorEvent reports a loop-aborting failure on the stream.
func ErrorEvent(message string) Event {
	return Event{Type: EventError, Message: message}
}
