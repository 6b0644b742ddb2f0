package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/debated/internal/debate"
)

// MemoryStore is an in-memory Store. It backs tests and local runs without
// a database file. Safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	debates  map[string]*debate.Debate
	messages map[string][]debate.Message // keyed by debate id, append order
	lastTS   time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		debates:  make(map[string]*debate.Debate),
		messages: make(map[string][]debate.Message),
	}
}

// nextTimestamp returns a strictly increasing timestamp so that
// rewind's "strictly newer" comparison never ties. Caller holds mu.
func (s *MemoryStore) nextTimestamp() time.Time {
	now := time.Now().UTC()
	if !now.After(s.lastTS) {
		now = s.lastTS.Add(time.Microsecond)
	}
	s.lastTS = now
	return now
}

func (s *MemoryStore) CreateDebate(_ context.Context, params debate.CreateParams) (*debate.Debate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := &debate.Debate{
		ID:                   uuid.NewString(),
		AgentConfigs:         params.AgentConfigs,
		TimeLimitMinutes:     params.TimeLimitMinutes,
		ResponseDelaySeconds: *params.ResponseDelaySeconds,
		StepByStepMode:       params.StepByStepMode,
		MaxTurns:             params.MaxTurns,
		AutoPauseEveryNTurns: params.AutoPauseEveryNTurns,
		Temperature:          *params.Temperature,
		Status:               debate.StatusPending,
		CreatedAt:            time.Now().UTC(),
	}
	copy(d.Standpoints[:], params.Standpoints)
	s.debates[d.ID] = d
	cp := *d
	return &cp, nil
}

func (s *MemoryStore) FindDebate(_ context.Context, id string) (*debate.Debate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.debates[id]
	if !ok {
		return nil, ErrDebateNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *MemoryStore) ListDebates(_ context.Context) ([]*debate.Debate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*debate.Debate, 0, len(s.debates))
	for _, d := range s.debates {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status debate.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.debates[id]
	if !ok {
		return ErrDebateNotFound
	}
	d.Status = status
	if status == debate.StatusRunning && d.StartedAt == nil {
		now := time.Now().UTC()
		d.StartedAt = &now
	}
	return nil
}

func (s *MemoryStore) UpdateTurnCount(_ context.Context, id string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.debates[id]
	if !ok {
		return ErrDebateNotFound
	}
	d.TurnCount = count
	return nil
}

func (s *MemoryStore) EndDebate(_ context.Context, id string, reason debate.EndReason) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.debates[id]
	if !ok {
		return ErrDebateNotFound
	}
	now := time.Now().UTC()
	d.Status = debate.StatusCompleted
	d.EndReason = reason
	d.EndedAt = &now
	return nil
}

func (s *MemoryStore) DeleteDebate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.debates[id]; !ok {
		return ErrDebateNotFound
	}
	delete(s.debates, id)
	delete(s.messages, id)
	return nil
}

func (s *MemoryStore) ListMessages(_ context.Context, debateID string) ([]debate.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[debateID]
	out := make([]debate.Message, len(msgs))
	copy(out, msgs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, debateID string, agentIndex int, content string) (*debate.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.debates[debateID]; !ok {
		return nil, ErrDebateNotFound
	}
	msg := debate.Message{
		ID:         uuid.NewString(),
		DebateID:   debateID,
		AgentIndex: agentIndex,
		Content:    content,
		Timestamp:  s.nextTimestamp(),
	}
	s.messages[debateID] = append(s.messages[debateID], msg)
	return &msg, nil
}

func (s *MemoryStore) GetMessage(_ context.Context, id string) (*debate.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, msgs := range s.messages {
		for i := range msgs {
			if msgs[i].ID == id {
				cp := msgs[i]
				return &cp, nil
			}
		}
	}
	return nil, ErrMessageNotFound
}

func (s *MemoryStore) ReplaceMessageContent(_ context.Context, id string, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for did, msgs := range s.messages {
		for i := range msgs {
			if msgs[i].ID == id {
				s.messages[did][i].Content = content
				s.messages[did][i].Edited = true
				return nil
			}
		}
	}
	return ErrMessageNotFound
}

func (s *MemoryStore) DeleteMessagesAfter(_ context.Context, debateID, messageID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ref *debate.Message
	msgs := s.messages[debateID]
	for i := range msgs {
		if msgs[i].ID == messageID {
			ref = &msgs[i]
			break
		}
	}
	if ref == nil {
		return 0, ErrMessageNotFound
	}

	kept := msgs[:0:0]
	deleted := 0
	for _, m := range msgs {
		if m.Timestamp.After(ref.Timestamp) {
			deleted++
			continue
		}
		kept = append(kept, m)
	}
	s.messages[debateID] = kept
	return deleted, nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
