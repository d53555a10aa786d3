package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/simonyos/geochat/internal/agent"
	"github.com/simonyos/geochat/internal/llm"
	"github.com/simonyos/geochat/internal/tools"
)

// Session is one conversation with the assistant. Turns on a session run one
// at a time; different sessions run independently.
type Session struct {
	ID        string
	Profile   string
	CreatedAt time.Time

	mu          sync.Mutex
	agent       *agent.Agent
	conv        agent.Conversation
	usage       llm.Usage
	turns       int
	updatedAt   time.Time
	lastTurn    *agent.Turn
	lastResults []tools.Result
	deleted     bool

	store  *Store
	logger *slog.Logger
}

// Info is a snapshot of a session for listings
type Info struct {
	ID        string    `json:"id"`
	Profile   string    `json:"profile"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  int       `json:"messages"`
	Turns     int       `json:"turns"`
	Usage     llm.Usage `json:"usage"`
}

// Ask runs one user turn to completion. A failed turn is not an error: it
// comes back in the Failed state with its diagnostic appended. The returned
// error only reports a failure to persist the session.
func (s *Session) Ask(ctx context.Context, text string) (agent.Turn, error) {
	if strings.TrimSpace(text) == "" {
		return agent.Turn{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, turn := s.agent.Run(ctx, s.conv, text)
	return turn, s.record(conv, turn)
}

// Stream runs one user turn and forwards the loop's events. The session stays
// locked until the final event has been received, so callers must drain the
// channel.
func (s *Session) Stream(ctx context.Context, text string) <-chan agent.StreamEvent {
	out := make(chan agent.StreamEvent)

	go func() {
		defer close(out)

		if strings.TrimSpace(text) == "" {
			out <- agent.StreamEvent{Type: "error", Error: ErrEmptyMessage}
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		for ev := range s.agent.Stream(ctx, s.conv, text) {
			if ev.Type == "done" || ev.Type == "error" {
				if err := s.record(ev.Conversation, ev.Turn); err != nil {
					s.logger.Error("session_save_failed", "session_id", s.ID, "error", err.Error())
				}
			}
			out <- ev
		}
	}()

	return out
}

// record must be called with s.mu held
func (s *Session) record(conv agent.Conversation, turn agent.Turn) error {
	s.conv = conv
	s.usage = s.usage.Add(turn.Usage)
	s.turns++
	s.updatedAt = time.Now()
	s.lastTurn = &turn
	s.lastResults = turn.Results

	s.logger.Info("session_turn",
		"session_id", s.ID,
		"turn_id", turn.ID,
		"state", turn.State.String(),
		"messages", conv.Len(),
	)

	if s.store == nil || s.deleted {
		return nil
	}
	return s.store.Save(s.persisted())
}

// markDeleted waits for any running turn and stops the session from being
// written back to the store.
func (s *Session) markDeleted() {
	s.mu.Lock()
	s.deleted = true
	s.mu.Unlock()
}

func (s *Session) persisted() *Persisted {
	return &Persisted{
		ID:           s.ID,
		Profile:      s.Profile,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.updatedAt,
		Turns:        s.turns,
		Usage:        s.usage,
		Conversation: s.conv,
		LastResults:  s.lastResults,
	}
}

// Conversation returns the current history
func (s *Session) Conversation() agent.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv
}

// LastResults returns the tool results of the most recent turn
func (s *Session) LastResults() []tools.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tools.Result(nil), s.lastResults...)
}

// LastTurn returns the most recent turn, if any ran since the session was loaded
func (s *Session) LastTurn() (agent.Turn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastTurn == nil {
		return agent.Turn{}, false
	}
	return *s.lastTurn, true
}

// Reset clears the history back to the system instruction
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conv = s.conv.Reset()
	s.lastTurn = nil
	s.lastResults = nil
	s.updatedAt = time.Now()
	if s.store == nil || s.deleted {
		return nil
	}
	return s.store.Save(s.persisted())
}

// Info returns a snapshot for listings
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:        s.ID,
		Profile:   s.Profile,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.updatedAt,
		Messages:  s.conv.Len(),
		Turns:     s.turns,
		Usage:     s.usage,
	}
}

// Tools returns the names of the tools this session can call
func (s *Session) Tools() []string {
	return s.agent.Registry().Names()
}

// ToolDefinitions returns the definitions of the tools this session can call
func (s *Session) ToolDefinitions() []tools.ToolDefinition {
	return s.agent.Registry().List()
}
