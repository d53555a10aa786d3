package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/simonyos/geochat/internal/agent"
	"github.com/simonyos/geochat/internal/llm"
	"github.com/simonyos/geochat/internal/profiles"
	"github.com/simonyos/geochat/internal/tools"
)

// HandlerFunc returns the event handler for a session's turns; it may return nil
type HandlerFunc func(sessionID string) agent.EventHandler

// Options configures a Manager
type Options struct {
	Provider      llm.Provider
	Tools         *tools.Registry
	Profiles      *profiles.Registry
	MaxModelCalls int
	Temperature   float64
	Collection    string // STAC collection named in the system instruction
	Store         *Store // nil disables persistence
	Handler       HandlerFunc
	Logger        *slog.Logger
}

// Manager creates, tracks and persists sessions
type Manager struct {
	opts     Options
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *slog.Logger
}

// NewManager creates a session manager
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Profiles == nil {
		opts.Profiles = profiles.NewRegistry(nil)
	}
	return &Manager{
		opts:     opts,
		sessions: make(map[string]*Session),
		logger:   opts.Logger,
	}
}

// Create starts a new session using the named profile (empty for the default)
func (m *Manager) Create(profileName string) (*Session, error) {
	now := time.Now()
	s, err := m.build(uuid.NewString(), profileName, nil)
	if err != nil {
		return nil, err
	}
	s.CreatedAt = now
	s.updatedAt = now

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("session_created", "session_id", s.ID, "profile", s.Profile)
	return s, nil
}

// build assembles a session around a fresh agent; conv nil starts a new history
func (m *Manager) build(id, profileName string, conv *agent.Conversation) (*Session, error) {
	profile, err := m.opts.Profiles.Get(profileName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, profileName)
	}

	registry, err := m.opts.Tools.Subset(profile.Tools)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", profile.Name, err)
	}

	logger := m.logger.With("session_id", id)
	ag := agent.New(m.opts.Provider, registry, agent.Options{
		MaxModelCalls: profile.Budget(m.opts.MaxModelCalls),
		Temperature:   m.opts.Temperature,
		Logger:        logger,
	})
	if m.opts.Handler != nil {
		if h := m.opts.Handler(id); h != nil {
			ag.SetEventHandler(h)
		}
	}

	s := &Session{
		ID:      id,
		Profile: profile.Name,
		agent:   ag,
		store:   m.opts.Store,
		logger:  logger,
	}
	if conv != nil {
		s.conv = *conv
	} else {
		s.conv = agent.NewConversation(profile.SystemPrompt(registry.Names(), m.opts.Collection))
	}
	return s, nil
}

// Get returns a live session, loading it from the store if needed
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}

	if m.opts.Store == nil {
		return nil, ErrSessionNotFound
	}
	state, err := m.opts.Store.Load(id)
	if err != nil {
		return nil, err
	}

	s, err = m.build(state.ID, state.Profile, &state.Conversation)
	if err != nil {
		return nil, err
	}
	s.CreatedAt = state.CreatedAt
	s.updatedAt = state.UpdatedAt
	s.turns = state.Turns
	s.usage = state.Usage
	s.lastResults = state.LastResults

	m.mu.Lock()
	defer m.mu.Unlock()
	// another caller may have loaded it meanwhile
	if existing, ok := m.sessions[id]; ok {
		return existing, nil
	}
	m.sessions[id] = s
	m.logger.Debug("session_loaded", "session_id", id)
	return s, nil
}

// List returns every known session, most recently updated first
func (m *Manager) List() ([]Info, error) {
	m.mu.RLock()
	infos := make([]Info, 0, len(m.sessions))
	seen := make(map[string]bool, len(m.sessions))
	for id, s := range m.sessions {
		infos = append(infos, s.Info())
		seen[id] = true
	}
	m.mu.RUnlock()

	if m.opts.Store != nil {
		ids, err := m.opts.Store.List()
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if seen[id] {
				continue
			}
			state, err := m.opts.Store.Load(id)
			if err != nil {
				m.logger.Warn("session_load_failed", "session_id", id, "error", err.Error())
				continue
			}
			infos = append(infos, Info{
				ID:        state.ID,
				Profile:   state.Profile,
				CreatedAt: state.CreatedAt,
				UpdatedAt: state.UpdatedAt,
				Messages:  state.Conversation.Len(),
				Turns:     state.Turns,
				Usage:     state.Usage,
			})
		}
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].UpdatedAt.After(infos[j].UpdatedAt) })
	return infos, nil
}

// Delete drops a session from memory and disk
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	sess, live := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if live {
		sess.markDeleted()
	}

	if m.opts.Store == nil {
		if !live {
			return ErrSessionNotFound
		}
		return nil
	}

	if !live {
		if _, err := m.opts.Store.Load(id); err != nil {
			return err
		}
	}
	if err := m.opts.Store.Delete(id); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	m.logger.Info("session_deleted", "session_id", id)
	return nil
}
