// Package broadcast publishes conversation loop events on NATS so other
// processes can follow a session live.
package broadcast

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/simonyos/geochat/internal/agent"
	"github.com/simonyos/geochat/internal/tools"
)

var (
	ErrConnectionFailed = errors.New("failed to connect to NATS")
	ErrNotConnected     = errors.New("not connected to NATS")
)

// Config contains NATS connection configuration
type Config struct {
	URL            string
	ConnectTimeout time.Duration
	ReconnectWait  time.Duration
	MaxReconnects  int
}

// DefaultConfig returns the default NATS configuration
func DefaultConfig() Config {
	return Config{
		URL:            nats.DefaultURL, // "nats://localhost:4222"
		ConnectTimeout: 5 * time.Second,
		ReconnectWait:  2 * time.Second,
		MaxReconnects:  60,
	}
}

// Event is the JSON payload published for every loop callback
type Event struct {
	SessionID string        `json:"session_id"`
	Type      string        `json:"type"` // thinking, tool_start, tool_result, finish
	Tool      string        `json:"tool,omitempty"`
	Args      string        `json:"args,omitempty"`
	Result    *tools.Result `json:"result,omitempty"`
	State     string        `json:"state,omitempty"`
	Answer    string        `json:"answer,omitempty"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Subject returns the subject events of a session are published on
func Subject(sessionID string) string {
	return fmt.Sprintf("geochat.session.%s.events", sessionID)
}

// Publisher owns a NATS connection shared by every session's handler
type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
	mu     sync.RWMutex
}

// Connect establishes a connection to the NATS server
func Connect(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{logger: logger}

	opts := []nats.Option{
		nats.Name("geochat"),
		nats.Timeout(cfg.ConnectTimeout),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats_disconnected", "error", err.Error())
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Error("nats_error", "error", err.Error())
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConnectionFailed, err)
	}
	p.conn = conn
	return p, nil
}

// IsConnected returns true if connected to NATS
func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.conn != nil && p.conn.IsConnected()
}

// Publish sends one event on its session's subject
func (p *Publisher) Publish(ev Event) error {
	p.mu.RLock()
	conn := p.conn
	p.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return conn.Publish(Subject(ev.SessionID), data)
}

// Subscribe delivers a session's events to fn until the subscription is
// drained or the publisher closes
func (p *Publisher) Subscribe(sessionID string, fn func(Event)) (*nats.Subscription, error) {
	p.mu.RLock()
	conn := p.conn
	p.mu.RUnlock()
	if conn == nil {
		return nil, ErrNotConnected
	}

	return conn.Subscribe(Subject(sessionID), func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			p.logger.Warn("event_decode_failed", "subject", msg.Subject, "error", err.Error())
			return
		}
		fn(ev)
	})
}

// Flush waits until the server has processed everything published so far
func (p *Publisher) Flush() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.conn == nil {
		return ErrNotConnected
	}
	return p.conn.Flush()
}

// Close drains and closes the connection
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Drain()
	p.conn = nil
	return err
}

// Handler returns the loop event handler for one session
func (p *Publisher) Handler(sessionID string) agent.EventHandler {
	return &handler{pub: p, sessionID: sessionID}
}

type handler struct {
	pub       *Publisher
	sessionID string
}

func (h *handler) publish(ev Event) {
	ev.SessionID = h.sessionID
	if err := h.pub.Publish(ev); err != nil {
		h.pub.logger.Warn("event_publish_failed", "session_id", h.sessionID, "type", ev.Type, "error", err.Error())
	}
}

func (h *handler) OnThinking() {
	h.publish(Event{Type: "thinking"})
}

func (h *handler) OnToolUse(name string, args map[string]any) {
	h.publish(Event{Type: "tool_start", Tool: name, Args: agent.FormatArgs(name, args)})
}

func (h *handler) OnToolResult(name string, res tools.Result) {
	h.publish(Event{Type: "tool_result", Tool: name, Result: &res})
}

func (h *handler) OnFinish(turn agent.Turn) {
	ev := Event{Type: "finish", State: turn.State.String(), Answer: turn.Answer}
	if turn.Err != nil {
		ev.Error = turn.Err.Error()
	}
	h.publish(ev)
}
