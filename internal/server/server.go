// Package server exposes sessions over a JSON API and a websocket that
// streams loop events.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/simonyos/geochat/internal/agent"
	"github.com/simonyos/geochat/internal/profiles"
	"github.com/simonyos/geochat/internal/render"
	"github.com/simonyos/geochat/internal/session"
	"github.com/simonyos/geochat/internal/tools"
)

// Config holds listener settings
type Config struct {
	Addr        string
	TurnTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.TurnTimeout <= 0 {
		c.TurnTimeout = 5 * time.Minute
	}
	return c
}

// Server routes HTTP requests to the session manager
type Server struct {
	cfg      Config
	sessions *session.Manager
	upgrader websocket.Upgrader
	logger   *slog.Logger
	server   *http.Server
}

// New creates a server
func New(cfg Config, sessions *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg.withDefaults(),
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Handler returns the routing table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/sessions", s.handleCreate)
	mux.HandleFunc("GET /api/sessions", s.handleList)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleGet)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDelete)
	mux.HandleFunc("POST /api/sessions/{id}/messages", s.handleMessage)
	mux.HandleFunc("GET /api/sessions/{id}/geojson", s.handleGeoJSON)
	mux.HandleFunc("GET /api/sessions/{id}/ws", s.handleWebsocket)
	return s.logRequests(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.cfg.Addr,
		ReadHeaderTimeout: 5 * time.Second,
		Handler:           s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()
	s.logger.Info("server_started", "addr", s.cfg.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("server_stopping")
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http_request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrader take over the connection
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createRequest struct {
	Profile string `json:"profile"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	sess, err := s.sessions.Create(req.Profile)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionView{Info: sess.Info(), Tools: sess.Tools()})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	infos, err := s.sessions.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": infos})
}

type sessionView struct {
	session.Info
	Tools        []string            `json:"tools"`
	Conversation *agent.Conversation `json:"conversation,omitempty"`
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	conv := sess.Conversation()
	writeJSON(w, http.StatusOK, sessionView{Info: sess.Info(), Tools: sess.Tools(), Conversation: &conv})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.PathValue("id")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type messageRequest struct {
	Text string `json:"text"`
}

type turnView struct {
	State      string         `json:"state"`
	Answer     string         `json:"answer"`
	Error      string         `json:"error,omitempty"`
	ModelCalls int            `json:"model_calls"`
	Results    []tools.Result `json:"results"`
	Turn       map[string]any `json:"turn"`
}

func newTurnView(turn agent.Turn) turnView {
	v := turnView{
		State:      turn.State.String(),
		Answer:     turn.Answer,
		ModelCalls: turn.ModelCalls,
		Results:    turn.Results,
		Turn:       turn.Summary(),
	}
	if v.Results == nil {
		v.Results = []tools.Result{}
	}
	if turn.Err != nil {
		v.Error = turn.Err.Error()
	}
	return v
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.TurnTimeout)
	defer cancel()

	turn, err := sess.Ask(ctx, req.Text)
	if errors.Is(err, session.ErrEmptyMessage) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		// the turn ran; only saving it failed
		s.logger.Error("session_save_failed", "session_id", sess.ID, "error", err.Error())
	}
	writeJSON(w, http.StatusOK, newTurnView(turn))
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	m, err := render.BuildMap(sess.LastResults())
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(m.FeatureCollection())
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return nil, false
	}
	return sess, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrInvalidID):
		return http.StatusNotFound
	case errors.Is(err, profiles.ErrProfileNotFound), errors.Is(err, session.ErrEmptyMessage):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
