package server

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/simonyos/geochat/internal/agent"
	"github.com/simonyos/geochat/internal/tools"
)

// wsEvent is the JSON frame sent to websocket clients
type wsEvent struct {
	Type    string        `json:"type"`
	Tool    string        `json:"tool,omitempty"`
	Args    string        `json:"args,omitempty"`
	Summary string        `json:"summary,omitempty"`
	Failed  bool          `json:"failed,omitempty"`
	Result  *tools.Result `json:"result,omitempty"`
	Answer  string        `json:"answer,omitempty"`
	State   string        `json:"state,omitempty"`
	Error   string        `json:"error,omitempty"`
}

func toWSEvent(ev agent.StreamEvent) wsEvent {
	out := wsEvent{
		Type:    ev.Type,
		Tool:    ev.ToolName,
		Args:    ev.ToolArgs,
		Summary: ev.ToolResult,
		Failed:  ev.ToolError,
		Result:  ev.Result,
	}
	if ev.Type == "done" || ev.Type == "error" {
		out.Answer = ev.FinalResponse
		out.State = ev.Turn.State.String()
		if ev.Error != nil {
			out.Error = ev.Error.Error()
		}
	}
	return out
}

// handleWebsocket runs one turn per text frame {"text": "..."} and streams
// every loop event back as JSON
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.logger.Info("ws_connected", "session_id", sess.ID)
	defer s.logger.Info("ws_disconnected", "session_id", sess.ID)

	for {
		var req messageRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("ws_read_failed", "session_id", sess.ID, "error", err.Error())
			}
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.TurnTimeout)
		writeFailed := false
		for ev := range sess.Stream(ctx, req.Text) {
			if writeFailed {
				// keep draining so the session is released
				continue
			}
			if err := conn.WriteJSON(toWSEvent(ev)); err != nil {
				s.logger.Debug("ws_write_failed", "session_id", sess.ID, "error", err.Error())
				writeFailed = true
				cancel()
			}
		}
		cancel()
		if writeFailed {
			return
		}
	}
}
