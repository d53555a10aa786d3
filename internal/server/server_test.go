package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/simonyos/geochat/internal/llm"
	"github.com/simonyos/geochat/internal/logging"
	"github.com/simonyos/geochat/internal/session"
	"github.com/simonyos/geochat/internal/tools"
)

// tileProvider asks for a tile on every user message and then answers with
// the tool result
type tileProvider struct{}

func (tileProvider) Name() string { return "tile-mock" }

func (tileProvider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	last := req.Messages[len(req.Messages)-1]
	if last.Role == llm.RoleTool {
		return &llm.Response{Content: "tile: " + last.Content}, nil
	}
	if strings.Contains(last.Content, "plain") {
		return &llm.Response{Content: "no tools needed"}, nil
	}
	return &llm.Response{ToolCalls: []llm.ToolCall{{
		ID:        "call_tile",
		Name:      "tile",
		Arguments: `{"latitude":12.97,"longitude":77.59,"zoom":10}`,
	}}}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg := tools.NewRegistry()
	reg.SetLogger(logging.Discard())
	if err := reg.Register(tools.NewTileTool()); err != nil {
		t.Fatal(err)
	}
	store, err := session.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	mgr := session.NewManager(session.Options{
		Provider: tileProvider{},
		Tools:    reg,
		Store:    store,
		Logger:   logging.Discard(),
	})
	ts := httptest.NewServer(New(Config{}, mgr, logging.Discard()).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func createSession(t *testing.T, base string) string {
	t.Helper()
	var created struct {
		ID    string   `json:"id"`
		Tools []string `json:"tools"`
	}
	if code := doJSON(t, http.MethodPost, base+"/api/sessions", map[string]string{}, &created); code != http.StatusCreated {
		t.Fatalf("create status = %d", code)
	}
	if created.ID == "" || len(created.Tools) != 1 {
		t.Fatalf("created = %+v", created)
	}
	return created.ID
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	var body map[string]string
	if code := doJSON(t, http.MethodGet, ts.URL+"/health", nil, &body); code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v", code, body)
	}
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts.URL)
	base := ts.URL + "/api/sessions/" + id

	var turn struct {
		State   string            `json:"state"`
		Answer  string            `json:"answer"`
		Results []json.RawMessage `json:"results"`
	}
	if code := doJSON(t, http.MethodPost, base+"/messages", map[string]string{"text": "which tile is Bangalore in"}, &turn); code != http.StatusOK {
		t.Fatalf("message status = %d", code)
	}
	if turn.State != "done" || !strings.Contains(turn.Answer, `"x":`) || len(turn.Results) != 1 {
		t.Errorf("turn = %+v", turn)
	}

	var got struct {
		Messages     int               `json:"messages"`
		Turns        int               `json:"turns"`
		Conversation []json.RawMessage `json:"conversation"`
	}
	doJSON(t, http.MethodGet, base, nil, &got)
	if got.Messages != 5 || got.Turns != 1 || len(got.Conversation) != 5 {
		t.Errorf("session = %+v", got)
	}

	var fc struct {
		Type     string    `json:"type"`
		Center   []float64 `json:"center"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	if code := doJSON(t, http.MethodGet, base+"/geojson", nil, &fc); code != http.StatusOK {
		t.Fatalf("geojson status = %d", code)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 1 || fc.Features[0].Properties["tile"] != "10/732/474" {
		t.Errorf("geojson = %+v", fc)
	}

	var list struct {
		Sessions []session.Info `json:"sessions"`
	}
	doJSON(t, http.MethodGet, ts.URL+"/api/sessions", nil, &list)
	if len(list.Sessions) != 1 || list.Sessions[0].ID != id {
		t.Errorf("list = %+v", list)
	}

	if code := doJSON(t, http.MethodDelete, base, nil, nil); code != http.StatusNoContent {
		t.Errorf("delete status = %d", code)
	}
	if code := doJSON(t, http.MethodGet, base, nil, &map[string]string{}); code != http.StatusNotFound {
		t.Errorf("get after delete = %d", code)
	}
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts.URL)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown session", http.MethodGet, "/api/sessions/00000000-0000-0000-0000-000000000000", nil, http.StatusNotFound},
		{"malformed id", http.MethodGet, "/api/sessions/not-a-uuid", nil, http.StatusNotFound},
		{"unknown profile", http.MethodPost, "/api/sessions", map[string]string{"profile": "nope"}, http.StatusBadRequest},
		{"empty message", http.MethodPost, "/api/sessions/" + id + "/messages", map[string]string{"text": " "}, http.StatusBadRequest},
		{"nothing to map", http.MethodGet, "/api/sessions/" + id + "/geojson", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]string
			code := doJSON(t, tt.method, ts.URL+tt.path, tt.body, &body)
			if code != tt.want {
				t.Errorf("status = %d, want %d", code, tt.want)
			}
			if body["error"] == "" {
				t.Error("error body missing")
			}
		})
	}
}

func TestWebsocketStreamsTurn(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts.URL)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/sessions/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	read := func(text string) []wsEvent {
		if err := conn.WriteJSON(messageRequest{Text: text}); err != nil {
			t.Fatalf("WriteJSON() error = %v", err)
		}
		var events []wsEvent
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		for {
			var ev wsEvent
			if err := conn.ReadJSON(&ev); err != nil {
				t.Fatalf("ReadJSON() error = %v", err)
			}
			events = append(events, ev)
			if ev.Type == "done" || ev.Type == "error" {
				return events
			}
		}
	}

	events := read("tile for Bangalore")
	var types []string
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	if got := strings.Join(types, ","); got != "start,thinking,tool_start,tool_result,thinking,done" {
		t.Errorf("events = %s", got)
	}
	if events[3].Tool != "tile" || events[3].Failed || events[3].Result == nil {
		t.Errorf("tool_result = %+v", events[3])
	}

	// the same connection keeps serving turns
	events = read("plain question")
	last := events[len(events)-1]
	if last.Answer != "no tools needed" || last.State != "done" {
		t.Errorf("second turn = %+v", last)
	}
}
