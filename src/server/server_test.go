package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"market-dashboard/src/config"
	"market-dashboard/src/dashboard"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"

	"github.com/gorilla/websocket"
)

type fakeController struct {
	mu      sync.Mutex
	symbols []string
	retries int
	actions []models.Action
	state   dashboard.DashboardState
	closed  bool
}

func (f *fakeController) RequestSymbol(symbol string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.symbols = append(f.symbols, symbol)
	return !f.closed
}

func (f *fakeController) Retry() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retries++
	return !f.closed
}

func (f *fakeController) RunAction(action models.Action, payload map[string]interface{}) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	return !f.closed
}

func (f *fakeController) State() dashboard.DashboardState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Clone()
}

func (f *fakeController) lastSymbol() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.symbols) == 0 {
		return ""
	}
	return f.symbols[len(f.symbols)-1]
}

// -----------------------------------------------------------------------------

func newTestServer(t *testing.T) (*DashboardServer, *fakeController, *httptest.Server) {
	t.Helper()
	cfg := config.Default()
	s := NewDashboardServer(cfg.MConfig, logger.NewLoggerTo(io.Discard, "INFO", "server"))
	ctrl := &fakeController{}
	ctrl.state.Session = dashboard.SymbolSession{State: dashboard.Active, ActiveSymbol: "BTC"}
	ctrl.state.Connected = true
	s.Attach(ctrl)
	s.RunHub()

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Stop(context.Background())
	})
	return s, ctrl, ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	return resp
}

// -----------------------------------------------------------------------------

func TestStateAndHealth(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var snap struct {
		Session struct {
			State        string `json:"state"`
			ActiveSymbol string `json:"active_symbol"`
		} `json:"session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Session.State != "ACTIVE" || snap.Session.ActiveSymbol != "BTC" {
		t.Errorf("state = %+v", snap.Session)
	}

	resp, err = http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var health map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&health)
	if health["status"] != "ok" || health["feed_connected"] != true || health["symbol"] != "BTC" {
		t.Errorf("health = %v", health)
	}
}

func TestSymbolEndpoint(t *testing.T) {
	_, ctrl, ts := newTestServer(t)

	if resp := post(t, ts.URL+"/api/symbol", `{"symbol":"eth"}`); resp.StatusCode != http.StatusAccepted {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if got := ctrl.lastSymbol(); got != "eth" {
		t.Errorf("requested %q", got)
	}
	for _, body := range []string{`{"symbol":"  "}`, `{}`, `nope`} {
		if resp := post(t, ts.URL+"/api/symbol", body); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d", body, resp.StatusCode)
		}
	}

	ctrl.mu.Lock()
	ctrl.closed = true
	ctrl.mu.Unlock()
	if resp := post(t, ts.URL+"/api/retry", ``); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("retry on stopped engine: status = %d", resp.StatusCode)
	}
}

func TestActionEndpoint(t *testing.T) {
	_, ctrl, ts := newTestServer(t)

	cases := []struct {
		path, body string
		want       int
	}{
		{"/api/actions/panic", ``, http.StatusAccepted},
		{"/api/actions/wipe_config", ``, http.StatusAccepted},
		{"/api/actions/save_config", `{"risk_per_trade":1.5}`, http.StatusAccepted},
		{"/api/actions/save_config", `oops`, http.StatusBadRequest},
		{"/api/actions/reboot", ``, http.StatusNotFound},
	}
	for _, tc := range cases {
		if resp := post(t, ts.URL+tc.path, tc.body); resp.StatusCode != tc.want {
			t.Errorf("%s %s: status = %d, want %d", tc.path, tc.body, resp.StatusCode, tc.want)
		}
	}
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	if len(ctrl.actions) != 3 || ctrl.actions[2] != models.ActionSaveConfig {
		t.Errorf("actions = %v", ctrl.actions)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, _, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "dashboard_clients") {
		t.Error("metrics output missing dashboard gauges")
	}
}

// -----------------------------------------------------------------------------

func readMessage(t *testing.T, conn *websocket.Conn) map[string]json.RawMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var msg map[string]json.RawMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func msgType(msg map[string]json.RawMessage) string {
	var s string
	json.Unmarshal(msg["type"], &s)
	return s
}

func TestWebSocketFlow(t *testing.T) {
	s, ctrl, ts := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if got := msgType(readMessage(t, conn)); got != MsgSnapshot {
		t.Fatalf("first message = %q, want snapshot", got)
	}

	s.Navigate("/?symbol=ETH", "Sniper AI - ETH")
	msg := readMessage(t, conn)
	if msgType(msg) != MsgNavigate || !strings.Contains(string(msg["data"]), "Sniper AI - ETH") {
		t.Errorf("navigate message = %s", msg["data"])
	}

	s.SetFullSeries("ETH", nil)
	msg = readMessage(t, conn)
	if msgType(msg) != MsgSeries || !strings.Contains(string(msg["data"]), `"candles":[]`) {
		t.Errorf("series message = %s", msg["data"])
	}

	if err := conn.WriteJSON(ClientCommand{Type: "change_symbol", Symbol: "SOL"}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for ctrl.lastSymbol() != "SOL" && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if ctrl.lastSymbol() != "SOL" {
		t.Error("change_symbol command not forwarded")
	}

	conn.WriteJSON(ClientCommand{Type: "action", Action: "reboot"})
	msg = readMessage(t, conn)
	if msgType(msg) != MsgNotice || !strings.Contains(string(msg["data"]), "error") {
		t.Errorf("unknown action reply = %s", msg["data"])
	}

	conn.WriteJSON(ClientCommand{Type: "snapshot"})
	msg = readMessage(t, conn)
	if msgType(msg) != MsgSnapshot || !strings.Contains(string(msg["data"]), "/?symbol=ETH") {
		t.Errorf("snapshot = %s", msg["data"])
	}
}

func TestStopWhileStarting(t *testing.T) {
	cfg := config.Default()
	cfg.Host, cfg.Port = "127.0.0.1", 0
	s := NewDashboardServer(cfg.MConfig, logger.NewLoggerTo(io.Discard, "INFO", "server"))
	s.Attach(&fakeController{})

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("start returned %v after stop", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server kept running after stop")
	}
}
