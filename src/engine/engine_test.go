package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"market-dashboard/src/config"
	"market-dashboard/src/dashboard"
	"market-dashboard/src/interfaces"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(format string, args ...interface{}) {
	r.mu.Lock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

func (r *recorder) count(call string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (r *recorder) has(call string) bool { return r.count(call) > 0 }

type fakeChart struct{ recorder }

func (f *fakeChart) SetFullSeries(symbol string, candles []models.MCandle) {
	f.add("series %s %d", symbol, len(candles))
}
func (f *fakeChart) AppendOrAmend(symbol string, c models.MCandle) {
	f.add("bar %s %d", symbol, c.Time)
}
func (f *fakeChart) SetDerivedSeries(symbol string, points []models.MDerivedPoint) {
	f.add("derived %s %d", symbol, len(points))
}
func (f *fakeChart) UpdateDerivedPoint(symbol string, p models.MDerivedPoint) {
	f.add("point %s %d", symbol, p.Time)
}
func (f *fakeChart) FitToContent()     { f.add("fit") }
func (f *fakeChart) ScrollToRealtime() { f.add("scroll") }

type fakeView struct{ recorder }

func (f *fakeView) PublishDisplay(d models.MDisplayRecord) { f.add("display %s", d.SessionStatus) }
func (f *fakeView) PublishAlert(a models.MAlert)           { f.add("alert %s %s", a.Symbol, a.Signal) }
func (f *fakeView) PublishNotice(level, msg string)        { f.add("notice %s", level) }
func (f *fakeView) Navigate(url, title string)             { f.add("navigate %s %s", url, title) }
func (f *fakeView) Reload()                                { f.add("reload") }

type fakeFeed struct {
	recorder
	err error
}

func (f *fakeFeed) ChangeSymbol(ctx context.Context, symbol, requestID string) error {
	f.add("change_symbol %s", symbol)
	return f.err
}

type fakeAddress struct{}

func (fakeAddress) InitialSymbol() string { return "BTC" }
func (fakeAddress) Write(symbol string) (string, string) {
	return "/?symbol=" + symbol, "Sniper AI - " + symbol
}

type fakeActions struct {
	result models.MActionResult
	err    error
}

func (f *fakeActions) SaveConfig(ctx context.Context, payload map[string]interface{}) (models.MActionResult, error) {
	return f.result, f.err
}
func (f *fakeActions) EmergencyExit(ctx context.Context) (models.MActionResult, error) {
	return f.result, f.err
}
func (f *fakeActions) WipeData(ctx context.Context) (models.MActionResult, error) {
	return f.result, f.err
}

type fakeSink struct{ recorder }

func (f *fakeSink) Notify(ctx context.Context, a models.MAlert) error {
	f.add("notify %s %s", a.Symbol, a.Signal)
	return nil
}

type fakeDB struct {
	recorder
	active string
}

func (f *fakeDB) Initialize() error { return nil }
func (f *fakeDB) RecordAlert(a models.MAlert) error {
	f.add("alert %s", a.Symbol)
	return nil
}
func (f *fakeDB) RecordSymbolChange(c models.MSymbolChange) error {
	f.add("change %s<-%s", c.Symbol, c.Previous)
	return nil
}
func (f *fakeDB) SaveActiveSymbol(symbol string) error {
	f.add("active %s", symbol)
	return nil
}
func (f *fakeDB) LoadActiveSymbol() (string, error) { return f.active, nil }
func (f *fakeDB) CleanupOldData() error             { return nil }
func (f *fakeDB) Close() error                      { return nil }

// -----------------------------------------------------------------------------
// Harness
// -----------------------------------------------------------------------------

type harness struct {
	engine  *Engine
	chart   *fakeChart
	view    *fakeView
	feed    *fakeFeed
	sink    *fakeSink
	db      *fakeDB
	actions *fakeActions
}

func startEngine(t *testing.T, timeout time.Duration) *harness {
	t.Helper()
	log := logger.NewLoggerTo(io.Discard, "DEBUG", "test")
	router := dashboard.NewRouter(dashboard.Options{InitialSymbol: "BTC", MinConfidence: 50},
		dashboard.NewProjector(config.Default().Display), log)

	h := &harness{
		chart:   &fakeChart{},
		view:    &fakeView{},
		feed:    &fakeFeed{},
		sink:    &fakeSink{},
		db:      &fakeDB{},
		actions: &fakeActions{},
	}
	h.engine = NewEngine(router, Deps{
		Chart:    h.chart,
		View:     h.view,
		Feed:     h.feed,
		Address:  fakeAddress{},
		Actions:  h.actions,
		Database: h.db,
		Sinks:    []interfaces.IAlertSink{h.sink},
	}, Options{RequestTimeout: timeout}, log)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.engine.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return h
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func conf(v float64) *float64 { return &v }

// -----------------------------------------------------------------------------
// Tests
// -----------------------------------------------------------------------------

func TestEngineSessionFlow(t *testing.T) {
	h := startEngine(t, time.Minute)

	h.engine.Post(dashboard.ConnectedEvent{})
	waitFor(t, "change_symbol", func() bool { return h.feed.has("change_symbol BTC") })

	h.engine.Post(dashboard.HistoryEvent{Symbol: "BTC", Candles: []models.MCandle{
		{Time: 60, Close: 1}, {Time: 120, Close: 2},
	}})
	h.engine.Post(dashboard.SymbolChangedEvent{Symbol: "BTC"})
	h.engine.Post(dashboard.UpdateEvent{Candle: models.MCandle{Time: 180, Close: 3}})

	waitFor(t, "navigation", func() bool { return h.view.has("navigate /?symbol=BTC Sniper AI - BTC") })
	waitFor(t, "bar", func() bool { return h.chart.has("bar BTC 180") })
	if !h.chart.has("series BTC 2") || !h.chart.has("derived BTC 2") {
		t.Error("history not rendered")
	}
	waitFor(t, "journal", func() bool { return h.db.has("active BTC") })
	waitFor(t, "state", func() bool {
		st := h.engine.State()
		return st.Session.State == dashboard.Active && len(st.Series) == 3
	})
}

func TestEngineRequestTimeout(t *testing.T) {
	h := startEngine(t, 30*time.Millisecond)

	h.engine.Post(dashboard.ConnectedEvent{})
	waitFor(t, "timeout notice", func() bool { return h.view.has("notice warning") })
	waitFor(t, "idle session", func() bool {
		st := h.engine.State()
		return st.Session.State == dashboard.Idle && st.Display.CanRetry
	})

	h.engine.Retry()
	waitFor(t, "retry request", func() bool { return h.feed.count("change_symbol BTC") == 2 })
}

func TestEngineAcknowledgmentCancelsTimeout(t *testing.T) {
	h := startEngine(t, 40*time.Millisecond)

	h.engine.Post(dashboard.ConnectedEvent{})
	h.engine.Post(dashboard.SymbolChangedEvent{Symbol: "BTC"})
	time.Sleep(100 * time.Millisecond)

	if h.view.has("notice warning") {
		t.Fatal("timeout fired after acknowledgment")
	}
	if st := h.engine.State(); st.Session.State != dashboard.Active {
		t.Errorf("state = %s", st.Session.State)
	}
}

func TestEngineAlertsReachSinks(t *testing.T) {
	h := startEngine(t, time.Minute)
	h.engine.RequestSymbol("ETH")
	h.engine.Post(dashboard.SymbolChangedEvent{Symbol: "ETH"})
	h.engine.Post(dashboard.AnalysisEvent{Snapshot: models.MAnalysisSnapshot{
		Symbol: "ETH", Signal: models.SignalSell, ConfidenceScore: conf(70),
	}})

	waitFor(t, "sink", func() bool { return h.sink.has("notify ETH SELL") })
	waitFor(t, "journal", func() bool { return h.db.has("alert ETH") })
	if !h.view.has("alert ETH SELL") {
		t.Error("alert not published to the view")
	}
}

func TestEngineActions(t *testing.T) {
	h := startEngine(t, time.Minute)
	h.actions.result = models.MActionResult{Status: "success", Message: "Saved"}

	h.engine.RunAction(models.ActionSaveConfig, map[string]interface{}{"risk": 1})
	waitFor(t, "reload", func() bool { return h.view.has("reload") })
	waitFor(t, "notice", func() bool { return h.engine.State().Display.Notice == "Saved" })
}

func TestEngineActionFailure(t *testing.T) {
	h := startEngine(t, time.Minute)
	h.actions.err = errors.New("connection refused")

	h.engine.RunAction(models.ActionWipeData, nil)
	waitFor(t, "error notice", func() bool { return h.view.has("notice error") })
	if h.view.has("reload") {
		t.Error("failed action triggered a reload")
	}
	if h.engine.ErrorCount() == 0 {
		t.Error("failure not counted")
	}
}

func TestPostAfterStop(t *testing.T) {
	log := logger.NewLoggerTo(io.Discard, "INFO", "test")
	router := dashboard.NewRouter(dashboard.Options{}, dashboard.NewProjector(config.Default().Display), log)
	e := NewEngine(router, Deps{}, Options{}, log)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e.Run(ctx)

	if e.Post(dashboard.RetryEvent{}) {
		t.Error("Post succeeded on a stopped engine")
	}
}

func TestSubscribersSeeEveryEvent(t *testing.T) {
	h := startEngine(t, time.Minute)
	var mu sync.Mutex
	var states []dashboard.SessionState
	h.engine.Subscribe(func(st dashboard.DashboardState) {
		mu.Lock()
		states = append(states, st.Session.State)
		mu.Unlock()
	})

	h.engine.RequestSymbol("SOL")
	h.engine.Post(dashboard.SymbolChangedEvent{Symbol: "SOL"})
	waitFor(t, "observer", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(states) == 2
	})
	mu.Lock()
	defer mu.Unlock()
	if states[0] != dashboard.Requesting || states[1] != dashboard.Active {
		t.Errorf("observed %v", states)
	}
}
