package dashboard

import (
	"fmt"
	"slices"
	"time"

	"market-dashboard/src/analysis"
	"market-dashboard/src/helpers"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"

	"github.com/google/uuid"
)

const (
	feedConnected    = "CONNECTED"
	feedDisconnected = "DISCONNECTED"
)

// -----------------------------------------------------------------------------

// Options configures a Router. Zero values get defaults in NewRouter.
type Options struct {
	DerivedWindow int
	MinConfidence float64
	InitialSymbol string

	NewRequestID func() string
	Now          func() time.Time
	MarketStatus func(symbol string, now time.Time) string
	OnDiscard    func(ev Event, reason string)
}

// Router is the single reducer over DashboardState. It is not safe for concurrent
// use; the engine calls it from one goroutine.
type Router struct {
	opts      Options
	projector *Projector
	log       *logger.Logger
	state     DashboardState
}

// -----------------------------------------------------------------------------

func NewRouter(opts Options, projector *Projector, log *logger.Logger) *Router {
	if opts.DerivedWindow <= 0 {
		opts.DerivedWindow = analysis.DefaultWindow
	}
	if opts.NewRequestID == nil {
		opts.NewRequestID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.InitialSymbol = NormalizeSymbol(opts.InitialSymbol)

	r := &Router{
		opts:      opts,
		projector: projector,
		log:       log,
	}
	r.state.Session.LastSignal = models.SignalHold
	r.state.Display = projector.Blank()
	r.state.Display.FeedStatus = feedDisconnected
	return r
}

// -----------------------------------------------------------------------------

// State returns a deep copy of the current state.
func (r *Router) State() DashboardState {
	return r.state.Clone()
}

// -----------------------------------------------------------------------------

// Handle applies one event and returns the effects to carry out, in order.
func (r *Router) Handle(ev Event) []Effect {
	switch e := ev.(type) {
	case HistoryEvent:
		return r.onHistory(e)
	case UpdateEvent:
		return r.onUpdate(e)
	case AnalysisEvent:
		return r.onAnalysis(e)
	case SymbolChangedEvent:
		return r.onSymbolChanged(e)
	case ConnectedEvent:
		return r.onConnected()
	case DisconnectedEvent:
		return r.onDisconnected(e)
	case SymbolRequestEvent:
		return r.onSymbolRequest(e)
	case RetryEvent:
		return r.onRetry()
	case RequestTimeoutEvent:
		return r.onTimeout(e)
	case ActionRequestEvent:
		return []Effect{RunActionEffect{Action: e.Action, Payload: e.Payload}}
	case ActionCompletedEvent:
		return r.onActionCompleted(e)
	case ClockEvent:
		return r.onClock(e)
	default:
		r.log.Warning("Unhandled event %T", ev)
		return nil
	}
}

// -----------------------------------------------------------------------------

func (r *Router) discard(ev Event, reason string) []Effect {
	r.log.Debug("Discarded %s: %s", ev.Name(), reason)
	if r.opts.OnDiscard != nil {
		r.opts.OnDiscard(ev, reason)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Chart
// -----------------------------------------------------------------------------

func (r *Router) onHistory(e HistoryEvent) []Effect {
	target := r.state.Session.Target()
	symbol := NormalizeSymbol(e.Symbol)
	switch {
	case target == "":
		return r.discard(e, "no session")
	case symbol == "":
		return r.discard(e, "untagged history")
	case symbol != target:
		return r.discard(e, fmt.Sprintf("history for %s while watching %s", symbol, target))
	}

	r.state.SeriesSymbol = symbol
	r.state.Series = sortedCandles(e.Candles)
	r.state.Derived = analysis.MovingAverage(r.state.Series, r.opts.DerivedWindow)

	return []Effect{
		SetSeriesEffect{Symbol: symbol, Candles: slices.Clone(r.state.Series)},
		SetDerivedEffect{Symbol: symbol, Points: slices.Clone(r.state.Derived)},
		FitContentEffect{},
	}
}

// -----------------------------------------------------------------------------

func (r *Router) onUpdate(e UpdateEvent) []Effect {
	target := r.state.Session.Target()
	c := e.Candle
	if target == "" {
		return r.discard(e, "no session")
	}
	if c.Time <= 0 {
		return r.discard(e, "candle without time")
	}

	var effects []Effect
	if e.Symbol != "" {
		if symbol := NormalizeSymbol(e.Symbol); symbol != target {
			return r.discard(e, fmt.Sprintf("update for %s while watching %s", symbol, target))
		}
		if r.state.SeriesSymbol != target {
			if r.state.SeriesSymbol != "" {
				effects = append(effects, SetSeriesEffect{Symbol: target}, SetDerivedEffect{Symbol: target})
			}
			r.clearChart()
			r.state.SeriesSymbol = target
		}
	} else if r.state.SeriesSymbol != target {
		return r.discard(e, "untagged update before history")
	}

	n := len(r.state.Series)
	amend := false
	if n > 0 {
		last := r.state.Series[n-1]
		if c.Time < last.Time {
			return r.discard(e, fmt.Sprintf("stale bar %d older than %d", c.Time, last.Time))
		}
		amend = c.Time == last.Time
	}

	if amend {
		r.state.Series[n-1] = c
	} else {
		r.state.Series = append(r.state.Series, c)
	}

	start := max(len(r.state.Series)-r.opts.DerivedWindow, 0)
	point := analysis.MovingAverageLast(r.state.Series[start:], r.opts.DerivedWindow)
	if amend {
		r.state.Derived[n-1] = point
	} else {
		r.state.Derived = append(r.state.Derived, point)
	}

	return append(effects,
		AppendOrAmendEffect{Symbol: target, Candle: c},
		UpdateDerivedEffect{Symbol: target, Point: point},
		ScrollRealtimeEffect{},
	)
}

// -----------------------------------------------------------------------------

func (r *Router) clearChart() {
	r.state.SeriesSymbol = ""
	r.state.Series = nil
	r.state.Derived = nil
}

// -----------------------------------------------------------------------------

// sortedCandles copies candles ordered by time. Bars without a time are dropped and
// a repeated time keeps the later bar.
func sortedCandles(in []models.MCandle) []models.MCandle {
	out := make([]models.MCandle, 0, len(in))
	for _, c := range in {
		if c.Time > 0 {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b models.MCandle) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		default:
			return 0
		}
	})

	dedup := out[:0]
	for _, c := range out {
		if k := len(dedup); k > 0 && dedup[k-1].Time == c.Time {
			dedup[k-1] = c
			continue
		}
		dedup = append(dedup, c)
	}
	return dedup
}

// -----------------------------------------------------------------------------
// Analysis
// -----------------------------------------------------------------------------

func (r *Router) onAnalysis(e AnalysisEvent) []Effect {
	target := r.state.Session.Target()
	snap := e.Snapshot.Clone()
	snap.Symbol = NormalizeSymbol(snap.Symbol)

	switch {
	case target == "":
		return r.discard(e, "no session")
	case snap.Symbol == "" && r.state.Session.State != Active:
		return r.discard(e, "untagged analysis while requesting")
	case snap.Symbol == "":
		snap.Symbol = target
	case snap.Symbol != target:
		return r.discard(e, fmt.Sprintf("analysis for %s while watching %s", snap.Symbol, target))
	}
	if snap.Signal == "" {
		snap.Signal = models.SignalHold
	}

	previous := r.state.Session.LastSignal
	r.state.Session.LastSignal = snap.Signal
	r.state.Snapshot = &snap
	r.state.Display = r.projector.Project(r.state.Display, snap)

	effects := []Effect{r.displayEffect()}
	if ShouldAlert(previous, snap, r.opts.MinConfidence) {
		effects = append(effects, AlertEffect{Alert: r.newAlert(previous, snap)})
	}
	return effects
}

// -----------------------------------------------------------------------------

// ShouldAlert reports whether moving from previous to snap.Signal deserves an alert.
// A positive minConfidence also requires a confidence score at or above it.
func ShouldAlert(previous models.Signal, snap models.MAnalysisSnapshot, minConfidence float64) bool {
	if snap.Signal == previous || !snap.Signal.Actionable() {
		return false
	}
	if minConfidence > 0 {
		return snap.ConfidenceScore != nil && *snap.ConfidenceScore >= minConfidence
	}
	return true
}

// -----------------------------------------------------------------------------

func (r *Router) newAlert(previous models.Signal, snap models.MAnalysisSnapshot) models.MAlert {
	sound := "buy"
	if snap.Signal == models.SignalSell {
		sound = "sell"
	}
	msg := fmt.Sprintf("%s signal on %s", snap.Signal, snap.Symbol)
	var confidence *float64
	if finite(snap.ConfidenceScore) {
		v := *snap.ConfidenceScore
		confidence = &v
		msg += fmt.Sprintf(" (confidence %s)", r.projector.percent(confidence))
	}
	return models.MAlert{
		Symbol:     snap.Symbol,
		Signal:     snap.Signal,
		Previous:   previous,
		Confidence: confidence,
		Sound:      sound,
		Message:    msg,
		Time:       r.opts.Now(),
	}
}

// -----------------------------------------------------------------------------
// Actions and clock
// -----------------------------------------------------------------------------

func (r *Router) onActionCompleted(e ActionCompletedEvent) []Effect {
	level, msg := "info", e.Result.Message
	switch {
	case e.Err != nil:
		level, msg = "error", helpers.UserMessage(e.Err)
	case !e.Result.Succeeded():
		level = "error"
	}
	if msg == "" {
		msg = fmt.Sprintf("%s: %s", e.Action, e.Result.Status)
	}

	r.state.Display.Notice = msg
	effects := []Effect{NoticeEffect{Level: level, Message: msg}, r.displayEffect()}
	if e.Err == nil && e.Result.Succeeded() && e.Action != models.ActionEmergencyExit {
		effects = append(effects, ReloadEffect{})
	}
	return effects
}

// -----------------------------------------------------------------------------

func (r *Router) onClock(e ClockEvent) []Effect {
	status := r.marketStatus(e.Now)
	if status == r.state.Display.MarketStatus {
		return nil
	}
	r.state.Display.MarketStatus = status
	return []Effect{r.displayEffect()}
}

// -----------------------------------------------------------------------------

func (r *Router) marketStatus(now time.Time) string {
	target := r.state.Session.Target()
	if target == "" || r.opts.MarketStatus == nil {
		return r.projector.placeholder
	}
	return r.opts.MarketStatus(target, now)
}

// -----------------------------------------------------------------------------

func (r *Router) displayEffect() DisplayEffect {
	return DisplayEffect{Display: r.state.Display.Clone()}
}
