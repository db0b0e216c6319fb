package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"market-dashboard/src/dashboard"
	"market-dashboard/src/helpers"
	"market-dashboard/src/interfaces"
	"market-dashboard/src/logger"
	"market-dashboard/src/metrics"
	"market-dashboard/src/models"
)

const defaultEventBuffer = 256

// -----------------------------------------------------------------------------

// Deps are the collaborators the engine drives. Any of them may be nil.
type Deps struct {
	Chart    interfaces.IChartRenderer
	View     interfaces.IViewPublisher
	Feed     interfaces.IFeedPublisher
	Address  interfaces.IAddressState
	Actions  interfaces.IActionBackend
	Database interfaces.IDatabase
	Sinks    []interfaces.IAlertSink
}

// Options tunes the engine.
type Options struct {
	RequestTimeout time.Duration
	EventBuffer    int
	// ActionTimeout bounds one backend call including its retries.
	ActionTimeout time.Duration
}

// Engine owns the router and feeds it one event at a time from a single goroutine.
// Everything else (feed, HTTP handlers, timers, cron) talks to it through Post.
type Engine struct {
	router *dashboard.Router
	deps   Deps
	opts   Options
	log    *logger.Logger
	errs   *helpers.ErrorHandler

	events chan dashboard.Event
	done   chan struct{}
	ctx    context.Context
	tasks  sync.WaitGroup

	// owned by the run goroutine
	timeout *time.Timer

	mu        sync.RWMutex
	state     dashboard.DashboardState
	observers []func(dashboard.DashboardState)
}

// -----------------------------------------------------------------------------

func NewEngine(router *dashboard.Router, deps Deps, opts Options, log *logger.Logger) *Engine {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = defaultEventBuffer
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = time.Minute
	}
	return &Engine{
		router: router,
		deps:   deps,
		opts:   opts,
		log:    log,
		errs:   helpers.NewErrorHandler(log),
		events: make(chan dashboard.Event, opts.EventBuffer),
		done:   make(chan struct{}),
		ctx:    context.Background(),
		state:  router.State(),
	}
}

// -----------------------------------------------------------------------------

// Post queues an event. It blocks while the queue is full and returns false once
// the engine has stopped.
func (e *Engine) Post(ev dashboard.Event) bool {
	select {
	case <-e.done:
		return false
	default:
	}
	select {
	case e.events <- ev:
		return true
	case <-e.done:
		return false
	}
}

// RequestSymbol asks for a symbol change on behalf of the user.
func (e *Engine) RequestSymbol(symbol string) bool {
	return e.Post(dashboard.SymbolRequestEvent{Symbol: symbol})
}

// Retry re-requests the symbol whose request timed out.
func (e *Engine) Retry() bool {
	return e.Post(dashboard.RetryEvent{})
}

// RunAction queues a backend action.
func (e *Engine) RunAction(action models.Action, payload map[string]interface{}) bool {
	return e.Post(dashboard.ActionRequestEvent{Action: action, Payload: payload})
}

// State returns the state as of the last handled event.
func (e *Engine) State() dashboard.DashboardState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone()
}

// Subscribe registers fn to be called after every handled event. fn runs on the
// engine goroutine and must not block or call Post.
func (e *Engine) Subscribe(fn func(dashboard.DashboardState)) {
	e.mu.Lock()
	e.observers = append(e.observers, fn)
	e.mu.Unlock()
}

// ErrorCount reports collaborator failures seen so far.
func (e *Engine) ErrorCount() int {
	return e.errs.ErrorCount()
}

// -----------------------------------------------------------------------------

// Run handles events until ctx is cancelled, then waits for in-flight tasks.
func (e *Engine) Run(ctx context.Context) error {
	e.ctx = ctx
	e.log.Info("Dashboard engine started")
	defer func() {
		e.stopTimeout()
		close(e.done)
		e.tasks.Wait()
		e.log.Info("Dashboard engine stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-e.events:
			e.handle(ev)
		}
	}
}

// -----------------------------------------------------------------------------

func (e *Engine) handle(ev dashboard.Event) {
	metrics.EventsTotal.WithLabelValues(ev.Name()).Inc()
	switch ev.(type) {
	case dashboard.ConnectedEvent:
		metrics.SetFeedConnected(true)
	case dashboard.DisconnectedEvent:
		metrics.SetFeedConnected(false)
	}

	for _, eff := range e.router.Handle(ev) {
		e.apply(eff)
	}

	state := e.router.State()
	e.mu.Lock()
	e.state = state
	observers := e.observers
	e.mu.Unlock()
	for _, fn := range observers {
		fn(state)
	}
}

// -----------------------------------------------------------------------------

func (e *Engine) apply(eff dashboard.Effect) {
	chart, view := e.deps.Chart, e.deps.View

	switch x := eff.(type) {
	case dashboard.SetSeriesEffect:
		if chart != nil {
			chart.SetFullSeries(x.Symbol, x.Candles)
		}
	case dashboard.AppendOrAmendEffect:
		if chart != nil {
			chart.AppendOrAmend(x.Symbol, x.Candle)
		}
	case dashboard.SetDerivedEffect:
		if chart != nil {
			chart.SetDerivedSeries(x.Symbol, x.Points)
		}
	case dashboard.UpdateDerivedEffect:
		if chart != nil {
			chart.UpdateDerivedPoint(x.Symbol, x.Point)
		}
	case dashboard.FitContentEffect:
		if chart != nil {
			chart.FitToContent()
		}
	case dashboard.ScrollRealtimeEffect:
		if chart != nil {
			chart.ScrollToRealtime()
		}
	case dashboard.DisplayEffect:
		if view != nil {
			view.PublishDisplay(x.Display)
		}
	case dashboard.NoticeEffect:
		if view != nil {
			view.PublishNotice(x.Level, x.Message)
		}
	case dashboard.ReloadEffect:
		if view != nil {
			view.Reload()
		}
	case dashboard.AlertEffect:
		e.alert(x.Alert)
	case dashboard.ChangeSymbolEffect:
		e.changeSymbol(x)
	case dashboard.CancelTimeoutEffect:
		e.stopTimeout()
	case dashboard.AddressEffect:
		e.address(x)
	case dashboard.RunActionEffect:
		e.goTask(func() { e.runAction(x) })
	default:
		e.log.Warning("Unhandled effect %T", eff)
	}
}

// -----------------------------------------------------------------------------

func (e *Engine) changeSymbol(x dashboard.ChangeSymbolEffect) {
	metrics.SymbolRequestsTotal.Inc()
	e.armTimeout(x.RequestID)

	if e.deps.Feed == nil {
		return
	}
	e.goTask(func() {
		if err := e.deps.Feed.ChangeSymbol(e.ctx, x.Symbol, x.RequestID); err != nil {
			// the request timeout turns a lost request into a retry prompt
			e.errs.Handle(err, fmt.Sprintf("change_symbol %s", x.Symbol))
		}
	})
}

func (e *Engine) armTimeout(requestID string) {
	e.stopTimeout()
	if e.opts.RequestTimeout <= 0 {
		return
	}
	e.timeout = time.AfterFunc(e.opts.RequestTimeout, func() {
		metrics.RequestTimeoutsTotal.Inc()
		e.Post(dashboard.RequestTimeoutEvent{RequestID: requestID})
	})
}

func (e *Engine) stopTimeout() {
	if e.timeout != nil {
		e.timeout.Stop()
		e.timeout = nil
	}
}

// -----------------------------------------------------------------------------

func (e *Engine) address(x dashboard.AddressEffect) {
	if e.deps.Address != nil {
		url, title := e.deps.Address.Write(x.Symbol)
		if e.deps.View != nil {
			e.deps.View.Navigate(url, title)
		}
	}

	db := e.deps.Database
	if db == nil {
		return
	}
	change := models.MSymbolChange{Symbol: x.Symbol, Previous: x.Previous, Time: time.Now().UTC()}
	e.goTask(func() {
		if err := db.RecordSymbolChange(change); err != nil {
			e.errs.Handle(err, "record symbol change")
		}
		if err := db.SaveActiveSymbol(change.Symbol); err != nil {
			e.errs.Handle(err, "save active symbol")
		}
	})
}

// -----------------------------------------------------------------------------

func (e *Engine) alert(a models.MAlert) {
	metrics.AlertsTotal.WithLabelValues(string(a.Signal)).Inc()
	e.log.Info("ALERT %s", a.Message)
	if e.deps.View != nil {
		e.deps.View.PublishAlert(a)
	}

	for _, sink := range e.deps.Sinks {
		e.goTask(func() {
			if err := sink.Notify(e.ctx, a); err != nil {
				e.errs.Handle(err, "alert delivery")
			}
		})
	}
	if db := e.deps.Database; db != nil {
		e.goTask(func() {
			if err := db.RecordAlert(a); err != nil {
				e.errs.Handle(err, "record alert")
			}
		})
	}
}

// -----------------------------------------------------------------------------

func (e *Engine) runAction(x dashboard.RunActionEffect) {
	ctx, cancel := context.WithTimeout(e.ctx, e.opts.ActionTimeout)
	defer cancel()

	var (
		result models.MActionResult
		err    error
	)
	backend := e.deps.Actions
	switch {
	case backend == nil:
		err = helpers.NewActionError("Actions are not available", nil)
	case x.Action == models.ActionSaveConfig:
		result, err = backend.SaveConfig(ctx, x.Payload)
	case x.Action == models.ActionEmergencyExit:
		result, err = backend.EmergencyExit(ctx)
	case x.Action == models.ActionWipeData:
		result, err = backend.WipeData(ctx)
	default:
		err = helpers.NewActionError(fmt.Sprintf("Unknown action %q", x.Action), nil)
	}

	status := result.Status
	if err != nil {
		status = "failed"
		e.errs.Handle(err, fmt.Sprintf("action %s", x.Action))
	}
	metrics.ActionsTotal.WithLabelValues(string(x.Action), status).Inc()

	e.Post(dashboard.ActionCompletedEvent{Action: x.Action, Result: result, Err: err})
}

// -----------------------------------------------------------------------------

func (e *Engine) goTask(fn func()) {
	e.tasks.Add(1)
	go func() {
		defer e.tasks.Done()
		fn()
	}()
}
