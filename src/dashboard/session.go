package dashboard

import (
	"fmt"

	"market-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// Symbol session lifecycle: Idle -> Requesting -> Active
// -----------------------------------------------------------------------------

func (r *Router) onConnected() []Effect {
	r.state.Connected = true
	r.state.Display.FeedStatus = feedConnected

	s := r.state.Session
	switch s.State {
	case Requesting:
		// resend so the feed hears about it after a reconnect
		return []Effect{ChangeSymbolEffect{Symbol: s.PendingSymbol, RequestID: s.RequestID}, r.displayEffect()}
	case Active:
		return r.resumeRequest(s.ActiveSymbol)
	default:
		symbol := s.FailedSymbol
		if symbol == "" {
			symbol = r.opts.InitialSymbol
		}
		if symbol == "" {
			return []Effect{r.displayEffect()}
		}
		return r.beginRequest(symbol)
	}
}

// -----------------------------------------------------------------------------

func (r *Router) onDisconnected(e DisconnectedEvent) []Effect {
	r.state.Connected = false
	r.state.Display.FeedStatus = feedDisconnected
	if e.Reason != "" {
		r.log.Info("Feed disconnected: %s", e.Reason)
	}
	return []Effect{r.displayEffect()}
}

// -----------------------------------------------------------------------------

// onSymbolRequest is requestChange: normalize, ignore blanks and repeats, then request.
func (r *Router) onSymbolRequest(e SymbolRequestEvent) []Effect {
	symbol := NormalizeSymbol(e.Symbol)
	s := r.state.Session
	switch {
	case symbol == "":
		r.log.Debug("Ignoring blank symbol request")
		return nil
	case s.State == Active && symbol == s.ActiveSymbol:
		r.log.Debug("Already watching %s", symbol)
		return nil
	case s.State == Requesting && symbol == s.PendingSymbol:
		r.log.Debug("Already requesting %s", symbol)
		return nil
	}
	return r.beginRequest(symbol)
}

// -----------------------------------------------------------------------------

// beginRequest moves to Requesting(symbol) and clears chart and widgets right away.
// A newer request supersedes an older one.
func (r *Router) beginRequest(symbol string) []Effect {
	prev := r.state.Session
	id := r.opts.NewRequestID()

	r.state.Session = SymbolSession{
		State:         Requesting,
		ActiveSymbol:  prev.ActiveSymbol,
		PendingSymbol: symbol,
		RequestID:     id,
		LastSignal:    prev.LastSignal,
	}
	if symbol != prev.Target() {
		r.state.Session.LastSignal = models.SignalHold
	}

	r.clearChart()
	r.state.Snapshot = nil
	r.state.Display = r.projector.Loading(r.state.Display, symbol)
	r.refreshMeta()

	r.log.Info("Requesting symbol %s (request %s)", symbol, id)
	return []Effect{
		ChangeSymbolEffect{Symbol: symbol, RequestID: id},
		SetSeriesEffect{Symbol: symbol},
		SetDerivedEffect{Symbol: symbol},
		r.displayEffect(),
	}
}

// resumeRequest asks the feed to continue symbol after a reconnect. Chart and
// widgets keep their data while the acknowledgment is pending.
func (r *Router) resumeRequest(symbol string) []Effect {
	prev := r.state.Session
	id := r.opts.NewRequestID()

	r.state.Session = SymbolSession{
		State:         Requesting,
		ActiveSymbol:  prev.ActiveSymbol,
		PendingSymbol: symbol,
		RequestID:     id,
		LastSignal:    prev.LastSignal,
	}
	r.refreshMeta()

	r.log.Info("Resuming symbol %s (request %s)", symbol, id)
	return []Effect{ChangeSymbolEffect{Symbol: symbol, RequestID: id}, r.displayEffect()}
}

// -----------------------------------------------------------------------------

func (r *Router) onSymbolChanged(e SymbolChangedEvent) []Effect {
	symbol := NormalizeSymbol(e.Symbol)
	if symbol == "" {
		return r.discard(e, "acknowledgment without symbol")
	}

	s := r.state.Session
	switch s.State {
	case Requesting:
		if symbol != s.PendingSymbol {
			return r.discard(e, fmt.Sprintf("acknowledgment for superseded %s while requesting %s", symbol, s.PendingSymbol))
		}
		return r.activate(symbol, false)
	case Active:
		if symbol == s.ActiveSymbol {
			return nil
		}
		return r.activate(symbol, true)
	default:
		return r.activate(symbol, true)
	}
}

// -----------------------------------------------------------------------------

// activate makes symbol the active one. unsolicited is true when the feed switched
// on its own and the widgets still show another symbol.
func (r *Router) activate(symbol string, unsolicited bool) []Effect {
	prev := r.state.Session
	r.state.Session = SymbolSession{
		State:        Active,
		ActiveSymbol: symbol,
		LastSignal:   prev.LastSignal,
	}
	if symbol != prev.Target() {
		r.state.Session.LastSignal = models.SignalHold
	}

	effects := []Effect{CancelTimeoutEffect{}}
	if r.state.SeriesSymbol != "" && r.state.SeriesSymbol != symbol {
		r.clearChart()
		effects = append(effects, SetSeriesEffect{Symbol: symbol}, SetDerivedEffect{Symbol: symbol})
	}
	if r.state.Snapshot != nil && r.state.Snapshot.Symbol != symbol {
		r.state.Snapshot = nil
	}
	if unsolicited {
		r.state.Display = r.projector.Loading(r.state.Display, symbol)
	}
	r.refreshMeta()

	r.log.Info("Symbol %s active", symbol)
	if symbol != prev.ActiveSymbol {
		effects = append(effects, AddressEffect{Symbol: symbol, Previous: prev.ActiveSymbol})
	}
	return append(effects, FitContentEffect{}, r.displayEffect())
}

// -----------------------------------------------------------------------------

func (r *Router) onTimeout(e RequestTimeoutEvent) []Effect {
	s := r.state.Session
	if s.State != Requesting || e.RequestID != s.RequestID {
		r.log.Debug("Ignoring stale timeout for request %s", e.RequestID)
		return nil
	}

	r.state.Session = SymbolSession{
		State:        Idle,
		FailedSymbol: s.PendingSymbol,
		LastSignal:   s.LastSignal,
	}
	msg := fmt.Sprintf("No answer from the feed for %s. Retry?", s.PendingSymbol)
	r.state.Display.Notice = msg
	r.refreshMeta()

	r.log.Warning("Symbol request %s for %s timed out", s.RequestID, s.PendingSymbol)
	return []Effect{NoticeEffect{Level: "warning", Message: msg}, r.displayEffect()}
}

// -----------------------------------------------------------------------------

func (r *Router) onRetry() []Effect {
	s := r.state.Session
	if s.State != Idle || s.FailedSymbol == "" {
		return nil
	}
	return r.beginRequest(s.FailedSymbol)
}

// -----------------------------------------------------------------------------

// refreshMeta syncs the session-related display fields with the session.
func (r *Router) refreshMeta() {
	s := r.state.Session
	d := &r.state.Display
	d.SessionStatus = s.State.String()
	d.CanRetry = s.State == Idle && s.FailedSymbol != ""
	switch {
	case s.Target() != "":
		d.Symbol = s.Target()
	case s.FailedSymbol != "":
		d.Symbol = s.FailedSymbol
	}
	d.MarketStatus = r.marketStatus(r.opts.Now())
}
