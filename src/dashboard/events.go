package dashboard

import (
	"time"

	"market-dashboard/src/models"
)

// Event is anything the dispatcher reacts to. The set is closed.
type Event interface {
	Name() string
	isEvent()
}

// HistoryEvent replaces the series of Symbol.
type HistoryEvent struct {
	Symbol  string
	Candles []models.MCandle
}

// UpdateEvent appends a bar or amends the in-progress one. Symbol is empty when the feed does not tag it.
type UpdateEvent struct {
	Symbol string
	Candle models.MCandle
}

// AnalysisEvent carries a new snapshot.
type AnalysisEvent struct {
	Snapshot models.MAnalysisSnapshot
}

// SymbolChangedEvent is the feed acknowledging which symbol it now streams.
type SymbolChangedEvent struct {
	Symbol string
}

// ConnectedEvent and DisconnectedEvent track the feed link.
type ConnectedEvent struct{}

type DisconnectedEvent struct {
	Reason string
}

// SymbolRequestEvent is the user asking for another symbol.
type SymbolRequestEvent struct {
	Symbol string
}

// RetryEvent re-requests the symbol whose change timed out.
type RetryEvent struct{}

// RequestTimeoutEvent fires when no acknowledgment arrived for RequestID.
type RequestTimeoutEvent struct {
	RequestID string
}

// ActionRequestEvent asks the backend to run Action. Payload is only used by save_config.
type ActionRequestEvent struct {
	Action  models.Action
	Payload map[string]interface{}
}

// ActionCompletedEvent reports a backend reply.
type ActionCompletedEvent struct {
	Action models.Action
	Result models.MActionResult
	Err    error
}

// ClockEvent refreshes time-dependent display fields.
type ClockEvent struct {
	Now time.Time
}

func (HistoryEvent) Name() string         { return "chart_history" }
func (UpdateEvent) Name() string          { return "chart_update" }
func (AnalysisEvent) Name() string        { return "analysis_update" }
func (SymbolChangedEvent) Name() string   { return "symbol_changed" }
func (ConnectedEvent) Name() string       { return "connected" }
func (DisconnectedEvent) Name() string    { return "disconnected" }
func (SymbolRequestEvent) Name() string   { return "symbol_request" }
func (RetryEvent) Name() string           { return "retry" }
func (RequestTimeoutEvent) Name() string  { return "request_timeout" }
func (ActionRequestEvent) Name() string   { return "action_request" }
func (ActionCompletedEvent) Name() string { return "action_completed" }
func (ClockEvent) Name() string           { return "clock" }

func (HistoryEvent) isEvent()         {}
func (UpdateEvent) isEvent()          {}
func (AnalysisEvent) isEvent()        {}
func (SymbolChangedEvent) isEvent()   {}
func (ConnectedEvent) isEvent()       {}
func (DisconnectedEvent) isEvent()    {}
func (SymbolRequestEvent) isEvent()   {}
func (RetryEvent) isEvent()           {}
func (RequestTimeoutEvent) isEvent()  {}
func (ActionRequestEvent) isEvent()   {}
func (ActionCompletedEvent) isEvent() {}
func (ClockEvent) isEvent()           {}
