package dashboard

import "market-dashboard/src/models"

// Effect is an instruction for a collaborator, produced by the router and applied by the engine.
type Effect interface {
	isEffect()
}

// Chart commands.
type SetSeriesEffect struct {
	Symbol  string
	Candles []models.MCandle
}

type AppendOrAmendEffect struct {
	Symbol string
	Candle models.MCandle
}

type SetDerivedEffect struct {
	Symbol string
	Points []models.MDerivedPoint
}

type UpdateDerivedEffect struct {
	Symbol string
	Point  models.MDerivedPoint
}

type FitContentEffect struct{}

type ScrollRealtimeEffect struct{}

// DisplayEffect publishes a new display record.
type DisplayEffect struct {
	Display models.MDisplayRecord
}

// AlertEffect announces a signal transition.
type AlertEffect struct {
	Alert models.MAlert
}

// ChangeSymbolEffect sends change_symbol to the feed and arms the request timeout.
type ChangeSymbolEffect struct {
	Symbol    string
	RequestID string
}

// CancelTimeoutEffect disarms the request timeout.
type CancelTimeoutEffect struct{}

// AddressEffect writes the page address and title for the active symbol.
type AddressEffect struct {
	Symbol   string
	Previous string
}

// NoticeEffect shows a message to the user.
type NoticeEffect struct {
	Level   string
	Message string
}

// RunActionEffect calls the action backend.
type RunActionEffect struct {
	Action  models.Action
	Payload map[string]interface{}
}

// ReloadEffect asks dashboards to reload the page.
type ReloadEffect struct{}

func (SetSeriesEffect) isEffect()      {}
func (AppendOrAmendEffect) isEffect()  {}
func (SetDerivedEffect) isEffect()     {}
func (UpdateDerivedEffect) isEffect()  {}
func (FitContentEffect) isEffect()     {}
func (ScrollRealtimeEffect) isEffect() {}
func (DisplayEffect) isEffect()        {}
func (AlertEffect) isEffect()          {}
func (ChangeSymbolEffect) isEffect()   {}
func (CancelTimeoutEffect) isEffect()  {}
func (AddressEffect) isEffect()        {}
func (NoticeEffect) isEffect()         {}
func (RunActionEffect) isEffect()      {}
func (ReloadEffect) isEffect()         {}
