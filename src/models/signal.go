package models

import "strings"

// Signal is a trading recommendation, either the composite one or a single strategy status.
type Signal string

const (
	SignalBuy     Signal = "BUY"
	SignalSell    Signal = "SELL"
	SignalHold    Signal = "HOLD"
	SignalNeutral Signal = "NEUTRAL"
)

// -----------------------------------------------------------------------------

// ParseSignal maps a raw feed value onto a Signal. Unknown or empty values become HOLD.
func ParseSignal(raw string) Signal {
	switch Signal(strings.ToUpper(strings.TrimSpace(raw))) {
	case SignalBuy:
		return SignalBuy
	case SignalSell:
		return SignalSell
	case SignalNeutral:
		return SignalNeutral
	default:
		return SignalHold
	}
}

// -----------------------------------------------------------------------------

// Actionable reports whether the signal asks for a trade.
func (s Signal) Actionable() bool {
	return s == SignalBuy || s == SignalSell
}
