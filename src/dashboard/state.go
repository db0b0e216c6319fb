package dashboard

import (
	"strings"

	"market-dashboard/src/models"
)

// SessionState is the lifecycle of the symbol being watched.
type SessionState int

const (
	Idle SessionState = iota
	Requesting
	Active
)

func (s SessionState) String() string {
	switch s {
	case Requesting:
		return "REQUESTING"
	case Active:
		return "ACTIVE"
	default:
		return "IDLE"
	}
}

func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// -----------------------------------------------------------------------------

// SymbolSession tracks which symbol the dashboard follows.
// LastSignal is the only memory carried from one analysis snapshot to the next.
type SymbolSession struct {
	State         SessionState  `json:"state"`
	ActiveSymbol  string        `json:"active_symbol"`
	PendingSymbol string        `json:"pending_symbol"`
	RequestID     string        `json:"request_id"`
	FailedSymbol  string        `json:"failed_symbol"`
	LastSignal    models.Signal `json:"last_signal"`
}

// Target is the symbol incoming data must match: the pending symbol while
// requesting, the active one while active, and nothing while idle.
func (s SymbolSession) Target() string {
	switch s.State {
	case Requesting:
		return s.PendingSymbol
	case Active:
		return s.ActiveSymbol
	default:
		return ""
	}
}

// -----------------------------------------------------------------------------

// DashboardState is the whole client-side picture, owned by the dispatcher.
type DashboardState struct {
	Session      SymbolSession             `json:"session"`
	Connected    bool                      `json:"connected"`
	SeriesSymbol string                    `json:"series_symbol"`
	Series       []models.MCandle          `json:"series"`
	Derived      []models.MDerivedPoint    `json:"derived"`
	Snapshot     *models.MAnalysisSnapshot `json:"snapshot,omitempty"`
	Display      models.MDisplayRecord     `json:"display"`
}

// Clone returns a deep copy safe to hand to other goroutines.
func (s DashboardState) Clone() DashboardState {
	out := s
	out.Series = append([]models.MCandle(nil), s.Series...)
	out.Derived = append([]models.MDerivedPoint(nil), s.Derived...)
	if s.Snapshot != nil {
		snap := s.Snapshot.Clone()
		out.Snapshot = &snap
	}
	out.Display = s.Display.Clone()
	return out
}

// -----------------------------------------------------------------------------

// NormalizeSymbol trims and uppercases user or feed input.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
