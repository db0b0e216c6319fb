package models

import "time"

// MAlert is raised when the composite signal turns actionable.
type MAlert struct {
	Symbol     string    `json:"symbol"`
	Signal     Signal    `json:"signal"`
	Previous   Signal    `json:"previous"`
	Confidence *float64  `json:"confidence,omitempty"`
	Sound      string    `json:"sound"`
	Message    string    `json:"message"`
	Time       time.Time `json:"time"`
}

// MSymbolChange records a symbol becoming active.
type MSymbolChange struct {
	Symbol   string    `json:"symbol"`
	Previous string    `json:"previous"`
	Time     time.Time `json:"time"`
}

// Action names a user-triggered backend operation.
type Action string

const (
	ActionSaveConfig    Action = "save_config"
	ActionEmergencyExit Action = "panic"
	ActionWipeData      Action = "wipe_config"
)

// MActionResult is the backend reply to an action.
type MActionResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Succeeded reports whether the backend accepted the action.
func (r MActionResult) Succeeded() bool {
	return r.Status == "success" || r.Status == "ok"
}
