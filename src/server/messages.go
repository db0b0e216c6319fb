package server

import (
	"market-dashboard/src/dashboard"
	"market-dashboard/src/models"
)

// Outbound message types.
const (
	MsgSnapshot     = "snapshot"
	MsgSeries       = "series"
	MsgBar          = "bar"
	MsgDerived      = "derived"
	MsgDerivedPoint = "derived_point"
	MsgFit          = "fit"
	MsgScroll       = "scroll"
	MsgDisplay      = "display"
	MsgAlert        = "alert"
	MsgNotice       = "notice"
	MsgNavigate     = "navigate"
	MsgReload       = "reload"
)

// Message is one frame pushed to a dashboard.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type seriesData struct {
	Symbol  string           `json:"symbol"`
	Candles []models.MCandle `json:"candles"`
}

type barData struct {
	Symbol string         `json:"symbol"`
	Candle models.MCandle `json:"candle"`
}

type derivedData struct {
	Symbol string                 `json:"symbol"`
	Points []models.MDerivedPoint `json:"points"`
}

type derivedPointData struct {
	Symbol string               `json:"symbol"`
	Point  models.MDerivedPoint `json:"point"`
}

type noticeData struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// PageData is the address and title dashboards should show.
type PageData struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// SnapshotData is sent to a dashboard right after it connects.
type SnapshotData struct {
	dashboard.DashboardState
	Page PageData `json:"page"`
}

// -----------------------------------------------------------------------------
// Inbound
// -----------------------------------------------------------------------------

// ClientCommand is a message from a dashboard: change_symbol, retry or action.
type ClientCommand struct {
	Type    string                 `json:"type"`
	Symbol  string                 `json:"symbol,omitempty"`
	Action  string                 `json:"action,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}
