package feed

import (
	"encoding/json"
	"fmt"
	"strings"

	"market-dashboard/src/dashboard"
	"market-dashboard/src/helpers"
	"market-dashboard/src/models"
)

// Feed event names.
const (
	EventChartHistory   = "chart_history"
	EventChartUpdate    = "chart_update"
	EventAnalysisUpdate = "analysis_update"
	EventSymbolChanged  = "symbol_changed"
	EventChangeSymbol   = "change_symbol"
)

// Envelope is one websocket frame: {"event": "...", "data": ...}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ChangeSymbolRequest is the outbound change_symbol payload.
type ChangeSymbolRequest struct {
	Symbol    string `json:"symbol"`
	RequestID string `json:"request_id,omitempty"`
}

// -----------------------------------------------------------------------------

// Codec turns feed frames into dashboard events.
type Codec struct {
	indicators []string
}

// NewCodec returns a codec that also lifts the named top-level keys (e.g. rsi)
// into the snapshot indicator values.
func NewCodec(indicators []string) *Codec {
	names := make([]string, 0, len(indicators))
	for _, n := range indicators {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			names = append(names, n)
		}
	}
	return &Codec{indicators: names}
}

// -----------------------------------------------------------------------------

// Decode parses one frame. Unknown events return (nil, nil).
func (c *Codec) Decode(frame []byte) (dashboard.Event, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, helpers.NewFeedError("malformed frame", err)
	}

	switch env.Event {
	case EventChartHistory:
		return c.decodeHistory(env.Data)
	case EventChartUpdate:
		return c.decodeUpdate(env.Data)
	case EventAnalysisUpdate:
		return c.decodeAnalysis(env.Data)
	case EventSymbolChanged:
		return c.decodeSymbolChanged(env.Data)
	case "":
		return nil, helpers.NewFeedError("frame without event name", nil)
	default:
		return nil, nil
	}
}

// -----------------------------------------------------------------------------

// EncodeChangeSymbol builds the change_symbol frame.
func EncodeChangeSymbol(symbol, requestID string) ([]byte, error) {
	data, err := json.Marshal(ChangeSymbolRequest{Symbol: symbol, RequestID: requestID})
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: EventChangeSymbol, Data: data})
}

// -----------------------------------------------------------------------------

func (c *Codec) decodeHistory(raw json.RawMessage) (dashboard.Event, error) {
	var v interface{}
	if err := unmarshalData(raw, &v); err != nil {
		return nil, err
	}

	switch body := v.(type) {
	case nil:
		return dashboard.HistoryEvent{}, nil
	case []interface{}:
		// bare candle list, no symbol tag
		return dashboard.HistoryEvent{Candles: candles(body)}, nil
	case map[string]interface{}:
		list, _ := body["candles"].([]interface{})
		return dashboard.HistoryEvent{
			Symbol:  dashboard.NormalizeSymbol(safeString(body, "symbol")),
			Candles: candles(list),
		}, nil
	default:
		return nil, helpers.NewFeedError(fmt.Sprintf("chart_history: unexpected %T payload", v), nil)
	}
}

// -----------------------------------------------------------------------------

func (c *Codec) decodeUpdate(raw json.RawMessage) (dashboard.Event, error) {
	var body map[string]interface{}
	if err := unmarshalData(raw, &body); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, helpers.NewFeedError("chart_update without candle", nil)
	}
	return dashboard.UpdateEvent{
		Symbol: dashboard.NormalizeSymbol(safeString(body, "symbol")),
		Candle: candle(body),
	}, nil
}

// -----------------------------------------------------------------------------

func (c *Codec) decodeAnalysis(raw json.RawMessage) (dashboard.Event, error) {
	var body map[string]interface{}
	if err := unmarshalData(raw, &body); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, helpers.NewFeedError("analysis_update without payload", nil)
	}

	snap := models.MAnalysisSnapshot{
		Symbol:     dashboard.NormalizeSymbol(safeString(body, "symbol")),
		Regime:     safeString(body, "regime"),
		Entry:      price(body, "entry_price", "entry"),
		StopLoss:   price(body, "sl_price", "sl", "stop_loss"),
		TakeProfit: price(body, "tp_price", "tp", "take_profit"),
	}
	if raw := safeString(body, "signal"); raw != "" {
		snap.Signal = models.ParseSignal(raw)
	}
	if v, ok := firstFloat(body, "confluence_score", "confluence", "confidence"); ok {
		snap.ConfidenceScore = ptr(v)
	}
	if v, ok := safeFloat64(body, "total_profit"); ok {
		snap.TotalProfit = ptr(v)
	}

	snap.IndicatorValues = make(map[string]*float64)
	for _, name := range c.indicators {
		if v, ok := safeFloat64(body, name); ok {
			snap.IndicatorValues[name] = ptr(v)
		}
	}
	for name, val := range safeMap(body, "indicators") {
		if v, ok := toFloat(val); ok {
			snap.IndicatorValues[strings.ToLower(name)] = ptr(v)
		}
	}

	if statuses := safeMap(body, "dashboard", "strategies"); statuses != nil {
		snap.StrategyStatuses = make(map[string]models.Signal, len(statuses))
		for name, val := range statuses {
			if s, ok := val.(string); ok {
				snap.StrategyStatuses[name] = strategySignal(s)
			}
		}
	}

	return dashboard.AnalysisEvent{Snapshot: snap}, nil
}

// -----------------------------------------------------------------------------

func (c *Codec) decodeSymbolChanged(raw json.RawMessage) (dashboard.Event, error) {
	var v interface{}
	if err := unmarshalData(raw, &v); err != nil {
		return nil, err
	}
	switch body := v.(type) {
	case string:
		return dashboard.SymbolChangedEvent{Symbol: body}, nil
	case map[string]interface{}:
		return dashboard.SymbolChangedEvent{Symbol: safeString(body, "symbol")}, nil
	default:
		return dashboard.SymbolChangedEvent{}, nil
	}
}

// -----------------------------------------------------------------------------

func unmarshalData(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return helpers.NewFeedError("malformed payload", err)
	}
	return nil
}

func candles(list []interface{}) []models.MCandle {
	out := make([]models.MCandle, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, candle(m))
		}
	}
	return out
}

func candle(m map[string]interface{}) models.MCandle {
	c := models.MCandle{Time: safeInt64(m, "time")}
	c.Open, _ = safeFloat64(m, "open")
	c.High, _ = safeFloat64(m, "high")
	c.Low, _ = safeFloat64(m, "low")
	c.Close, _ = safeFloat64(m, "close")
	return c
}

// strategySignal also accepts the directional wording some producers use.
func strategySignal(raw string) models.Signal {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "LONG", "BULLISH":
		return models.SignalBuy
	case "SHORT", "BEARISH":
		return models.SignalSell
	}
	return models.ParseSignal(raw)
}
