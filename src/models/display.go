package models

// MStrategyCard is the rendered status of one strategy widget.
type MStrategyCard struct {
	Label string `json:"label"`
	Class string `json:"class"`
}

// MDisplayRecord is everything the widgets show, already formatted.
type MDisplayRecord struct {
	Symbol        string                   `json:"symbol"`
	SignalLabel   string                   `json:"signal_label"`
	SignalClass   string                   `json:"signal_class"`
	Confidence    string                   `json:"confidence"`
	Regime        string                   `json:"regime"`
	Entry         string                   `json:"entry"`
	StopLoss      string                   `json:"stop_loss"`
	TakeProfit    string                   `json:"take_profit"`
	Indicators    map[string]string        `json:"indicators"`
	Strategies    map[string]MStrategyCard `json:"strategies"`
	TotalProfit   string                   `json:"total_profit"`
	MarketStatus  string                   `json:"market_status"`
	SessionStatus string                   `json:"session_status"`
	FeedStatus    string                   `json:"feed_status"`
	Notice        string                   `json:"notice,omitempty"`
	CanRetry      bool                     `json:"can_retry"`
}

// Clone returns a copy that shares no maps with the receiver.
func (d MDisplayRecord) Clone() MDisplayRecord {
	out := d
	out.Indicators = make(map[string]string, len(d.Indicators))
	for k, v := range d.Indicators {
		out.Indicators[k] = v
	}
	out.Strategies = make(map[string]MStrategyCard, len(d.Strategies))
	for k, v := range d.Strategies {
		out.Strategies[k] = v
	}
	return out
}
