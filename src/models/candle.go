package models

// MCandle is one OHLC bar. Time is the bar open in unix seconds and identifies the bar.
type MCandle struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// MDerivedPoint is one point of the moving-average overlay, aligned with a candle.
// Value is nil while there is not enough history.
type MDerivedPoint struct {
	Time  int64    `json:"time"`
	Value *float64 `json:"value,omitempty"`
}

// Present reports whether the point carries a value.
func (p MDerivedPoint) Present() bool {
	return p.Value != nil
}
