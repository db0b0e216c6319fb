package models

// MAnalysisSnapshot is the latest analysis result for one symbol. Only the newest one matters.
type MAnalysisSnapshot struct {
	Symbol           string              `json:"symbol"`
	Signal           Signal              `json:"signal"`
	ConfidenceScore  *float64            `json:"confidence_score,omitempty"`
	Regime           string              `json:"regime,omitempty"`
	Entry            *float64            `json:"entry,omitempty"`
	StopLoss         *float64            `json:"stop_loss,omitempty"`
	TakeProfit       *float64            `json:"take_profit,omitempty"`
	IndicatorValues  map[string]*float64 `json:"indicator_values,omitempty"`
	StrategyStatuses map[string]Signal   `json:"strategy_statuses,omitempty"`
	TotalProfit      *float64            `json:"total_profit,omitempty"`
}

// Clone returns a copy that shares no maps with the receiver.
func (s MAnalysisSnapshot) Clone() MAnalysisSnapshot {
	out := s
	if s.IndicatorValues != nil {
		out.IndicatorValues = make(map[string]*float64, len(s.IndicatorValues))
		for k, v := range s.IndicatorValues {
			out.IndicatorValues[k] = v
		}
	}
	if s.StrategyStatuses != nil {
		out.StrategyStatuses = make(map[string]Signal, len(s.StrategyStatuses))
		for k, v := range s.StrategyStatuses {
			out.StrategyStatuses[k] = v
		}
	}
	return out
}
