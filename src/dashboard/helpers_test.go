package dashboard

import (
	"fmt"
	"io"
	"testing"
	"time"

	"market-dashboard/src/config"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"
)

var testNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T, mutate func(*Options)) *Router {
	t.Helper()
	n := 0
	opts := Options{
		InitialSymbol: "btc",
		NewRequestID: func() string {
			n++
			return fmt.Sprintf("req-%d", n)
		},
		Now: func() time.Time { return testNow },
	}
	if mutate != nil {
		mutate(&opts)
	}
	projector := NewProjector(config.Default().Display)
	return NewRouter(opts, projector, logger.NewLoggerTo(io.Discard, "DEBUG", "test"))
}

// activeRouter returns a router already watching symbol.
func activeRouter(t *testing.T, symbol string, mutate func(*Options)) *Router {
	t.Helper()
	r := newTestRouter(t, mutate)
	r.Handle(SymbolRequestEvent{Symbol: symbol})
	r.Handle(SymbolChangedEvent{Symbol: symbol})
	if s := r.State().Session; s.State != Active || s.ActiveSymbol != symbol {
		t.Fatalf("setup: session %+v", s)
	}
	return r
}

func bars(start int64, closes ...float64) []models.MCandle {
	out := make([]models.MCandle, len(closes))
	for i, c := range closes {
		out[i] = models.MCandle{Time: start + int64(i)*60, Open: c, High: c, Low: c, Close: c}
	}
	return out
}

func flat(n int, close float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = close
	}
	return out
}

func effectOf[T Effect](effects []Effect) (T, bool) {
	for _, e := range effects {
		if v, ok := e.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func countEffects[T Effect](effects []Effect) int {
	n := 0
	for _, e := range effects {
		if _, ok := e.(T); ok {
			n++
		}
	}
	return n
}

func ptr(v float64) *float64 { return &v }

func snapshot(symbol string, signal models.Signal, confidence *float64) AnalysisEvent {
	return AnalysisEvent{Snapshot: models.MAnalysisSnapshot{
		Symbol:          symbol,
		Signal:          signal,
		ConfidenceScore: confidence,
	}}
}
