package analysis

import (
	"market-dashboard/src/analysis/core"
	"market-dashboard/src/models"
)

// DefaultWindow is the number of bars averaged by the overlay.
const DefaultWindow = 9

// -----------------------------------------------------------------------------

// MovingAverage returns one point per candle. Point i is absent while i < window-1,
// otherwise it holds the mean close of candles[i-window+1 .. i].
func MovingAverage(candles []models.MCandle, window int) []models.MDerivedPoint {
	if window <= 0 {
		window = 1
	}
	closes := closesOf(candles)
	points := make([]models.MDerivedPoint, len(candles))
	for i, c := range candles {
		points[i] = models.MDerivedPoint{Time: c.Time}
		if i < window-1 {
			continue
		}
		v := core.CalculateMean(closes[i-window+1 : i+1])
		points[i].Value = &v
	}
	return points
}

// -----------------------------------------------------------------------------

// MovingAverageLast returns the point for the last candle of tail, reading at most
// window candles. It equals the last point of MovingAverage over the same series.
func MovingAverageLast(tail []models.MCandle, window int) models.MDerivedPoint {
	if len(tail) == 0 {
		return models.MDerivedPoint{}
	}
	if window <= 0 {
		window = 1
	}
	last := tail[len(tail)-1]
	if len(tail) < window {
		return models.MDerivedPoint{Time: last.Time}
	}
	v := core.CalculateMean(closesOf(tail[len(tail)-window:]))
	return models.MDerivedPoint{Time: last.Time, Value: &v}
}

// -----------------------------------------------------------------------------

func closesOf(candles []models.MCandle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
