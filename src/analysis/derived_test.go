package analysis

import (
	"math"
	"testing"

	"market-dashboard/src/models"
)

func constantSeries(n int, close float64) []models.MCandle {
	out := make([]models.MCandle, n)
	for i := range out {
		out[i] = models.MCandle{Time: int64(1000 + 60*i), Open: close, High: close, Low: close, Close: close}
	}
	return out
}

func TestMovingAverageConstantSeries(t *testing.T) {
	candles := constantSeries(12, 100)
	points := MovingAverage(candles, DefaultWindow)

	if len(points) != len(candles) {
		t.Fatalf("len(points) = %d, want %d", len(points), len(candles))
	}
	for i, p := range points {
		if p.Time != candles[i].Time {
			t.Errorf("point %d time %d not aligned with candle %d", i, p.Time, candles[i].Time)
		}
		if i < DefaultWindow-1 {
			if p.Present() {
				t.Errorf("point %d should be absent", i)
			}
			continue
		}
		if !p.Present() || *p.Value != 100 {
			t.Errorf("point %d = %v, want 100", i, p.Value)
		}
	}
}

func TestMovingAverageShortSeries(t *testing.T) {
	points := MovingAverage(constantSeries(3, 5), DefaultWindow)
	for i, p := range points {
		if p.Present() {
			t.Errorf("point %d should be absent with only 3 candles", i)
		}
	}
	if got := MovingAverage(nil, DefaultWindow); len(got) != 0 {
		t.Errorf("empty input gave %d points", len(got))
	}
}

func TestMovingAverageLastMatchesFull(t *testing.T) {
	candles := make([]models.MCandle, 40)
	for i := range candles {
		c := 100 + 7.3*math.Sin(float64(i)/3) + float64(i%5)*0.011
		candles[i] = models.MCandle{Time: int64(i * 300), Close: c}
	}

	for _, window := range []int{1, 2, 9, 20} {
		full := MovingAverage(candles, window)
		for n := 1; n <= len(candles); n++ {
			last := MovingAverageLast(candles[:n], window)
			want := full[n-1]
			if last.Time != want.Time {
				t.Fatalf("window %d n %d: time %d, want %d", window, n, last.Time, want.Time)
			}
			if last.Present() != want.Present() {
				t.Fatalf("window %d n %d: presence mismatch", window, n)
			}
			if want.Present() && math.Abs(*last.Value-*want.Value) > 1e-9 {
				t.Fatalf("window %d n %d: %v vs %v", window, n, *last.Value, *want.Value)
			}
		}
	}
}

func TestMovingAverageWindowValue(t *testing.T) {
	candles := []models.MCandle{{Time: 1, Close: 1}, {Time: 2, Close: 2}, {Time: 3, Close: 3}, {Time: 4, Close: 10}}
	points := MovingAverage(candles, 3)
	if points[1].Present() {
		t.Fatal("point 1 should be absent for window 3")
	}
	if *points[2].Value != 2 {
		t.Errorf("point 2 = %v, want 2", *points[2].Value)
	}
	if *points[3].Value != 5 {
		t.Errorf("point 3 = %v, want 5", *points[3].Value)
	}
}

func TestNonPositiveWindowActsAsOne(t *testing.T) {
	candles := []models.MCandle{{Time: 1, Close: 4}, {Time: 2, Close: 6}}
	points := MovingAverage(candles, 0)
	if !points[0].Present() || *points[0].Value != 4 {
		t.Errorf("window 0 point 0 = %v", points[0].Value)
	}
	last := MovingAverageLast(candles, -3)
	if !last.Present() || *last.Value != 6 {
		t.Errorf("window -3 last = %v", last.Value)
	}
	if MovingAverageLast(nil, 9).Present() {
		t.Error("empty tail should be absent")
	}
}
