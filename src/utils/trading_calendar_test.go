package utils

import (
	"io"
	"testing"
	"time"

	"market-dashboard/src/logger"
)

func TestIsCrypto(t *testing.T) {
	cases := map[string]bool{
		"BTC":      true,
		"eth":      true,
		"SOL-USD":  true,
		"XRP/USDT": true,
		"BTCUSDT":  true,
		"AAPL":     false,
		"VOD.L":    false,
		"":         false,
	}
	for sym, want := range cases {
		if got := IsCrypto(sym); got != want {
			t.Errorf("IsCrypto(%q) = %v, want %v", sym, got, want)
		}
	}
}

func TestCryptoAlwaysOpen(t *testing.T) {
	saturday := time.Date(2025, 3, 8, 3, 0, 0, 0, time.UTC)
	if s := GetCalendar("BTC").Status(saturday); s != StatusOpen {
		t.Errorf("BTC on Saturday = %s", s)
	}
}

func TestEquityClosedOnWeekend(t *testing.T) {
	saturday := time.Date(2025, 3, 8, 15, 0, 0, 0, time.UTC)
	cal := GetCalendar("AAPL")
	if cal.IsTradingDay(saturday) {
		t.Error("Saturday reported as trading day")
	}
	if s := cal.Status(saturday); s != StatusClosed {
		t.Errorf("AAPL on Saturday = %s", s)
	}
}

func TestMarketSchedulerCachesCalendars(t *testing.T) {
	ms := NewMarketScheduler([]string{"btc"}, logger.NewLoggerTo(io.Discard, "DEBUG", "calendar"))
	now := time.Date(2025, 3, 8, 15, 0, 0, 0, time.UTC)

	if s := ms.MarketStatus("BTC", now); s != StatusOpen {
		t.Errorf("BTC = %s", s)
	}
	if s := ms.MarketStatus("MSFT", now); s != StatusClosed {
		t.Errorf("MSFT = %s", s)
	}
	if s := ms.MarketStatus(" ", now); s != "" {
		t.Errorf("blank symbol = %q", s)
	}
	if len(ms.Calendars) != 2 {
		t.Errorf("cached %d calendars, want 2", len(ms.Calendars))
	}
}
