package utils

import (
	"strings"
	"sync"
	"time"

	"market-dashboard/src/logger"
)

// MarketScheduler caches one trading calendar per symbol and answers market
// status lookups for the dashboard clock.
type MarketScheduler struct {
	Calendars map[string]*TradingCalendar
	Logger    *logger.Logger
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(symbols []string, l *logger.Logger) *MarketScheduler {
	ms := &MarketScheduler{
		Calendars: make(map[string]*TradingCalendar),
		Logger:    l,
	}
	for _, s := range symbols {
		ms.calendarFor(s)
	}
	return ms
}

// -----------------------------------------------------------------------------

func (ms *MarketScheduler) calendarFor(symbol string) *TradingCalendar {
	key := strings.ToUpper(strings.TrimSpace(symbol))

	ms.mu.RLock()
	cal, ok := ms.Calendars[key]
	ms.mu.RUnlock()
	if ok {
		return cal
	}

	cal = GetCalendar(key)
	ms.mu.Lock()
	ms.Calendars[key] = cal
	ms.mu.Unlock()
	if ms.Logger != nil {
		kind := "exchange"
		if cal.AlwaysOn {
			kind = "24/7"
		}
		ms.Logger.Debug("MarketScheduler: mapped %s to %s calendar", key, kind)
	}
	return cal
}

// MarketStatus returns the status label for symbol at now. It matches the
// router's MarketStatus hook.
func (ms *MarketScheduler) MarketStatus(symbol string, now time.Time) string {
	if strings.TrimSpace(symbol) == "" {
		return ""
	}
	return ms.calendarFor(symbol).Status(now)
}
