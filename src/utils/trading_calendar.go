package utils

import (
	"log"
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// Market status labels shown on the dashboard.
const (
	StatusOpen   = "OPEN"
	StatusClosed = "CLOSED"
)

// TradingCalendar calculates trading days using scmhub/calendar.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Fallback bool
	AlwaysOn bool
	Timezone *time.Location
}

// suffix to MIC code (ISO 10383)
var micBySuffix = []struct {
	suffix string
	mic    string
}{
	{".L", "xlon"}, {".PA", "xpar"}, {".DE", "xfra"}, {".AS", "xams"},
	{".BR", "xbru"}, {".MI", "xmil"}, {".MC", "xmad"}, {".ST", "xsto"},
	{".CO", "xcse"}, {".HE", "xhel"}, {".VI", "xwbo"}, {".SW", "xswx"},
	{".TO", "xtse"}, {".V", "xtsx"}, {".T", "xtks"}, {".HK", "xhkg"},
	{".AX", "xasx"}, {".KS", "xkrx"}, {".TW", "xtai"}, {".SS", "xshg"},
	{".SZ", "xshe"},
}

var cryptoBases = map[string]bool{
	"BTC": true, "ETH": true, "SOL": true, "XRP": true, "BNB": true, "ADA": true,
	"DOGE": true, "DOT": true, "AVAX": true, "LTC": true, "LINK": true, "MATIC": true,
	"TRX": true, "USDT": true, "USDC": true,
}

// IsCrypto reports whether symbol trades around the clock.
func IsCrypto(symbol string) bool {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	for _, sep := range []string{"-", "/"} {
		if i := strings.Index(s, sep); i > 0 {
			quote := s[i+1:]
			if quote == "USD" || quote == "USDT" || quote == "USDC" || cryptoBases[quote] {
				return true
			}
			s = s[:i]
		}
	}
	for _, quote := range []string{"USDT", "USDC"} {
		if base := strings.TrimSuffix(s, quote); base != s && cryptoBases[base] {
			return true
		}
	}
	return cryptoBases[s]
}

// -----------------------------------------------------------------------------

func GetCalendar(symbol string) *TradingCalendar {
	if IsCrypto(symbol) {
		return &TradingCalendar{AlwaysOn: true, Timezone: time.UTC}
	}

	mic := "xnys" // Default US NYSE
	upper := strings.ToUpper(symbol)
	for _, m := range micBySuffix {
		if strings.HasSuffix(upper, m.suffix) {
			mic = m.mic
			break
		}
	}

	cal := calendar.GetCalendar(mic)
	if cal == nil {
		cal = calendar.GetCalendar("xnys")
	}

	if cal == nil {
		log.Printf("WARNING: Failed to load calendar for MIC '%s' and fallback 'xnys'. Using simple fallback (Mon-Fri 09:30-16:00 New York).", mic)
		nyLoc, _ := time.LoadLocation("America/New_York")
		if nyLoc == nil {
			nyLoc = time.UTC
		}
		return &TradingCalendar{Fallback: true, Timezone: nyLoc}
	}

	return &TradingCalendar{Calendar: cal, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.AlwaysOn {
		return true
	}
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpenOnMinute checks if the market is open at a specific minute.
func (tc *TradingCalendar) IsOpenOnMinute(t time.Time) bool {
	if tc.AlwaysOn {
		return true
	}
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	if tc.Fallback {
		if !tc.IsTradingDay(t) {
			return false
		}
		hour, minute := t.Hour(), t.Minute()
		// 9:30 - 16:00 NY Time
		return (hour > 9 || (hour == 9 && minute >= 30)) && hour < 16
	}

	return tc.Calendar.IsOpen(t)
}

// Status returns StatusOpen or StatusClosed for t.
func (tc *TradingCalendar) Status(t time.Time) string {
	if tc.IsOpenOnMinute(t) {
		return StatusOpen
	}
	return StatusClosed
}
