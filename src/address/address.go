package address

import (
	"fmt"
	"net/url"
	"sync"

	"market-dashboard/src/dashboard"
	"market-dashboard/src/models"
)

// SymbolParam is the query parameter carrying the active symbol.
const SymbolParam = "symbol"

// State keeps the shareable page address in step with the active symbol.
type State struct {
	mu       sync.Mutex
	base     *url.URL
	prefix   string
	initial  string
	current  string
	fallback string
}

// -----------------------------------------------------------------------------

// NewState parses the configured page url. The initial symbol is taken from its
// ?symbol= query, then from stored (the last active symbol), then from the default.
func NewState(cfg models.MSessionConfig, stored string) (*State, error) {
	raw := cfg.PageURL
	if raw == "" {
		raw = "/"
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", raw, err)
	}

	s := &State{
		base:     base,
		prefix:   cfg.TitlePrefix,
		fallback: dashboard.NormalizeSymbol(cfg.DefaultSymbol),
	}
	for _, candidate := range []string{base.Query().Get(SymbolParam), stored, cfg.DefaultSymbol} {
		if sym := dashboard.NormalizeSymbol(candidate); sym != "" {
			s.initial = sym
			break
		}
	}
	return s, nil
}

// -----------------------------------------------------------------------------

func (s *State) InitialSymbol() string {
	return s.initial
}

// Current is the last symbol written, or the initial one.
func (s *State) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == "" {
		return s.initial
	}
	return s.current
}

// -----------------------------------------------------------------------------

// Write records symbol and returns the page url and title for it.
func (s *State) Write(symbol string) (string, string) {
	symbol = dashboard.NormalizeSymbol(symbol)
	if symbol == "" {
		symbol = s.fallback
	}

	s.mu.Lock()
	s.current = symbol
	s.mu.Unlock()

	u := *s.base
	q := u.Query()
	q.Set(SymbolParam, symbol)
	u.RawQuery = q.Encode()
	return u.String(), Title(s.prefix, symbol)
}

// Title formats the page title, e.g. "Sniper AI - BTC".
func Title(prefix, symbol string) string {
	if prefix == "" {
		return symbol
	}
	return prefix + " - " + symbol
}
