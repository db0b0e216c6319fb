package dashboard

import (
	"math"
	"strings"

	"market-dashboard/src/models"

	"github.com/shopspring/decimal"
)

const (
	defaultRegime = "STABILIZING"
	loadingLabel  = "LOADING..."
)

// CSS classes understood by the dashboard page.
const (
	ClassSignalBuy     = "signal-buy"
	ClassSignalSell    = "signal-sell"
	ClassSignalHold    = "signal-hold"
	ClassStatusBuy     = "status-buy"
	ClassStatusSell    = "status-sell"
	ClassStatusNeutral = "status-neutral"
	LabelBullish       = "BULLISH"
	LabelBearish       = "BEARISH"
	LabelNeutral       = "NEUTRAL"
)

// -----------------------------------------------------------------------------

// strategySlot is one strategy widget and the payload keys that feed it.
type strategySlot struct {
	key  string
	keys []string
}

// Projector turns analysis snapshots into display records.
type Projector struct {
	placeholder string
	precision   int32
	indicators  []string
	slots       []strategySlot
}

// -----------------------------------------------------------------------------

func NewProjector(cfg models.MDisplayConfig) *Projector {
	p := &Projector{
		placeholder: cfg.Placeholder,
		precision:   cfg.PricePrecision,
		indicators:  append([]string(nil), cfg.Indicators...),
	}
	if p.placeholder == "" {
		p.placeholder = "--"
	}
	for _, s := range cfg.Strategies {
		slot := strategySlot{key: s.Name, keys: []string{s.Name}}
		slot.keys = append(slot.keys, s.Aliases...)
		p.slots = append(p.slots, slot)
	}
	return p
}

// -----------------------------------------------------------------------------

// Blank is the record shown before any data arrived.
func (p *Projector) Blank() models.MDisplayRecord {
	d := models.MDisplayRecord{
		SignalLabel:   p.placeholder,
		SignalClass:   ClassSignalHold,
		Confidence:    p.placeholder,
		Regime:        p.placeholder,
		Entry:         p.placeholder,
		StopLoss:      p.placeholder,
		TakeProfit:    p.placeholder,
		TotalProfit:   p.placeholder,
		MarketStatus:  p.placeholder,
		SessionStatus: Idle.String(),
		Indicators:    make(map[string]string, len(p.indicators)),
		Strategies:    make(map[string]models.MStrategyCard, len(p.slots)),
	}
	for _, name := range p.indicators {
		d.Indicators[name] = p.placeholder
	}
	for _, s := range p.slots {
		d.Strategies[s.key] = p.neutralCard()
	}
	return d
}

// -----------------------------------------------------------------------------

// Loading resets every widget while a new symbol is being fetched.
// Connection and market fields of prev are kept.
func (p *Projector) Loading(prev models.MDisplayRecord, symbol string) models.MDisplayRecord {
	d := p.Blank()
	d.Symbol = symbol
	d.SignalLabel = loadingLabel
	d.FeedStatus = prev.FeedStatus
	d.MarketStatus = prev.MarketStatus
	if d.MarketStatus == "" {
		d.MarketStatus = p.placeholder
	}
	return d
}

// -----------------------------------------------------------------------------

// Project applies snap on top of prev. Known strategies missing from snap keep their previous card.
func (p *Projector) Project(prev models.MDisplayRecord, snap models.MAnalysisSnapshot) models.MDisplayRecord {
	d := prev.Clone()

	signal := snap.Signal
	if signal == "" {
		signal = models.SignalHold
	}
	d.SignalLabel = string(signal)
	d.SignalClass = signalClass(signal)
	d.Confidence = p.percent(snap.ConfidenceScore)

	d.Regime = strings.TrimSpace(snap.Regime)
	if d.Regime == "" {
		d.Regime = defaultRegime
	}

	d.Entry = p.price(snap.Entry)
	d.StopLoss = p.price(snap.StopLoss)
	d.TakeProfit = p.price(snap.TakeProfit)
	d.TotalProfit = p.money(snap.TotalProfit)

	for _, name := range p.indicators {
		d.Indicators[name] = p.price(snap.IndicatorValues[name])
	}

	for _, slot := range p.slots {
		status, ok := lookupStatus(snap.StrategyStatuses, slot.keys)
		if !ok {
			if _, had := d.Strategies[slot.key]; !had {
				d.Strategies[slot.key] = p.neutralCard()
			}
			continue
		}
		d.Strategies[slot.key] = strategyCard(status)
	}

	return d
}

// -----------------------------------------------------------------------------

func lookupStatus(statuses map[string]models.Signal, keys []string) (models.Signal, bool) {
	for _, k := range keys {
		if s, ok := statuses[k]; ok {
			return s, true
		}
	}
	return "", false
}

// -----------------------------------------------------------------------------

func signalClass(s models.Signal) string {
	switch s {
	case models.SignalBuy:
		return ClassSignalBuy
	case models.SignalSell:
		return ClassSignalSell
	default:
		return ClassSignalHold
	}
}

// -----------------------------------------------------------------------------

func strategyCard(s models.Signal) models.MStrategyCard {
	switch s {
	case models.SignalBuy:
		return models.MStrategyCard{Label: LabelBullish, Class: ClassStatusBuy}
	case models.SignalSell:
		return models.MStrategyCard{Label: LabelBearish, Class: ClassStatusSell}
	default:
		return models.MStrategyCard{Label: LabelNeutral, Class: ClassStatusNeutral}
	}
}

// -----------------------------------------------------------------------------

func (p *Projector) neutralCard() models.MStrategyCard {
	return models.MStrategyCard{Label: p.placeholder, Class: ClassStatusNeutral}
}

// -----------------------------------------------------------------------------

func (p *Projector) price(v *float64) string {
	if !finite(v) {
		return p.placeholder
	}
	return decimal.NewFromFloat(*v).StringFixed(p.precision)
}

// -----------------------------------------------------------------------------

func (p *Projector) money(v *float64) string {
	if !finite(v) {
		return p.placeholder
	}
	return "$" + decimal.NewFromFloat(*v).StringFixed(2)
}

// -----------------------------------------------------------------------------

func (p *Projector) percent(v *float64) string {
	if !finite(v) {
		return p.placeholder
	}
	return decimal.NewFromFloat(*v).Round(0).String() + "%"
}

// finite reports whether v holds a number decimal can represent.
func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
