package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dashboard_events_total", Help: "Events handled by the dashboard engine"},
		[]string{"event"},
	)
	DiscardedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dashboard_discarded_events_total", Help: "Feed events dropped as stale or foreign"},
		[]string{"event"},
	)
	AlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dashboard_alerts_total", Help: "Signal alerts raised"},
		[]string{"signal"},
	)
	SymbolRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "dashboard_symbol_requests_total", Help: "change_symbol requests sent to the feed"},
	)
	RequestTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "dashboard_symbol_request_timeouts_total", Help: "Symbol requests that got no acknowledgment"},
	)
	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "dashboard_actions_total", Help: "Backend actions by outcome"},
		[]string{"action", "status"},
	)
	FeedConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "dashboard_feed_connected", Help: "1 while the market feed is connected"},
	)
	Clients = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "dashboard_clients", Help: "Connected dashboard websocket clients"},
	)
)

func init() {
	prometheus.MustRegister(
		EventsTotal, DiscardedTotal, AlertsTotal,
		SymbolRequestsTotal, RequestTimeoutsTotal, ActionsTotal,
		FeedConnected, Clients,
	)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetFeedConnected flips the feed gauge.
func SetFeedConnected(connected bool) {
	if connected {
		FeedConnected.Set(1)
		return
	}
	FeedConnected.Set(0)
}
