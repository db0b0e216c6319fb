package interfaces

import "market-dashboard/src/models"

// -----------------------------------------------------------------------------
// IChartRenderer receives chart commands for the active symbol.
// -----------------------------------------------------------------------------

type IChartRenderer interface {
	// SetFullSeries replaces the primary candle series. An empty slice clears it.
	SetFullSeries(symbol string, candles []models.MCandle)

	// AppendOrAmend adds a newer bar or rewrites the last one.
	AppendOrAmend(symbol string, candle models.MCandle)

	// SetDerivedSeries replaces the moving-average line.
	SetDerivedSeries(symbol string, points []models.MDerivedPoint)

	// UpdateDerivedPoint adds or rewrites the last moving-average point.
	UpdateDerivedPoint(symbol string, point models.MDerivedPoint)

	FitToContent()

	ScrollToRealtime()
}

// -----------------------------------------------------------------------------
// IViewPublisher pushes non-chart view updates to dashboards.
// -----------------------------------------------------------------------------

type IViewPublisher interface {
	PublishDisplay(display models.MDisplayRecord)

	PublishAlert(alert models.MAlert)

	// PublishNotice shows a transient message; level is info, warning or error.
	PublishNotice(level, message string)

	// Navigate updates the page address and title without a reload.
	Navigate(url, title string)

	// Reload asks every dashboard to reload the page.
	Reload()
}
