package interfaces

import (
	"context"

	"market-dashboard/src/models"
)

// IAlertSink delivers alerts outside the dashboard, e.g. to a chat.
type IAlertSink interface {
	Notify(ctx context.Context, alert models.MAlert) error
}
