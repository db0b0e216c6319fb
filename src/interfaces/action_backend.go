package interfaces

import (
	"context"

	"market-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// IActionBackend defines the contract for the user-triggered backend operations.
// A non-nil error means the call itself failed; a rejected action comes back
// as a result with a non-success status.
// -----------------------------------------------------------------------------

type IActionBackend interface {
	SaveConfig(ctx context.Context, payload map[string]interface{}) (models.MActionResult, error)

	EmergencyExit(ctx context.Context) (models.MActionResult, error)

	WipeData(ctx context.Context) (models.MActionResult, error)
}
