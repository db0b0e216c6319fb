package interfaces

import "market-dashboard/src/models"

// -----------------------------------------------------------------------------
// IDatabase defines the contract for the dashboard journal.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	RecordAlert(alert models.MAlert) error

	RecordSymbolChange(change models.MSymbolChange) error

	// -----------------------------------------------------------------------------

	// SaveActiveSymbol remembers the symbol to reopen after a restart.
	SaveActiveSymbol(symbol string) error

	// LoadActiveSymbol returns "" when nothing was saved.
	LoadActiveSymbol() (string, error)

	// -----------------------------------------------------------------------------

	// CleanupOldData removes data older than the retention policy.
	CleanupOldData() error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
