package storage

import (
	"fmt"
	"strings"
	"time"

	"market-dashboard/src/helpers"
	"market-dashboard/src/interfaces"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"
)

const activeSymbolKey = "active_symbol"

var journalTables = []string{"alerts", "symbol_changes"}

// Open builds and initializes the journal selected by storage.db_type.
func Open(cfg *models.MConfig, log *logger.Logger) (interfaces.IDatabase, error) {
	var db interfaces.IDatabase
	switch strings.ToLower(cfg.Storage.DBType) {
	case "sqlite":
		db = NewSQLiteDB(cfg, log)
	case "postgres", "postgresql":
		pg, err := NewPostgresDB(cfg, log)
		if err != nil {
			return nil, err
		}
		db = pg
	case "", "none", "memory":
		db = NoopDB{}
	default:
		return nil, helpers.NewConfigurationError(fmt.Sprintf("unknown storage.db_type %q", cfg.Storage.DBType), nil)
	}

	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// -----------------------------------------------------------------------------

func unixOrNow(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Unix()
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return helpers.NewDatabaseError(op, err)
}
