package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"market-dashboard/src/helpers"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

// SQLiteDB journals alerts, symbol changes and the last active symbol to a
// local SQLite file.
type SQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger

	mu sync.Mutex // serialises writers
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MConfig, log *logger.Logger) *SQLiteDB {
	return &SQLiteDB{
		Config: cfg,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return helpers.NewDatabaseError("open sqlite", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return helpers.NewDatabaseError("ping sqlite", err)
	}
	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	if err := d.createTables(); err != nil {
		return helpers.NewDatabaseError("create tables", err)
	}
	d.Logger.Info("SQLite journal opened: %s", dsn)
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alerts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			signal TEXT NOT NULL,
			previous TEXT,
			confidence REAL,
			message TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_ts ON alerts(timestamp)`,
		`CREATE TABLE IF NOT EXISTS symbol_changes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			previous TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_symbol_changes_ts ON symbol_changes(timestamp)`,
		`CREATE TABLE IF NOT EXISTS page_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := d.DB.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) RecordAlert(a models.MAlert) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.DB.Exec(`INSERT INTO alerts (timestamp, symbol, signal, previous, confidence, message)
		VALUES (?, ?, ?, ?, ?, ?)`,
		unixOrNow(a.Time), a.Symbol, string(a.Signal), string(a.Previous), a.Confidence, a.Message)
	return wrap("record alert", err)
}

func (d *SQLiteDB) RecordSymbolChange(c models.MSymbolChange) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.DB.Exec(`INSERT INTO symbol_changes (timestamp, symbol, previous) VALUES (?, ?, ?)`,
		unixOrNow(c.Time), c.Symbol, c.Previous)
	return wrap("record symbol change", err)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveActiveSymbol(symbol string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.DB.Exec(`INSERT INTO page_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		activeSymbolKey, symbol, time.Now().UTC().Unix())
	return wrap("save active symbol", err)
}

func (d *SQLiteDB) LoadActiveSymbol() (string, error) {
	var symbol string
	err := d.DB.QueryRow(`SELECT value FROM page_state WHERE key = ?`, activeSymbolKey).Scan(&symbol)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return symbol, wrap("load active symbol", err)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()
	d.Logger.Info("Cleaning up journal older than %d days (timestamp < %d)", retentionDays, cutoff)

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, table := range journalTables {
		if _, err := d.DB.Exec(fmt.Sprintf("DELETE FROM %s WHERE timestamp < ?", table), cutoff); err != nil {
			d.Logger.Error("Cleanup %s error: %v", table, err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
