package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"market-dashboard/src/helpers"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

// PostgresDB keeps the same journal as SQLiteDB inside a schema named after
// the service.
type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	name := cfg.Name
	if name == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable name: %w", err)
		}
		name = strings.TrimSuffix(filepath.Base(exe), filepath.Ext(exe))
	}

	return &PostgresDB{
		Config: cfg,
		Schema: schemaName(name),
		Logger: log,
	}, nil
}

// schemaName keeps letters, digits and underscores, lower-cased.
func schemaName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '-' || r == ' ' || r == '.':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "dashboard"
	}
	return b.String()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	db, err := sql.Open("postgres", d.Config.Storage.DBConnectionString)
	if err != nil {
		return helpers.NewDatabaseError("open postgres", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return helpers.NewDatabaseError("ping postgres", err)
	}
	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return helpers.NewDatabaseError(fmt.Sprintf("create schema %s", d.Schema), err)
	}
	if err := d.createTables(); err != nil {
		return helpers.NewDatabaseError("create tables", err)
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS %[1]s.alerts (
			id BIGSERIAL PRIMARY KEY,
			timestamp BIGINT NOT NULL,
			symbol TEXT NOT NULL,
			signal TEXT NOT NULL,
			previous TEXT,
			confidence DOUBLE PRECISION,
			message TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_ts ON %[1]s.alerts(timestamp)`,
		`CREATE TABLE IF NOT EXISTS %[1]s.symbol_changes (
			id BIGSERIAL PRIMARY KEY,
			timestamp BIGINT NOT NULL,
			symbol TEXT NOT NULL,
			previous TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_symbol_changes_ts ON %[1]s.symbol_changes(timestamp)`,
		`CREATE TABLE IF NOT EXISTS %[1]s.page_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := d.DB.Exec(fmt.Sprintf(s, d.table(""))); err != nil {
			return err
		}
	}
	return nil
}

// table returns the schema-qualified table name, or the quoted schema when
// name is empty.
func (d *PostgresDB) table(name string) string {
	if name == "" {
		return fmt.Sprintf(`"%s"`, d.Schema)
	}
	return fmt.Sprintf(`"%s"."%s"`, d.Schema, name)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) RecordAlert(a models.MAlert) error {
	query := fmt.Sprintf(`INSERT INTO %s (timestamp, symbol, signal, previous, confidence, message)
		VALUES ($1, $2, $3, $4, $5, $6)`, d.table("alerts"))
	_, err := d.DB.Exec(query, unixOrNow(a.Time), a.Symbol, string(a.Signal), string(a.Previous), a.Confidence, a.Message)
	return wrap("record alert", err)
}

func (d *PostgresDB) RecordSymbolChange(c models.MSymbolChange) error {
	query := fmt.Sprintf(`INSERT INTO %s (timestamp, symbol, previous) VALUES ($1, $2, $3)`, d.table("symbol_changes"))
	_, err := d.DB.Exec(query, unixOrNow(c.Time), c.Symbol, c.Previous)
	return wrap("record symbol change", err)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveActiveSymbol(symbol string) error {
	query := fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`, d.table("page_state"))
	_, err := d.DB.Exec(query, activeSymbolKey, symbol, time.Now().UTC().Unix())
	return wrap("save active symbol", err)
}

func (d *PostgresDB) LoadActiveSymbol() (string, error) {
	var symbol string
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, d.table("page_state"))
	err := d.DB.QueryRow(query, activeSymbolKey).Scan(&symbol)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return symbol, wrap("load active symbol", err)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) CleanupOldData() error {
	retentionDays := d.Config.Storage.RetentionDays
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()
	d.Logger.Info("Cleaning up journal older than %d days (timestamp < %d)", retentionDays, cutoff)

	for _, table := range journalTables {
		if _, err := d.DB.Exec(fmt.Sprintf("DELETE FROM %s WHERE timestamp < $1", d.table(table)), cutoff); err != nil {
			d.Logger.Error("Cleanup %s error: %v", table, err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
