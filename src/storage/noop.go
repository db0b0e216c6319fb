package storage

import "market-dashboard/src/models"

// NoopDB discards everything. It backs db_type "none".
type NoopDB struct{}

func (NoopDB) Initialize() error                             { return nil }
func (NoopDB) RecordAlert(models.MAlert) error               { return nil }
func (NoopDB) RecordSymbolChange(models.MSymbolChange) error { return nil }
func (NoopDB) SaveActiveSymbol(string) error                 { return nil }
func (NoopDB) LoadActiveSymbol() (string, error)             { return "", nil }
func (NoopDB) CleanupOldData() error                         { return nil }
func (NoopDB) Close() error                                  { return nil }
