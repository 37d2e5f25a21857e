package storage

import (
	"fmt"

	"bubble-model/src/helpers"
	"bubble-model/src/interfaces"
	"bubble-model/src/logger"
	"bubble-model/src/models"
)

var (
	_ interfaces.IDatabase = (*SQLiteDB)(nil)
	_ interfaces.IDatabase = (*PostgresDB)(nil)
)

// NewDatabase picks the backend named by db_type. The caller runs Initialize.
func NewDatabase(cfg models.MStorageConfig, log *logger.Logger) (interfaces.IDatabase, error) {
	switch cfg.DBType {
	case "sqlite":
		return NewSQLiteDB(cfg, log), nil
	case "postgres":
		return NewPostgresDB(cfg, log), nil
	}
	return nil, helpers.NewConfigurationError(fmt.Sprintf("unsupported database type '%s'", cfg.DBType), nil)
}
