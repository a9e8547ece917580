package database

import (
	"guardpost/internal/logger"
	"guardpost/internal/models"
)

// MigrateModels runs GORM AutoMigrate for all models
func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	modelsToMigrate := []any{
		&models.User{},
		&models.Order{},
		&models.Shift{},
		&models.Assignment{},
		&models.ShiftChangeRequest{},
		&models.Notification{},
	}

	for _, model := range modelsToMigrate {
		if err := db.SQL.AutoMigrate(model); err != nil {
			return log.Err("Failed to migrate model", err, "model", model)
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}

// CreateIndexes creates indexes GORM doesn't create automatically. The
// partial unique index backs the one-pending-request-per-(shift,guard)
// invariant.
func (db *DB) CreateIndexes() error {
	log := logger.New("database").Function("CreateIndexes")
	log.Info("Creating additional database indexes")

	indexes := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_change_requests_pending ON shift_change_requests(shift_id, requested_by_id) WHERE status = 'pending' AND deleted_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_shifts_status_ends_at ON shifts(status, ends_at)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_start_date ON orders(status, start_date)",
	}

	for _, index := range indexes {
		if err := db.SQL.Exec(index).Error; err != nil {
			return log.Err("Failed to create index", err, "index", index)
		}
	}

	log.Info("Database indexes created successfully")
	return nil
}
