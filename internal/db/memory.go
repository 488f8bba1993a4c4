package db

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-scheduling/internal/config"
	"github.com/Leganyst/clinic-scheduling/internal/model"
)

// OpenInMemory opens a private in-memory sqlite database with the schema
// migrated. Used by tests and the CLI demo mode.
func OpenInMemory() (*gorm.DB, error) {
	cfg := &config.DBConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
	gdb, err := NewGormDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := model.AutoMigrate(gdb); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return gdb, nil
}
