package database

import (
	"fmt"

	"github.com/chxlky/trello-pm/internal/config"
	"github.com/chxlky/trello-pm/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open connects to the snapshot database, in memory unless dbPath names a file.
func Open(dbPath string) (*gorm.DB, error) {
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.CardRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	zap.L().Info("Database initialised and migrated successfully", zap.String("path", dbPath))

	return db, nil
}
