package db

import (
	"fmt"

	"github.com/robertwhiffin/ai-slide-generator-sub009/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.ChatRequest{},
		&models.ChatEvent{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// Reset drops and re-creates all tables. Table-level rather than
// database-level so it works the same on sqlite and mysql.
func Reset(db *gorm.DB) error {
	for _, model := range AllModels() {
		if err := db.Migrator().DropTable(model); err != nil {
			return fmt.Errorf("db: drop table for %T: %w", model, err)
		}
	}
	return AutoMigrate(db)
}
