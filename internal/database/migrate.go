package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/babcheck/babcheck/backend/internal/models"
)

// Models lists every table the GORM store owns.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.UserRecord{},
		&models.DailyRecord{},
		&models.FoodRecord{},
		&models.ChatHistory{},
	}
}

// AutoMigrate creates or updates the record tables. Production Postgres is
// normally migrated with cmd/migrate; this keeps SQLite and fresh databases
// usable without it.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate %s schema: %w", db.Dialector.Name(), err)
	}
	return nil
}
