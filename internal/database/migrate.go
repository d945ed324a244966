package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/lira-intern-api/internal/models"
)

// Migrate creates or updates every table owned by the portal.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Department{},
		&models.Profile{},
		&models.Activity{},
		&models.Comment{},
		&models.Channel{},
		&models.Message{},
		&models.Notification{},
		&models.AttendanceRecord{},
		&models.ReviewLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
