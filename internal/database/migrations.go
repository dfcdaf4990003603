package database

import (
	"fmt"

	"gorm.io/gorm"

	"dirawatch/internal/models"
)

// MigrateSchema creates or updates every table the pipeline uses
func MigrateSchema(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Listing{},
		&models.PriceHistory{},
		&models.DescriptionHistory{},
		&models.Notification{},
		&models.NeighborhoodStats{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
