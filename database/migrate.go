package database

import (
	"github.com/yeremiapane/restaurant-reservation/models"
	"github.com/yeremiapane/restaurant-reservation/utils"
	"gorm.io/gorm"
)

// Migrate creates or updates the customer and reservation tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Customer{},
		&models.Reservation{},
	); err != nil {
		return err
	}

	// Rows written before the version column existed start at 1.
	if err := db.Model(&models.Reservation{}).
		Where("version IS NULL OR version = 0").
		Update("version", 1).Error; err != nil {
		utils.ErrorLogger.Printf("Error backfilling reservation versions: %v", err)
	}

	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}
