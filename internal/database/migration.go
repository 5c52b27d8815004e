package database

import (
	"fmt"

	"kodisha/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Tenant{},
		&models.Owner{},
		&models.Property{},
		&models.RentalUnit{},
		&models.LeaseAgreement{},
		&models.Payment{},
		&models.MaintenanceRequest{},
		&models.Notification{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
