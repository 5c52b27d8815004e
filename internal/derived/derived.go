// Package derived recomputes values that must stay consistent with the rest
// of the data model: unit occupancy, property room availability, owner
// property counts and owner earnings.
//
// These are explicit synchronous calls made by the lifecycle managers inside
// their own transactions, so a lease transition and its occupancy cascade
// commit or roll back together. There is exactly one discipline: full
// recompute from the authoritative tables, never incremental deltas.
package derived

import (
	"fmt"

	"kodisha/internal/models"

	"gorm.io/gorm"
)

// SyncUnitOccupancy recomputes the unit's is_occupied flag from the full
// active-lease set and cascades into the owning property's room counts.
// A unit is occupied iff at least one lease referencing it is active.
func SyncUnitOccupancy(tx *gorm.DB, unitID uint) error {
	var unit models.RentalUnit
	if err := tx.First(&unit, unitID).Error; err != nil {
		return fmt.Errorf("load unit %d: %w", unitID, err)
	}

	var active int64
	if err := tx.Model(&models.LeaseAgreement{}).
		Where("unit_id = ? AND status = ?", unitID, models.LeaseStatusActive).
		Count(&active).Error; err != nil {
		return fmt.Errorf("count active leases for unit %d: %w", unitID, err)
	}

	occupied := active > 0
	if err := tx.Model(&models.RentalUnit{}).
		Where("id = ?", unitID).
		Update("is_occupied", occupied).Error; err != nil {
		return fmt.Errorf("update unit %d occupancy: %w", unitID, err)
	}

	return SyncPropertyAvailability(tx, unit.PropertyID)
}

// SyncPropertyAvailability recomputes available_rooms as the count of
// non-occupied units and derives is_available from it.
func SyncPropertyAvailability(tx *gorm.DB, propertyID uint) error {
	var free int64
	if err := tx.Model(&models.RentalUnit{}).
		Where("property_id = ? AND is_occupied = ?", propertyID, false).
		Count(&free).Error; err != nil {
		return fmt.Errorf("count free units for property %d: %w", propertyID, err)
	}

	if err := tx.Model(&models.Property{}).
		Where("id = ?", propertyID).
		Updates(map[string]interface{}{
			"available_rooms": free,
			"is_available":    free > 0,
		}).Error; err != nil {
		return fmt.Errorf("update property %d availability: %w", propertyID, err)
	}
	return nil
}

// SyncOwnerPropertyCount recomputes the owner's total property count.
func SyncOwnerPropertyCount(tx *gorm.DB, ownerID uint) error {
	var count int64
	if err := tx.Model(&models.Property{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("count properties for owner %d: %w", ownerID, err)
	}

	if err := tx.Model(&models.Owner{}).
		Where("id = ?", ownerID).
		Update("total_properties", count).Error; err != nil {
		return fmt.Errorf("update owner %d property count: %w", ownerID, err)
	}
	return nil
}

// SyncOwnerEarnings recomputes the owner's total earnings as the sum of all
// completed payments. Called inside the payment verification transaction, so
// the status change and the earnings update are atomic. Completed payments
// are immutable, which keeps the total monotonically increasing.
func SyncOwnerEarnings(tx *gorm.DB, ownerID uint) error {
	var total int64
	if err := tx.Model(&models.Payment{}).
		Where("owner_id = ? AND payment_status = ?", ownerID, models.PaymentStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error; err != nil {
		return fmt.Errorf("sum completed payments for owner %d: %w", ownerID, err)
	}

	if err := tx.Model(&models.Owner{}).
		Where("id = ?", ownerID).
		Update("total_earnings", total).Error; err != nil {
		return fmt.Errorf("update owner %d earnings: %w", ownerID, err)
	}
	return nil
}
