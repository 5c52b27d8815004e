package derived

import (
	"strings"
	"testing"
	"time"

	"kodisha/internal/database"
	"kodisha/internal/models"
	"kodisha/internal/util"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

type fixture struct {
	owner    models.Owner
	tenant   models.Tenant
	property models.Property
	unitA    models.RentalUnit
	unitB    models.RentalUnit
}

func seed(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	var f fixture

	ownerUser := models.User{FirstName: "Neema", LastName: "Mushi", PhoneNumber: "+255700000001", Role: models.RoleOwner}
	tenantUser := models.User{FirstName: "Juma", LastName: "Hassan", PhoneNumber: "+255700000002", Role: models.RoleTenant}
	require.NoError(t, db.Create(&ownerUser).Error)
	require.NoError(t, db.Create(&tenantUser).Error)

	f.owner = models.Owner{UserID: ownerUser.ID}
	f.tenant = models.Tenant{UserID: tenantUser.ID}
	require.NoError(t, db.Create(&f.owner).Error)
	require.NoError(t, db.Create(&f.tenant).Error)

	f.property = models.Property{
		OwnerID:      f.owner.ID,
		PropertyType: models.PropertyTypeApartment,
		Title:        "Sinza Flats",
		Region:       "Dar es Salaam",
		MonthlyRent:  450000,
		TotalRooms:   2,
	}
	require.NoError(t, db.Create(&f.property).Error)

	f.unitA = models.RentalUnit{PropertyID: f.property.ID, UnitType: models.UnitTypeOneBedroom, UnitNumber: "A1", UnitRent: 450000}
	f.unitB = models.RentalUnit{PropertyID: f.property.ID, UnitType: models.UnitTypeOneBedroom, UnitNumber: "A2", UnitRent: 450000}
	require.NoError(t, db.Create(&f.unitA).Error)
	require.NoError(t, db.Create(&f.unitB).Error)
	return f
}

func TestSyncUnitOccupancyCascades(t *testing.T) {
	db := setupDB(t)
	f := seed(t, db)

	lease := models.LeaseAgreement{
		TenantID:    f.tenant.ID,
		UnitID:      f.unitA.ID,
		StartDate:   util.Date(2026, time.January, 1),
		EndDate:     util.Date(2026, time.December, 31),
		MonthlyRent: 450000,
		Status:      models.LeaseStatusActive,
	}
	require.NoError(t, db.Create(&lease).Error)

	require.NoError(t, SyncUnitOccupancy(db, f.unitA.ID))

	var unit models.RentalUnit
	require.NoError(t, db.First(&unit, f.unitA.ID).Error)
	require.True(t, unit.IsOccupied)

	var prop models.Property
	require.NoError(t, db.First(&prop, f.property.ID).Error)
	require.Equal(t, 1, prop.AvailableRooms)
	require.True(t, prop.IsAvailable)

	// ending the lease frees the unit and the room count follows
	require.NoError(t, db.Model(&lease).Update("status", models.LeaseStatusTerminated).Error)
	require.NoError(t, SyncUnitOccupancy(db, f.unitA.ID))

	require.NoError(t, db.First(&unit, f.unitA.ID).Error)
	require.False(t, unit.IsOccupied)
	require.NoError(t, db.First(&prop, f.property.ID).Error)
	require.Equal(t, 2, prop.AvailableRooms)
}

func TestSyncPropertyAvailabilityFullHouse(t *testing.T) {
	db := setupDB(t)
	f := seed(t, db)

	require.NoError(t, db.Model(&models.RentalUnit{}).
		Where("property_id = ?", f.property.ID).
		Update("is_occupied", true).Error)

	require.NoError(t, SyncPropertyAvailability(db, f.property.ID))

	var prop models.Property
	require.NoError(t, db.First(&prop, f.property.ID).Error)
	require.Equal(t, 0, prop.AvailableRooms)
	require.False(t, prop.IsAvailable)
}

func TestSyncOwnerPropertyCount(t *testing.T) {
	db := setupDB(t)
	f := seed(t, db)

	require.NoError(t, SyncOwnerPropertyCount(db, f.owner.ID))
	var owner models.Owner
	require.NoError(t, db.First(&owner, f.owner.ID).Error)
	require.Equal(t, 1, owner.TotalProperties)

	second := models.Property{OwnerID: f.owner.ID, PropertyType: models.PropertyTypeHouse, Title: "Mbezi House", MonthlyRent: 800000, TotalRooms: 1}
	require.NoError(t, db.Create(&second).Error)
	require.NoError(t, SyncOwnerPropertyCount(db, f.owner.ID))
	require.NoError(t, db.First(&owner, f.owner.ID).Error)
	require.Equal(t, 2, owner.TotalProperties)
}

func TestSyncOwnerEarningsOnlyCountsCompleted(t *testing.T) {
	db := setupDB(t)
	f := seed(t, db)

	lease := models.LeaseAgreement{
		TenantID:    f.tenant.ID,
		UnitID:      f.unitA.ID,
		StartDate:   util.Date(2026, time.January, 1),
		EndDate:     util.Date(2026, time.December, 31),
		MonthlyRent: 450000,
		Status:      models.LeaseStatusActive,
	}
	require.NoError(t, db.Create(&lease).Error)

	mk := func(status string, amount int64, period string) {
		p := models.Payment{
			LeaseID:       lease.ID,
			TenantID:      f.tenant.ID,
			OwnerID:       f.owner.ID,
			Amount:        amount,
			PaymentMethod: models.MethodMpesa,
			PaymentStatus: status,
			DueDate:       util.Date(2026, time.January, 5),
			PaymentPeriod: period,
		}
		require.NoError(t, db.Create(&p).Error)
	}
	mk(models.PaymentStatusCompleted, 450000, "January 2026")
	mk(models.PaymentStatusCompleted, 450000, "February 2026")
	mk(models.PaymentStatusPending, 450000, "March 2026")
	mk(models.PaymentStatusFailed, 450000, "April 2026")

	require.NoError(t, SyncOwnerEarnings(db, f.owner.ID))

	var owner models.Owner
	require.NoError(t, db.First(&owner, f.owner.ID).Error)
	require.Equal(t, int64(900000), owner.TotalEarnings)
}
