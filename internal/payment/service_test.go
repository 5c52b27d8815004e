package payment

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"kodisha/internal/apperr"
	"kodisha/internal/database"
	"kodisha/internal/models"
	"kodisha/internal/util"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var today = util.Date(2026, time.June, 15)

type fakeNotifier struct {
	submitted []uint
	verified  []uint
	rejected  []uint
}

func (f *fakeNotifier) PaymentSubmitted(p *models.Payment) { f.submitted = append(f.submitted, p.ID) }
func (f *fakeNotifier) PaymentVerified(p *models.Payment)  { f.verified = append(f.verified, p.ID) }
func (f *fakeNotifier) PaymentRejected(p *models.Payment)  { f.rejected = append(f.rejected, p.ID) }

type fixture struct {
	tenant models.Tenant
	owner  models.Owner
	admin  models.User
	unit   models.RentalUnit
	lease  models.LeaseAgreement
}

func setup(t *testing.T) (*Service, *fakeNotifier, fixture) {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	var f fixture
	ownerUser := models.User{FirstName: "Neema", PhoneNumber: "+255700000001", Role: models.RoleOwner}
	tenantUser := models.User{FirstName: "Juma", PhoneNumber: "+255700000002", Role: models.RoleTenant}
	f.admin = models.User{FirstName: "Asha", PhoneNumber: "+255700000003", Role: models.RoleAdmin}
	require.NoError(t, db.Create(&ownerUser).Error)
	require.NoError(t, db.Create(&tenantUser).Error)
	require.NoError(t, db.Create(&f.admin).Error)
	f.owner = models.Owner{UserID: ownerUser.ID}
	f.tenant = models.Tenant{UserID: tenantUser.ID}
	require.NoError(t, db.Create(&f.owner).Error)
	require.NoError(t, db.Create(&f.tenant).Error)

	prop := models.Property{OwnerID: f.owner.ID, PropertyType: models.PropertyTypeApartment, Title: "Sinza Flats", MonthlyRent: 450000, TotalRooms: 1}
	require.NoError(t, db.Create(&prop).Error)
	f.unit = models.RentalUnit{PropertyID: prop.ID, UnitType: models.UnitTypeOneBedroom, UnitNumber: "A1", UnitRent: 450000}
	require.NoError(t, db.Create(&f.unit).Error)

	f.lease = models.LeaseAgreement{
		TenantID:      f.tenant.ID,
		UnitID:        f.unit.ID,
		StartDate:     util.Date(2026, time.January, 1),
		EndDate:       util.Date(2026, time.December, 31),
		MonthlyRent:   450000,
		PaymentDueDay: 5,
		Status:        models.LeaseStatusActive,
	}
	require.NoError(t, db.Create(&f.lease).Error)

	notifier := &fakeNotifier{}
	svc := NewService(db, notifier)
	svc.Now = func() time.Time { return today }
	return svc, notifier, f
}

func TestGenerateIsIdempotent(t *testing.T) {
	svc, _, f := setup(t)

	p1, created, err := svc.Generate(&f.lease, time.July, 2026, false)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, models.PaymentStatusPending, p1.PaymentStatus)
	require.Equal(t, "July 2026", p1.PaymentPeriod)
	require.Equal(t, util.Date(2026, time.July, 5), p1.DueDate)
	require.Equal(t, f.lease.MonthlyRent, p1.Amount)
	require.Equal(t, f.owner.ID, p1.OwnerID)

	p2, created, err := svc.Generate(&f.lease, time.July, 2026, false)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, p1.ID, p2.ID)

	var count int64
	require.NoError(t, svc.DB.Model(&models.Payment{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestGenerateClampsDueDayToShortMonths(t *testing.T) {
	svc, _, f := setup(t)

	f.lease.PaymentDueDay = 31
	require.NoError(t, svc.DB.Model(&f.lease).Update("payment_due_day", 31).Error)

	p, created, err := svc.Generate(&f.lease, time.February, 2026, false)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, util.Date(2026, time.February, 28), p.DueDate)
}

func TestGenerateSkipsOutsideLeaseTerm(t *testing.T) {
	svc, _, f := setup(t)

	p, created, err := svc.Generate(&f.lease, time.December, 2025, false)
	require.NoError(t, err)
	require.False(t, created)
	require.Nil(t, p)

	p, created, err = svc.Generate(&f.lease, time.January, 2027, false)
	require.NoError(t, err)
	require.False(t, created)
	require.Nil(t, p)
}

func TestGenerateDryRunWritesNothing(t *testing.T) {
	svc, _, f := setup(t)

	p, created, err := svc.Generate(&f.lease, time.July, 2026, true)
	require.NoError(t, err)
	require.True(t, created)
	require.NotNil(t, p)

	var count int64
	require.NoError(t, svc.DB.Model(&models.Payment{}).Count(&count).Error)
	require.Equal(t, int64(0), count)
}

func TestSubmitTransitionsExistingPending(t *testing.T) {
	svc, notifier, f := setup(t)

	generated, _, err := svc.Generate(&f.lease, time.July, 2026, false)
	require.NoError(t, err)

	p, err := svc.Submit(SubmitInput{
		LeaseID:         f.lease.ID,
		Month:           time.July,
		Year:            2026,
		Amount:          450000,
		PaymentMethod:   models.MethodMpesa,
		TransactionID:   "MP123456",
		MobileMoneyCode: "ABC123",
	})
	require.NoError(t, err)
	require.Equal(t, generated.ID, p.ID, "submission reuses the generated payment")
	require.Equal(t, models.PaymentStatusPendingVerification, p.PaymentStatus)
	require.NotNil(t, p.PaymentDate)
	require.NotNil(t, p.TransactionID)
	require.Equal(t, "MP123456", *p.TransactionID)
	require.Equal(t, []uint{p.ID}, notifier.submitted)
}

func TestSubmitCreatesWhenNoneGenerated(t *testing.T) {
	svc, _, f := setup(t)

	p, err := svc.Submit(SubmitInput{
		LeaseID:       f.lease.ID,
		Month:         time.August,
		Year:          2026,
		Amount:        450000,
		PaymentMethod: models.MethodTigoPesa,
	})
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPendingVerification, p.PaymentStatus)
	require.Equal(t, "August 2026", p.PaymentPeriod)
	require.Equal(t, f.owner.ID, p.OwnerID)
}

func TestSubmitRejectsInactiveLeaseAndDoubleSubmit(t *testing.T) {
	svc, _, f := setup(t)

	in := SubmitInput{
		LeaseID:       f.lease.ID,
		Month:         time.July,
		Year:          2026,
		Amount:        450000,
		PaymentMethod: models.MethodMpesa,
	}
	_, err := svc.Submit(in)
	require.NoError(t, err)

	// the period is already pending_verification
	_, err = svc.Submit(in)
	require.True(t, apperr.IsKind(err, apperr.KindInvalidTransition), "got %v", err)

	require.NoError(t, svc.DB.Model(&f.lease).Update("status", models.LeaseStatusTerminated).Error)
	in.Month = time.September
	_, err = svc.Submit(in)
	require.True(t, apperr.IsKind(err, apperr.KindInvalidTransition), "got %v", err)
}

func TestVerifyApproveCompletesAndStampsReceipt(t *testing.T) {
	svc, notifier, f := setup(t)

	submitted, err := svc.Submit(SubmitInput{
		LeaseID:       f.lease.ID,
		Month:         time.July,
		Year:          2026,
		Amount:        450000,
		PaymentMethod: models.MethodMpesa,
	})
	require.NoError(t, err)

	p, err := svc.Verify(submitted.ID, f.admin.ID, true, "", "")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusCompleted, p.PaymentStatus)
	require.Regexp(t, regexp.MustCompile(`^RCP-\d{12}-\d{4}$`), p.ReceiptNumber)
	require.NotNil(t, p.VerifiedAt)
	require.Equal(t, f.admin.ID, *p.VerifiedByID)
	require.Equal(t, []uint{p.ID}, notifier.verified)

	// earnings recomputed in the same transaction
	var owner models.Owner
	require.NoError(t, svc.DB.First(&owner, f.owner.ID).Error)
	require.Equal(t, int64(450000), owner.TotalEarnings)
}

func TestVerifyRejectFailsPayment(t *testing.T) {
	svc, notifier, f := setup(t)

	submitted, err := svc.Submit(SubmitInput{
		LeaseID:       f.lease.ID,
		Month:         time.July,
		Year:          2026,
		Amount:        450000,
		PaymentMethod: models.MethodMpesa,
	})
	require.NoError(t, err)

	p, err := svc.Verify(submitted.ID, f.admin.ID, false, "amount does not match the bank statement", "")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusFailed, p.PaymentStatus)
	require.Empty(t, p.ReceiptNumber)
	require.Contains(t, p.Notes, "bank statement")
	require.Equal(t, []uint{p.ID}, notifier.rejected)

	// a rejected payment contributes nothing
	var owner models.Owner
	require.NoError(t, svc.DB.First(&owner, f.owner.ID).Error)
	require.Equal(t, int64(0), owner.TotalEarnings)
}

func TestVerifyTwiceConflicts(t *testing.T) {
	svc, _, f := setup(t)

	submitted, err := svc.Submit(SubmitInput{
		LeaseID:       f.lease.ID,
		Month:         time.July,
		Year:          2026,
		Amount:        450000,
		PaymentMethod: models.MethodMpesa,
	})
	require.NoError(t, err)

	_, err = svc.Verify(submitted.ID, f.admin.ID, true, "", "")
	require.NoError(t, err)

	_, err = svc.Verify(submitted.ID, f.admin.ID, true, "", "")
	require.True(t, apperr.IsKind(err, apperr.KindInvalidTransition), "got %v", err)

	// exactly one completed payment, earnings counted once
	var owner models.Owner
	require.NoError(t, svc.DB.First(&owner, f.owner.ID).Error)
	require.Equal(t, int64(450000), owner.TotalEarnings)
}

func TestVerifyRequiresPendingVerification(t *testing.T) {
	svc, _, f := setup(t)

	generated, _, err := svc.Generate(&f.lease, time.July, 2026, false)
	require.NoError(t, err)

	_, err = svc.Verify(generated.ID, f.admin.ID, true, "", "")
	require.True(t, apperr.IsKind(err, apperr.KindInvalidTransition), "got %v", err)

	_, err = svc.Verify(99999, f.admin.ID, true, "", "")
	require.True(t, apperr.IsKind(err, apperr.KindNotFound), "got %v", err)
}

func TestListPendingQueries(t *testing.T) {
	svc, _, f := setup(t)

	mk := func(due time.Time, period string) models.Payment {
		p := models.Payment{
			LeaseID:       f.lease.ID,
			TenantID:      f.tenant.ID,
			OwnerID:       f.owner.ID,
			Amount:        450000,
			PaymentMethod: models.MethodMpesa,
			PaymentStatus: models.PaymentStatusPending,
			DueDate:       due,
			PaymentPeriod: period,
		}
		require.NoError(t, svc.DB.Create(&p).Error)
		return p
	}
	dueToday := mk(today, "June 2026")
	overdue := mk(today.AddDate(0, 0, -3), "May 2026")
	mk(today.AddDate(0, 0, 7), "July 2026")

	due, err := svc.ListPendingDueOn(today)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, dueToday.ID, due[0].ID)

	late, err := svc.ListPendingOverdue(today)
	require.NoError(t, err)
	require.Len(t, late, 1)
	require.Equal(t, overdue.ID, late[0].ID)
}
