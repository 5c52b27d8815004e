package notify

import (
	"errors"
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

type fakeMailer struct {
	sent []string // "to|subject|body"
	err  error
}

func (f *fakeMailer) Send(to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to+"|"+subject+"|"+body)
	return nil
}

type fixture struct {
	tenant     models.Tenant
	tenantUser models.User
	owner      models.Owner
	ownerUser  models.User
	unit       models.RentalUnit
	lease      models.LeaseAgreement
}

func setup(t *testing.T, mailer Mailer, emailEnabled bool) (*Service, fixture) {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	var f fixture
	f.ownerUser = models.User{FirstName: "Neema", LastName: "Mushi", PhoneNumber: "+255700000001", Email: "neema@example.com", Role: models.RoleOwner, PreferredLanguage: models.LangEnglish}
	f.tenantUser = models.User{FirstName: "Juma", LastName: "Hassan", PhoneNumber: "+255700000002", Email: "juma@example.com", Role: models.RoleTenant, PreferredLanguage: models.LangSwahili}
	require.NoError(t, db.Create(&f.ownerUser).Error)
	require.NoError(t, db.Create(&f.tenantUser).Error)
	f.owner = models.Owner{UserID: f.ownerUser.ID}
	f.tenant = models.Tenant{UserID: f.tenantUser.ID}
	require.NoError(t, db.Create(&f.owner).Error)
	require.NoError(t, db.Create(&f.tenant).Error)

	prop := models.Property{OwnerID: f.owner.ID, PropertyType: models.PropertyTypeApartment, Title: "Sinza Flats", MonthlyRent: 450000, TotalRooms: 1}
	require.NoError(t, db.Create(&prop).Error)
	f.unit = models.RentalUnit{PropertyID: prop.ID, UnitType: models.UnitTypeOneBedroom, UnitNumber: "A1", UnitRent: 450000}
	require.NoError(t, db.Create(&f.unit).Error)
	f.lease = models.LeaseAgreement{
		TenantID:    f.tenant.ID,
		UnitID:      f.unit.ID,
		StartDate:   util.Date(2026, time.January, 1),
		EndDate:     util.Date(2026, time.December, 31),
		MonthlyRent: 450000,
		Status:      models.LeaseStatusActive,
	}
	require.NoError(t, db.Create(&f.lease).Error)

	svc := NewService(db, mailer, emailEnabled)
	return svc, f
}

func payment(f fixture) *models.Payment {
	return &models.Payment{
		ID:            1,
		LeaseID:       f.lease.ID,
		TenantID:      f.tenant.ID,
		OwnerID:       f.owner.ID,
		Amount:        450000,
		PaymentStatus: models.PaymentStatusPending,
		DueDate:       util.Date(2026, time.July, 5),
		PaymentPeriod: "July 2026",
	}
}

func TestRentReminderWritesBilingualNotification(t *testing.T) {
	svc, f := setup(t, &fakeMailer{}, false)

	svc.RentReminder7Days(payment(f))

	var n models.Notification
	require.NoError(t, svc.DB.First(&n).Error)
	require.Equal(t, f.tenantUser.ID, n.UserID)
	require.Equal(t, models.NotifyRentReminder7, n.NotificationType)
	require.Contains(t, n.Message, "TZS 450,000")
	require.Contains(t, n.Message, "July 2026")
	require.Contains(t, n.MessageSwahili, "TZS 450,000")
	require.Contains(t, n.MessageSwahili, "siku 7")
	require.False(t, n.EmailSent)
}

func TestEmailUsesPreferredLanguage(t *testing.T) {
	mailer := &fakeMailer{}
	svc, f := setup(t, mailer, true)

	svc.RentDueToday(payment(f))

	require.Len(t, mailer.sent, 1)
	// tenant prefers Swahili, the emailed body must be the Swahili one
	require.Contains(t, mailer.sent[0], "juma@example.com")
	require.Contains(t, mailer.sent[0], "yanakadhi leo")

	var n models.Notification
	require.NoError(t, svc.DB.First(&n).Error)
	require.True(t, n.EmailSent)
	require.NotNil(t, n.EmailSentAt)
}

func TestMailerFailureIsSwallowed(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	svc, f := setup(t, mailer, true)

	// must not panic or surface the error
	svc.RentOverdue(payment(f), 6)

	var n models.Notification
	require.NoError(t, svc.DB.First(&n).Error)
	require.Equal(t, models.NotifyRentOverdue, n.NotificationType)
	require.False(t, n.EmailSent, "failed email must not be marked sent")
}

func TestPaymentSubmittedNotifiesOwner(t *testing.T) {
	svc, f := setup(t, &fakeMailer{}, false)

	svc.PaymentSubmitted(payment(f))

	var n models.Notification
	require.NoError(t, svc.DB.First(&n).Error)
	require.Equal(t, f.ownerUser.ID, n.UserID)
	require.Equal(t, models.NotifyPaymentReceived, n.NotificationType)
	require.Contains(t, n.Message, "Juma Hassan")
}

func TestPaymentVerifiedIncludesReceipt(t *testing.T) {
	svc, f := setup(t, &fakeMailer{}, false)

	p := payment(f)
	p.PaymentStatus = models.PaymentStatusCompleted
	p.ReceiptNumber = "RCP-202607051200-0042"
	svc.PaymentVerified(p)

	var n models.Notification
	require.NoError(t, svc.DB.First(&n).Error)
	require.Equal(t, f.tenantUser.ID, n.UserID)
	require.Contains(t, n.Message, "RCP-202607051200-0042")
	require.Contains(t, n.MessageSwahili, "RCP-202607051200-0042")
}

func TestLeaseCreatedNotifiesBothParties(t *testing.T) {
	svc, f := setup(t, &fakeMailer{}, false)

	svc.LeaseCreated(&f.lease)

	var notifications []models.Notification
	require.NoError(t, svc.DB.Order("id").Find(&notifications).Error)
	require.Len(t, notifications, 2)
	require.Equal(t, f.tenantUser.ID, notifications[0].UserID)
	require.Equal(t, f.ownerUser.ID, notifications[1].UserID)
	require.Contains(t, notifications[0].Message, "Sinza Flats")
	require.Contains(t, notifications[1].Message, "Juma Hassan")
}

func TestLeaseExpiringMentionsDaysAndDate(t *testing.T) {
	svc, f := setup(t, &fakeMailer{}, false)

	svc.LeaseExpiring(&f.lease, 14)

	var notifications []models.Notification
	require.NoError(t, svc.DB.Find(&notifications).Error)
	require.Len(t, notifications, 2)
	for _, n := range notifications {
		require.Contains(t, n.Title, "14 Days")
		require.Contains(t, n.Message, "2026-12-31")
	}
}

func TestMissingRecipientIsDropped(t *testing.T) {
	svc, f := setup(t, &fakeMailer{}, false)

	p := payment(f)
	p.TenantID = 9999 // dangling reference
	svc.RentDueToday(p)

	var count int64
	require.NoError(t, svc.DB.Model(&models.Notification{}).Count(&count).Error)
	require.Equal(t, int64(0), count)
}
