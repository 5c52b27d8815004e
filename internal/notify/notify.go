// Package notify creates in-app notifications with English and Swahili
// bodies and hands the localized text to a pluggable mailer. Dispatch is
// fire-and-forget: a failed lookup or email never propagates to the caller,
// so a lifecycle transition always succeeds even when its alert does not.
package notify

import (
	"fmt"
	"log"
	"time"

	"kodisha/internal/models"
	"kodisha/internal/util"

	"gorm.io/gorm"
)

// Mailer delivers one message. The real delivery mechanism lives outside
// this service.
type Mailer interface {
	Send(to, subject, body string) error
}

// LogMailer writes messages to the process log instead of delivering them.
// Used in development and as the default when email is disabled.
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) error {
	log.Printf("mail to=%s subject=%q: %s", to, subject, body)
	return nil
}

type Service struct {
	DB           *gorm.DB
	Mailer       Mailer
	EmailEnabled bool
	Now          func() time.Time
}

func NewService(db *gorm.DB, mailer Mailer, emailEnabled bool) *Service {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &Service{DB: db, Mailer: mailer, EmailEnabled: emailEnabled, Now: time.Now}
}

// create persists the notification and, when enabled, emails the localized
// body. Errors are logged and swallowed.
func (s *Service) create(user *models.User, ntype, title, message, messageSw, actionURL, relatedType string, relatedID uint) {
	if user == nil {
		log.Printf("notify: dropping %s notification with no recipient", ntype)
		return
	}

	n := models.Notification{
		UserID:            user.ID,
		NotificationType:  ntype,
		Title:             title,
		Message:           message,
		MessageSwahili:    messageSw,
		ActionURL:         actionURL,
		RelatedObjectType: relatedType,
	}
	if relatedID != 0 {
		n.RelatedObjectID = &relatedID
	}
	if err := s.DB.Create(&n).Error; err != nil {
		log.Printf("notify: create %s notification for user %d: %v", ntype, user.ID, err)
		return
	}

	if !s.EmailEnabled || user.Email == "" {
		return
	}
	body := n.LocalizedMessage(user.PreferredLanguage)
	if err := s.Mailer.Send(user.Email, title, body); err != nil {
		log.Printf("notify: email %s to %s: %v", ntype, user.Email, err)
		return
	}
	now := s.Now()
	if err := s.DB.Model(&models.Notification{}).Where("id = ?", n.ID).
		Updates(map[string]interface{}{"email_sent": true, "email_sent_at": now}).Error; err != nil {
		log.Printf("notify: mark email sent for notification %d: %v", n.ID, err)
	}
}

// ---------- recipient lookups ----------

func (s *Service) tenantUser(tenantID uint) *models.User {
	var t models.Tenant
	if err := s.DB.Preload("User").First(&t, tenantID).Error; err != nil {
		log.Printf("notify: load tenant %d: %v", tenantID, err)
		return nil
	}
	return t.User
}

func (s *Service) ownerUser(ownerID uint) *models.User {
	var o models.Owner
	if err := s.DB.Preload("User").First(&o, ownerID).Error; err != nil {
		log.Printf("notify: load owner %d: %v", ownerID, err)
		return nil
	}
	return o.User
}

// unitLabel returns the property title and unit number for message bodies.
func (s *Service) unitLabel(unitID uint) (string, string) {
	var unit models.RentalUnit
	if err := s.DB.Preload("Property").First(&unit, unitID).Error; err != nil {
		log.Printf("notify: load unit %d: %v", unitID, err)
		return "", ""
	}
	title := ""
	if unit.Property != nil {
		title = unit.Property.Title
	}
	return title, unit.UnitNumber
}

// ---------- rent reminders ----------

func (s *Service) RentReminder7Days(p *models.Payment) {
	amount := util.FormatTZS(p.Amount)
	due := p.DueDate.Format("2006-01-02")
	s.create(s.tenantUser(p.TenantID),
		models.NotifyRentReminder7,
		"Rent Payment Reminder - 7 Days",
		fmt.Sprintf("Reminder: Your rent payment of %s for %s is due in 7 days on %s.",
			amount, p.PaymentPeriod, due),
		fmt.Sprintf("Kumbusho: Malipo yako ya kodi ya %s kwa %s yanakadhi kwa siku 7 tarehe %s.",
			amount, p.PaymentPeriod, due),
		fmt.Sprintf("/payments/%d", p.ID), "payment", p.ID)
}

func (s *Service) RentReminder3Days(p *models.Payment) {
	amount := util.FormatTZS(p.Amount)
	due := p.DueDate.Format("2006-01-02")
	s.create(s.tenantUser(p.TenantID),
		models.NotifyRentReminder3,
		"Rent Payment Reminder - 3 Days",
		fmt.Sprintf("Reminder: Your rent payment of %s for %s is due in 3 days on %s.",
			amount, p.PaymentPeriod, due),
		fmt.Sprintf("Kumbusho: Malipo yako ya kodi ya %s kwa %s yanakadhi kwa siku 3 tarehe %s.",
			amount, p.PaymentPeriod, due),
		fmt.Sprintf("/payments/%d", p.ID), "payment", p.ID)
}

func (s *Service) RentDueToday(p *models.Payment) {
	amount := util.FormatTZS(p.Amount)
	s.create(s.tenantUser(p.TenantID),
		models.NotifyRentDue,
		"Rent Payment Due Today",
		fmt.Sprintf("Your rent payment of %s for %s is due today.", amount, p.PaymentPeriod),
		fmt.Sprintf("Malipo yako ya kodi ya %s kwa %s yanakadhi leo.", amount, p.PaymentPeriod),
		fmt.Sprintf("/payments/%d", p.ID), "payment", p.ID)
}

func (s *Service) RentOverdue(p *models.Payment, daysOverdue int) {
	amount := util.FormatTZS(p.Amount)
	s.create(s.tenantUser(p.TenantID),
		models.NotifyRentOverdue,
		fmt.Sprintf("Rent Payment Overdue - %d Days", daysOverdue),
		fmt.Sprintf("Your rent payment of %s for %s is %d days overdue. Please make your payment as soon as possible.",
			amount, p.PaymentPeriod, daysOverdue),
		fmt.Sprintf("Malipo yako ya kodi ya %s kwa %s yamechelewa kwa siku %d. Tafadhali fanya malipo haraka iwezekanavyo.",
			amount, p.PaymentPeriod, daysOverdue),
		fmt.Sprintf("/payments/%d", p.ID), "payment", p.ID)
}

// ---------- payment lifecycle ----------

// PaymentSubmitted tells the owner a payment is waiting for verification.
func (s *Service) PaymentSubmitted(p *models.Payment) {
	amount := util.FormatTZS(p.Amount)
	tenantName := ""
	if u := s.tenantUser(p.TenantID); u != nil {
		tenantName = u.FullName()
	}
	s.create(s.ownerUser(p.OwnerID),
		models.NotifyPaymentReceived,
		"Payment Received - Verification Required",
		fmt.Sprintf("Payment of %s has been submitted by %s for %s. Please verify this payment.",
			amount, tenantName, p.PaymentPeriod),
		fmt.Sprintf("Malipo ya %s yamewasilishwa na %s kwa %s. Tafadhali thibitisha malipo haya.",
			amount, tenantName, p.PaymentPeriod),
		fmt.Sprintf("/payments/%d", p.ID), "payment", p.ID)
}

func (s *Service) PaymentVerified(p *models.Payment) {
	amount := util.FormatTZS(p.Amount)
	s.create(s.tenantUser(p.TenantID),
		models.NotifyPaymentVerified,
		"Payment Verified",
		fmt.Sprintf("Your payment of %s for %s has been verified and confirmed. Receipt number: %s",
			amount, p.PaymentPeriod, p.ReceiptNumber),
		fmt.Sprintf("Malipo yako ya %s kwa %s yamethibitishwa. Nambari ya risiti: %s",
			amount, p.PaymentPeriod, p.ReceiptNumber),
		fmt.Sprintf("/payments/%d", p.ID), "payment", p.ID)
}

func (s *Service) PaymentRejected(p *models.Payment) {
	amount := util.FormatTZS(p.Amount)
	s.create(s.tenantUser(p.TenantID),
		models.NotifyPaymentRejected,
		"Payment Verification Failed",
		fmt.Sprintf("Your payment of %s for %s could not be verified. Reason: %s. Please contact your landlord or resubmit the payment.",
			amount, p.PaymentPeriod, p.Notes),
		fmt.Sprintf("Malipo yako ya %s kwa %s hayakuweza kuthibitishwa. Sababu: %s. Tafadhali wasiliana na mmiliki wako au wasilisha tena malipo.",
			amount, p.PaymentPeriod, p.Notes),
		fmt.Sprintf("/payments/%d", p.ID), "payment", p.ID)
}

// ---------- lease lifecycle ----------

// LeaseCreated tells both parties a new agreement exists.
func (s *Service) LeaseCreated(l *models.LeaseAgreement) {
	title, unitNumber := s.unitLabel(l.UnitID)
	actionURL := fmt.Sprintf("/leases/%d", l.ID)

	s.create(s.tenantUser(l.TenantID),
		models.NotifyLeaseCreated,
		"New Lease Agreement Created",
		fmt.Sprintf("A new lease agreement has been created for %s, Unit %s. Please review and sign the agreement.",
			title, unitNumber),
		fmt.Sprintf("Mkataba mpya wa kukodisha umeundwa kwa %s, Chumba %s. Tafadhali soma na saini mkataba.",
			title, unitNumber),
		actionURL, "lease", l.ID)

	tenantName := ""
	if u := s.tenantUser(l.TenantID); u != nil {
		tenantName = u.FullName()
	}
	s.create(s.leaseOwnerUser(l),
		models.NotifyLeaseCreated,
		"New Lease Agreement Created",
		fmt.Sprintf("A new lease agreement has been created with %s for %s, Unit %s.",
			tenantName, title, unitNumber),
		"",
		actionURL, "lease", l.ID)
}

// LeaseExpiring warns tenant and owner that the lease ends in the given
// number of days.
func (s *Service) LeaseExpiring(l *models.LeaseAgreement, daysUntilExpiry int) {
	title, unitNumber := s.unitLabel(l.UnitID)
	end := l.EndDate.Format("2006-01-02")
	actionURL := fmt.Sprintf("/leases/%d", l.ID)
	notifTitle := fmt.Sprintf("Lease Expiring in %d Days", daysUntilExpiry)

	s.create(s.tenantUser(l.TenantID),
		models.NotifyLeaseExpiring,
		notifTitle,
		fmt.Sprintf("Your lease for %s, Unit %s will expire in %d days on %s. Please contact your landlord about renewal.",
			title, unitNumber, daysUntilExpiry, end),
		fmt.Sprintf("Mkataba wako wa %s, Chumba %s utaisha kwa siku %d tarehe %s. Tafadhali wasiliana na mmiliki wako kuhusu kuhuisha.",
			title, unitNumber, daysUntilExpiry, end),
		actionURL, "lease", l.ID)

	tenantName := ""
	if u := s.tenantUser(l.TenantID); u != nil {
		tenantName = u.FullName()
	}
	s.create(s.leaseOwnerUser(l),
		models.NotifyLeaseExpiring,
		notifTitle,
		fmt.Sprintf("The lease with %s for %s, Unit %s will expire in %d days on %s.",
			tenantName, title, unitNumber, daysUntilExpiry, end),
		"",
		actionURL, "lease", l.ID)
}

// LeaseRenewed tells the tenant about the new term.
func (s *Service) LeaseRenewed(l *models.LeaseAgreement) {
	title, unitNumber := s.unitLabel(l.UnitID)
	s.create(s.tenantUser(l.TenantID),
		models.NotifyLeaseRenewed,
		"Lease Renewed",
		fmt.Sprintf("Your lease for %s, Unit %s has been renewed. New term: %s to %s. Monthly rent: %s",
			title, unitNumber,
			l.StartDate.Format("2006-01-02"), l.EndDate.Format("2006-01-02"),
			util.FormatTZS(l.MonthlyRent)),
		"",
		fmt.Sprintf("/leases/%d", l.ID), "lease", l.ID)
}

// leaseOwnerUser resolves the owner behind the lease's unit's property.
func (s *Service) leaseOwnerUser(l *models.LeaseAgreement) *models.User {
	var unit models.RentalUnit
	if err := s.DB.Preload("Property").First(&unit, l.UnitID).Error; err != nil {
		log.Printf("notify: load unit %d: %v", l.UnitID, err)
		return nil
	}
	if unit.Property == nil {
		return nil
	}
	return s.ownerUser(unit.Property.OwnerID)
}

// ---------- maintenance ----------

func (s *Service) MaintenanceSubmitted(m *models.MaintenanceRequest) {
	title, unitNumber := s.unitLabel(m.UnitID)
	tenantName := ""
	if u := s.tenantUser(m.TenantID); u != nil {
		tenantName = u.FullName()
	}
	s.create(s.ownerUser(m.OwnerID),
		models.NotifyMaintenanceNew,
		"New Maintenance Request",
		fmt.Sprintf("New maintenance request from %s for %s, Unit %s. Issue: %s. Priority: %s.",
			tenantName, title, unitNumber, m.IssueType, m.Priority),
		"",
		fmt.Sprintf("/maintenance/%d", m.ID), "maintenance", m.ID)
}

func (s *Service) MaintenanceStatusChanged(m *models.MaintenanceRequest) {
	var message, messageSw string
	switch m.Status {
	case models.MaintenanceStatusAcknowledged:
		message = "Your maintenance request has been acknowledged."
		messageSw = "Ombi lako la matengenezo limekubaliwa."
	case models.MaintenanceStatusInProgress:
		message = "Work on your maintenance request has started."
		messageSw = "Kazi ya matengenezo yako imeanza."
	case models.MaintenanceStatusCompleted:
		message = "Your maintenance request has been completed."
		messageSw = "Matengenezo yako yamekamilika."
		if m.Cost != nil {
			message = fmt.Sprintf("Your maintenance request has been completed. Cost: %s", util.FormatTZS(*m.Cost))
		}
	case models.MaintenanceStatusCancelled:
		message = "Your maintenance request has been cancelled."
		messageSw = "Ombi lako la matengenezo limefutwa."
	default:
		message = fmt.Sprintf("Status updated to: %s", m.Status)
	}

	s.create(s.tenantUser(m.TenantID),
		models.NotifyMaintenanceUpdate,
		fmt.Sprintf("Maintenance Request Update: %s", m.Status),
		message,
		messageSw,
		fmt.Sprintf("/maintenance/%d", m.ID), "maintenance", m.ID)
}
