// Package payment implements the rent payment lifecycle: scheduled
// generation, tenant submission, and owner/admin verification.
package payment

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"kodisha/internal/apperr"
	"kodisha/internal/derived"
	"kodisha/internal/models"
	"kodisha/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Notifier receives payment lifecycle events after the transaction commits.
// Implementations must not fail the caller.
type Notifier interface {
	PaymentSubmitted(p *models.Payment)
	PaymentVerified(p *models.Payment)
	PaymentRejected(p *models.Payment)
}

type Service struct {
	DB       *gorm.DB
	Notifier Notifier
	Now      func() time.Time
}

func NewService(db *gorm.DB, notifier Notifier) *Service {
	return &Service{DB: db, Notifier: notifier, Now: time.Now}
}

// Generate creates the pending payment for one lease and billing period.
// It is idempotent: when a payment for that lease and period already exists,
// nothing is created and created is false. The due day is clamped to the last
// day of short months, and periods whose due date falls outside the lease term
// are skipped. With dryRun set, Generate reports what it would do without
// writing.
func (s *Service) Generate(l *models.LeaseAgreement, month time.Month, year int, dryRun bool) (p *models.Payment, created bool, err error) {
	dueDay := l.PaymentDueDay
	if last := util.DaysInMonth(year, month); dueDay > last {
		dueDay = last
	}
	dueDate := util.Date(year, month, dueDay)

	// Periods outside the lease term get no payment.
	if dueDate.Before(util.DateOnly(l.StartDate)) || dueDate.After(util.DateOnly(l.EndDate)) {
		return nil, false, nil
	}

	period := util.PeriodString(month, year)

	var existing models.Payment
	err = s.DB.Where("lease_id = ? AND payment_period = ?", l.ID, period).
		First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	ownerID, err := s.ownerIDForUnit(s.DB, l.UnitID)
	if err != nil {
		return nil, false, err
	}

	p = &models.Payment{
		LeaseID:       l.ID,
		TenantID:      l.TenantID,
		OwnerID:       ownerID,
		Amount:        l.MonthlyRent,
		PaymentMethod: models.MethodMpesa, // placeholder until the tenant submits
		PaymentStatus: models.PaymentStatusPending,
		DueDate:       dueDate,
		PaymentPeriod: period,
	}
	if dryRun {
		return p, true, nil
	}
	if err := s.DB.Create(p).Error; err != nil {
		return nil, false, err
	}
	return p, true, nil
}

type SubmitInput struct {
	LeaseID         uint
	Month           time.Month
	Year            int
	Amount          int64
	PaymentMethod   string
	TransactionID   string
	MobileMoneyCode string
	Notes           string
}

func (in *SubmitInput) validate() error {
	if in.LeaseID == 0 {
		return apperr.Validationf("lease_id is required")
	}
	if in.Amount <= 0 {
		return apperr.Validationf("amount must be positive")
	}
	switch in.PaymentMethod {
	case models.MethodMpesa, models.MethodTigoPesa, models.MethodAirtelMoney,
		models.MethodHaloPesa, models.MethodBankTransfer, models.MethodCash, models.MethodCheque:
	default:
		return apperr.Validationf("unknown payment method %q", in.PaymentMethod)
	}
	return nil
}

// Submit records a tenant's claim of having paid. When a pending payment for
// the period exists it transitions to pending_verification; otherwise a new
// pending_verification payment is created. The owner is notified either way.
func (s *Service) Submit(in SubmitInput) (*models.Payment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	period := util.PeriodString(in.Month, in.Year)
	var p *models.Payment

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var l models.LeaseAgreement
		if err := tx.First(&l, in.LeaseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("lease %d not found", in.LeaseID)
			}
			return err
		}
		if l.Status != models.LeaseStatusActive {
			return apperr.InvalidTransitionf("payments can only be submitted against an active lease, lease %d is %q", l.ID, l.Status)
		}

		now := s.Now()
		var existing models.Payment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("lease_id = ? AND payment_period = ?", in.LeaseID, period).
			First(&existing).Error
		switch {
		case err == nil:
			if err := models.AllowedTransition(models.ValidPaymentTransitions,
				existing.PaymentStatus, models.PaymentStatusPendingVerification); err != nil {
				return apperr.InvalidTransitionf("payment %d: %v", existing.ID, err)
			}
			updates := map[string]interface{}{
				"payment_status":    models.PaymentStatusPendingVerification,
				"payment_date":      now,
				"payment_method":    in.PaymentMethod,
				"mobile_money_code": in.MobileMoneyCode,
				"amount":            in.Amount,
				"notes":             in.Notes,
			}
			if in.TransactionID != "" {
				updates["transaction_id"] = in.TransactionID
			}
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return err
			}
			p = &existing
			if err := tx.First(p, existing.ID).Error; err != nil {
				return err
			}
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			ownerID, oErr := s.ownerIDForUnit(tx, l.UnitID)
			if oErr != nil {
				return oErr
			}
			dueDay := l.PaymentDueDay
			if last := util.DaysInMonth(in.Year, in.Month); dueDay > last {
				dueDay = last
			}
			p = &models.Payment{
				LeaseID:         l.ID,
				TenantID:        l.TenantID,
				OwnerID:         ownerID,
				Amount:          in.Amount,
				PaymentDate:     &now,
				PaymentMethod:   in.PaymentMethod,
				MobileMoneyCode: in.MobileMoneyCode,
				PaymentStatus:   models.PaymentStatusPendingVerification,
				DueDate:         util.Date(in.Year, in.Month, dueDay),
				PaymentPeriod:   period,
				Notes:           in.Notes,
			}
			if in.TransactionID != "" {
				p.TransactionID = &in.TransactionID
			}
			return tx.Create(p).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		s.Notifier.PaymentSubmitted(p)
	}
	return p, nil
}

// Verify resolves a pending_verification payment. Approval completes it,
// stamps a receipt number and recomputes the owner's earnings in the same
// transaction; rejection fails it with the verifier's notes. The status
// update is conditional on the prior status, so of two concurrent verifiers
// exactly one wins and the other gets a conflict.
func (s *Service) Verify(paymentID, verifierID uint, approve bool, notes, transactionID string) (*models.Payment, error) {
	var p *models.Payment
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var loaded models.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&loaded, paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("payment %d not found", paymentID)
			}
			return err
		}
		if loaded.PaymentStatus != models.PaymentStatusPendingVerification {
			return apperr.InvalidTransitionf("payment %d cannot be verified from status %q", paymentID, loaded.PaymentStatus)
		}

		now := s.Now()
		updates := map[string]interface{}{
			"verified_by_id": verifierID,
			"verified_at":    now,
		}
		if notes != "" {
			updates["notes"] = notes
		}
		if transactionID != "" {
			updates["transaction_id"] = transactionID
		}
		if approve {
			receipt, err := s.newReceiptNumber(tx, now)
			if err != nil {
				return err
			}
			updates["payment_status"] = models.PaymentStatusCompleted
			updates["receipt_number"] = receipt
			if loaded.PaymentDate == nil {
				updates["payment_date"] = now
			}
		} else {
			updates["payment_status"] = models.PaymentStatusFailed
		}

		res := tx.Model(&models.Payment{}).
			Where("id = ? AND payment_status = ?", paymentID, models.PaymentStatusPendingVerification).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflictf("payment %d was verified concurrently", paymentID)
		}

		if approve {
			if err := derived.SyncOwnerEarnings(tx, loaded.OwnerID); err != nil {
				return err
			}
		}

		p = &loaded
		return tx.First(p, paymentID).Error
	})
	if err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		if approve {
			s.Notifier.PaymentVerified(p)
		} else {
			s.Notifier.PaymentRejected(p)
		}
	}
	return p, nil
}

// Get loads one payment by ID.
func (s *Service) Get(paymentID uint) (*models.Payment, error) {
	var p models.Payment
	if err := s.DB.Preload("Lease").First(&p, paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("payment %d not found", paymentID)
		}
		return nil, err
	}
	return &p, nil
}

// ListPendingDueOn returns pending payments on active leases due exactly on
// the given day. Used by the reminder job for its 7/3/0-day tiers.
func (s *Service) ListPendingDueOn(day time.Time) ([]models.Payment, error) {
	var payments []models.Payment
	if err := s.onActiveLeases().
		Where("payments.payment_status = ? AND payments.due_date = ?",
			models.PaymentStatusPending, util.DateOnly(day)).
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// ListPendingOverdue returns pending payments on active leases whose due date
// is strictly before the given day, oldest first.
func (s *Service) ListPendingOverdue(asOf time.Time) ([]models.Payment, error) {
	var payments []models.Payment
	if err := s.onActiveLeases().
		Where("payments.payment_status = ? AND payments.due_date < ?",
			models.PaymentStatusPending, util.DateOnly(asOf)).
		Order("payments.due_date").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *Service) onActiveLeases() *gorm.DB {
	return s.DB.Model(&models.Payment{}).
		Joins("JOIN lease_agreements ON lease_agreements.id = payments.lease_id").
		Where("lease_agreements.status = ?", models.LeaseStatusActive)
}

// newReceiptNumber builds a RCP-<timestamp>-<4 digits> receipt number,
// retrying on the unlikely collision.
func (s *Service) newReceiptNumber(tx *gorm.DB, now time.Time) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		receipt := fmt.Sprintf("RCP-%s-%04d", now.Format("200601021504"), rand.Intn(10000))
		var count int64
		if err := tx.Model(&models.Payment{}).
			Where("receipt_number = ?", receipt).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return receipt, nil
		}
	}
	return "", apperr.Conflictf("could not allocate a unique receipt number")
}

// ownerIDForUnit resolves the owner behind a unit's property for the
// denormalized owner reference on payments.
func (s *Service) ownerIDForUnit(tx *gorm.DB, unitID uint) (uint, error) {
	var unit models.RentalUnit
	if err := tx.Preload("Property").First(&unit, unitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.NotFoundf("rental unit %d not found", unitID)
		}
		return 0, err
	}
	if unit.Property == nil {
		return 0, apperr.NotFoundf("property %d not found", unit.PropertyID)
	}
	return unit.Property.OwnerID, nil
}
