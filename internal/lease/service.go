// Package lease implements the lease agreement lifecycle: creation through
// the draft/pending/active phase to one of the terminal statuses, plus
// renewal into a successor agreement.
package lease

import (
	"errors"
	"time"

	"kodisha/internal/apperr"
	"kodisha/internal/derived"
	"kodisha/internal/models"
	"kodisha/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Notifier receives lease lifecycle events after the transaction commits.
// Implementations must not fail the caller.
type Notifier interface {
	LeaseCreated(l *models.LeaseAgreement)
	LeaseRenewed(l *models.LeaseAgreement)
}

// Service manages lease agreements. All mutations run in a transaction that
// also recomputes the affected unit's occupancy, so the status change and its
// derived state commit together.
type Service struct {
	DB       *gorm.DB
	Notifier Notifier
	Now      func() time.Time
}

func NewService(db *gorm.DB, notifier Notifier) *Service {
	return &Service{DB: db, Notifier: notifier, Now: time.Now}
}

type CreateInput struct {
	TenantID         uint
	UnitID           uint
	StartDate        time.Time
	EndDate          time.Time
	MonthlyRent      int64
	SecurityDeposit  int64
	DepositPaid      bool
	PaymentFrequency string
	PaymentDueDay    int
	TermsConditions  string
	Status           string // draft, pending or active; empty means draft
}

func (in *CreateInput) validate() error {
	if in.TenantID == 0 {
		return apperr.Validationf("tenant_id is required")
	}
	if in.UnitID == 0 {
		return apperr.Validationf("unit_id is required")
	}
	if !in.EndDate.After(in.StartDate) {
		return apperr.Validationf("end_date must be after start_date")
	}
	if in.MonthlyRent <= 0 {
		return apperr.Validationf("monthly_rent must be positive")
	}
	if in.PaymentDueDay < 1 || in.PaymentDueDay > 31 {
		return apperr.Validationf("payment_due_day must be between 1 and 31")
	}
	switch in.PaymentFrequency {
	case "", models.FrequencyMonthly, models.FrequencyQuarterly, models.FrequencyBiannual, models.FrequencyAnnual:
	default:
		return apperr.Validationf("unknown payment frequency %q", in.PaymentFrequency)
	}
	switch in.Status {
	case "", models.LeaseStatusDraft, models.LeaseStatusPending, models.LeaseStatusActive:
	default:
		return apperr.Validationf("a lease cannot be created with status %q", in.Status)
	}
	return nil
}

// Create validates the input and persists a new lease. When the lease is
// created directly active, the unit must not already carry an active lease and
// its occupancy is re-derived in the same transaction.
func (s *Service) Create(in CreateInput) (*models.LeaseAgreement, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.LeaseStatusDraft
	}
	freq := in.PaymentFrequency
	if freq == "" {
		freq = models.FrequencyMonthly
	}

	l := &models.LeaseAgreement{
		TenantID:         in.TenantID,
		UnitID:           in.UnitID,
		StartDate:        util.DateOnly(in.StartDate),
		EndDate:          util.DateOnly(in.EndDate),
		MonthlyRent:      in.MonthlyRent,
		SecurityDeposit:  in.SecurityDeposit,
		DepositPaid:      in.DepositPaid,
		PaymentFrequency: freq,
		PaymentDueDay:    in.PaymentDueDay,
		TermsConditions:  in.TermsConditions,
		Status:           status,
	}
	if in.DepositPaid {
		now := util.DateOnly(s.Now())
		l.DepositPaidDate = &now
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var tenant models.Tenant
		if err := tx.First(&tenant, in.TenantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("tenant %d not found", in.TenantID)
			}
			return err
		}
		var unit models.RentalUnit
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&unit, in.UnitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("rental unit %d not found", in.UnitID)
			}
			return err
		}

		if status == models.LeaseStatusActive {
			if err := s.ensureNoActiveLease(tx, in.UnitID, 0); err != nil {
				return err
			}
			signed := util.DateOnly(s.Now())
			l.SignedDate = &signed
		}

		if err := tx.Create(l).Error; err != nil {
			return err
		}

		if status == models.LeaseStatusActive {
			return derived.SyncUnitOccupancy(tx, in.UnitID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		s.Notifier.LeaseCreated(l)
	}
	return l, nil
}

// Activate moves a lease from pending to active and records the signing date.
func (s *Service) Activate(leaseID uint) (*models.LeaseAgreement, error) {
	var l *models.LeaseAgreement
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		l, err = s.lockLease(tx, leaseID)
		if err != nil {
			return err
		}
		if l.Status != models.LeaseStatusPending {
			return apperr.InvalidTransitionf("lease %d cannot be activated from status %q", leaseID, l.Status)
		}
		if err := s.ensureNoActiveLease(tx, l.UnitID, l.ID); err != nil {
			return err
		}

		signed := util.DateOnly(s.Now())
		l.Status = models.LeaseStatusActive
		l.SignedDate = &signed
		if err := tx.Model(l).Updates(map[string]interface{}{
			"status":      l.Status,
			"signed_date": l.SignedDate,
		}).Error; err != nil {
			return err
		}
		return derived.SyncUnitOccupancy(tx, l.UnitID)
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Terminate ends a lease early from any non-terminal status and frees the
// unit.
func (s *Service) Terminate(leaseID uint) (*models.LeaseAgreement, error) {
	var l *models.LeaseAgreement
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		l, err = s.lockLease(tx, leaseID)
		if err != nil {
			return err
		}
		if err := models.AllowedTransition(models.ValidLeaseTransitions, l.Status, models.LeaseStatusTerminated); err != nil {
			return apperr.InvalidTransitionf("lease %d: %v", leaseID, err)
		}

		l.Status = models.LeaseStatusTerminated
		if err := tx.Model(l).Update("status", l.Status).Error; err != nil {
			return err
		}
		return derived.SyncUnitOccupancy(tx, l.UnitID)
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Expire marks an active lease whose end date has passed as expired and frees
// the unit. Leases whose term is still running are left alone.
func (s *Service) Expire(leaseID uint) (*models.LeaseAgreement, error) {
	var l *models.LeaseAgreement
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		l, err = s.lockLease(tx, leaseID)
		if err != nil {
			return err
		}
		if l.Status != models.LeaseStatusActive {
			return apperr.InvalidTransitionf("lease %d cannot expire from status %q", leaseID, l.Status)
		}
		today := util.DateOnly(s.Now())
		if !l.EndDate.Before(today) {
			return apperr.InvalidTransitionf("lease %d has not reached its end date", leaseID)
		}

		l.Status = models.LeaseStatusExpired
		if err := tx.Model(l).Update("status", l.Status).Error; err != nil {
			return err
		}
		return derived.SyncUnitOccupancy(tx, l.UnitID)
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

type RenewInput struct {
	NewStartDate   time.Time
	NewEndDate     time.Time
	NewMonthlyRent *int64 // nil keeps the old rent
}

// Renew closes an active lease with status renewed and creates a successor
// agreement on the same unit, inheriting deposit, frequency, due day and
// terms. Old and new lease commit in one transaction; the unit stays occupied
// throughout.
func (s *Service) Renew(leaseID uint, in RenewInput) (*models.LeaseAgreement, error) {
	if !in.NewEndDate.After(in.NewStartDate) {
		return nil, apperr.Validationf("new end_date must be after new start_date")
	}
	if in.NewMonthlyRent != nil && *in.NewMonthlyRent <= 0 {
		return nil, apperr.Validationf("monthly_rent must be positive")
	}

	var renewed *models.LeaseAgreement
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		old, err := s.lockLease(tx, leaseID)
		if err != nil {
			return err
		}
		if old.Status != models.LeaseStatusActive {
			return apperr.InvalidTransitionf("lease %d cannot be renewed from status %q", leaseID, old.Status)
		}

		if err := tx.Model(old).Update("status", models.LeaseStatusRenewed).Error; err != nil {
			return err
		}

		rent := old.MonthlyRent
		if in.NewMonthlyRent != nil {
			rent = *in.NewMonthlyRent
		}
		signed := util.DateOnly(s.Now())
		renewed = &models.LeaseAgreement{
			TenantID:         old.TenantID,
			UnitID:           old.UnitID,
			StartDate:        util.DateOnly(in.NewStartDate),
			EndDate:          util.DateOnly(in.NewEndDate),
			MonthlyRent:      rent,
			SecurityDeposit:  old.SecurityDeposit,
			DepositPaid:      old.DepositPaid,
			DepositPaidDate:  old.DepositPaidDate,
			PaymentFrequency: old.PaymentFrequency,
			PaymentDueDay:    old.PaymentDueDay,
			TermsConditions:  old.TermsConditions,
			Status:           models.LeaseStatusActive,
			SignedDate:       &signed,
		}
		if err := tx.Create(renewed).Error; err != nil {
			return err
		}
		return derived.SyncUnitOccupancy(tx, old.UnitID)
	})
	if err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		s.Notifier.LeaseRenewed(renewed)
	}
	return renewed, nil
}

// Get loads one lease by ID.
func (s *Service) Get(leaseID uint) (*models.LeaseAgreement, error) {
	var l models.LeaseAgreement
	if err := s.DB.Preload("Tenant.User").Preload("Unit.Property").
		First(&l, leaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("lease %d not found", leaseID)
		}
		return nil, err
	}
	return &l, nil
}

// ListExpiringWithin returns active leases whose end date falls inside
// [today, today+days].
func (s *Service) ListExpiringWithin(days int) ([]models.LeaseAgreement, error) {
	today := util.DateOnly(s.Now())
	horizon := today.AddDate(0, 0, days)

	var leases []models.LeaseAgreement
	if err := s.DB.
		Where("status = ? AND end_date >= ? AND end_date <= ?",
			models.LeaseStatusActive, today, horizon).
		Order("end_date").
		Find(&leases).Error; err != nil {
		return nil, err
	}
	return leases, nil
}

// ListForTenant returns a tenant's leases, newest first.
func (s *Service) ListForTenant(tenantID uint) ([]models.LeaseAgreement, error) {
	var leases []models.LeaseAgreement
	if err := s.DB.
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&leases).Error; err != nil {
		return nil, err
	}
	return leases, nil
}

// ListForOwner returns the leases on an owner's units, newest first.
func (s *Service) ListForOwner(ownerID uint) ([]models.LeaseAgreement, error) {
	var leases []models.LeaseAgreement
	if err := s.DB.
		Joins("JOIN rental_units ON rental_units.id = lease_agreements.unit_id").
		Joins("JOIN properties ON properties.id = rental_units.property_id").
		Where("properties.owner_id = ?", ownerID).
		Order("lease_agreements.created_at DESC").
		Find(&leases).Error; err != nil {
		return nil, err
	}
	return leases, nil
}

// ListAll returns every lease, newest first. Admin use.
func (s *Service) ListAll() ([]models.LeaseAgreement, error) {
	var leases []models.LeaseAgreement
	if err := s.DB.Order("created_at DESC").Find(&leases).Error; err != nil {
		return nil, err
	}
	return leases, nil
}

// ListActive returns all active leases. The payment generator walks this set
// once per billing period.
func (s *Service) ListActive() ([]models.LeaseAgreement, error) {
	var leases []models.LeaseAgreement
	if err := s.DB.
		Where("status = ?", models.LeaseStatusActive).
		Order("id").
		Find(&leases).Error; err != nil {
		return nil, err
	}
	return leases, nil
}

// ListPastEndDate returns active leases whose end date is strictly before
// today. These are the expiry sweep's candidates.
func (s *Service) ListPastEndDate() ([]models.LeaseAgreement, error) {
	today := util.DateOnly(s.Now())
	var leases []models.LeaseAgreement
	if err := s.DB.
		Where("status = ? AND end_date < ?", models.LeaseStatusActive, today).
		Order("end_date").
		Find(&leases).Error; err != nil {
		return nil, err
	}
	return leases, nil
}

func (s *Service) lockLease(tx *gorm.DB, leaseID uint) (*models.LeaseAgreement, error) {
	var l models.LeaseAgreement
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&l, leaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("lease %d not found", leaseID)
		}
		return nil, err
	}
	return &l, nil
}

// ensureNoActiveLease rejects a second concurrent active lease on one unit.
func (s *Service) ensureNoActiveLease(tx *gorm.DB, unitID, excludeLeaseID uint) error {
	var count int64
	q := tx.Model(&models.LeaseAgreement{}).
		Where("unit_id = ? AND status = ?", unitID, models.LeaseStatusActive)
	if excludeLeaseID != 0 {
		q = q.Where("id <> ?", excludeLeaseID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return apperr.Conflictf("unit %d already has an active lease", unitID)
	}
	return nil
}
