package models

import "time"

// Lease statuses.
const (
	LeaseStatusDraft      = "draft"
	LeaseStatusPending    = "pending"
	LeaseStatusActive     = "active"
	LeaseStatusExpired    = "expired"
	LeaseStatusTerminated = "terminated"
	LeaseStatusRenewed    = "renewed"
)

// Payment frequencies.
const (
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyBiannual  = "biannual"
	FrequencyAnnual    = "annual"
)

// ValidLeaseTransitions defines the allowed lease status transitions.
// expired, terminated and renewed are terminal; a lease is never resurrected.
var ValidLeaseTransitions = map[string][]string{
	LeaseStatusDraft:      {LeaseStatusPending, LeaseStatusActive, LeaseStatusTerminated},
	LeaseStatusPending:    {LeaseStatusActive, LeaseStatusTerminated},
	LeaseStatusActive:     {LeaseStatusExpired, LeaseStatusTerminated, LeaseStatusRenewed},
	LeaseStatusExpired:    {},
	LeaseStatusTerminated: {},
	LeaseStatusRenewed:    {},
}

// LeaseAgreement binds one tenant to one rental unit for a bounded term.
// Amounts are in TZS. end_date must be after start_date.
type LeaseAgreement struct {
	ID               uint        `gorm:"primaryKey"`
	TenantID         uint        `gorm:"index;not null"`
	Tenant           *Tenant     `gorm:"foreignKey:TenantID"`
	UnitID           uint        `gorm:"index;not null"`
	Unit             *RentalUnit `gorm:"foreignKey:UnitID"`
	StartDate        time.Time   `gorm:"not null"`
	EndDate          time.Time   `gorm:"index;not null"`
	MonthlyRent      int64       `gorm:"not null"`
	SecurityDeposit  int64
	DepositPaid      bool
	DepositPaidDate  *time.Time
	PaymentFrequency string `gorm:"size:20;not null;default:monthly"`
	PaymentDueDay    int    `gorm:"not null;default:1"` // day of month rent is due, 1-31
	TermsConditions  string `gorm:"size:4000"`
	Status           string `gorm:"size:20;index;not null;default:draft"`
	SignedDate       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsTerminal reports whether the lease has reached a final status.
func (l *LeaseAgreement) IsTerminal() bool {
	switch l.Status {
	case LeaseStatusExpired, LeaseStatusTerminated, LeaseStatusRenewed:
		return true
	}
	return false
}
