package models

import "time"

// Payment methods available on the Tanzanian market.
const (
	MethodMpesa        = "mpesa"
	MethodTigoPesa     = "tigopesa"
	MethodAirtelMoney  = "airtelmoney"
	MethodHaloPesa     = "halopesa"
	MethodBankTransfer = "bank_transfer"
	MethodCash         = "cash"
	MethodCheque       = "cheque"
)

// Payment statuses. refunded and cancelled exist in the schema but no
// transition currently reaches them; verification is the only path out of
// pending_verification.
const (
	PaymentStatusPending             = "pending"
	PaymentStatusPendingVerification = "pending_verification"
	PaymentStatusCompleted           = "completed"
	PaymentStatusFailed              = "failed"
	PaymentStatusRefunded            = "refunded"
	PaymentStatusCancelled           = "cancelled"
)

// ValidPaymentTransitions defines the allowed payment status transitions.
var ValidPaymentTransitions = map[string][]string{
	PaymentStatusPending:             {PaymentStatusPendingVerification},
	PaymentStatusPendingVerification: {PaymentStatusCompleted, PaymentStatusFailed},
	PaymentStatusCompleted:           {},
	PaymentStatusFailed:              {},
	PaymentStatusRefunded:            {},
	PaymentStatusCancelled:           {},
}

// Payment is one rent payment for one billing period of a lease. Tenant and
// owner are denormalized from the lease for query efficiency. Amounts in TZS.
//
// ReceiptNumber is non-empty iff the payment is completed, and is unique.
// PaymentPeriod ("January 2026") is unique per lease; the generator checks for
// an existing row before creating one.
type Payment struct {
	ID              uint            `gorm:"primaryKey"`
	LeaseID         uint            `gorm:"index;not null"`
	Lease           *LeaseAgreement `gorm:"foreignKey:LeaseID"`
	TenantID        uint            `gorm:"index;not null"`
	Tenant          *Tenant         `gorm:"foreignKey:TenantID"`
	OwnerID         uint            `gorm:"index;not null"`
	Owner           *Owner          `gorm:"foreignKey:OwnerID"`
	Amount          int64           `gorm:"not null"`
	PaymentDate     *time.Time
	PaymentMethod   string  `gorm:"size:20;not null"`
	TransactionID   *string `gorm:"size:100;uniqueIndex"`
	PaymentStatus   string  `gorm:"size:25;index;not null;default:pending"`
	MobileMoneyCode string  `gorm:"size:30"`
	DueDate         time.Time `gorm:"index;not null"`
	PaymentPeriod   string    `gorm:"size:50;not null"`
	ReceiptNumber   string    `gorm:"size:50;index"`
	Notes           string    `gorm:"size:1000"`
	VerifiedByID    *uint
	VerifiedBy      *User `gorm:"foreignKey:VerifiedByID"`
	VerifiedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsLate reports whether the payment was, or currently is, past its due date.
// Pure predicate, no side effects.
func (p *Payment) IsLate(today time.Time) bool {
	if p.PaymentStatus == PaymentStatusCompleted && p.PaymentDate != nil {
		return p.PaymentDate.After(p.DueDate)
	}
	return today.After(p.DueDate)
}
