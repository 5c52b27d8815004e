package models

import "time"

// Notification type keys.
const (
	NotifyRentReminder7       = "rent_reminder_7"
	NotifyRentReminder3       = "rent_reminder_3"
	NotifyRentDue             = "rent_due"
	NotifyRentOverdue         = "rent_overdue"
	NotifyPaymentReceived     = "payment_received"
	NotifyPaymentVerified     = "payment_verified"
	NotifyPaymentRejected     = "payment_rejected"
	NotifyLeaseCreated        = "lease_created"
	NotifyLeaseExpiring       = "lease_expiring"
	NotifyLeaseRenewed        = "lease_renewed"
	NotifyMaintenanceNew      = "maintenance_submitted"
	NotifyMaintenanceUpdate   = "maintenance_update"
	NotifyGeneral             = "general"
)

// Notification is an append-only alert for one user. The core only writes
// rows and flips email_sent; is_read is toggled by the user.
type Notification struct {
	ID                uint   `gorm:"primaryKey"`
	UserID            uint   `gorm:"index;not null"`
	User              *User  `gorm:"foreignKey:UserID"`
	NotificationType  string `gorm:"size:30;not null"`
	Title             string `gorm:"size:200;not null"`
	Message           string `gorm:"size:2000;not null"`
	MessageSwahili    string `gorm:"size:2000"`
	IsRead            bool
	ActionURL         string `gorm:"size:255"`
	RelatedObjectType string `gorm:"size:50"`
	RelatedObjectID   *uint
	EmailSent         bool
	EmailSentAt       *time.Time
	CreatedAt         time.Time
}

// LocalizedMessage returns the Swahili body when the user prefers Swahili and
// a translation exists, the English body otherwise.
func (n *Notification) LocalizedMessage(language string) string {
	if language == LangSwahili && n.MessageSwahili != "" {
		return n.MessageSwahili
	}
	return n.Message
}
