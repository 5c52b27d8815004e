package models

import "time"

// User roles. The authorization layer resolves exactly one of these per
// request; the core never sniffs profile attachments to guess a role.
const (
	RoleAdmin  = "admin"
	RoleTenant = "tenant"
	RoleOwner  = "owner"
)

// Preferred notification languages.
const (
	LangEnglish = "en"
	LangSwahili = "sw"
)

// User is the shared account record for admins, tenants and owners.
// Phone numbers follow the Tanzanian format +255XXXXXXXXX.
type User struct {
	ID                uint   `gorm:"primaryKey"`
	FirstName         string `gorm:"size:100"`
	LastName          string `gorm:"size:100"`
	PhoneNumber       string `gorm:"size:15;uniqueIndex;not null"`
	Email             string `gorm:"size:120"`
	Role              string `gorm:"size:20;not null;default:tenant"`
	PreferredLanguage string `gorm:"size:10;not null;default:en"`
	IsVerified        bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Tenant is the renter profile attached to a User.
type Tenant struct {
	ID                    uint   `gorm:"primaryKey"`
	UserID                uint   `gorm:"uniqueIndex;not null"`
	User                  *User  `gorm:"foreignKey:UserID"`
	Occupation            string `gorm:"size:100"`
	EmployerName          string `gorm:"size:200"`
	MonthlyIncome         int64  // TZS
	EmergencyContactName  string `gorm:"size:200"`
	EmergencyContactPhone string `gorm:"size:15"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Owner is the landlord profile attached to a User.
//
// TotalProperties and TotalEarnings are derived values: both are recomputed
// from the property and payment tables inside the transaction that changes
// them, never hand-incremented from multiple code paths.
type Owner struct {
	ID                      uint   `gorm:"primaryKey"`
	UserID                  uint   `gorm:"uniqueIndex;not null"`
	User                    *User  `gorm:"foreignKey:UserID"`
	CompanyName             string `gorm:"size:200"`
	TaxIdentificationNumber string `gorm:"size:20"`
	BankName                string `gorm:"size:50"`
	AccountNumber           string `gorm:"size:30"`
	AccountName             string `gorm:"size:200"`
	TotalProperties         int
	TotalEarnings           int64 // TZS, sum of completed payments
	CreatedAt               time.Time
	UpdatedAt               time.Time
}
