package models

import "time"

// Maintenance issue types (English/Swahili labels live in the notify templates).
const (
	IssuePlumbing   = "plumbing"
	IssueElectrical = "electrical"
	IssueStructural = "structural"
	IssueAppliance  = "appliance"
	IssuePest       = "pest"
	IssueCleaning   = "cleaning"
	IssueSecurity   = "security"
	IssueWater      = "water"
	IssueToilet     = "toilet"
	IssueRoof       = "roof"
	IssueDoorWindow = "door_window"
	IssuePainting   = "painting"
	IssueOther      = "other"
)

// Maintenance priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Maintenance request statuses.
const (
	MaintenanceStatusSubmitted    = "submitted"
	MaintenanceStatusAcknowledged = "acknowledged"
	MaintenanceStatusInProgress   = "in_progress"
	MaintenanceStatusCompleted    = "completed"
	MaintenanceStatusCancelled    = "cancelled"
)

// ValidMaintenanceTransitions defines the allowed maintenance status
// transitions. Cancellation is allowed from any non-terminal status.
var ValidMaintenanceTransitions = map[string][]string{
	MaintenanceStatusSubmitted:    {MaintenanceStatusAcknowledged, MaintenanceStatusInProgress, MaintenanceStatusCancelled},
	MaintenanceStatusAcknowledged: {MaintenanceStatusInProgress, MaintenanceStatusCancelled},
	MaintenanceStatusInProgress:   {MaintenanceStatusCompleted, MaintenanceStatusCancelled},
	MaintenanceStatusCompleted:    {},
	MaintenanceStatusCancelled:    {},
}

// MaintenanceRequest is a tenant-reported issue on a rental unit. Owner is
// denormalized from the unit's property. Cost in TZS.
type MaintenanceRequest struct {
	ID                 uint        `gorm:"primaryKey"`
	TenantID           uint        `gorm:"index;not null"`
	Tenant             *Tenant     `gorm:"foreignKey:TenantID"`
	UnitID             uint        `gorm:"index;not null"`
	Unit               *RentalUnit `gorm:"foreignKey:UnitID"`
	OwnerID            uint        `gorm:"index;not null"`
	Owner              *Owner      `gorm:"foreignKey:OwnerID"`
	IssueType          string      `gorm:"size:20;not null"`
	Description        string      `gorm:"size:2000;not null"`
	Priority           string      `gorm:"size:20;not null;default:medium"`
	Status             string      `gorm:"size:20;index;not null;default:submitted"`
	RequestDate        time.Time
	AcknowledgedDate   *time.Time
	ResolvedDate       *time.Time
	Cost               *int64
	CostResponsibility string `gorm:"size:20;not null;default:owner"` // tenant, owner or shared
	TechnicianName     string `gorm:"size:200"`
	TechnicianContact  string `gorm:"size:15"`
	ResolutionNotes    string `gorm:"size:2000"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
