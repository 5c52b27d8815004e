// Package maintenance implements the maintenance request workflow from
// submission through acknowledgement and work to completion or cancellation.
package maintenance

import (
	"errors"
	"time"

	"kodisha/internal/apperr"
	"kodisha/internal/models"
	"kodisha/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Notifier receives maintenance events after the transaction commits.
type Notifier interface {
	MaintenanceSubmitted(m *models.MaintenanceRequest)
	MaintenanceStatusChanged(m *models.MaintenanceRequest)
}

type Service struct {
	DB       *gorm.DB
	Notifier Notifier
	Now      func() time.Time
}

func NewService(db *gorm.DB, notifier Notifier) *Service {
	return &Service{DB: db, Notifier: notifier, Now: time.Now}
}

type SubmitInput struct {
	TenantID    uint
	UnitID      uint
	IssueType   string
	Description string
	Priority    string
}

func (in *SubmitInput) validate() error {
	if in.TenantID == 0 {
		return apperr.Validationf("tenant_id is required")
	}
	if in.UnitID == 0 {
		return apperr.Validationf("unit_id is required")
	}
	if in.Description == "" {
		return apperr.Validationf("description is required")
	}
	switch in.Priority {
	case "", models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent:
	default:
		return apperr.Validationf("unknown priority %q", in.Priority)
	}
	return nil
}

// Submit files a new request against a unit. The owner is denormalized from
// the unit's property and notified after commit.
func (s *Service) Submit(in SubmitInput) (*models.MaintenanceRequest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	var m *models.MaintenanceRequest
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var unit models.RentalUnit
		if err := tx.Preload("Property").First(&unit, in.UnitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("rental unit %d not found", in.UnitID)
			}
			return err
		}
		if unit.Property == nil {
			return apperr.NotFoundf("property %d not found", unit.PropertyID)
		}

		m = &models.MaintenanceRequest{
			TenantID:    in.TenantID,
			UnitID:      in.UnitID,
			OwnerID:     unit.Property.OwnerID,
			IssueType:   in.IssueType,
			Description: in.Description,
			Priority:    priority,
			Status:      models.MaintenanceStatusSubmitted,
			RequestDate: util.DateOnly(s.Now()),
		}
		return tx.Create(m).Error
	})
	if err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		s.Notifier.MaintenanceSubmitted(m)
	}
	return m, nil
}

type UpdateInput struct {
	Status             string
	Cost               *int64
	CostResponsibility string
	TechnicianName     string
	TechnicianContact  string
	ResolutionNotes    string
}

// UpdateStatus moves a request along its workflow. Acknowledgement and
// resolution dates are stamped on first entry into those statuses.
func (s *Service) UpdateStatus(requestID uint, in UpdateInput) (*models.MaintenanceRequest, error) {
	var m *models.MaintenanceRequest
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var loaded models.MaintenanceRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&loaded, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("maintenance request %d not found", requestID)
			}
			return err
		}
		if err := models.AllowedTransition(models.ValidMaintenanceTransitions,
			loaded.Status, in.Status); err != nil {
			return apperr.InvalidTransitionf("maintenance request %d: %v", requestID, err)
		}

		now := s.Now()
		updates := map[string]interface{}{"status": in.Status}
		switch in.Status {
		case models.MaintenanceStatusAcknowledged:
			if loaded.AcknowledgedDate == nil {
				updates["acknowledged_date"] = now
			}
		case models.MaintenanceStatusInProgress:
			if loaded.AcknowledgedDate == nil {
				updates["acknowledged_date"] = now
			}
		case models.MaintenanceStatusCompleted:
			updates["resolved_date"] = now
		}
		if in.Cost != nil {
			updates["cost"] = *in.Cost
		}
		if in.CostResponsibility != "" {
			updates["cost_responsibility"] = in.CostResponsibility
		}
		if in.TechnicianName != "" {
			updates["technician_name"] = in.TechnicianName
		}
		if in.TechnicianContact != "" {
			updates["technician_contact"] = in.TechnicianContact
		}
		if in.ResolutionNotes != "" {
			updates["resolution_notes"] = in.ResolutionNotes
		}

		if err := tx.Model(&loaded).Updates(updates).Error; err != nil {
			return err
		}
		m = &loaded
		return tx.First(m, requestID).Error
	})
	if err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		s.Notifier.MaintenanceStatusChanged(m)
	}
	return m, nil
}

// ListForOwner returns an owner's requests, most urgent first.
func (s *Service) ListForOwner(ownerID uint) ([]models.MaintenanceRequest, error) {
	var requests []models.MaintenanceRequest
	if err := s.DB.
		Where("owner_id = ?", ownerID).
		Order("CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END, created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// ListForTenant returns a tenant's requests, newest first.
func (s *Service) ListForTenant(tenantID uint) ([]models.MaintenanceRequest, error) {
	var requests []models.MaintenanceRequest
	if err := s.DB.
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}
