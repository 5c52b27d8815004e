package handler

import (
	"net/http"
	"strconv"

	"kodisha/internal/maintenance"
	"kodisha/internal/middleware"
	"kodisha/internal/models"
	"kodisha/internal/util"

	"github.com/gin-gonic/gin"
)

// MaintenanceHandler exposes the maintenance request workflow.
type MaintenanceHandler struct {
	Requests *maintenance.Service
}

func NewMaintenanceHandler(requests *maintenance.Service) *MaintenanceHandler {
	return &MaintenanceHandler{Requests: requests}
}

type submitMaintenanceReq struct {
	UnitID      uint   `json:"unit_id" binding:"required"`
	IssueType   string `json:"issue_type" binding:"required"`
	Description string `json:"description" binding:"required,max=2000"`
	Priority    string `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
}

type maintenanceResp struct {
	ID          uint   `json:"id"`
	TenantID    uint   `json:"tenant_id"`
	UnitID      uint   `json:"unit_id"`
	OwnerID     uint   `json:"owner_id"`
	IssueType   string `json:"issue_type"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	RequestDate string `json:"request_date"`
	Cost        *int64 `json:"cost,omitempty"`
}

func toMaintenanceResp(m *models.MaintenanceRequest) maintenanceResp {
	return maintenanceResp{
		ID:          m.ID,
		TenantID:    m.TenantID,
		UnitID:      m.UnitID,
		OwnerID:     m.OwnerID,
		IssueType:   m.IssueType,
		Description: m.Description,
		Priority:    m.Priority,
		Status:      m.Status,
		RequestDate: m.RequestDate.Format("2006-01-02"),
		Cost:        m.Cost,
	}
}

// Submit handles POST /api/maintenance. Tenants file against their unit.
func (h *MaintenanceHandler) Submit(c *gin.Context) {
	role := middleware.CurrentRole(c)
	if role == nil || role.Kind != models.RoleTenant {
		util.Error(c, http.StatusForbidden, util.CodeForbidden, "only tenants can submit maintenance requests")
		return
	}

	var req submitMaintenanceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request: "+err.Error())
		return
	}

	m, err := h.Requests.Submit(maintenance.SubmitInput{
		TenantID:    role.Tenant.ID,
		UnitID:      req.UnitID,
		IssueType:   req.IssueType,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		fail(c, err)
		return
	}
	util.Success(c, util.Response{"request": toMaintenanceResp(m)})
}

type updateMaintenanceReq struct {
	Status             string `json:"status" binding:"required"`
	Cost               *int64 `json:"cost"`
	CostResponsibility string `json:"cost_responsibility" binding:"omitempty,oneof=tenant owner shared"`
	TechnicianName     string `json:"technician_name"`
	TechnicianContact  string `json:"technician_contact"`
	ResolutionNotes    string `json:"resolution_notes"`
}

// UpdateStatus handles POST /api/maintenance/:id/status. Owner or admin only.
func (h *MaintenanceHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request id")
		return
	}
	var req updateMaintenanceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request: "+err.Error())
		return
	}

	m, uErr := h.Requests.UpdateStatus(uint(id), maintenance.UpdateInput{
		Status:             req.Status,
		Cost:               req.Cost,
		CostResponsibility: req.CostResponsibility,
		TechnicianName:     req.TechnicianName,
		TechnicianContact:  req.TechnicianContact,
		ResolutionNotes:    req.ResolutionNotes,
	})
	if uErr != nil {
		fail(c, uErr)
		return
	}
	util.Success(c, util.Response{"request": toMaintenanceResp(m)})
}

// List handles GET /api/maintenance, scoped to the caller's role.
func (h *MaintenanceHandler) List(c *gin.Context) {
	role := middleware.CurrentRole(c)
	if role == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}

	var (
		requests []models.MaintenanceRequest
		err      error
	)
	switch role.Kind {
	case models.RoleTenant:
		requests, err = h.Requests.ListForTenant(role.Tenant.ID)
	case models.RoleOwner:
		requests, err = h.Requests.ListForOwner(role.Owner.ID)
	default:
		err = h.Requests.DB.Order("created_at DESC").Find(&requests).Error
	}
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]maintenanceResp, 0, len(requests))
	for i := range requests {
		out = append(out, toMaintenanceResp(&requests[i]))
	}
	util.Success(c, util.Response{"requests": out})
}
