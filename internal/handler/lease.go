package handler

import (
	"net/http"
	"strconv"
	"time"

	"kodisha/internal/lease"
	"kodisha/internal/middleware"
	"kodisha/internal/models"
	"kodisha/internal/util"

	"github.com/gin-gonic/gin"
)

// LeaseHandler exposes the lease lifecycle.
type LeaseHandler struct {
	Leases *lease.Service
}

func NewLeaseHandler(leases *lease.Service) *LeaseHandler {
	return &LeaseHandler{Leases: leases}
}

type createLeaseReq struct {
	TenantID         uint   `json:"tenant_id" binding:"required"`
	UnitID           uint   `json:"unit_id" binding:"required"`
	StartDate        string `json:"start_date" binding:"required"`
	EndDate          string `json:"end_date" binding:"required"`
	MonthlyRent      int64  `json:"monthly_rent" binding:"required"`
	SecurityDeposit  int64  `json:"security_deposit"`
	DepositPaid      bool   `json:"deposit_paid"`
	PaymentFrequency string `json:"payment_frequency"`
	PaymentDueDay    int    `json:"payment_due_day" binding:"required"`
	TermsConditions  string `json:"terms_conditions"`
	Status           string `json:"status" binding:"omitempty,oneof=draft pending active"`
}

type leaseResp struct {
	ID               uint    `json:"id"`
	TenantID         uint    `json:"tenant_id"`
	UnitID           uint    `json:"unit_id"`
	StartDate        string  `json:"start_date"`
	EndDate          string  `json:"end_date"`
	MonthlyRent      int64   `json:"monthly_rent"`
	SecurityDeposit  int64   `json:"security_deposit"`
	DepositPaid      bool    `json:"deposit_paid"`
	PaymentFrequency string  `json:"payment_frequency"`
	PaymentDueDay    int     `json:"payment_due_day"`
	Status           string  `json:"status"`
	SignedDate       *string `json:"signed_date"`
}

func toLeaseResp(l *models.LeaseAgreement) leaseResp {
	resp := leaseResp{
		ID:               l.ID,
		TenantID:         l.TenantID,
		UnitID:           l.UnitID,
		StartDate:        l.StartDate.Format("2006-01-02"),
		EndDate:          l.EndDate.Format("2006-01-02"),
		MonthlyRent:      l.MonthlyRent,
		SecurityDeposit:  l.SecurityDeposit,
		DepositPaid:      l.DepositPaid,
		PaymentFrequency: l.PaymentFrequency,
		PaymentDueDay:    l.PaymentDueDay,
		Status:           l.Status,
	}
	if l.SignedDate != nil {
		s := l.SignedDate.Format("2006-01-02")
		resp.SignedDate = &s
	}
	return resp
}

func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", s)
	return t, err == nil
}

// Create handles POST /api/leases.
func (h *LeaseHandler) Create(c *gin.Context) {
	var req createLeaseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request: "+err.Error())
		return
	}
	start, ok := parseDate(req.StartDate)
	if !ok {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "start_date must be YYYY-MM-DD")
		return
	}
	end, ok := parseDate(req.EndDate)
	if !ok {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "end_date must be YYYY-MM-DD")
		return
	}

	l, err := h.Leases.Create(lease.CreateInput{
		TenantID:         req.TenantID,
		UnitID:           req.UnitID,
		StartDate:        start,
		EndDate:          end,
		MonthlyRent:      req.MonthlyRent,
		SecurityDeposit:  req.SecurityDeposit,
		DepositPaid:      req.DepositPaid,
		PaymentFrequency: req.PaymentFrequency,
		PaymentDueDay:    req.PaymentDueDay,
		TermsConditions:  req.TermsConditions,
		Status:           req.Status,
	})
	if err != nil {
		fail(c, err)
		return
	}
	util.Success(c, util.Response{"lease": toLeaseResp(l)})
}

// Get handles GET /api/leases/:id. Tenants may only read their own leases.
func (h *LeaseHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid lease id")
		return
	}
	l, gErr := h.Leases.Get(uint(id))
	if gErr != nil {
		fail(c, gErr)
		return
	}

	role := middleware.CurrentRole(c)
	if role != nil && role.Kind == models.RoleTenant && role.Tenant.ID != l.TenantID {
		util.Error(c, http.StatusForbidden, util.CodeForbidden, "not your lease")
		return
	}
	util.Success(c, util.Response{"lease": toLeaseResp(l)})
}

// Activate handles POST /api/leases/:id/activate.
func (h *LeaseHandler) Activate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid lease id")
		return
	}
	l, aErr := h.Leases.Activate(uint(id))
	if aErr != nil {
		fail(c, aErr)
		return
	}
	util.Success(c, util.Response{"lease": toLeaseResp(l)})
}

// Terminate handles POST /api/leases/:id/terminate.
func (h *LeaseHandler) Terminate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid lease id")
		return
	}
	l, tErr := h.Leases.Terminate(uint(id))
	if tErr != nil {
		fail(c, tErr)
		return
	}
	util.Success(c, util.Response{"lease": toLeaseResp(l)})
}

type renewLeaseReq struct {
	NewStartDate   string `json:"new_start_date" binding:"required"`
	NewEndDate     string `json:"new_end_date" binding:"required"`
	NewMonthlyRent *int64 `json:"new_monthly_rent"`
}

// Renew handles POST /api/leases/:id/renew.
func (h *LeaseHandler) Renew(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid lease id")
		return
	}
	var req renewLeaseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request: "+err.Error())
		return
	}
	start, ok := parseDate(req.NewStartDate)
	if !ok {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "new_start_date must be YYYY-MM-DD")
		return
	}
	end, ok := parseDate(req.NewEndDate)
	if !ok {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "new_end_date must be YYYY-MM-DD")
		return
	}

	l, rErr := h.Leases.Renew(uint(id), lease.RenewInput{
		NewStartDate:   start,
		NewEndDate:     end,
		NewMonthlyRent: req.NewMonthlyRent,
	})
	if rErr != nil {
		fail(c, rErr)
		return
	}
	util.Success(c, util.Response{"lease": toLeaseResp(l)})
}

// List handles GET /api/leases, scoped to the caller's role.
func (h *LeaseHandler) List(c *gin.Context) {
	role := middleware.CurrentRole(c)
	if role == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}

	var (
		leases []models.LeaseAgreement
		err    error
	)
	switch role.Kind {
	case models.RoleTenant:
		leases, err = h.Leases.ListForTenant(role.Tenant.ID)
	case models.RoleOwner:
		leases, err = h.Leases.ListForOwner(role.Owner.ID)
	default:
		leases, err = h.Leases.ListAll()
	}
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]leaseResp, 0, len(leases))
	for i := range leases {
		out = append(out, toLeaseResp(&leases[i]))
	}
	util.Success(c, util.Response{"leases": out})
}

// ListExpiring handles GET /api/leases/expiring?days=30.
func (h *LeaseHandler) ListExpiring(c *gin.Context) {
	days := 30
	if s := c.Query("days"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "days must be a non-negative integer")
			return
		}
		days = v
	}

	leases, err := h.Leases.ListExpiringWithin(days)
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]leaseResp, 0, len(leases))
	for i := range leases {
		out = append(out, toLeaseResp(&leases[i]))
	}
	util.Success(c, util.Response{"leases": out, "days": days})
}
