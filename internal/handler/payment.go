package handler

import (
	"net/http"
	"strconv"
	"time"

	"kodisha/internal/middleware"
	"kodisha/internal/models"
	"kodisha/internal/payment"
	"kodisha/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PaymentHandler exposes the payment lifecycle.
type PaymentHandler struct {
	DB       *gorm.DB
	Payments *payment.Service
}

func NewPaymentHandler(db *gorm.DB, payments *payment.Service) *PaymentHandler {
	return &PaymentHandler{DB: db, Payments: payments}
}

type submitPaymentReq struct {
	LeaseID         uint   `json:"lease_id" binding:"required"`
	Month           int    `json:"month" binding:"required,min=1,max=12"`
	Year            int    `json:"year" binding:"required,min=2000"`
	Amount          int64  `json:"amount" binding:"required"`
	PaymentMethod   string `json:"payment_method" binding:"required"`
	TransactionID   string `json:"transaction_id"`
	MobileMoneyCode string `json:"mobile_money_code"`
	Notes           string `json:"notes"`
}

type paymentResp struct {
	ID            uint    `json:"id"`
	LeaseID       uint    `json:"lease_id"`
	TenantID      uint    `json:"tenant_id"`
	OwnerID       uint    `json:"owner_id"`
	Amount        int64   `json:"amount"`
	AmountDisplay string  `json:"amount_display"`
	PaymentMethod string  `json:"payment_method"`
	PaymentStatus string  `json:"payment_status"`
	DueDate       string  `json:"due_date"`
	PaymentPeriod string  `json:"payment_period"`
	PaymentDate   *string `json:"payment_date"`
	ReceiptNumber string  `json:"receipt_number,omitempty"`
	IsLate        bool    `json:"is_late"`
}

func toPaymentResp(p *models.Payment) paymentResp {
	resp := paymentResp{
		ID:            p.ID,
		LeaseID:       p.LeaseID,
		TenantID:      p.TenantID,
		OwnerID:       p.OwnerID,
		Amount:        p.Amount,
		AmountDisplay: util.FormatTZS(p.Amount),
		PaymentMethod: p.PaymentMethod,
		PaymentStatus: p.PaymentStatus,
		DueDate:       p.DueDate.Format("2006-01-02"),
		PaymentPeriod: p.PaymentPeriod,
		ReceiptNumber: p.ReceiptNumber,
		IsLate:        p.IsLate(time.Now()),
	}
	if p.PaymentDate != nil {
		s := p.PaymentDate.Format("2006-01-02")
		resp.PaymentDate = &s
	}
	return resp
}

// Submit handles POST /api/payments. Tenants submit against their own leases.
func (h *PaymentHandler) Submit(c *gin.Context) {
	var req submitPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request: "+err.Error())
		return
	}

	role := middleware.CurrentRole(c)
	if role != nil && role.Kind == models.RoleTenant {
		var l models.LeaseAgreement
		if err := h.DB.First(&l, req.LeaseID).Error; err == nil && l.TenantID != role.Tenant.ID {
			util.Error(c, http.StatusForbidden, util.CodeForbidden, "not your lease")
			return
		}
	}

	p, err := h.Payments.Submit(payment.SubmitInput{
		LeaseID:         req.LeaseID,
		Month:           time.Month(req.Month),
		Year:            req.Year,
		Amount:          req.Amount,
		PaymentMethod:   req.PaymentMethod,
		TransactionID:   req.TransactionID,
		MobileMoneyCode: req.MobileMoneyCode,
		Notes:           req.Notes,
	})
	if err != nil {
		fail(c, err)
		return
	}
	util.Success(c, util.Response{"payment": toPaymentResp(p)})
}

type verifyPaymentReq struct {
	Approve       bool   `json:"approve"`
	Notes         string `json:"notes"`
	TransactionID string `json:"transaction_id"`
}

// Verify handles POST /api/payments/:id/verify. Owners verify payments on
// their own properties; admins verify anything.
func (h *PaymentHandler) Verify(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid payment id")
		return
	}
	var req verifyPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request: "+err.Error())
		return
	}

	role := middleware.CurrentRole(c)
	if role == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}
	if role.Kind == models.RoleOwner {
		existing, gErr := h.Payments.Get(uint(id))
		if gErr != nil {
			fail(c, gErr)
			return
		}
		if existing.OwnerID != role.Owner.ID {
			util.Error(c, http.StatusForbidden, util.CodeForbidden, "not your payment")
			return
		}
	}

	p, vErr := h.Payments.Verify(uint(id), role.User.ID, req.Approve, req.Notes, req.TransactionID)
	if vErr != nil {
		fail(c, vErr)
		return
	}
	util.Success(c, util.Response{"payment": toPaymentResp(p)})
}

// Get handles GET /api/payments/:id.
func (h *PaymentHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid payment id")
		return
	}
	p, gErr := h.Payments.Get(uint(id))
	if gErr != nil {
		fail(c, gErr)
		return
	}

	role := middleware.CurrentRole(c)
	if role != nil {
		switch role.Kind {
		case models.RoleTenant:
			if p.TenantID != role.Tenant.ID {
				util.Error(c, http.StatusForbidden, util.CodeForbidden, "not your payment")
				return
			}
		case models.RoleOwner:
			if p.OwnerID != role.Owner.ID {
				util.Error(c, http.StatusForbidden, util.CodeForbidden, "not your payment")
				return
			}
		}
	}
	util.Success(c, util.Response{"payment": toPaymentResp(p)})
}

// List handles GET /api/payments, scoped to the caller's role.
func (h *PaymentHandler) List(c *gin.Context) {
	role := middleware.CurrentRole(c)
	if role == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}

	q := h.DB.Model(&models.Payment{}).Order("due_date DESC")
	switch role.Kind {
	case models.RoleTenant:
		q = q.Where("tenant_id = ?", role.Tenant.ID)
	case models.RoleOwner:
		q = q.Where("owner_id = ?", role.Owner.ID)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("payment_status = ?", status)
	}
	if c.Query("overdue") == "true" {
		q = q.Where("payment_status = ? AND due_date < ?",
			models.PaymentStatusPending, util.DateOnly(time.Now()))
	}

	var payments []models.Payment
	if err := q.Find(&payments).Error; err != nil {
		fail(c, err)
		return
	}
	out := make([]paymentResp, 0, len(payments))
	for i := range payments {
		out = append(out, toPaymentResp(&payments[i]))
	}
	util.Success(c, util.Response{"payments": out})
}
