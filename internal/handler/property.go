package handler

import (
	"net/http"
	"strconv"
	"time"

	"kodisha/internal/derived"
	"kodisha/internal/middleware"
	"kodisha/internal/models"
	"kodisha/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PropertyHandler manages property listings and their rental units.
type PropertyHandler struct {
	DB *gorm.DB
}

func NewPropertyHandler(db *gorm.DB) *PropertyHandler {
	return &PropertyHandler{DB: db}
}

type createUnitReq struct {
	UnitType     string  `json:"unit_type" binding:"required"`
	UnitNumber   string  `json:"unit_number" binding:"required"`
	UnitRent     int64   `json:"unit_rent" binding:"required"`
	AreaSqm      float64 `json:"area_sqm"`
	UnitFeatures string  `json:"unit_features"`
}

type createPropertyReq struct {
	PropertyType string          `json:"property_type" binding:"required"`
	Title        string          `json:"title" binding:"required,max=200"`
	Description  string          `json:"description"`
	Region       string          `json:"region"`
	District     string          `json:"district"`
	Street       string          `json:"street"`
	MonthlyRent  int64           `json:"monthly_rent" binding:"required"`
	RulesTerms   string          `json:"rules_terms"`
	Units        []createUnitReq `json:"units" binding:"required,min=1,dive"`
}

type unitResp struct {
	ID         uint   `json:"id"`
	UnitType   string `json:"unit_type"`
	UnitNumber string `json:"unit_number"`
	UnitRent   int64  `json:"unit_rent"`
	IsOccupied bool   `json:"is_occupied"`
}

type propertyResp struct {
	ID             uint       `json:"id"`
	OwnerID        uint       `json:"owner_id"`
	PropertyType   string     `json:"property_type"`
	Title          string     `json:"title"`
	Region         string     `json:"region"`
	District       string     `json:"district"`
	MonthlyRent    int64      `json:"monthly_rent"`
	TotalRooms     int        `json:"total_rooms"`
	AvailableRooms int        `json:"available_rooms"`
	IsAvailable    bool       `json:"is_available"`
	Units          []unitResp `json:"units,omitempty"`
}

func toPropertyResp(p *models.Property, units []models.RentalUnit) propertyResp {
	resp := propertyResp{
		ID:             p.ID,
		OwnerID:        p.OwnerID,
		PropertyType:   p.PropertyType,
		Title:          p.Title,
		Region:         p.Region,
		District:       p.District,
		MonthlyRent:    p.MonthlyRent,
		TotalRooms:     p.TotalRooms,
		AvailableRooms: p.AvailableRooms,
		IsAvailable:    p.IsAvailable,
	}
	for i := range units {
		u := &units[i]
		resp.Units = append(resp.Units, unitResp{
			ID:         u.ID,
			UnitType:   u.UnitType,
			UnitNumber: u.UnitNumber,
			UnitRent:   u.UnitRent,
			IsOccupied: u.IsOccupied,
		})
	}
	return resp
}

// Create handles POST /api/properties. The listing and its units are created
// together; the owner's property count and the room availability are derived
// in the same transaction.
func (h *PropertyHandler) Create(c *gin.Context) {
	role := middleware.CurrentRole(c)
	if role == nil || role.Kind != models.RoleOwner {
		util.Error(c, http.StatusForbidden, util.CodeForbidden, "only owners can list properties")
		return
	}

	var req createPropertyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request: "+err.Error())
		return
	}

	prop := models.Property{
		OwnerID:      role.Owner.ID,
		PropertyType: req.PropertyType,
		Title:        req.Title,
		Description:  req.Description,
		Region:       req.Region,
		District:     req.District,
		Street:       req.Street,
		MonthlyRent:  req.MonthlyRent,
		TotalRooms:   len(req.Units),
		RulesTerms:   req.RulesTerms,
		ListedDate:   util.DateOnly(time.Now()),
	}
	var units []models.RentalUnit

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&prop).Error; err != nil {
			return err
		}
		for _, u := range req.Units {
			units = append(units, models.RentalUnit{
				PropertyID:   prop.ID,
				UnitType:     u.UnitType,
				UnitNumber:   u.UnitNumber,
				UnitRent:     u.UnitRent,
				AreaSqm:      u.AreaSqm,
				UnitFeatures: u.UnitFeatures,
			})
		}
		if err := tx.Create(&units).Error; err != nil {
			return err
		}
		if err := derived.SyncPropertyAvailability(tx, prop.ID); err != nil {
			return err
		}
		if err := derived.SyncOwnerPropertyCount(tx, prop.OwnerID); err != nil {
			return err
		}
		return tx.First(&prop, prop.ID).Error
	})
	if err != nil {
		fail(c, err)
		return
	}
	util.Success(c, util.Response{"property": toPropertyResp(&prop, units)})
}

// Get handles GET /api/properties/:id.
func (h *PropertyHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid property id")
		return
	}

	var prop models.Property
	if err := h.DB.First(&prop, uint(id)).Error; err != nil {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "property not found")
		return
	}
	var units []models.RentalUnit
	if err := h.DB.Where("property_id = ?", prop.ID).Order("unit_number").Find(&units).Error; err != nil {
		fail(c, err)
		return
	}
	util.Success(c, util.Response{"property": toPropertyResp(&prop, units)})
}

// List handles GET /api/properties with region/district/availability filters.
func (h *PropertyHandler) List(c *gin.Context) {
	q := h.DB.Model(&models.Property{}).Order("listed_date DESC")
	if region := c.Query("region"); region != "" {
		q = q.Where("region = ?", region)
	}
	if district := c.Query("district"); district != "" {
		q = q.Where("district = ?", district)
	}
	if c.Query("available") == "true" {
		q = q.Where("is_available = ?", true)
	}

	var props []models.Property
	if err := q.Find(&props).Error; err != nil {
		fail(c, err)
		return
	}
	out := make([]propertyResp, 0, len(props))
	for i := range props {
		out = append(out, toPropertyResp(&props[i], nil))
	}
	util.Success(c, util.Response{"properties": out})
}
