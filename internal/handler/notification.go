package handler

import (
	"net/http"
	"strconv"

	"kodisha/internal/middleware"
	"kodisha/internal/models"
	"kodisha/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NotificationHandler lets users read their own notifications.
type NotificationHandler struct {
	DB *gorm.DB
}

func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{DB: db}
}

type notificationResp struct {
	ID               uint   `json:"id"`
	NotificationType string `json:"notification_type"`
	Title            string `json:"title"`
	Message          string `json:"message"`
	IsRead           bool   `json:"is_read"`
	ActionURL        string `json:"action_url,omitempty"`
	CreatedAt        string `json:"created_at"`
}

// List handles GET /api/notifications?unread=true. The message body comes
// back in the caller's preferred language.
func (h *NotificationHandler) List(c *gin.Context) {
	role := middleware.CurrentRole(c)
	if role == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}

	q := h.DB.Where("user_id = ?", role.User.ID).Order("created_at DESC")
	if c.Query("unread") == "true" {
		q = q.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	if err := q.Find(&notifications).Error; err != nil {
		fail(c, err)
		return
	}

	out := make([]notificationResp, 0, len(notifications))
	for i := range notifications {
		n := &notifications[i]
		out = append(out, notificationResp{
			ID:               n.ID,
			NotificationType: n.NotificationType,
			Title:            n.Title,
			Message:          n.LocalizedMessage(role.User.PreferredLanguage),
			IsRead:           n.IsRead,
			ActionURL:        n.ActionURL,
			CreatedAt:        n.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	util.Success(c, util.Response{"notifications": out})
}

// MarkRead handles POST /api/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	role := middleware.CurrentRole(c)
	if role == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid notification id")
		return
	}

	res := h.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", uint(id), role.User.ID).
		Update("is_read", true)
	if res.Error != nil {
		fail(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "notification not found")
		return
	}
	util.Success(c, util.Response{"marked": true})
}
