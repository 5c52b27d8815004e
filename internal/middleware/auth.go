package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"kodisha/internal/models"
	"kodisha/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const roleKey = "currentRole"

// Role is the resolved identity of the request: the user plus exactly one of
// the profile attachments, decided once here. Handlers switch on Kind and
// never inspect profile rows to guess who is calling.
type Role struct {
	Kind   string // models.RoleAdmin, RoleTenant or RoleOwner
	User   *models.User
	Tenant *models.Tenant // set when Kind == RoleTenant
	Owner  *models.Owner  // set when Kind == RoleOwner
}

// Auth validates the bearer token, loads the user and resolves their role.
func Auth(jwtSecret string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenStr string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenStr = parts[1]
			}
		}
		if tokenStr == "" {
			tokenStr = c.Query("token")
		}

		if tokenStr == "" {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
			c.Abort()
			return
		}

		claims, err := util.ParseToken(jwtSecret, tokenStr)
		if err != nil || claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "token expired or invalid")
			c.Abort()
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				util.Error(c, http.StatusUnauthorized, util.CodeAuth, "user not found")
			} else {
				util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load user")
			}
			c.Abort()
			return
		}

		role := Role{Kind: user.Role, User: &user}
		switch user.Role {
		case models.RoleTenant:
			var t models.Tenant
			if err := db.Where("user_id = ?", user.ID).First(&t).Error; err != nil {
				util.Error(c, http.StatusUnauthorized, util.CodeAuth, "tenant profile not found")
				c.Abort()
				return
			}
			role.Tenant = &t
		case models.RoleOwner:
			var o models.Owner
			if err := db.Where("user_id = ?", user.ID).First(&o).Error; err != nil {
				util.Error(c, http.StatusUnauthorized, util.CodeAuth, "owner profile not found")
				c.Abort()
				return
			}
			role.Owner = &o
		case models.RoleAdmin:
			// no profile attachment
		default:
			util.Error(c, http.StatusForbidden, util.CodeForbidden, "unknown role")
			c.Abort()
			return
		}

		c.Set(roleKey, &role)
		c.Next()
	}
}

// RequireRole rejects requests whose resolved role is not in the allowed set.
// Admins always pass.
func RequireRole(kinds ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CurrentRole(c)
		if role == nil {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
			c.Abort()
			return
		}
		if role.Kind == models.RoleAdmin {
			c.Next()
			return
		}
		for _, k := range kinds {
			if role.Kind == k {
				c.Next()
				return
			}
		}
		util.Error(c, http.StatusForbidden, util.CodeForbidden, "insufficient permissions")
		c.Abort()
	}
}

// CurrentRole returns the role resolved by Auth, or nil outside it.
func CurrentRole(c *gin.Context) *Role {
	if v, ok := c.Get(roleKey); ok {
		if role, ok := v.(*Role); ok {
			return role
		}
	}
	return nil
}
