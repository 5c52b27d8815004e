package router

import (
	"kodisha/internal/config"
	"kodisha/internal/handler"
	"kodisha/internal/lease"
	"kodisha/internal/maintenance"
	"kodisha/internal/middleware"
	"kodisha/internal/models"
	"kodisha/internal/payment"
	"kodisha/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Services bundles the lifecycle services the API exposes.
type Services struct {
	Leases      *lease.Service
	Payments    *payment.Service
	Maintenance *maintenance.Service
}

// Setup configures the Gin engine and mounts the API.
func Setup(cfg *config.Config, db *gorm.DB, svc Services) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		util.Success(c, util.Response{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(middleware.Auth(cfg.JWT.Secret, db))

	leaseHandler := handler.NewLeaseHandler(svc.Leases)
	leases := api.Group("/leases")
	{
		leases.GET("", leaseHandler.List)
		leases.POST("", middleware.RequireRole(models.RoleOwner), leaseHandler.Create)
		leases.GET("/expiring", middleware.RequireRole(models.RoleOwner), leaseHandler.ListExpiring)
		leases.GET("/:id", leaseHandler.Get)
		leases.POST("/:id/activate", middleware.RequireRole(models.RoleOwner), leaseHandler.Activate)
		leases.POST("/:id/terminate", middleware.RequireRole(models.RoleOwner), leaseHandler.Terminate)
		leases.POST("/:id/renew", middleware.RequireRole(models.RoleOwner), leaseHandler.Renew)
	}

	paymentHandler := handler.NewPaymentHandler(db, svc.Payments)
	payments := api.Group("/payments")
	{
		payments.GET("", paymentHandler.List)
		payments.POST("", middleware.RequireRole(models.RoleTenant), paymentHandler.Submit)
		payments.GET("/:id", paymentHandler.Get)
		payments.POST("/:id/verify", middleware.RequireRole(models.RoleOwner), paymentHandler.Verify)
	}

	propertyHandler := handler.NewPropertyHandler(db)
	properties := api.Group("/properties")
	{
		properties.GET("", propertyHandler.List)
		properties.POST("", middleware.RequireRole(models.RoleOwner), propertyHandler.Create)
		properties.GET("/:id", propertyHandler.Get)
	}

	maintenanceHandler := handler.NewMaintenanceHandler(svc.Maintenance)
	maint := api.Group("/maintenance")
	{
		maint.GET("", maintenanceHandler.List)
		maint.POST("", middleware.RequireRole(models.RoleTenant), maintenanceHandler.Submit)
		maint.POST("/:id/status", middleware.RequireRole(models.RoleOwner), maintenanceHandler.UpdateStatus)
	}

	notificationHandler := handler.NewNotificationHandler(db)
	notifications := api.Group("/notifications")
	{
		notifications.GET("", notificationHandler.List)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
	}

	return r
}
