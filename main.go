package main

import (
	"fmt"
	"log"

	"kodisha/internal/config"
	"kodisha/internal/database"
	"kodisha/internal/lease"
	"kodisha/internal/maintenance"
	"kodisha/internal/notify"
	"kodisha/internal/payment"
	"kodisha/internal/router"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set KODISHA_* directly
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	notifier := notify.NewService(db, notify.LogMailer{}, cfg.Notify.EmailEnabled)
	svc := router.Services{
		Leases:      lease.NewService(db, notifier),
		Payments:    payment.NewService(db, notifier),
		Maintenance: maintenance.NewService(db, notifier),
	}

	r := router.Setup(cfg, db, svc)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Printf("server listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}
