// kodisha-jobs runs the scheduled batch work either once from the command
// line (for external cron) or as a long-lived scheduler daemon.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kodisha/internal/config"
	"kodisha/internal/database"
	"kodisha/internal/jobs"
	"kodisha/internal/lease"
	"kodisha/internal/notify"
	"kodisha/internal/payment"
	"kodisha/internal/scheduler"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dryRun     bool
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "kodisha-jobs",
		Short: "Batch jobs for the kodisha rental backend",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config file")
	root.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "report what would be done without writing")

	root.AddCommand(checkLeasesCmd(), generatePaymentsCmd(), sendRemindersCmd(), scheduleCmd())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

// setup opens the database and wires the job runner.
func setup() (*jobs.Runner, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Init(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, err
	}

	notifier := notify.NewService(db, notify.LogMailer{}, cfg.Notify.EmailEnabled)
	leases := lease.NewService(db, notifier)
	payments := payment.NewService(db, notifier)
	return jobs.NewRunner(leases, payments, notifier), cfg, nil
}

func checkLeasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-leases",
		Short: "Expire past-end leases and warn about upcoming expiries",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, _, err := setup()
			if err != nil {
				return err
			}
			sum := runner.CheckLeaseStatus(dryRun)
			log.Printf("run %s: expired=%d warnings=%d dry_run=%v",
				sum.RunID, sum.Expired, sum.Warnings, sum.DryRun)
			return summaryErr(sum.Errors)
		},
	}
}

func generatePaymentsCmd() *cobra.Command {
	var month, year int
	cmd := &cobra.Command{
		Use:   "generate-payments",
		Short: "Create pending rent payments for a billing month",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, _, err := setup()
			if err != nil {
				return err
			}
			now := time.Now()
			if month == 0 {
				month = int(now.Month())
			}
			if year == 0 {
				year = now.Year()
			}
			if month < 1 || month > 12 {
				return fmt.Errorf("month must be 1-12, got %d", month)
			}

			sum := runner.GeneratePayments(time.Month(month), year, dryRun)
			log.Printf("run %s: period=%q created=%d skipped=%d dry_run=%v",
				sum.RunID, sum.Period, sum.Created, sum.Skipped, sum.DryRun)
			return summaryErr(sum.Errors)
		},
	}
	cmd.Flags().IntVar(&month, "month", 0, "billing month 1-12 (default: current)")
	cmd.Flags().IntVar(&year, "year", 0, "billing year (default: current)")
	return cmd
}

func sendRemindersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send-reminders",
		Short: "Send due-date and overdue rent reminders",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, _, err := setup()
			if err != nil {
				return err
			}
			sum := runner.SendRentReminders(dryRun)
			log.Printf("run %s: reminders=%d overdue=%d dry_run=%v",
				sum.RunID, sum.Reminders, sum.Overdue, sum.DryRun)
			return summaryErr(sum.Errors)
		},
	}
}

func scheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run all jobs on their configured cron schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, cfg, err := setup()
			if err != nil {
				return err
			}
			sched, err := scheduler.New(runner, cfg.Jobs)
			if err != nil {
				return err
			}
			sched.Start()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			sched.Stop()
			return nil
		},
	}
}

// summaryErr turns per-item failures into a non-zero exit.
func summaryErr(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	for _, e := range errs {
		log.Printf("error: %s", e)
	}
	return fmt.Errorf("%d item(s) failed", len(errs))
}
