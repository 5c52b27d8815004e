// Package scheduler runs the batch jobs on cron schedules for deployments
// without an external cron daemon.
package scheduler

import (
	"fmt"
	"log"
	"time"

	"kodisha/internal/config"
	"kodisha/internal/jobs"

	"github.com/robfig/cron/v3"
)

// Scheduler wires the three batch jobs onto their configured cron
// expressions. Payment generation always targets the month the tick fires in.
type Scheduler struct {
	cron   *cron.Cron
	runner *jobs.Runner
}

func New(runner *jobs.Runner, cfg config.JobsConfig) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(),
		runner: runner,
	}

	if _, err := s.cron.AddFunc(cfg.LeaseSweepCron, func() {
		sum := runner.CheckLeaseStatus(false)
		log.Printf("lease sweep %s: expired=%d warnings=%d errors=%d",
			sum.RunID, sum.Expired, sum.Warnings, len(sum.Errors))
	}); err != nil {
		return nil, fmt.Errorf("schedule lease sweep %q: %w", cfg.LeaseSweepCron, err)
	}

	if _, err := s.cron.AddFunc(cfg.PaymentGenCron, func() {
		now := time.Now()
		sum := runner.GeneratePayments(now.Month(), now.Year(), false)
		log.Printf("payment gen %s (%s): created=%d skipped=%d errors=%d",
			sum.RunID, sum.Period, sum.Created, sum.Skipped, len(sum.Errors))
	}); err != nil {
		return nil, fmt.Errorf("schedule payment generation %q: %w", cfg.PaymentGenCron, err)
	}

	if _, err := s.cron.AddFunc(cfg.RentReminderCron, func() {
		sum := runner.SendRentReminders(false)
		log.Printf("rent reminders %s: reminders=%d overdue=%d errors=%d",
			sum.RunID, sum.Reminders, sum.Overdue, len(sum.Errors))
	}); err != nil {
		return nil, fmt.Errorf("schedule rent reminders %q: %w", cfg.RentReminderCron, err)
	}

	return s, nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("job scheduler started")
}

// Stop waits for any running job to finish before returning.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("job scheduler stopped")
}
