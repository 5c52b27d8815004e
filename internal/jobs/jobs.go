// Package jobs implements the scheduled batch work: the lease expiry sweep,
// monthly payment generation and the rent reminder run. Every job is
// idempotent, supports dry-run, logs and continues on per-item failures, and
// returns a summary of what it did.
package jobs

import (
	"log"
	"strconv"
	"time"

	"kodisha/internal/models"
	"kodisha/internal/util"

	"github.com/google/uuid"
)

// Notifier receives the per-item alerts the jobs produce. Implementations
// must not fail the caller.
type Notifier interface {
	LeaseExpiring(l *models.LeaseAgreement, daysUntilExpiry int)
	RentReminder7Days(p *models.Payment)
	RentReminder3Days(p *models.Payment)
	RentDueToday(p *models.Payment)
	RentOverdue(p *models.Payment, daysOverdue int)
}

// LeaseLifecycle is the slice of the lease service the jobs use.
type LeaseLifecycle interface {
	Expire(leaseID uint) (*models.LeaseAgreement, error)
	ListActive() ([]models.LeaseAgreement, error)
	ListPastEndDate() ([]models.LeaseAgreement, error)
	ListExpiringWithin(days int) ([]models.LeaseAgreement, error)
}

// PaymentLifecycle is the slice of the payment service the jobs use.
type PaymentLifecycle interface {
	Generate(l *models.LeaseAgreement, month time.Month, year int, dryRun bool) (*models.Payment, bool, error)
	ListPendingDueOn(day time.Time) ([]models.Payment, error)
	ListPendingOverdue(asOf time.Time) ([]models.Payment, error)
}

type Runner struct {
	Leases   LeaseLifecycle
	Payments PaymentLifecycle
	Notifier Notifier
	Now      func() time.Time
}

func NewRunner(leases LeaseLifecycle, payments PaymentLifecycle, notifier Notifier) *Runner {
	return &Runner{Leases: leases, Payments: payments, Notifier: notifier, Now: time.Now}
}

// ExpirySweepSummary reports one lease expiry sweep.
type ExpirySweepSummary struct {
	RunID    string
	DryRun   bool
	Expired  int
	Warnings int
	Errors   []string
}

// Lease expiry warnings go out at these exact day marks.
var expiryWarningDays = []int{30, 14, 7}

// CheckLeaseStatus expires active leases whose end date has passed and warns
// both parties of leases expiring in exactly 30, 14 or 7 days. Re-running on
// the same day adds nothing new except repeated warnings, which the original
// operators accepted as once-daily.
func (r *Runner) CheckLeaseStatus(dryRun bool) *ExpirySweepSummary {
	sum := &ExpirySweepSummary{RunID: uuid.NewString(), DryRun: dryRun}
	today := util.DateOnly(r.Now())

	pastEnd, err := r.Leases.ListPastEndDate()
	if err != nil {
		sum.Errors = append(sum.Errors, "list past-end leases: "+err.Error())
	}
	for i := range pastEnd {
		l := &pastEnd[i]
		if dryRun {
			log.Printf("expiry sweep %s: would expire lease %d (ended %s)",
				sum.RunID, l.ID, l.EndDate.Format("2006-01-02"))
			sum.Expired++
			continue
		}
		if _, err := r.Leases.Expire(l.ID); err != nil {
			sum.Errors = append(sum.Errors, "expire lease "+uintStr(l.ID)+": "+err.Error())
			continue
		}
		log.Printf("expiry sweep %s: expired lease %d", sum.RunID, l.ID)
		sum.Expired++
	}

	expiring, err := r.Leases.ListExpiringWithin(expiryWarningDays[0])
	if err != nil {
		sum.Errors = append(sum.Errors, "list expiring leases: "+err.Error())
		return sum
	}
	for i := range expiring {
		l := &expiring[i]
		days := util.DaysBetween(today, l.EndDate)
		if !isWarningDay(days) {
			continue
		}
		sum.Warnings++
		if dryRun {
			log.Printf("expiry sweep %s: would warn lease %d, %d days left", sum.RunID, l.ID, days)
			continue
		}
		if r.Notifier != nil {
			r.Notifier.LeaseExpiring(l, days)
		}
	}
	return sum
}

// PaymentGenSummary reports one payment generation run.
type PaymentGenSummary struct {
	RunID   string
	DryRun  bool
	Period  string
	Created int
	Skipped int
	Errors  []string
}

// GeneratePayments creates the pending rent payment for every active lease
// for the given billing month. Existing payments and periods outside a
// lease's term count as skipped.
func (r *Runner) GeneratePayments(month time.Month, year int, dryRun bool) *PaymentGenSummary {
	sum := &PaymentGenSummary{
		RunID:  uuid.NewString(),
		DryRun: dryRun,
		Period: util.PeriodString(month, year),
	}

	leases, err := r.Leases.ListActive()
	if err != nil {
		sum.Errors = append(sum.Errors, "list active leases: "+err.Error())
		return sum
	}
	for i := range leases {
		l := &leases[i]
		p, created, err := r.Payments.Generate(l, month, year, dryRun)
		if err != nil {
			sum.Errors = append(sum.Errors, "lease "+uintStr(l.ID)+": "+err.Error())
			continue
		}
		if !created {
			sum.Skipped++
			continue
		}
		sum.Created++
		if dryRun {
			log.Printf("payment gen %s: would create payment for lease %d due %s",
				sum.RunID, l.ID, p.DueDate.Format("2006-01-02"))
		} else {
			log.Printf("payment gen %s: created payment %d for lease %d", sum.RunID, p.ID, l.ID)
		}
	}
	return sum
}

// ReminderSummary reports one rent reminder run.
type ReminderSummary struct {
	RunID     string
	DryRun    bool
	Reminders int
	Overdue   int
	Errors    []string
}

// SendRentReminders notifies tenants of pending payments due in 7 days, 3
// days and today, and of overdue payments every third day after the due date.
func (r *Runner) SendRentReminders(dryRun bool) *ReminderSummary {
	sum := &ReminderSummary{RunID: uuid.NewString(), DryRun: dryRun}
	today := util.DateOnly(r.Now())

	tiers := []struct {
		days   int
		notify func(p *models.Payment)
	}{
		{7, func(p *models.Payment) { r.Notifier.RentReminder7Days(p) }},
		{3, func(p *models.Payment) { r.Notifier.RentReminder3Days(p) }},
		{0, func(p *models.Payment) { r.Notifier.RentDueToday(p) }},
	}
	for _, tier := range tiers {
		due, err := r.Payments.ListPendingDueOn(today.AddDate(0, 0, tier.days))
		if err != nil {
			sum.Errors = append(sum.Errors, "list payments due in "+intStr(tier.days)+" days: "+err.Error())
			continue
		}
		for i := range due {
			p := &due[i]
			sum.Reminders++
			if dryRun {
				log.Printf("reminders %s: would remind payment %d (due in %d days)", sum.RunID, p.ID, tier.days)
				continue
			}
			if r.Notifier != nil {
				tier.notify(p)
			}
		}
	}

	overdue, err := r.Payments.ListPendingOverdue(today)
	if err != nil {
		sum.Errors = append(sum.Errors, "list overdue payments: "+err.Error())
		return sum
	}
	for i := range overdue {
		p := &overdue[i]
		days := util.DaysBetween(p.DueDate, today)
		// escalate every 3rd day so tenants are nagged but not daily
		if days <= 0 || days%3 != 0 {
			continue
		}
		sum.Overdue++
		if dryRun {
			log.Printf("reminders %s: would send overdue notice for payment %d (%d days)", sum.RunID, p.ID, days)
			continue
		}
		if r.Notifier != nil {
			r.Notifier.RentOverdue(p, days)
		}
	}
	return sum
}

func isWarningDay(days int) bool {
	for _, d := range expiryWarningDays {
		if days == d {
			return true
		}
	}
	return false
}

func uintStr(v uint) string { return strconv.FormatUint(uint64(v), 10) }

func intStr(v int) string { return strconv.Itoa(v) }
