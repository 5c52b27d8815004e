package jobs

import (
	"errors"
	"testing"
	"time"

	"kodisha/internal/models"
	"kodisha/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = util.Date(2026, time.June, 15)

type fakeLeases struct {
	active     []models.LeaseAgreement
	pastEnd    []models.LeaseAgreement
	expiring   []models.LeaseAgreement
	expired    []uint
	expireFail map[uint]error
}

func (f *fakeLeases) Expire(id uint) (*models.LeaseAgreement, error) {
	if err, ok := f.expireFail[id]; ok {
		return nil, err
	}
	f.expired = append(f.expired, id)
	return &models.LeaseAgreement{ID: id, Status: models.LeaseStatusExpired}, nil
}
func (f *fakeLeases) ListActive() ([]models.LeaseAgreement, error)      { return f.active, nil }
func (f *fakeLeases) ListPastEndDate() ([]models.LeaseAgreement, error) { return f.pastEnd, nil }
func (f *fakeLeases) ListExpiringWithin(days int) ([]models.LeaseAgreement, error) {
	return f.expiring, nil
}

type fakePayments struct {
	generated map[string]bool // lease:period already generated
	created   []string
	dueOn     map[time.Time][]models.Payment
	overdue   []models.Payment
}

func (f *fakePayments) Generate(l *models.LeaseAgreement, month time.Month, year int, dryRun bool) (*models.Payment, bool, error) {
	period := util.PeriodString(month, year)
	dueDay := l.PaymentDueDay
	if last := util.DaysInMonth(year, month); dueDay > last {
		dueDay = last
	}
	due := util.Date(year, month, dueDay)
	if due.Before(l.StartDate) || due.After(l.EndDate) {
		return nil, false, nil
	}
	if f.generated[period] {
		return &models.Payment{LeaseID: l.ID, PaymentPeriod: period}, false, nil
	}
	if !dryRun {
		if f.generated == nil {
			f.generated = map[string]bool{}
		}
		f.generated[period] = true
	}
	f.created = append(f.created, period)
	return &models.Payment{LeaseID: l.ID, PaymentPeriod: period, DueDate: due}, true, nil
}
func (f *fakePayments) ListPendingDueOn(day time.Time) ([]models.Payment, error) {
	return f.dueOn[day], nil
}
func (f *fakePayments) ListPendingOverdue(asOf time.Time) ([]models.Payment, error) {
	return f.overdue, nil
}

type event struct {
	kind string
	id   uint
	days int
}

type fakeNotifier struct{ events []event }

func (f *fakeNotifier) LeaseExpiring(l *models.LeaseAgreement, days int) {
	f.events = append(f.events, event{"lease_expiring", l.ID, days})
}
func (f *fakeNotifier) RentReminder7Days(p *models.Payment) {
	f.events = append(f.events, event{"reminder_7", p.ID, 7})
}
func (f *fakeNotifier) RentReminder3Days(p *models.Payment) {
	f.events = append(f.events, event{"reminder_3", p.ID, 3})
}
func (f *fakeNotifier) RentDueToday(p *models.Payment) {
	f.events = append(f.events, event{"due_today", p.ID, 0})
}
func (f *fakeNotifier) RentOverdue(p *models.Payment, days int) {
	f.events = append(f.events, event{"overdue", p.ID, days})
}

func newRunner(leases *fakeLeases, payments *fakePayments, notifier *fakeNotifier) *Runner {
	r := NewRunner(leases, payments, notifier)
	r.Now = func() time.Time { return today }
	return r
}

func TestCheckLeaseStatusExpiresAndWarns(t *testing.T) {
	leases := &fakeLeases{
		pastEnd: []models.LeaseAgreement{
			{ID: 1, EndDate: today.AddDate(0, 0, -2), Status: models.LeaseStatusActive},
		},
		expiring: []models.LeaseAgreement{
			{ID: 2, EndDate: today.AddDate(0, 0, 30), Status: models.LeaseStatusActive},
			{ID: 3, EndDate: today.AddDate(0, 0, 14), Status: models.LeaseStatusActive},
			{ID: 4, EndDate: today.AddDate(0, 0, 7), Status: models.LeaseStatusActive},
			{ID: 5, EndDate: today.AddDate(0, 0, 10), Status: models.LeaseStatusActive}, // not a warning day
		},
	}
	notifier := &fakeNotifier{}
	r := newRunner(leases, &fakePayments{}, notifier)

	sum := r.CheckLeaseStatus(false)
	require.NotEmpty(t, sum.RunID)
	assert.Equal(t, 1, sum.Expired)
	assert.Equal(t, 3, sum.Warnings)
	assert.Empty(t, sum.Errors)
	assert.Equal(t, []uint{1}, leases.expired)

	require.Len(t, notifier.events, 3)
	assert.Equal(t, event{"lease_expiring", 2, 30}, notifier.events[0])
	assert.Equal(t, event{"lease_expiring", 3, 14}, notifier.events[1])
	assert.Equal(t, event{"lease_expiring", 4, 7}, notifier.events[2])
}

func TestCheckLeaseStatusDryRunTouchesNothing(t *testing.T) {
	leases := &fakeLeases{
		pastEnd: []models.LeaseAgreement{
			{ID: 1, EndDate: today.AddDate(0, 0, -2), Status: models.LeaseStatusActive},
		},
		expiring: []models.LeaseAgreement{
			{ID: 2, EndDate: today.AddDate(0, 0, 7), Status: models.LeaseStatusActive},
		},
	}
	notifier := &fakeNotifier{}
	r := newRunner(leases, &fakePayments{}, notifier)

	sum := r.CheckLeaseStatus(true)
	assert.Equal(t, 1, sum.Expired)
	assert.Equal(t, 1, sum.Warnings)
	assert.Empty(t, leases.expired, "dry run must not expire")
	assert.Empty(t, notifier.events, "dry run must not notify")
}

func TestCheckLeaseStatusCollectsErrorsAndContinues(t *testing.T) {
	leases := &fakeLeases{
		pastEnd: []models.LeaseAgreement{
			{ID: 1, EndDate: today.AddDate(0, 0, -2)},
			{ID: 2, EndDate: today.AddDate(0, 0, -1)},
		},
		expireFail: map[uint]error{1: errors.New("boom")},
	}
	r := newRunner(leases, &fakePayments{}, &fakeNotifier{})

	sum := r.CheckLeaseStatus(false)
	assert.Equal(t, 1, sum.Expired)
	require.Len(t, sum.Errors, 1)
	assert.Contains(t, sum.Errors[0], "boom")
	assert.Equal(t, []uint{2}, leases.expired, "failure on one lease must not stop the sweep")
}

func TestGeneratePaymentsCountsCreatedAndSkipped(t *testing.T) {
	leases := &fakeLeases{
		active: []models.LeaseAgreement{
			{ID: 1, PaymentDueDay: 5, StartDate: util.Date(2026, time.January, 1), EndDate: util.Date(2026, time.December, 31)},
			{ID: 2, PaymentDueDay: 5, StartDate: util.Date(2026, time.August, 1), EndDate: util.Date(2027, time.July, 31)}, // July outside term
		},
	}
	payments := &fakePayments{}
	r := newRunner(leases, payments, &fakeNotifier{})

	sum := r.GeneratePayments(time.July, 2026, false)
	assert.Equal(t, "July 2026", sum.Period)
	assert.Equal(t, 1, sum.Created)
	assert.Equal(t, 1, sum.Skipped)
	assert.Empty(t, sum.Errors)

	// second run: everything already exists
	sum = r.GeneratePayments(time.July, 2026, false)
	assert.Equal(t, 0, sum.Created)
	assert.Equal(t, 2, sum.Skipped)
}

func TestSendRentRemindersTiers(t *testing.T) {
	payments := &fakePayments{
		dueOn: map[time.Time][]models.Payment{
			today.AddDate(0, 0, 7): {{ID: 10, DueDate: today.AddDate(0, 0, 7)}},
			today.AddDate(0, 0, 3): {{ID: 11, DueDate: today.AddDate(0, 0, 3)}},
			today:                  {{ID: 12, DueDate: today}},
		},
		overdue: []models.Payment{
			{ID: 20, DueDate: today.AddDate(0, 0, -3)}, // day 3: notify
			{ID: 21, DueDate: today.AddDate(0, 0, -4)}, // day 4: silent
			{ID: 22, DueDate: today.AddDate(0, 0, -6)}, // day 6: notify
			{ID: 23, DueDate: today.AddDate(0, 0, -1)}, // day 1: silent
		},
	}
	notifier := &fakeNotifier{}
	r := newRunner(&fakeLeases{}, payments, notifier)

	sum := r.SendRentReminders(false)
	assert.Equal(t, 3, sum.Reminders)
	assert.Equal(t, 2, sum.Overdue)
	assert.Empty(t, sum.Errors)

	require.Len(t, notifier.events, 5)
	assert.Equal(t, event{"reminder_7", 10, 7}, notifier.events[0])
	assert.Equal(t, event{"reminder_3", 11, 3}, notifier.events[1])
	assert.Equal(t, event{"due_today", 12, 0}, notifier.events[2])
	assert.Equal(t, event{"overdue", 20, 3}, notifier.events[3])
	assert.Equal(t, event{"overdue", 22, 6}, notifier.events[4])
}

func TestSendRentRemindersDryRun(t *testing.T) {
	payments := &fakePayments{
		dueOn: map[time.Time][]models.Payment{
			today: {{ID: 12, DueDate: today}},
		},
		overdue: []models.Payment{{ID: 20, DueDate: today.AddDate(0, 0, -3)}},
	}
	notifier := &fakeNotifier{}
	r := newRunner(&fakeLeases{}, payments, notifier)

	sum := r.SendRentReminders(true)
	assert.Equal(t, 1, sum.Reminders)
	assert.Equal(t, 1, sum.Overdue)
	assert.Empty(t, notifier.events)
}
