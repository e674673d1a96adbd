package billing

import (
	"sort"
	"time"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

// Period selects the reporting window for portfolio projections.
type Period string

const (
	Period30Days  Period = "30d"
	Period6Months Period = "6m"
	Period1Year   Period = "1y"
	PeriodAll     Period = "all"
)

// ParsePeriod normalises a raw period query value, defaulting to 6m.
func ParsePeriod(raw string) Period {
	switch Period(raw) {
	case Period30Days, Period6Months, Period1Year, PeriodAll:
		return Period(raw)
	default:
		return Period6Months
	}
}

// monthsBack is how many full months before the current one the series
// covers. PeriodAll is resolved dynamically from the data.
func (p Period) monthsBack() int {
	switch p {
	case Period30Days:
		return 1
	case Period1Year:
		return 11
	case PeriodAll:
		return -1
	default:
		return 5
	}
}

func (p Period) duration() time.Duration {
	switch p {
	case Period30Days:
		return 30 * 24 * time.Hour
	case Period1Year:
		return 365 * 24 * time.Hour
	case PeriodAll:
		return 0
	default:
		return 182 * 24 * time.Hour
	}
}

// ProjectStudent groups enrollment financials by student and rolls them up.
// The aggregate balance is exactly the sum of the children's balances; any
// positive child balance marks the student OWING. Entries keep their input
// order for drill-down display.
func ProjectStudent(studentID, studentName string, entries []models.EnrollmentFinancial) models.StudentFinancialSummary {
	summary := models.StudentFinancialSummary{
		StudentID:   studentID,
		StudentName: studentName,
		Standing:    models.StudentStandingGood,
		Enrollments: make([]models.EnrollmentFinancial, 0, len(entries)),
		GeneratedAt: time.Now().UTC(),
	}

	for _, entry := range entries {
		if entry.StudentID != studentID {
			continue
		}
		summary.Enrollments = append(summary.Enrollments, entry)
		summary.TotalBalance = Round2(summary.TotalBalance + entry.Balance)
		summary.TotalPaid = Round2(summary.TotalPaid + entry.PaidTotal)
		summary.TotalOverage = Round2(summary.TotalOverage + entry.Overage)
		if entry.Balance > 0 {
			summary.Standing = models.StudentStandingOwing
		}
	}

	return summary
}

// ProjectPortfolio aggregates the full payment snapshot into admin-level
// revenue figures and a dense monthly series for the requested period.
// Months without payments still appear with amount 0 so charts render a
// continuous series. An empty snapshot yields zero totals and a zero-valued
// series, never a division by zero.
func ProjectPortfolio(payments []models.Payment, period Period, now time.Time, report *Report) models.PortfolioSummary {
	summary := models.PortfolioSummary{
		Period:      string(period),
		GeneratedAt: now.UTC(),
	}

	windowStart := time.Time{}
	if d := period.duration(); d > 0 {
		windowStart = now.Add(-d)
	}

	var paidCount int
	earliestPaid := now
	for _, p := range payments {
		amount := p.Amount
		if amount < 0 {
			report.addf("payment %s has negative amount %.2f, treated as 0", p.ID, amount)
			amount = 0
		}
		switch p.Status {
		case models.PaymentStatusPaid:
			summary.TotalRevenue += amount
			paidCount++
			at := paymentTime(p)
			if at.Before(earliestPaid) {
				earliestPaid = at
			}
			if windowStart.IsZero() || !at.Before(windowStart) {
				summary.ThisPeriodRevenue += amount
			}
		case models.PaymentStatusPending:
			summary.PendingAmount += amount
		}
	}

	summary.TotalRevenue = Round2(summary.TotalRevenue)
	summary.PendingAmount = Round2(summary.PendingAmount)
	summary.ThisPeriodRevenue = Round2(summary.ThisPeriodRevenue)
	summary.PaidCount = paidCount
	if paidCount > 0 {
		summary.AveragePayment = Round2(summary.TotalRevenue / float64(paidCount))
	}

	summary.Series = monthlySeries(payments, period, earliestPaid, now)
	return summary
}

// monthlySeries buckets PAID payments by calendar month, gap-filled from the
// window start through the current month. For PeriodAll the window opens at
// the earliest paid payment, or 12 months when there is nothing to anchor on.
func monthlySeries(payments []models.Payment, period Period, earliestPaid, now time.Time) []models.RevenuePoint {
	back := period.monthsBack()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if back >= 0 {
		start = start.AddDate(0, -back, 0)
	} else {
		start = time.Date(earliestPaid.Year(), earliestPaid.Month(), 1, 0, 0, 0, 0, time.UTC)
		if months := monthSpan(start, now); months > 120 {
			// cap runaway "all" windows caused by corrupt dates
			start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)
		}
	}

	buckets := make(map[string]float64)
	var keys []string
	for cursor := start; !cursor.After(now); cursor = cursor.AddDate(0, 1, 0) {
		key := cursor.Format("2006-01")
		buckets[key] = 0
		keys = append(keys, key)
	}

	for _, p := range payments {
		if p.Status != models.PaymentStatusPaid || p.Amount <= 0 {
			continue
		}
		key := paymentTime(p).Format("2006-01")
		if _, ok := buckets[key]; ok {
			buckets[key] += p.Amount
		}
	}

	sort.Strings(keys)
	series := make([]models.RevenuePoint, 0, len(keys))
	for _, key := range keys {
		series = append(series, models.RevenuePoint{Month: key, Amount: Round2(buckets[key])})
	}
	return series
}

func monthSpan(start, end time.Time) int {
	return (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
}

// paymentTime prefers the confirmation date, falling back to creation time
// for records whose payment_date was never set.
func paymentTime(p models.Payment) time.Time {
	if p.PaymentDate != nil && !p.PaymentDate.IsZero() {
		return *p.PaymentDate
	}
	return p.CreatedAt
}

// CompletionLeaderboard groups enrollments by course, computes the share of
// COMPLETED ones and returns the top n courses by completion rate. Courses
// absent from the name index surface as "Unknown" rather than being dropped.
func CompletionLeaderboard(enrollments []models.Enrollment, courseNames map[string]string, n int) []models.CourseCompletionStat {
	if n <= 0 {
		n = 5
	}

	type tally struct {
		total     int
		completed int
	}
	counts := make(map[string]*tally)
	var order []string
	for _, e := range enrollments {
		t, ok := counts[e.CourseID]
		if !ok {
			t = &tally{}
			counts[e.CourseID] = t
			order = append(order, e.CourseID)
		}
		t.total++
		if e.Status == models.EnrollmentStatusCompleted {
			t.completed++
		}
	}

	stats := make([]models.CourseCompletionStat, 0, len(order))
	for _, courseID := range order {
		t := counts[courseID]
		rate := 0.0
		if t.total > 0 {
			rate = Round2(float64(t.completed) / float64(t.total) * 100)
		}
		name, ok := courseNames[courseID]
		if !ok {
			name = "Unknown"
		}
		stats = append(stats, models.CourseCompletionStat{
			CourseID:       courseID,
			CourseName:     name,
			TotalCount:     t.total,
			CompletedCount: t.completed,
			CompletionRate: rate,
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].CompletionRate != stats[j].CompletionRate {
			return stats[i].CompletionRate > stats[j].CompletionRate
		}
		return stats[i].TotalCount > stats[j].TotalCount
	})

	if len(stats) > n {
		stats = stats[:n]
	}
	return stats
}
