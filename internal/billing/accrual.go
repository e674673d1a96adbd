// Package billing derives enrollment, student and portfolio financials from
// raw course, enrollment and payment snapshots. Everything here is a pure
// function of its inputs: results are recomputed per request and never
// persisted, so re-running a projection over the same snapshot with the same
// reference time is idempotent.
package billing

import (
	"fmt"
	"math"
	"time"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

// Accrual is the expected liability of an enrollment as of a point in time.
type Accrual struct {
	MonthsElapsed int
	ExpectedTotal float64
	// Billable is false when the course is free or missing; such
	// enrollments are excluded from balance-owed views.
	Billable bool
}

// Report collects non-fatal data anomalies encountered during a computation
// run. A nil *Report is valid and simply discards entries; corrupt records
// must degrade to zero values, never abort the projection.
type Report struct {
	Anomalies []string
}

func (r *Report) addf(format string, args ...interface{}) {
	if r == nil {
		return
	}
	r.Anomalies = append(r.Anomalies, fmt.Sprintf(format, args...))
}

// MonthsElapsed counts billable months between the enrollment date and asOf.
// It counts calendar-month boundaries crossed, not elapsed days: the signup
// month is immediately payable, so an enrollment made today yields 1. Future
// enrollment dates floor at 0.
func MonthsElapsed(enrolledAt, asOf time.Time) int {
	months := (asOf.Year()-enrolledAt.Year())*12 + int(asOf.Month()) - int(enrolledAt.Month()) + 1
	if months < 0 {
		return 0
	}
	return months
}

// ComputeAccrual converts an enrollment's elapsed duration into billable
// months and an expected liability. A missing course record or a
// non-positive price makes the enrollment non-billable rather than an error.
func ComputeAccrual(enrollment models.Enrollment, course *models.Course, asOf time.Time, report *Report) Accrual {
	months := MonthsElapsed(enrollment.EnrolledAt, asOf)

	if course == nil {
		report.addf("enrollment %s references missing course %s", enrollment.ID, enrollment.CourseID)
		return Accrual{MonthsElapsed: months}
	}

	price := course.Price
	if price < 0 {
		report.addf("course %s has negative price %.2f, treated as 0", course.ID, price)
		price = 0
	}
	if price == 0 {
		return Accrual{MonthsElapsed: months}
	}

	return Accrual{
		MonthsElapsed: months,
		ExpectedTotal: Round2(float64(months) * price),
		Billable:      true,
	}
}

// Round2 rounds to 2-decimal currency precision. All engine outputs pass
// through it so aggregates stay drift-free against their children.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
