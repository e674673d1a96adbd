package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

func TestMonthsElapsedSignupMonthPayable(t *testing.T) {
	now := time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, MonthsElapsed(now, now))
}

func TestMonthsElapsedCountsCalendarBoundaries(t *testing.T) {
	asOf := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		enrolledAt time.Time
		want       int
	}{
		{"two calendar months back", time.Date(2025, time.April, 28, 0, 0, 0, 0, time.UTC), 3},
		{"end of previous month", time.Date(2025, time.May, 31, 23, 0, 0, 0, time.UTC), 2},
		{"across a year boundary", time.Date(2024, time.November, 10, 0, 0, 0, 0, time.UTC), 8},
		{"future enrollment floors at zero", time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MonthsElapsed(tc.enrolledAt, asOf))
		})
	}
}

func TestComputeAccrual(t *testing.T) {
	asOf := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	enrollment := models.Enrollment{
		ID:         "e1",
		CourseID:   "c1",
		EnrolledAt: time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC),
	}
	course := &models.Course{ID: "c1", Price: 100}

	accrual := ComputeAccrual(enrollment, course, asOf, nil)
	assert.Equal(t, 4, accrual.MonthsElapsed)
	assert.Equal(t, 400.0, accrual.ExpectedTotal)
	assert.True(t, accrual.Billable)
}

func TestComputeAccrualFreeCourseNotBillable(t *testing.T) {
	asOf := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	enrollment := models.Enrollment{ID: "e1", CourseID: "c1", EnrolledAt: asOf}

	accrual := ComputeAccrual(enrollment, &models.Course{ID: "c1", Price: 0}, asOf, nil)
	assert.False(t, accrual.Billable)
	assert.Equal(t, 0.0, accrual.ExpectedTotal)
	assert.Equal(t, 1, accrual.MonthsElapsed)
}

func TestComputeAccrualMissingCourseReportsAnomaly(t *testing.T) {
	asOf := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	enrollment := models.Enrollment{ID: "e1", CourseID: "gone", EnrolledAt: asOf}

	report := &Report{}
	accrual := ComputeAccrual(enrollment, nil, asOf, report)
	assert.False(t, accrual.Billable)
	assert.Len(t, report.Anomalies, 1)
}

func TestComputeAccrualNegativePriceDegradesToZero(t *testing.T) {
	asOf := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	enrollment := models.Enrollment{ID: "e1", CourseID: "c1", EnrolledAt: asOf}

	report := &Report{}
	accrual := ComputeAccrual(enrollment, &models.Course{ID: "c1", Price: -50}, asOf, report)
	assert.False(t, accrual.Billable)
	assert.Equal(t, 0.0, accrual.ExpectedTotal)
	assert.Len(t, report.Anomalies, 1)
}
