package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

func paid(id, enrollmentID string, amount float64) models.Payment {
	return models.Payment{ID: id, EnrollmentID: enrollmentID, Amount: amount, Status: models.PaymentStatusPaid}
}

func TestComputeLedgerSeriouslyOverdue(t *testing.T) {
	// $100/month, enrolled 3 calendar months ago: expected 400.
	payments := []models.Payment{paid("p1", "e1", 150)}

	ledger := ComputeLedger("e1", payments, 400, 100, nil)
	assert.Equal(t, 150.0, ledger.TotalPaid)
	assert.Equal(t, 250.0, ledger.Balance)
	assert.Equal(t, 0.0, ledger.Overage)
	assert.Equal(t, models.FinancialStatusSeriouslyOverdue, ledger.Status)
}

func TestComputeLedgerUpToDate(t *testing.T) {
	payments := []models.Payment{paid("p1", "e1", 50)}

	ledger := ComputeLedger("e1", payments, 50, 50, nil)
	assert.Equal(t, 0.0, ledger.Balance)
	assert.Equal(t, models.FinancialStatusUpToDate, ledger.Status)
}

func TestComputeLedgerIgnoresUnconfirmedPayments(t *testing.T) {
	payments := []models.Payment{
		{ID: "p1", EnrollmentID: "e1", Amount: 500, Status: models.PaymentStatusPending},
		{ID: "p2", EnrollmentID: "e1", Amount: 500, Status: models.PaymentStatusPartial},
	}

	ledger := ComputeLedger("e1", payments, 200, 100, nil)
	assert.Equal(t, 0.0, ledger.TotalPaid)
	assert.Equal(t, 200.0, ledger.Balance)
}

func TestComputeLedgerIgnoresOtherEnrollments(t *testing.T) {
	payments := []models.Payment{paid("p1", "e2", 100), paid("p2", "e1", 100)}

	ledger := ComputeLedger("e1", payments, 100, 100, nil)
	assert.Equal(t, 100.0, ledger.TotalPaid)
	assert.Equal(t, 0.0, ledger.Balance)
}

func TestComputeLedgerOverpaymentTrackedAsOverage(t *testing.T) {
	payments := []models.Payment{paid("p1", "e1", 300)}

	ledger := ComputeLedger("e1", payments, 200, 100, nil)
	assert.Equal(t, 0.0, ledger.Balance)
	assert.Equal(t, 100.0, ledger.Overage)
	assert.Equal(t, models.FinancialStatusUpToDate, ledger.Status)
}

func TestComputeLedgerNegativeAmountDegradesToZero(t *testing.T) {
	report := &Report{}
	payments := []models.Payment{paid("p1", "e1", -40)}

	ledger := ComputeLedger("e1", payments, 100, 100, report)
	assert.Equal(t, 0.0, ledger.TotalPaid)
	assert.Equal(t, 100.0, ledger.Balance)
	assert.Len(t, report.Anomalies, 1)
}

func TestClassifyZeroPriceCollapsesToBinary(t *testing.T) {
	assert.Equal(t, models.FinancialStatusUpToDate, Classify(0, 0))
	assert.Equal(t, models.FinancialStatusOverdue, Classify(75, 0))
}

func TestClassifyTiers(t *testing.T) {
	assert.Equal(t, models.FinancialStatusUpToDate, Classify(0, 100))
	assert.Equal(t, models.FinancialStatusOverdue, Classify(100, 100))
	assert.Equal(t, models.FinancialStatusSeriouslyOverdue, Classify(100.01, 100))
}

func TestProjectEnrollmentEndToEnd(t *testing.T) {
	asOf := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	enrollment := models.Enrollment{
		ID:         "e1",
		StudentID:  "s1",
		CourseID:   "c1",
		EnrolledAt: time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC),
	}
	course := &models.Course{ID: "c1", Name: "Spanish A1", Price: 100}
	payments := []models.Payment{paid("p1", "e1", 150)}

	fin := ProjectEnrollment(enrollment, course, payments, asOf, nil)
	assert.Equal(t, 3, fin.MonthsElapsed)
	assert.Equal(t, 300.0, fin.ExpectedTotal)
	assert.Equal(t, 150.0, fin.PaidTotal)
	assert.Equal(t, 150.0, fin.Balance)
	assert.Equal(t, "Spanish A1", fin.CourseName)
	assert.Equal(t, models.FinancialStatusSeriouslyOverdue, fin.Status)
	assert.GreaterOrEqual(t, fin.Balance, 0.0)
}

func TestProjectEnrollmentMissingCourseShowsUnknown(t *testing.T) {
	asOf := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	enrollment := models.Enrollment{ID: "e1", StudentID: "s1", CourseID: "gone", EnrolledAt: asOf}

	fin := ProjectEnrollment(enrollment, nil, nil, asOf, nil)
	assert.Equal(t, "Unknown", fin.CourseName)
	assert.Equal(t, models.FinancialStatusNotBillable, fin.Status)
	assert.Equal(t, 0.0, fin.Balance)
}
