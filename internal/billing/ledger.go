package billing

import (
	"time"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

// Ledger is the paid/owed position of a single enrollment.
type Ledger struct {
	TotalPaid float64
	Balance   float64
	Overage   float64
	Status    models.FinancialStatus
}

// ComputeLedger sums confirmed payments for the enrollment and derives the
// balance against the expected liability. Only PAID payments reduce
// liability; PENDING and PARTIAL amounts are ignored entirely. The balance
// never goes negative: overpayment surfaces as Overage instead.
func ComputeLedger(enrollmentID string, payments []models.Payment, expected, monthlyPrice float64, report *Report) Ledger {
	var paid float64
	for _, p := range payments {
		if p.EnrollmentID != enrollmentID || p.Status != models.PaymentStatusPaid {
			continue
		}
		amount := p.Amount
		if amount < 0 {
			report.addf("payment %s has negative amount %.2f, treated as 0", p.ID, amount)
			amount = 0
		}
		paid += amount
	}
	paid = Round2(paid)

	balance := Round2(expected - paid)
	overage := 0.0
	if balance < 0 {
		overage = -balance
		balance = 0
	}

	return Ledger{
		TotalPaid: paid,
		Balance:   balance,
		Overage:   overage,
		Status:    Classify(balance, monthlyPrice),
	}
}

// Classify buckets a balance by magnitude relative to one monthly period.
// A zero price collapses the tiers into a binary owed/not-owed split.
func Classify(balance, monthlyPrice float64) models.FinancialStatus {
	switch {
	case balance <= 0:
		return models.FinancialStatusUpToDate
	case monthlyPrice <= 0:
		return models.FinancialStatusOverdue
	case balance <= monthlyPrice:
		return models.FinancialStatusOverdue
	default:
		return models.FinancialStatusSeriouslyOverdue
	}
}

// ProjectEnrollment runs accrual and ledger for one enrollment against the
// payment snapshot, producing the derived financial record served to clients.
func ProjectEnrollment(enrollment models.Enrollment, course *models.Course, payments []models.Payment, asOf time.Time, report *Report) models.EnrollmentFinancial {
	accrual := ComputeAccrual(enrollment, course, asOf, report)
	ledger := ComputeLedger(enrollment.ID, payments, accrual.ExpectedTotal, coursePrice(course), report)

	courseName := "Unknown"
	if course != nil {
		courseName = course.Name
	}

	fin := models.EnrollmentFinancial{
		EnrollmentID:  enrollment.ID,
		StudentID:     enrollment.StudentID,
		CourseID:      enrollment.CourseID,
		CourseName:    courseName,
		MonthsElapsed: accrual.MonthsElapsed,
		ExpectedTotal: accrual.ExpectedTotal,
		PaidTotal:     ledger.TotalPaid,
		Balance:       ledger.Balance,
		Overage:       ledger.Overage,
		Billable:      accrual.Billable,
		Status:        ledger.Status,
	}
	if !accrual.Billable {
		fin.Status = models.FinancialStatusNotBillable
		fin.Balance = 0
	}
	return fin
}

func coursePrice(course *models.Course) float64 {
	if course == nil || course.Price < 0 {
		return 0
	}
	return course.Price
}
