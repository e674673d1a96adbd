package models

import "time"

// FinancialStatus classifies how far behind an enrollment is, relative to
// one monthly billing period.
type FinancialStatus string

const (
	FinancialStatusUpToDate         FinancialStatus = "UP TO DATE"
	FinancialStatusOverdue          FinancialStatus = "OVERDUE"
	FinancialStatusSeriouslyOverdue FinancialStatus = "SERIOUSLY OVERDUE"
	FinancialStatusNotBillable      FinancialStatus = "N/A"
)

// StudentStanding summarises a student's position across all enrollments.
type StudentStanding string

const (
	StudentStandingGood  StudentStanding = "GOOD"
	StudentStandingOwing StudentStanding = "OWING"
)

// EnrollmentFinancial is the derived ledger position of a single enrollment.
// It is recomputed from the current snapshot on every read and never persisted.
type EnrollmentFinancial struct {
	EnrollmentID  string          `json:"enrollment_id"`
	StudentID     string          `json:"student_id"`
	CourseID      string          `json:"course_id"`
	CourseName    string          `json:"course_name"`
	MonthsElapsed int             `json:"months_elapsed"`
	ExpectedTotal float64         `json:"expected_total"`
	PaidTotal     float64         `json:"paid_total"`
	Balance       float64         `json:"balance"`
	Overage       float64         `json:"overage"`
	Billable      bool            `json:"billable"`
	Status        FinancialStatus `json:"status"`
}

// StudentFinancialSummary rolls a student's enrollment financials up.
type StudentFinancialSummary struct {
	StudentID    string                `json:"student_id"`
	StudentName  string                `json:"student_name"`
	TotalBalance float64               `json:"total_balance"`
	TotalPaid    float64               `json:"total_paid"`
	TotalOverage float64               `json:"total_overage"`
	Standing     StudentStanding       `json:"standing"`
	Enrollments  []EnrollmentFinancial `json:"enrollments"`
	GeneratedAt  time.Time             `json:"generated_at"`
}

// RevenuePoint is one calendar-month bucket in the revenue series.
type RevenuePoint struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// PortfolioSummary aggregates all payments for admin reporting.
type PortfolioSummary struct {
	Period            string         `json:"period"`
	TotalRevenue      float64        `json:"total_revenue"`
	PendingAmount     float64        `json:"pending_amount"`
	ThisPeriodRevenue float64        `json:"this_period_revenue"`
	AveragePayment    float64        `json:"average_payment"`
	PaidCount         int            `json:"paid_count"`
	Series            []RevenuePoint `json:"series"`
	GeneratedAt       time.Time      `json:"generated_at"`
}

// CourseCompletionStat ranks a course by its share of completed enrollments.
type CourseCompletionStat struct {
	CourseID       string  `json:"course_id"`
	CourseName     string  `json:"course_name"`
	TotalCount     int     `json:"total_count"`
	CompletedCount int     `json:"completed_count"`
	CompletionRate float64 `json:"completion_rate"`
}

// RevenueByStatus is a per-status payment total.
type RevenueByStatus struct {
	Status PaymentStatus `db:"status" json:"status"`
	Amount float64       `db:"amount" json:"amount"`
}

// DashboardStats is the admin overview payload.
type DashboardStats struct {
	TotalStudents     int                `json:"total_students"`
	TotalTeachers     int                `json:"total_teachers"`
	ActiveCourses     int                `json:"active_courses"`
	TotalRevenue      float64            `json:"total_revenue"`
	PendingPayments   int                `json:"pending_payments"`
	RecentEnrollments []EnrollmentDetail `json:"recent_enrollments"`
	GeneratedAt       time.Time          `json:"generated_at"`
}
