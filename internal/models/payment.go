package models

import "time"

// PaymentStatus represents the confirmation state of a payment.
type PaymentStatus string

// Payment confirmation states. Only PAID reduces an enrollment's balance.
const (
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPartial PaymentStatus = "PARTIAL"
)

// Payment records money received (or expected) against an enrollment.
type Payment struct {
	ID           string        `db:"id" json:"id"`
	EnrollmentID string        `db:"enrollment_id" json:"enrollment_id"`
	Amount       float64       `db:"amount" json:"amount"`
	Status       PaymentStatus `db:"status" json:"status"`
	PaymentDate  *time.Time    `db:"payment_date" json:"payment_date,omitempty"`
	Notes        *string       `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// PaymentDetail enriches Payment with student and course display names.
type PaymentDetail struct {
	Payment
	StudentName string `db:"student_name" json:"student_name"`
	CourseName  string `db:"course_name" json:"course_name"`
}

// PaymentFilter provides filters for listing payments.
type PaymentFilter struct {
	EnrollmentID string
	Status       PaymentStatus
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
