package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestPaymentListByEnrollment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "enrollment_id", "amount", "status", "payment_date", "notes", "created_at"}).
		AddRow("p1", "e1", 100.0, string(models.PaymentStatusPaid), now, nil, now).
		AddRow("p2", "e1", 50.0, string(models.PaymentStatusPending), nil, nil, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, enrollment_id, amount, status, payment_date, notes, created_at FROM payments WHERE enrollment_id = $1 ORDER BY created_at ASC")).
		WithArgs("e1").
		WillReturnRows(rows)

	payments, err := repo.ListByEnrollment(context.Background(), "e1")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, models.PaymentStatusPaid, payments[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectExec("INSERT INTO payments").WillReturnResult(sqlmock.NewResult(1, 1))

	payment := &models.Payment{EnrollmentID: "e1", Amount: 100, Status: models.PaymentStatusPaid}
	err := repo.Create(context.Background(), payment)
	require.NoError(t, err)
	assert.NotEmpty(t, payment.ID)
	assert.False(t, payment.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	now := time.Now()
	listRows := sqlmock.NewRows([]string{"id", "enrollment_id", "amount", "status", "payment_date", "notes", "created_at", "student_name", "course_name"}).
		AddRow("p1", "e1", 100.0, string(models.PaymentStatusPaid), now, nil, now, "Ada Uche", "Spanish A1")
	mock.ExpectQuery("SELECT p.id, p.enrollment_id, p.amount, p.status").WillReturnRows(listRows)

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(countRows)

	payments, total, err := repo.List(context.Background(), models.PaymentFilter{Status: models.PaymentStatusPaid})
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Ada Uche", payments[0].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentSumByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	rows := sqlmock.NewRows([]string{"status", "amount"}).
		AddRow(string(models.PaymentStatusPaid), 500.0).
		AddRow(string(models.PaymentStatusPending), 120.0)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COALESCE(SUM(amount), 0) AS amount FROM payments GROUP BY status")).
		WillReturnRows(rows)

	totals, err := repo.SumByStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, 500.0, totals[0].Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
