package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-billing-api/internal/models"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
	"github.com/noah-isme/academy-billing-api/pkg/jobs"
)

type mockPaymentRepo struct {
	payments map[string][]models.Payment
	byID     map[string]models.Payment
	created  *models.Payment
	updated  *models.Payment
}

func (m *mockPaymentRepo) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	if p, ok := m.byID[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPaymentRepo) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Payment, error) {
	return m.payments[enrollmentID], nil
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	m.created = payment
	m.payments[payment.EnrollmentID] = append(m.payments[payment.EnrollmentID], *payment)
	return nil
}

func (m *mockPaymentRepo) Update(ctx context.Context, payment *models.Payment) error {
	m.updated = payment
	return nil
}

type mockQueue struct {
	enqueued []jobs.Job
}

func (m *mockQueue) Enqueue(job jobs.Job) error {
	m.enqueued = append(m.enqueued, job)
	return nil
}

// enrolled on the first of the month three months back, so four billing
// months have accrued at $100 each.
func newPaymentFixture() (*PaymentService, *mockPaymentRepo, *mockQueue) {
	now := time.Now().UTC()
	enrolledAt := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -3, 0)

	enrollments := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"e1": {ID: "e1", StudentID: "s1", CourseID: "c1", EnrolledAt: enrolledAt, Status: models.EnrollmentStatusActive},
	}}
	courses := &mockCourseRepo{courses: map[string]models.Course{
		"c1": {ID: "c1", Name: "Spanish A1", Price: 100, Active: true},
	}}
	repo := &mockPaymentRepo{
		payments: map[string][]models.Payment{
			"e1": {{ID: "p1", EnrollmentID: "e1", Amount: 150, Status: models.PaymentStatusPaid}},
		},
		byID: map[string]models.Payment{
			"p1": {ID: "p1", EnrollmentID: "e1", Amount: 150, Status: models.PaymentStatusPaid},
		},
	}
	queue := &mockQueue{}
	svc := NewPaymentService(repo, enrollments, courses, nil, queue, nil, nil)
	return svc, repo, queue
}

func TestPaymentRecordWithinBalance(t *testing.T) {
	svc, repo, queue := newPaymentFixture()

	// expected 400, paid 150, balance 250
	payment, err := svc.Record(context.Background(), RecordPaymentRequest{
		EnrollmentID: "e1",
		Amount:       250,
		Status:       models.PaymentStatusPaid,
	})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, 250.0, payment.Amount)
	assert.NotNil(t, payment.PaymentDate, "confirming a payment stamps its date")
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, JobTypePortfolioRefresh, queue.enqueued[0].Type)
}

func TestPaymentRecordExceedsBalance(t *testing.T) {
	svc, repo, _ := newPaymentFixture()

	_, err := svc.Record(context.Background(), RecordPaymentRequest{
		EnrollmentID: "e1",
		Amount:       300,
		Status:       models.PaymentStatusPaid,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrExceedsBalance.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestPaymentRecordEpsilonTolerance(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	_, err := svc.Record(context.Background(), RecordPaymentRequest{
		EnrollmentID: "e1",
		Amount:       250.01,
		Status:       models.PaymentStatusPaid,
	})
	assert.NoError(t, err)
}

func TestPaymentRecordPendingWithinBalance(t *testing.T) {
	svc, repo, _ := newPaymentFixture()

	payment, err := svc.Record(context.Background(), RecordPaymentRequest{
		EnrollmentID: "e1",
		Amount:       250,
		Status:       models.PaymentStatusPending,
	})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Nil(t, payment.PaymentDate, "pending payments carry no confirmation date")
}

func TestPaymentRecordPendingExceedsBalance(t *testing.T) {
	svc, repo, _ := newPaymentFixture()

	// the ceiling applies before persistence regardless of status
	_, err := svc.Record(context.Background(), RecordPaymentRequest{
		EnrollmentID: "e1",
		Amount:       1000,
		Status:       models.PaymentStatusPending,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrExceedsBalance.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestPaymentRecordUnknownEnrollment(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	_, err := svc.Record(context.Background(), RecordPaymentRequest{
		EnrollmentID: "missing",
		Amount:       50,
		Status:       models.PaymentStatusPaid,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPaymentUpdateConfirmExcludesSelf(t *testing.T) {
	svc, repo, _ := newPaymentFixture()
	// flip the existing payment to pending so only its own amount counts
	pending := repo.byID["p1"]
	pending.Status = models.PaymentStatusPending
	repo.byID["p1"] = pending
	repo.payments["e1"] = []models.Payment{pending}

	// expected 400, nothing confirmed yet; confirming 400 is allowed even
	// though the stored row carries 150
	payment, err := svc.Update(context.Background(), "p1", UpdatePaymentRequest{
		Amount: 400,
		Status: models.PaymentStatusPaid,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, payment.Status)
	assert.NotNil(t, payment.PaymentDate)
	require.NotNil(t, repo.updated)
}

func TestPaymentUpdateExceedsBalance(t *testing.T) {
	svc, _, _ := newPaymentFixture()

	_, err := svc.Update(context.Background(), "p1", UpdatePaymentRequest{
		Amount: 500,
		Status: models.PaymentStatusPaid,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrExceedsBalance.Code, appErrors.FromError(err).Code)
}
