package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-billing-api/internal/models"
	"github.com/noah-isme/academy-billing-api/internal/service"
)

type fakePaymentRepo struct {
	payments map[string][]models.Payment
	created  *models.Payment
}

func (f *fakePaymentRepo) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	return nil, 0, nil
}

func (f *fakePaymentRepo) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	return nil, sql.ErrNoRows
}

func (f *fakePaymentRepo) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Payment, error) {
	return f.payments[enrollmentID], nil
}

func (f *fakePaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	f.created = payment
	return nil
}

func (f *fakePaymentRepo) Update(ctx context.Context, payment *models.Payment) error {
	return nil
}

type fakePaymentEnrollments struct {
	enrollments map[string]models.Enrollment
}

func (f *fakePaymentEnrollments) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := f.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

type fakePaymentCourses struct {
	courses map[string]models.Course
}

func (f *fakePaymentCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := f.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

// one month of history at $100, nothing paid yet
func newPaymentHandler() (*PaymentHandler, *fakePaymentRepo) {
	now := time.Now().UTC()
	enrolledAt := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	repo := &fakePaymentRepo{payments: map[string][]models.Payment{}}
	svc := service.NewPaymentService(
		repo,
		&fakePaymentEnrollments{enrollments: map[string]models.Enrollment{
			"e1": {ID: "e1", StudentID: "s1", CourseID: "c1", EnrolledAt: enrolledAt, Status: models.EnrollmentStatusActive},
		}},
		&fakePaymentCourses{courses: map[string]models.Course{
			"c1": {ID: "c1", Name: "Spanish A1", Price: 100, Active: true},
		}},
		nil, nil, nil, nil,
	)
	return NewPaymentHandler(svc), repo
}

func postJSON(t *testing.T, payload interface{}) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return rec, c
}

func TestPaymentHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newPaymentHandler()

	rec, c := postJSON(t, service.RecordPaymentRequest{
		EnrollmentID: "e1",
		Amount:       100,
		Status:       models.PaymentStatusPaid,
	})
	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, repo.created)
	assert.Equal(t, 100.0, repo.created.Amount)
}

func TestPaymentHandlerCreateExceedsBalance(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, repo := newPaymentHandler()

	rec, c := postJSON(t, service.RecordPaymentRequest{
		EnrollmentID: "e1",
		Amount:       150,
		Status:       models.PaymentStatusPaid,
	})
	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, repo.created)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "EXCEEDS_BALANCE", envelope.Error["code"])
}

func TestPaymentHandlerCreateBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newPaymentHandler()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/payments", bytes.NewReader([]byte("{")))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
