package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-billing-api/internal/billing"
	"github.com/noah-isme/academy-billing-api/internal/models"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
	"github.com/noah-isme/academy-billing-api/pkg/jobs"
)

// balanceEpsilon absorbs float rounding when comparing a payment amount
// against the outstanding balance.
const balanceEpsilon = 0.01

// JobTypePortfolioRefresh identifies background cache-warming jobs queued
// after payment writes.
const JobTypePortfolioRefresh = "billing.portfolio.refresh"

type paymentRepository interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
}

type paymentEnrollmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
}

type paymentCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// RecordPaymentRequest is the payload for recording a payment.
type RecordPaymentRequest struct {
	EnrollmentID string               `json:"enrollment_id" validate:"required"`
	Amount       float64              `json:"amount" validate:"required,gt=0"`
	Status       models.PaymentStatus `json:"status" validate:"required,oneof=PAID PENDING PARTIAL"`
	PaymentDate  *time.Time           `json:"payment_date"`
	Notes        *string              `json:"notes"`
}

// UpdatePaymentRequest changes a payment's confirmation state.
type UpdatePaymentRequest struct {
	Amount      float64              `json:"amount" validate:"required,gt=0"`
	Status      models.PaymentStatus `json:"status" validate:"required,oneof=PAID PENDING PARTIAL"`
	PaymentDate *time.Time           `json:"payment_date"`
	Notes       *string              `json:"notes"`
}

// PaymentService records and confirms payments against enrollments.
type PaymentService struct {
	repo        paymentRepository
	enrollments paymentEnrollmentRepository
	courses     paymentCourseRepository
	cache       *CacheService
	queue       jobEnqueuer
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewPaymentService creates a PaymentService.
func NewPaymentService(repo paymentRepository, enrollments paymentEnrollmentRepository, courses paymentCourseRepository, cache *CacheService, queue jobEnqueuer, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &PaymentService{repo: repo, enrollments: enrollments, courses: courses, cache: cache, queue: queue, validator: validate, logger: logger}
}

// List returns paginated payments with display info.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, *models.Pagination, error) {
	payments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return payments, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a payment by ID.
func (s *PaymentService) Get(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return payment, nil
}

// Record stores a new payment. The amount may not exceed the enrollment's
// outstanding balance, whatever the payment status; the balance is re-derived
// from the accrual schedule at the time of the call, never read from a
// stored field.
func (s *PaymentService) Record(ctx context.Context, req RecordPaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	enrollment, err := s.enrollments.FindByID(ctx, req.EnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	balance, err := s.currentBalance(ctx, enrollment, "")
	if err != nil {
		return nil, err
	}
	if req.Amount > balance+balanceEpsilon {
		return nil, appErrors.Clone(appErrors.ErrExceedsBalance, "payment amount exceeds balance due")
	}

	payment := &models.Payment{
		ID:           uuid.NewString(),
		EnrollmentID: req.EnrollmentID,
		Amount:       billing.Round2(req.Amount),
		Status:       req.Status,
		PaymentDate:  req.PaymentDate,
		Notes:        req.Notes,
	}
	if payment.Status == models.PaymentStatusPaid && payment.PaymentDate == nil {
		now := time.Now().UTC()
		payment.PaymentDate = &now
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	s.afterWrite(ctx, enrollment.StudentID)

	return payment, nil
}

// Update changes a payment's amount, status, date or notes. Confirming a
// payment as PAID re-checks the balance ceiling, excluding the payment
// itself from the paid total.
func (s *PaymentService) Update(ctx context.Context, id string, req UpdatePaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}

	enrollment, err := s.enrollments.FindByID(ctx, payment.EnrollmentID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	if req.Status == models.PaymentStatusPaid && enrollment != nil {
		balance, err := s.currentBalance(ctx, enrollment, payment.ID)
		if err != nil {
			return nil, err
		}
		if req.Amount > balance+balanceEpsilon {
			return nil, appErrors.Clone(appErrors.ErrExceedsBalance, "payment amount exceeds balance due")
		}
	}

	payment.Amount = billing.Round2(req.Amount)
	payment.Status = req.Status
	payment.PaymentDate = req.PaymentDate
	payment.Notes = req.Notes
	if payment.Status == models.PaymentStatusPaid && payment.PaymentDate == nil {
		now := time.Now().UTC()
		payment.PaymentDate = &now
	}

	if err := s.repo.Update(ctx, payment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment")
	}

	if enrollment != nil {
		s.afterWrite(ctx, enrollment.StudentID)
	}

	return payment, nil
}

// currentBalance derives the outstanding balance for an enrollment,
// optionally excluding one payment from the paid total.
func (s *PaymentService) currentBalance(ctx context.Context, enrollment *models.Enrollment, excludePaymentID string) (float64, error) {
	course, err := s.courses.FindByID(ctx, enrollment.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			course = nil
		} else {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
	}

	payments, err := s.repo.ListByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}
	if excludePaymentID != "" {
		filtered := payments[:0]
		for _, p := range payments {
			if p.ID != excludePaymentID {
				filtered = append(filtered, p)
			}
		}
		payments = filtered
	}

	var report billing.Report
	accrual := billing.ComputeAccrual(*enrollment, course, time.Now().UTC(), &report)
	if !accrual.Billable {
		// Unpriced enrollments carry no liability, so a strict ceiling
		// would reject every payment. Accept them instead.
		return unboundedBalance, nil
	}

	var price float64
	if course != nil {
		price = course.Price
	}
	ledger := billing.ComputeLedger(enrollment.ID, payments, accrual.ExpectedTotal, price, &report)
	for _, a := range report.Anomalies {
		s.logger.Warn("billing anomaly during balance check", zap.String("enrollment_id", enrollment.ID), zap.String("anomaly", a))
	}

	return ledger.Balance, nil
}

// unboundedBalance is the effective ceiling for non-billable enrollments.
const unboundedBalance = 1e12

func (s *PaymentService) afterWrite(ctx context.Context, studentID string) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, "billing:student:"+studentID); err != nil {
			s.logger.Warn("failed to invalidate student billing cache", zap.String("student_id", studentID), zap.Error(err))
		}
		if err := s.cache.Invalidate(ctx, "billing:portfolio:*"); err != nil {
			s.logger.Warn("failed to invalidate portfolio cache", zap.Error(err))
		}
	}

	if s.queue != nil {
		job := jobs.Job{
			ID:      uuid.NewString(),
			Type:    JobTypePortfolioRefresh,
			Payload: studentID,
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to enqueue portfolio refresh", zap.Error(err))
		}
	}
}
