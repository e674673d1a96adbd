package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-billing-api/internal/billing"
	"github.com/noah-isme/academy-billing-api/internal/models"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
)

type billingEnrollmentRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
}

type billingPaymentRepository interface {
	ListAll(ctx context.Context) ([]models.Payment, error)
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Payment, error)
}

type billingCourseRepository interface {
	ListAll(ctx context.Context) ([]models.Course, error)
}

type billingUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// BillingService derives financial projections from the current
// enrollment and payment snapshot. Nothing it returns is ever persisted;
// a stale number costs one recomputation, never a correction.
type BillingService struct {
	enrollments billingEnrollmentRepository
	payments    billingPaymentRepository
	courses     billingCourseRepository
	users       billingUserRepository
	cache       *CacheService
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewBillingService creates a BillingService.
func NewBillingService(enrollments billingEnrollmentRepository, payments billingPaymentRepository, courses billingCourseRepository, users billingUserRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *BillingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingService{
		enrollments: enrollments,
		payments:    payments,
		courses:     courses,
		users:       users,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// StudentFinancials computes the per-enrollment ledger and rolled-up
// summary for one student. The boolean reports whether the result came
// from cache.
func (s *BillingService) StudentFinancials(ctx context.Context, studentID string) (*models.StudentFinancialSummary, bool, error) {
	cacheKey := "billing:student:" + studentID
	if s.cache != nil {
		var cached models.StudentFinancialSummary
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, true, nil
		}
	}

	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "user is not a student")
	}

	enrollments, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	coursesByID, err := s.courseIndex(ctx)
	if err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()
	var report billing.Report
	entries := make([]models.EnrollmentFinancial, 0, len(enrollments))
	for _, enrollment := range enrollments {
		payments, err := s.payments.ListByEnrollment(ctx, enrollment.ID)
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
		}
		entries = append(entries, billing.ProjectEnrollment(enrollment, coursesByID[enrollment.CourseID], payments, now, &report))
	}

	summary := billing.ProjectStudent(studentID, student.FullName, entries)
	s.logAnomalies("student financials", &report)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache student financials", zap.String("student_id", studentID), zap.Error(err))
		}
	}

	return &summary, false, nil
}

// Portfolio aggregates all payments into revenue totals and a dense
// monthly series for the requested period.
func (s *BillingService) Portfolio(ctx context.Context, rawPeriod string) (*models.PortfolioSummary, bool, error) {
	period := billing.ParsePeriod(rawPeriod)

	cacheKey := "billing:portfolio:" + string(period)
	if s.cache != nil {
		var cached models.PortfolioSummary
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, true, nil
		}
	}

	summary, err := s.computePortfolio(ctx, period)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache portfolio", zap.String("period", string(period)), zap.Error(err))
		}
	}

	return summary, false, nil
}

// WarmPortfolioCache recomputes and caches the portfolio for every known
// period. Used by the background queue after payment writes.
func (s *BillingService) WarmPortfolioCache(ctx context.Context) error {
	if s.cache == nil || !s.cache.Enabled() {
		return nil
	}
	for _, period := range []billing.Period{billing.Period30Days, billing.Period6Months, billing.Period1Year, billing.PeriodAll} {
		summary, err := s.computePortfolio(ctx, period)
		if err != nil {
			return err
		}
		if err := s.cache.Set(ctx, "billing:portfolio:"+string(period), summary, s.cacheTTL); err != nil {
			return err
		}
	}
	return nil
}

func (s *BillingService) computePortfolio(ctx context.Context, period billing.Period) (*models.PortfolioSummary, error) {
	payments, err := s.payments.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payments")
	}

	var report billing.Report
	summary := billing.ProjectPortfolio(payments, period, time.Now().UTC(), &report)
	s.logAnomalies("portfolio", &report)

	return &summary, nil
}

func (s *BillingService) courseIndex(ctx context.Context) (map[string]*models.Course, error) {
	courses, err := s.courses.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	index := make(map[string]*models.Course, len(courses))
	for i := range courses {
		index[courses[i].ID] = &courses[i]
	}
	return index, nil
}

func (s *BillingService) logAnomalies(scope string, report *billing.Report) {
	for _, a := range report.Anomalies {
		s.logger.Warn("billing anomaly", zap.String("scope", scope), zap.String("detail", a))
	}
}
