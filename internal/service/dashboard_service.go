package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-billing-api/internal/billing"
	"github.com/noah-isme/academy-billing-api/internal/models"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
)

type dashboardUserRepository interface {
	CountActiveByRole(ctx context.Context, role models.UserRole) (int, error)
}

type dashboardCourseRepository interface {
	CountActive(ctx context.Context) (int, error)
	ListAll(ctx context.Context) ([]models.Course, error)
}

type dashboardEnrollmentRepository interface {
	ListRecent(ctx context.Context, limit int) ([]models.EnrollmentDetail, error)
	ListAll(ctx context.Context) ([]models.Enrollment, error)
}

type dashboardPaymentRepository interface {
	SumPaid(ctx context.Context) (float64, error)
	CountByStatus(ctx context.Context, status models.PaymentStatus) (int, error)
	SumByStatus(ctx context.Context) ([]models.RevenueByStatus, error)
}

// DashboardService assembles the admin overview and statistics payloads.
type DashboardService struct {
	users       dashboardUserRepository
	courses     dashboardCourseRepository
	enrollments dashboardEnrollmentRepository
	payments    dashboardPaymentRepository
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewDashboardService creates a DashboardService.
func NewDashboardService(users dashboardUserRepository, courses dashboardCourseRepository, enrollments dashboardEnrollmentRepository, payments dashboardPaymentRepository, metrics *MetricsService, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		users:       users,
		courses:     courses,
		enrollments: enrollments,
		payments:    payments,
		metrics:     metrics,
		logger:      logger,
	}
}

// Stats builds the dashboard overview.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	students, err := s.users.CountActiveByRole(ctx, models.RoleStudent)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}

	teachers, err := s.users.CountActiveByRole(ctx, models.RoleTeacher)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
	}

	activeCourses, err := s.courses.CountActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count courses")
	}

	revenue, err := s.payments.SumPaid(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum revenue")
	}

	pending, err := s.payments.CountByStatus(ctx, models.PaymentStatusPending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending payments")
	}

	recent, err := s.enrollments.ListRecent(ctx, 5)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recent enrollments")
	}

	return &models.DashboardStats{
		TotalStudents:     students,
		TotalTeachers:     teachers,
		ActiveCourses:     activeCourses,
		TotalRevenue:      billing.Round2(revenue),
		PendingPayments:   pending,
		RecentEnrollments: recent,
		GeneratedAt:       time.Now().UTC(),
	}, nil
}

// RevenueByStatus returns per-status payment totals.
func (s *DashboardService) RevenueByStatus(ctx context.Context) ([]models.RevenueByStatus, error) {
	totals, err := s.payments.SumByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum payments by status")
	}
	for i := range totals {
		totals[i].Amount = billing.Round2(totals[i].Amount)
	}
	return totals, nil
}

// CompletionLeaderboard ranks the top courses by completion rate.
func (s *DashboardService) CompletionLeaderboard(ctx context.Context) ([]models.CourseCompletionStat, error) {
	enrollments, err := s.enrollments.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	courses, err := s.courses.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	names := make(map[string]string, len(courses))
	for _, c := range courses {
		names[c.ID] = c.Name
	}

	return billing.CompletionLeaderboard(enrollments, names, 5), nil
}

// SystemMetrics exposes instrumentation counters for admins.
func (s *DashboardService) SystemMetrics() models.SystemMetrics {
	return s.metrics.Snapshot()
}
