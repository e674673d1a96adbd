package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

type mockDashboardUsers struct {
	counts map[models.UserRole]int
}

func (m *mockDashboardUsers) CountActiveByRole(ctx context.Context, role models.UserRole) (int, error) {
	return m.counts[role], nil
}

type mockDashboardCourses struct {
	active  int
	courses []models.Course
}

func (m *mockDashboardCourses) CountActive(ctx context.Context) (int, error) {
	return m.active, nil
}

func (m *mockDashboardCourses) ListAll(ctx context.Context) ([]models.Course, error) {
	return m.courses, nil
}

type mockDashboardEnrollments struct {
	recent []models.EnrollmentDetail
	all    []models.Enrollment
}

func (m *mockDashboardEnrollments) ListRecent(ctx context.Context, limit int) ([]models.EnrollmentDetail, error) {
	if len(m.recent) > limit {
		return m.recent[:limit], nil
	}
	return m.recent, nil
}

func (m *mockDashboardEnrollments) ListAll(ctx context.Context) ([]models.Enrollment, error) {
	return m.all, nil
}

type mockDashboardPayments struct {
	paidTotal float64
	pending   int
	byStatus  []models.RevenueByStatus
}

func (m *mockDashboardPayments) SumPaid(ctx context.Context) (float64, error) {
	return m.paidTotal, nil
}

func (m *mockDashboardPayments) CountByStatus(ctx context.Context, status models.PaymentStatus) (int, error) {
	return m.pending, nil
}

func (m *mockDashboardPayments) SumByStatus(ctx context.Context) ([]models.RevenueByStatus, error) {
	return m.byStatus, nil
}

func TestDashboardStats(t *testing.T) {
	users := &mockDashboardUsers{counts: map[models.UserRole]int{
		models.RoleStudent: 42,
		models.RoleTeacher: 7,
	}}
	courses := &mockDashboardCourses{active: 5}
	enrollments := &mockDashboardEnrollments{recent: []models.EnrollmentDetail{
		{Enrollment: models.Enrollment{ID: "e1", EnrolledAt: time.Now()}},
	}}
	payments := &mockDashboardPayments{paidTotal: 1234.567, pending: 3}

	svc := NewDashboardService(users, courses, enrollments, payments, nil, nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, stats.TotalStudents)
	assert.Equal(t, 7, stats.TotalTeachers)
	assert.Equal(t, 5, stats.ActiveCourses)
	assert.Equal(t, 1234.57, stats.TotalRevenue)
	assert.Equal(t, 3, stats.PendingPayments)
	assert.Len(t, stats.RecentEnrollments, 1)
}

func TestDashboardCompletionLeaderboard(t *testing.T) {
	courses := &mockDashboardCourses{courses: []models.Course{
		{ID: "c1", Name: "Spanish A1"},
		{ID: "c2", Name: "Spanish A2"},
	}}
	enrollments := &mockDashboardEnrollments{all: []models.Enrollment{
		{ID: "e1", CourseID: "c1", Status: models.EnrollmentStatusCompleted},
		{ID: "e2", CourseID: "c1", Status: models.EnrollmentStatusActive},
		{ID: "e3", CourseID: "c2", Status: models.EnrollmentStatusCompleted},
	}}

	svc := NewDashboardService(&mockDashboardUsers{}, courses, enrollments, &mockDashboardPayments{}, nil, nil)

	stats, err := svc.CompletionLeaderboard(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "Spanish A2", stats[0].CourseName)
	assert.Equal(t, 100.0, stats[0].CompletionRate)
	assert.Equal(t, 50.0, stats[1].CompletionRate)
}

func TestDashboardRevenueByStatus(t *testing.T) {
	payments := &mockDashboardPayments{byStatus: []models.RevenueByStatus{
		{Status: models.PaymentStatusPaid, Amount: 500.006},
		{Status: models.PaymentStatusPending, Amount: 120},
	}}

	svc := NewDashboardService(&mockDashboardUsers{}, &mockDashboardCourses{}, &mockDashboardEnrollments{}, payments, nil, nil)

	totals, err := svc.RevenueByStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, 500.01, totals[0].Amount)
}
