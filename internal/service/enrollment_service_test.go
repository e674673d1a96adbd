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
)

type mockEnrollmentRepo struct {
	enrollments map[string]models.Enrollment
	active      map[string]bool
	created     *models.Enrollment
	status      map[string]models.EnrollmentStatus
	progress    map[string]float64
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if e, ok := m.enrollments[id]; ok {
		return &models.EnrollmentDetail{Enrollment: e}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) ExistsActive(ctx context.Context, studentID, courseID string) (bool, error) {
	return m.active[studentID+"/"+courseID], nil
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.Enrollment)
	}
	if enrollment.ID == "" {
		enrollment.ID = "new-enrollment"
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusActive
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	m.enrollments[enrollment.ID] = *enrollment
	m.created = enrollment
	return nil
}

func (m *mockEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	if m.status == nil {
		m.status = make(map[string]models.EnrollmentStatus)
	}
	m.status[id] = status
	return nil
}

func (m *mockEnrollmentRepo) UpdateProgress(ctx context.Context, id string, progress float64) error {
	if m.progress == nil {
		m.progress = make(map[string]float64)
	}
	m.progress[id] = progress
	return nil
}

type mockCourseRepo struct {
	courses  map[string]models.Course
	enrolled map[string]int
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) CountActiveEnrollments(ctx context.Context, courseID string) (int, error) {
	return m.enrolled[courseID], nil
}

type mockUserRepo struct {
	users map[string]models.User
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func newEnrollmentFixture() (*EnrollmentService, *mockEnrollmentRepo, *mockCourseRepo, *mockUserRepo) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{}, active: map[string]bool{}}
	courses := &mockCourseRepo{
		courses: map[string]models.Course{
			"c1": {ID: "c1", Name: "Spanish A1", Price: 100, Capacity: 2, Active: true},
		},
		enrolled: map[string]int{},
	}
	users := &mockUserRepo{
		users: map[string]models.User{
			"s1": {ID: "s1", FullName: "Ada Uche", Role: models.RoleStudent, Active: true},
			"t1": {ID: "t1", FullName: "Marta Diaz", Role: models.RoleTeacher, Active: true},
		},
	}
	svc := NewEnrollmentService(repo, courses, users, nil, nil, nil)
	return svc, repo, courses, users
}

func TestEnrollmentCreate(t *testing.T) {
	svc, repo, _, _ := newEnrollmentFixture()

	enrollment, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: "s1", CourseID: "c1"})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	assert.Equal(t, "s1", enrollment.StudentID)
}

func TestEnrollmentCreateDuplicateActive(t *testing.T) {
	svc, repo, _, _ := newEnrollmentFixture()
	repo.active["s1/c1"] = true

	_, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: "s1", CourseID: "c1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentCreateCourseFull(t *testing.T) {
	svc, _, courses, _ := newEnrollmentFixture()
	courses.enrolled["c1"] = 2

	_, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: "s1", CourseID: "c1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCourseFull.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentCreateRejectsNonStudent(t *testing.T) {
	svc, _, _, _ := newEnrollmentFixture()

	_, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: "t1", CourseID: "c1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentCreateInactiveCourse(t *testing.T) {
	svc, _, courses, _ := newEnrollmentFixture()
	course := courses.courses["c1"]
	course.Active = false
	courses.courses["c1"] = course

	_, err := svc.Create(context.Background(), CreateEnrollmentRequest{StudentID: "s1", CourseID: "c1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentUpdateStatus(t *testing.T) {
	svc, repo, _, _ := newEnrollmentFixture()
	repo.enrollments["e1"] = models.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1", Status: models.EnrollmentStatusActive}

	enrollment, err := svc.UpdateStatus(context.Background(), "e1", UpdateEnrollmentStatusRequest{Status: models.EnrollmentStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusCompleted, enrollment.Status)
	assert.Equal(t, models.EnrollmentStatusCompleted, repo.status["e1"])
}

func TestEnrollmentUpdateStatusTerminal(t *testing.T) {
	svc, repo, _, _ := newEnrollmentFixture()
	repo.enrollments["e1"] = models.Enrollment{ID: "e1", StudentID: "s1", CourseID: "c1", Status: models.EnrollmentStatusDropped}

	_, err := svc.UpdateStatus(context.Background(), "e1", UpdateEnrollmentStatusRequest{Status: models.EnrollmentStatusCompleted})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentUpdateStatusRejectsActiveTarget(t *testing.T) {
	svc, repo, _, _ := newEnrollmentFixture()
	repo.enrollments["e1"] = models.Enrollment{ID: "e1", Status: models.EnrollmentStatusActive}

	_, err := svc.UpdateStatus(context.Background(), "e1", UpdateEnrollmentStatusRequest{Status: models.EnrollmentStatusActive})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentUpdateProgress(t *testing.T) {
	svc, repo, _, _ := newEnrollmentFixture()
	repo.enrollments["e1"] = models.Enrollment{ID: "e1", Status: models.EnrollmentStatusActive}

	enrollment, err := svc.UpdateProgress(context.Background(), "e1", UpdateEnrollmentProgressRequest{Progress: 65})
	require.NoError(t, err)
	assert.Equal(t, 65.0, enrollment.Progress)
	assert.Equal(t, 65.0, repo.progress["e1"])
}
