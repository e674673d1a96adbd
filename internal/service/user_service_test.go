package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/academy-billing-api/internal/models"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
)

type mockUserCRUDRepo struct {
	users   map[string]models.User
	deleted []string
}

func (m *mockUserCRUDRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (m *mockUserCRUDRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserCRUDRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserCRUDRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[string]models.User)
	}
	m.users[user.ID] = *user
	return nil
}

func (m *mockUserCRUDRepo) Update(ctx context.Context, user *models.User) error {
	m.users[user.ID] = *user
	return nil
}

func (m *mockUserCRUDRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func TestUserCreateHashesPassword(t *testing.T) {
	repo := &mockUserCRUDRepo{}
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "Student@Academy.Test",
		FullName: "Ada Uche",
		Role:     models.RoleStudent,
		Active:   true,
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "student@academy.test", user.Email, "emails are stored lowercase")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	repo := &mockUserCRUDRepo{users: map[string]models.User{
		"u1": {ID: "u1", Email: "taken@academy.test"},
	}}
	svc := NewUserService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "taken@academy.test",
		FullName: "Someone Else",
		Role:     models.RoleStudent,
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserUpdate(t *testing.T) {
	repo := &mockUserCRUDRepo{users: map[string]models.User{
		"u1": {ID: "u1", Email: "a@academy.test", FullName: "Old Name", Role: models.RoleStudent, Active: true},
	}}
	svc := NewUserService(repo, nil, nil)

	inactive := false
	user, err := svc.Update(context.Background(), "u1", UpdateUserRequest{
		FullName: "New Name",
		Role:     models.RoleTeacher,
		Active:   &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", user.FullName)
	assert.Equal(t, models.RoleTeacher, user.Role)
	assert.False(t, user.Active)
}

func TestUserDeleteMissing(t *testing.T) {
	svc := NewUserService(&mockUserCRUDRepo{}, nil, nil)

	err := svc.Delete(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
