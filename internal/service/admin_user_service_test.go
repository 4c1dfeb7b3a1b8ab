package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/evalia-api/internal/dto"
	"github.com/noah-isme/evalia-api/internal/models"
)

func seedUsers(t *testing.T, users *memoryUserRepo) {
	t.Helper()

	for _, user := range []models.User{
		{Email: "prof@example.edu", FirstName: "Pierre", LastName: "Curie", Role: models.RoleProfessor, Active: true},
		{Email: "student@example.edu", FirstName: "Ada", LastName: "Lovelace", Role: models.RoleStudent, Active: true},
		{Email: "inactive@example.edu", FirstName: "Old", LastName: "Account", Role: models.RoleStudent, Active: false},
	} {
		seed := user
		require.NoError(t, users.CreateWithProfile(context.Background(), &seed))
	}
}

func TestAdminUserListFilters(t *testing.T) {
	users := newMemoryUserRepo()
	seedUsers(t, users)
	svc := NewAdminUserService(users, validator.New(), zerolog.Nop())

	all, err := svc.List(context.Background(), dto.UserFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	role := models.RoleStudent
	students, err := svc.List(context.Background(), dto.UserFilter{Role: &role})
	require.NoError(t, err)
	require.Len(t, students, 2)

	active := true
	search := "ada"
	found, err := svc.List(context.Background(), dto.UserFilter{Active: &active, Search: &search})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "student@example.edu", found[0].Email)
}

func TestAdminUserUpdate(t *testing.T) {
	users := newMemoryUserRepo()
	seedUsers(t, users)
	svc := NewAdminUserService(users, validator.New(), zerolog.Nop())

	inactive := false
	role := models.RoleProfessor

	response, err := svc.Update(context.Background(), 2, dto.UserUpdateRequest{Role: &role, Active: &inactive})
	require.NoError(t, err)
	require.Equal(t, models.RoleProfessor, response.Role)
	require.False(t, response.Active)

	_, err = svc.Update(context.Background(), 404, dto.UserUpdateRequest{Role: &role})
	require.ErrorIs(t, err, ErrUserNotFound)

	badRole := "superuser"
	_, err = svc.Update(context.Background(), 2, dto.UserUpdateRequest{Role: &badRole})
	require.Error(t, err)
}

func TestAdminUserDelete(t *testing.T) {
	users := newMemoryUserRepo()
	seedUsers(t, users)
	svc := NewAdminUserService(users, validator.New(), zerolog.Nop())

	require.NoError(t, svc.Delete(context.Background(), 3))
	require.ErrorIs(t, svc.Delete(context.Background(), 3), ErrUserNotFound)

	remaining, err := svc.List(context.Background(), dto.UserFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 2)
}
