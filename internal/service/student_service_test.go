package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studynotes-api/internal/dto"
	"github.com/noah-isme/studynotes-api/internal/repository"
	appErrors "github.com/noah-isme/studynotes-api/pkg/errors"
)

func TestStudentServiceRegister(t *testing.T) {
	repo := newStudentStoreStub()
	svc := NewStudentService(repo, nil, nil)

	student, err := svc.Register(context.Background(), dto.RegisterStudentRequest{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.Equal(t, student.ID, student.LegacyID)
	assert.NotNil(t, student.Enrollments)
}

func TestStudentServiceRegisterDuplicateEmail(t *testing.T) {
	repo := newStudentStoreStub()
	svc := NewStudentService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, dto.RegisterStudentRequest{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, dto.RegisterStudentRequest{Name: "Other Ada", Email: "ada@example.com"})
	require.ErrorIs(t, err, appErrors.ErrDuplicateEmail)
	assert.Equal(t, "Email already exists", appErrors.FromError(err).Message)
	assert.Len(t, repo.students, 1)
}

func TestStudentServiceRegisterRaceMapsDuplicate(t *testing.T) {
	repo := newStudentStoreStub()
	repo.createErr = repository.ErrDuplicate
	svc := NewStudentService(repo, nil, nil)

	_, err := svc.Register(context.Background(), dto.RegisterStudentRequest{Name: "Ada", Email: "ada@example.com"})
	require.ErrorIs(t, err, appErrors.ErrDuplicateEmail)
}

func TestStudentServiceRegisterValidation(t *testing.T) {
	svc := NewStudentService(newStudentStoreStub(), nil, nil)

	_, err := svc.Register(context.Background(), dto.RegisterStudentRequest{Email: "ada@example.com"})
	appErr := requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "name is required", appErr.Message)

	_, err = svc.Register(context.Background(), dto.RegisterStudentRequest{Name: "Ada", Email: "not-an-email"})
	appErr = requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "email must be a valid email", appErr.Message)
}

func TestStudentServiceGetNotFound(t *testing.T) {
	svc := NewStudentService(newStudentStoreStub(), nil, nil)
	_, err := svc.Get(context.Background(), "student-missing")
	appErr := requireStatus(t, err, http.StatusNotFound)
	assert.Equal(t, "Student not found", appErr.Message)
}
