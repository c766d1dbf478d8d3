package services

import (
	"testing"

	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(mockRepo)

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		registration := auth.RegisterRequest{
			Name:     "Alice Wonder",
			Username: "alice",
			Email:    "alice@example.com",
			Password: "ComplexPass123!",
		}
		expectedID := domain.Identity("user-uuid")

		// Create receives a hashed password, never the plain one
		mockRepo.EXPECT().
			Create(gomock.Any(), gomock.Not(registration.Password)).
			Return(expectedID, nil).
			Times(1)
		mockRepo.EXPECT().
			GetByID(expectedID).
			Return(domain.User{ID: expectedID, Name: registration.Name, Username: registration.Username}, nil).
			Times(1)

		token, user, err := svc.Register(registration, domain.Attachment{})

		req.NoError(err)
		req.NotEmpty(token)
		req.Equal(expectedID, user.ID)
	})

	t.Run("should fail when password complexity is not met", func(t *testing.T) {
		req := require.New(t)
		registration := auth.RegisterRequest{
			Name:     "Alice Wonder",
			Username: "alice",
			Email:    "alice@example.com",
			Password: "alllowercasebutlong",
		}

		// Repository should NEVER be called
		mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		token, _, err := svc.Register(registration, domain.Attachment{})

		req.ErrorIs(err, errors.ErrInvalidPassword)
		req.Empty(token)
	})

	t.Run("should fail when username is already taken", func(t *testing.T) {
		req := require.New(t)
		registration := auth.RegisterRequest{
			Name:     "Other Alice",
			Username: "alice",
			Email:    "other@example.com",
			Password: "ComplexPass123!",
		}

		mockRepo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			Return(domain.Identity(""), errors.ErrUserAlreadyExists).
			Times(1)

		_, _, err := svc.Register(registration, domain.Attachment{})

		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(mockRepo)

	password := "ComplexPass123!"
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	alice := domain.User{ID: "alice-id", Name: "Alice", Username: "alice"}

	t.Run("should login successfully with correct credentials", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetByUsername("alice").
			Return(alice, hash, nil).
			Times(1)

		token, user, err := svc.Login(auth.LoginRequest{Username: "alice", Password: password})

		req.NoError(err)
		req.NotEmpty(token)
		req.Equal(alice.ID, user.ID)

		// The issued token resolves back to the same identity
		id, err := auth.ValidateToken(token.String())
		req.NoError(err)
		req.Equal(alice.ID, id)
	})

	t.Run("should fail with a wrong password", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetByUsername("alice").
			Return(alice, hash, nil).
			Times(1)

		_, _, err := svc.Login(auth.LoginRequest{Username: "alice", Password: "WrongPass123!"})

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("should return the same generic error for unknown users", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			GetByUsername("nobody").
			Return(domain.User{}, "", errors.ErrUserNotFound).
			Times(1)

		_, _, err := svc.Login(auth.LoginRequest{Username: "nobody", Password: password})

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})
}
