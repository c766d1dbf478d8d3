package services

import (
	"fmt"
	"time"

	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/repositories"
)

type IAuthService interface {
	Register(req auth.RegisterRequest, avatar domain.Attachment) (Token, domain.User, error)
	Login(req auth.LoginRequest) (Token, domain.User, error)
	Profile(id domain.Identity) (domain.User, error)
}

type AuthService struct {
	userRepository repositories.IUserRepository
}

type Token string

func (t Token) String() string {
	return string(t)
}

// sessionLifetime mirrors the cookie max age, a token never outlives its
// cookie.
const sessionLifetime = auth.SessionMaxAge * time.Second

func NewAuthService(repo repositories.IUserRepository) IAuthService {
	return &AuthService{userRepository: repo}
}

func (s *AuthService) Register(req auth.RegisterRequest, avatar domain.Attachment) (Token, domain.User, error) {
	// Business rules first (email format, password complexity), before any
	// expensive cryptographic operation.
	if err := auth.ValidateRegister(req); err != nil {
		return "", domain.User{}, fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// Hashing happens in the service layer to keep the repository unaware
	// of plain passwords.
	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("hashing failed: %w", err)
	}

	userID, err := s.userRepository.Create(domain.User{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Bio:      req.Bio,
		Avatar:   avatar,
	}, hashedPassword)
	if err != nil {
		return "", domain.User{}, err
	}

	token, err := auth.GenerateToken(userID, sessionLifetime)
	if err != nil {
		return "", domain.User{}, errors.ErrTokenGeneration
	}

	user, err := s.userRepository.GetByID(userID)
	if err != nil {
		return "", domain.User{}, err
	}
	return Token(token), user, nil
}

func (s *AuthService) Login(req auth.LoginRequest) (Token, domain.User, error) {
	if err := auth.ValidateLogin(req); err != nil {
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	user, hash, err := s.userRepository.GetByUsername(req.Username)
	if err != nil {
		// Generic error to prevent user enumeration attacks
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(req.Password, hash)
	if err != nil || !match {
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, sessionLifetime)
	if err != nil {
		return "", domain.User{}, errors.ErrTokenGeneration
	}
	return Token(token), user, nil
}

func (s *AuthService) Profile(id domain.Identity) (domain.User, error) {
	return s.userRepository.GetByID(id)
}
