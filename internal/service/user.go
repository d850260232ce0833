package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dan9191/card-service/internal/apperror"
	"github.com/Dan9191/card-service/internal/models"
	"github.com/Dan9191/card-service/internal/repository"
	"github.com/sirupsen/logrus"
)

// AuthResult is returned by Register and Login
type AuthResult struct {
	User  *models.User
	Token string
}

// UserService handles registration, login and user lookups
type UserService struct {
	users    UserRepository
	creds    *CredentialService
	notifier Notifier
	log      *logrus.Logger
}

// NewUserService initializes a new user service
func NewUserService(users UserRepository, creds *CredentialService, notifier Notifier, log *logrus.Logger) *UserService {
	return &UserService{users: users, creds: creds, notifier: notifier, log: log}
}

// Register creates a new user with a hashed password and issues a token
func (s *UserService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := s.users.FindUserByUsername(ctx, username); err == nil {
		return nil, apperror.Conflict("Username already exists")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}
	if _, err := s.users.FindUserByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("Email already exists")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.creds.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, apperror.Conflict("Username already exists")
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, apperror.Conflict("Email already exists")
		case errors.Is(err, repository.ErrValueOutOfRange):
			return nil, apperror.BadRequest(valueOutOfRange)
		}
		return nil, err
	}

	token, err := s.creds.IssueToken(user)
	if err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Username)
	if err := s.notifier.Welcome(*user); err != nil {
		s.log.WithError(err).Warnf("Failed to send welcome notification to user %d", user.ID)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates a user and returns a token. Unknown users and wrong
// passwords fail identically.
func (s *UserService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.FindUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperror.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}

	if !s.creds.VerifyPassword(password, user.PasswordHash) {
		return nil, apperror.Unauthorized("Invalid credentials")
	}

	token, err := s.creds.IssueToken(user)
	if err != nil {
		return nil, err
	}

	s.log.Infof("User logged in: %s", user.Username)
	return &AuthResult{User: user, Token: token}, nil
}

// GetProfile returns the user with the given id
func (s *UserService) GetProfile(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.FindUserByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperror.NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return user, nil
}

// ListAll returns every registered user
func (s *UserService) ListAll(ctx context.Context) ([]models.User, error) {
	return s.users.ListUsers(ctx)
}
