package auth

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkravec/product-catalog/internal/domain"
	"github.com/mkravec/product-catalog/internal/pkg/logger"
	"github.com/mkravec/product-catalog/internal/pkg/token"
	pkgvalidator "github.com/mkravec/product-catalog/internal/pkg/validator"
)

// Credentials holds a registration or login request
type Credentials struct {
	Name     string `json:"name" validate:"omitempty,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Session is the result of a successful register or login
type Session struct {
	Token string              `json:"token"`
	User  *domain.UserSummary `json:"user"`
}

// Service handles user registration and login
type Service struct {
	repo     domain.UserRepository
	tokens   *token.Manager
	validate *validator.Validate
	logger   *logger.Logger
}

// NewService creates a new auth service
func NewService(repo domain.UserRepository, tokens *token.Manager, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		tokens:   tokens,
		validate: pkgvalidator.Get(),
		logger:   log,
	}
}

// Register creates a new user and returns a session for it
func (s *Service) Register(ctx context.Context, creds Credentials) (*Session, error) {
	if creds.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := s.validate.Struct(creds); err != nil {
		s.logger.Error("Registration validation failed", err)
		return nil, domain.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Failed to hash password", err)
		return nil, domain.ErrInternal
	}

	user := &domain.User{
		Name:         creds.Name,
		Email:        creds.Email,
		PasswordHash: string(hash),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			s.logger.Debugf("Registration rejected, email taken: %s", creds.Email)
			return nil, domain.ErrAlreadyExists
		}
		s.logger.Error("Failed to create user", err)
		return nil, err
	}

	signed, err := s.tokens.Generate(user.ID)
	if err != nil {
		s.logger.Error("Failed to generate token", err)
		return nil, domain.ErrInternal
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
	}).Info("User registered successfully")

	return &Session{Token: signed, User: user.Summary()}, nil
}

// Login authenticates a user by email and password. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Session, error) {
	if err := s.validate.Struct(creds); err != nil {
		return nil, domain.ErrInvalidInput
	}

	user, err := s.repo.GetByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		s.logger.Error("Failed to look up user", err)
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}

	signed, err := s.tokens.Generate(user.ID)
	if err != nil {
		s.logger.Error("Failed to generate token", err)
		return nil, domain.ErrInternal
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
	}).Info("User logged in")

	return &Session{Token: signed, User: user.Summary()}, nil
}
