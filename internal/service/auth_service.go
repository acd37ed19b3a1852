package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/courierpost/newsletter-service/internal/domain"
	"github.com/courierpost/newsletter-service/internal/repository"
)

const minPasswordLength = 12

// dummyHash is compared against when the username does not exist, so the
// request costs a full bcrypt verification either way and response timing
// does not reveal whether the username was valid.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("placeholder-password-for-timing"), bcrypt.DefaultCost)

// AuthService verifies admin credentials and manages password changes.
type AuthService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func NewAuthService(users repository.UserRepository, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, logger: logger}
}

// ValidateCredentials returns the user ID for a valid username/password
// pair. Unknown usernames and wrong passwords are the same error.
func (s *AuthService) ValidateCredentials(ctx context.Context, username, password string) (uuid.UUID, error) {
	userID, hash, err := s.users.GetCredentials(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password)) //nolint:errcheck
		return uuid.Nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("fetch stored credentials: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return uuid.Nil, domain.ErrInvalidCredentials
	}
	return userID, nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, username, current, newPassword, newPasswordCheck string) error {
	if newPassword != newPasswordCheck {
		return domain.ErrPasswordMismatch
	}
	if len(newPassword) < minPasswordLength {
		return domain.ErrPasswordTooShort
	}

	userID, err := s.ValidateCredentials(ctx, username, current)
	if err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	s.logger.Info("password changed", zap.String("user_id", userID.String()))
	return nil
}

// HashPassword produces a bcrypt hash suitable for the users table.
// Exported for the seeduser command.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
