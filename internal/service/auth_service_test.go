package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/courierpost/newsletter-service/internal/domain"
	"github.com/courierpost/newsletter-service/internal/repository"
	"github.com/courierpost/newsletter-service/internal/service"
)

func newAuthService(t *testing.T) (*service.AuthService, *repository.MockUserRepository, uuid.UUID) {
	t.Helper()
	users := repository.NewMockUserRepository()
	svc := service.NewAuthService(users, zap.NewNop())

	userID := uuid.New()
	hash, err := service.HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := users.CreateUser(context.Background(), userID, "admin", hash); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return svc, users, userID
}

func TestValidateCredentials(t *testing.T) {
	svc, _, userID := newAuthService(t)
	ctx := context.Background()

	got, err := svc.ValidateCredentials(ctx, "admin", "correct horse battery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != userID {
		t.Fatalf("expected user ID %s, got %s", userID, got)
	}
}

func TestValidateCredentials_WrongPassword(t *testing.T) {
	svc, _, _ := newAuthService(t)

	if _, err := svc.ValidateCredentials(context.Background(), "admin", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestValidateCredentials_UnknownUsername(t *testing.T) {
	svc, _, _ := newAuthService(t)

	// Unknown usernames and wrong passwords must be indistinguishable.
	if _, err := svc.ValidateCredentials(context.Background(), "nobody", "whatever"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	const newPassword = "a-much-longer-password"
	err := svc.ChangePassword(ctx, "admin", "correct horse battery", newPassword, newPassword)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.ValidateCredentials(ctx, "admin", newPassword); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
	if _, err := svc.ValidateCredentials(ctx, "admin", "correct horse battery"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
}

func TestChangePassword_Rejections(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		current  string
		newPw    string
		newCheck string
		wantErr  error
	}{
		{"mismatched confirmation", "correct horse battery", "a-much-longer-password", "a-different-password", domain.ErrPasswordMismatch},
		{"too short", "correct horse battery", "short", "short", domain.ErrPasswordTooShort},
		{"wrong current password", "not my password", "a-much-longer-password", "a-much-longer-password", domain.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ChangePassword(ctx, "admin", tt.current, tt.newPw, tt.newCheck)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	// None of the rejected attempts may have touched the stored hash.
	if _, err := svc.ValidateCredentials(ctx, "admin", "correct horse battery"); err != nil {
		t.Fatalf("original password no longer works: %v", err)
	}
}
