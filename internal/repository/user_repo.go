package repository

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines persistence for admin credentials.
type UserRepository interface {
	// GetCredentials returns the user ID and stored password hash for a
	// username. Unknown usernames are domain.ErrNotFound; the caller is
	// responsible for not leaking that distinction to clients.
	GetCredentials(ctx context.Context, username string) (uuid.UUID, string, error)

	CreateUser(ctx context.Context, userID uuid.UUID, username, passwordHash string) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}
