package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courierpost/newsletter-service/internal/domain"
)

type pgUserRepository struct {
	pool *pgxpool.Pool
}

// NewPgUserRepository returns a UserRepository backed by PostgreSQL.
func NewPgUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgUserRepository{pool: pool}
}

func (r *pgUserRepository) GetCredentials(ctx context.Context, username string) (uuid.UUID, string, error) {
	var (
		userID uuid.UUID
		hash   string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, password_hash
		FROM users
		WHERE username = $1`,
		username,
	).Scan(&userID, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, "", domain.ErrNotFound
	}
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("get stored credentials: %w", err)
	}
	return userID, hash, nil
}

func (r *pgUserRepository) CreateUser(ctx context.Context, userID uuid.UUID, username, passwordHash string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (user_id, username, password_hash)
		VALUES ($1, $2, $3)`,
		userID, username, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *pgUserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $1 WHERE user_id = $2`,
		passwordHash, userID,
	)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return nil
}
