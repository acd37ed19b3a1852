package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courierpost/newsletter-service/internal/domain"
)

type pgSubscriberRepository struct {
	pool *pgxpool.Pool
}

// NewPgSubscriberRepository returns a SubscriberRepository backed by PostgreSQL.
func NewPgSubscriberRepository(pool *pgxpool.Pool) SubscriberRepository {
	return &pgSubscriberRepository{pool: pool}
}

func (r *pgSubscriberRepository) CreateSubscriber(ctx context.Context, sub *domain.Subscriber, token string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, `
		INSERT INTO subscriptions (id, email, name, subscribed_at, status)
		VALUES ($1, $2, $3, $4, $5)`,
		sub.ID, sub.Email.String(), sub.Name.String(), sub.SubscribedAt, sub.Status,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert subscriber: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO subscription_tokens (subscription_token, subscriber_id)
		VALUES ($1, $2)`,
		token, sub.ID,
	)
	if err != nil {
		return fmt.Errorf("store subscription token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit subscriber: %w", err)
	}
	return nil
}

func (r *pgSubscriberRepository) ConfirmByToken(ctx context.Context, token string) error {
	var subscriberID string
	err := r.pool.QueryRow(ctx, `
		SELECT subscriber_id
		FROM subscription_tokens
		WHERE subscription_token = $1`,
		token,
	).Scan(&subscriberID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrUnknownToken
	}
	if err != nil {
		return fmt.Errorf("look up subscription token: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE subscriptions SET status = 'confirmed' WHERE id = $1`,
		subscriberID,
	)
	if err != nil {
		return fmt.Errorf("confirm subscriber: %w", err)
	}
	return nil
}

func (r *pgSubscriberRepository) ListConfirmedEmails(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT email
		FROM subscriptions
		WHERE status = 'confirmed'`,
	)
	if err != nil {
		return nil, fmt.Errorf("list confirmed subscribers: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan subscriber email: %w", err)
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
