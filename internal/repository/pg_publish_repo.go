package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courierpost/newsletter-service/internal/domain"
	"github.com/courierpost/newsletter-service/internal/idempotency"
)

type pgPublishRepository struct {
	pool *pgxpool.Pool
}

// NewPgPublishRepository returns a PublishRepository backed by PostgreSQL.
func NewPgPublishRepository(pool *pgxpool.Pool) PublishRepository {
	return &pgPublishRepository{pool: pool}
}

func (r *pgPublishRepository) BeginPublish(ctx context.Context, userID uuid.UUID, key idempotency.Key) (PublishTx, *idempotency.CapturedResponse, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}

	// The unique (user_id, idempotency_key) constraint is the
	// mutual-exclusion gate: of two concurrent requests with the same key,
	// exactly one inserts a row here and wins the processing branch.
	tag, err := tx.Exec(ctx, `
		INSERT INTO idempotency (user_id, idempotency_key, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT DO NOTHING`,
		userID, key.String(),
	)
	if err != nil {
		tx.Rollback(ctx) //nolint:errcheck
		return nil, nil, fmt.Errorf("insert idempotency record: %w", err)
	}

	if tag.RowsAffected() > 0 {
		return &pgPublishTx{tx: tx, userID: userID, key: key}, nil, nil
	}

	// Lost the race: a prior attempt exists. The open transaction is not
	// needed anymore; read the captured response off the pool.
	tx.Rollback(ctx) //nolint:errcheck

	resp, err := r.getSavedResponse(ctx, userID, key)
	if err != nil {
		return nil, nil, err
	}
	return nil, resp, nil
}

func (r *pgPublishRepository) getSavedResponse(ctx context.Context, userID uuid.UUID, key idempotency.Key) (*idempotency.CapturedResponse, error) {
	var (
		statusCode *int16
		headers    []byte
		body       []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT response_status_code, response_headers, response_body
		FROM idempotency
		WHERE user_id = $1 AND idempotency_key = $2`,
		userID, key.String(),
	).Scan(&statusCode, &headers, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		// The record existed a moment ago; it is never deleted.
		return nil, fmt.Errorf("idempotency record vanished for user %s: %w", userID, err)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch saved response: %w", err)
	}

	// Status code is NULL until Finalize runs. The original request is
	// still in flight or crashed before finishing.
	if statusCode == nil {
		return nil, domain.ErrPublishInFlight
	}

	var pairs []idempotency.HeaderPair
	if len(headers) > 0 {
		if err := json.Unmarshal(headers, &pairs); err != nil {
			return nil, fmt.Errorf("decode saved response headers: %w", err)
		}
	}

	return &idempotency.CapturedResponse{
		StatusCode: int(*statusCode),
		Headers:    pairs,
		Body:       body,
	}, nil
}

type pgPublishTx struct {
	tx     pgx.Tx
	userID uuid.UUID
	key    idempotency.Key
}

func (t *pgPublishTx) InsertIssue(ctx context.Context, issue *domain.Issue) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO newsletter_issues
			(newsletter_issue_id, title, text_content, html_content, published_at)
		VALUES ($1, $2, $3, $4, $5)`,
		issue.ID, issue.Title, issue.TextContent, issue.HTMLContent, issue.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert newsletter issue: %w", err)
	}
	return nil
}

func (t *pgPublishTx) ListConfirmedEmails(ctx context.Context) ([]string, error) {
	rows, err := t.tx.Query(ctx, `
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

func (t *pgPublishTx) EnqueueDelivery(ctx context.Context, issueID uuid.UUID, email domain.SubscriberEmail) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO issue_delivery_queue (newsletter_issue_id, subscriber_email)
		VALUES ($1, $2)`,
		issueID, email.String(),
	)
	if err != nil {
		return fmt.Errorf("enqueue delivery for %s: %w", email, err)
	}
	return nil
}

func (t *pgPublishTx) Finalize(ctx context.Context, resp *idempotency.CapturedResponse) error {
	headers, err := json.Marshal(resp.Headers)
	if err != nil {
		return fmt.Errorf("encode response headers: %w", err)
	}

	_, err = t.tx.Exec(ctx, `
		UPDATE idempotency
		SET response_status_code = $3,
		    response_headers     = $4,
		    response_body        = $5
		WHERE user_id = $1 AND idempotency_key = $2`,
		t.userID, t.key.String(), int16(resp.StatusCode), headers, resp.Body, //nolint:gosec
	)
	if err != nil {
		return fmt.Errorf("save captured response: %w", err)
	}

	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit publish transaction: %w", err)
	}
	return nil
}

func (t *pgPublishTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}
