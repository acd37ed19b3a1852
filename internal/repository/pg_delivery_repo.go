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

type pgDeliveryRepository struct {
	pool *pgxpool.Pool
}

// NewPgDeliveryRepository returns a DeliveryRepository backed by PostgreSQL.
func NewPgDeliveryRepository(pool *pgxpool.Pool) DeliveryRepository {
	return &pgDeliveryRepository{pool: pool}
}

func (r *pgDeliveryRepository) Dequeue(ctx context.Context) (DeliveryClaim, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim transaction: %w", err)
	}

	var (
		issueID uuid.UUID
		email   string
	)
	err = tx.QueryRow(ctx, `
		SELECT newsletter_issue_id, subscriber_email
		FROM issue_delivery_queue
		FOR UPDATE
		SKIP LOCKED
		LIMIT 1`,
	).Scan(&issueID, &email)
	if errors.Is(err, pgx.ErrNoRows) {
		tx.Rollback(ctx) //nolint:errcheck
		return nil, nil
	}
	if err != nil {
		tx.Rollback(ctx) //nolint:errcheck
		return nil, fmt.Errorf("claim queue row: %w", err)
	}

	return &pgDeliveryClaim{tx: tx, issueID: issueID, email: email}, nil
}

func (r *pgDeliveryRepository) GetIssue(ctx context.Context, issueID uuid.UUID) (*domain.Issue, error) {
	var issue domain.Issue
	err := r.pool.QueryRow(ctx, `
		SELECT newsletter_issue_id, title, text_content, html_content, published_at
		FROM newsletter_issues
		WHERE newsletter_issue_id = $1`,
		issueID,
	).Scan(&issue.ID, &issue.Title, &issue.TextContent, &issue.HTMLContent, &issue.PublishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get issue %s: %w", issueID, err)
	}
	return &issue, nil
}

type pgDeliveryClaim struct {
	tx      pgx.Tx
	issueID uuid.UUID
	email   string
}

func (c *pgDeliveryClaim) IssueID() uuid.UUID { return c.issueID }
func (c *pgDeliveryClaim) Email() string      { return c.email }

func (c *pgDeliveryClaim) Complete(ctx context.Context) error {
	_, err := c.tx.Exec(ctx, `
		DELETE FROM issue_delivery_queue
		WHERE newsletter_issue_id = $1 AND subscriber_email = $2`,
		c.issueID, c.email,
	)
	if err != nil {
		c.tx.Rollback(ctx) //nolint:errcheck
		return fmt.Errorf("delete queue row: %w", err)
	}
	if err := c.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit claim transaction: %w", err)
	}
	return nil
}

func (c *pgDeliveryClaim) Release(ctx context.Context) error {
	err := c.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}
