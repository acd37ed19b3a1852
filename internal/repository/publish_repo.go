package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/courierpost/newsletter-service/internal/domain"
	"github.com/courierpost/newsletter-service/internal/idempotency"
)

// PublishRepository gates issue creation behind the idempotency record.
// The pgx implementation is in pg_publish_repo.go.
// Tests use a hand-written mock (mock_publish_repo.go).
type PublishRepository interface {
	// BeginPublish races an "insert if absent" on (userID, key) inside a
	// fresh transaction. Exactly one of the return values is non-nil:
	//
	//   - a PublishTx when this request won the race and must perform all
	//     of its writes inside it, ending with Finalize;
	//   - the previously captured response when a prior attempt already
	//     finished.
	//
	// A prior record whose response was never captured (the original
	// request is still in flight, or crashed before finishing) is
	// domain.ErrPublishInFlight — surfaced loudly rather than silently
	// retried, because returning nothing risks double-processing.
	BeginPublish(ctx context.Context, userID uuid.UUID, key idempotency.Key) (PublishTx, *idempotency.CapturedResponse, error)
}

// PublishTx is the open transaction handed out by BeginPublish. All writes
// of one publish action happen inside it, so either the issue, its full
// recipient snapshot, and the captured response all persist, or none do.
type PublishTx interface {
	InsertIssue(ctx context.Context, issue *domain.Issue) error

	// ListConfirmedEmails snapshots the raw stored addresses of every
	// confirmed subscriber as of this transaction.
	ListConfirmedEmails(ctx context.Context) ([]string, error)

	// EnqueueDelivery records one (issue, recipient) send obligation.
	EnqueueDelivery(ctx context.Context, issueID uuid.UUID, email domain.SubscriberEmail) error

	// Finalize serializes the response into the idempotency record and
	// commits. After Finalize returns nil the transaction is closed.
	Finalize(ctx context.Context, resp *idempotency.CapturedResponse) error

	// Rollback aborts the transaction. Safe to call after a failed
	// Finalize; a no-op once committed.
	Rollback(ctx context.Context) error
}
