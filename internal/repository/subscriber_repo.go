package repository

import (
	"context"

	"github.com/courierpost/newsletter-service/internal/domain"
)

// SubscriberRepository defines persistence for the double-opt-in flow.
type SubscriberRepository interface {
	// CreateSubscriber inserts the pending subscriber and its confirmation
	// token in one transaction. A duplicate email is domain.ErrEmailTaken.
	CreateSubscriber(ctx context.Context, sub *domain.Subscriber, token string) error

	// ConfirmByToken flips the owning subscriber to confirmed.
	// An unknown token is domain.ErrUnknownToken.
	ConfirmByToken(ctx context.Context, token string) error

	// ListConfirmedEmails returns the raw stored addresses of all
	// confirmed subscribers. Used by the legacy synchronous publish path;
	// the idempotent path snapshots inside its own transaction instead.
	ListConfirmedEmails(ctx context.Context) ([]string, error)
}
