package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/courierpost/newsletter-service/internal/domain"
)

// DeliveryRepository is the worker's view of the durable delivery queue.
type DeliveryRepository interface {
	// Dequeue claims one queue row with a "skip rows locked by another
	// worker" read, so concurrent worker instances never contend on or
	// double-process the same row. Returns (nil, nil) when the queue is
	// empty. The claim holds an open transaction until Complete or
	// Release; a crashed worker simply drops its lock and the row becomes
	// claimable again.
	Dequeue(ctx context.Context) (DeliveryClaim, error)

	// GetIssue loads the issue content for a claimed row.
	GetIssue(ctx context.Context, issueID uuid.UUID) (*domain.Issue, error)
}

// DeliveryClaim is one locked queue row. The row stays invisible to other
// workers until the claim ends.
type DeliveryClaim interface {
	IssueID() uuid.UUID
	Email() string

	// Complete deletes the row and commits, making the send attempt's
	// outcome permanent regardless of whether the send itself succeeded.
	Complete(ctx context.Context) error

	// Release rolls back, returning the row to the queue.
	Release(ctx context.Context) error
}
