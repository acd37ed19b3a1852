package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/courierpost/newsletter-service/internal/domain"
	"github.com/courierpost/newsletter-service/internal/idempotency"
	"github.com/courierpost/newsletter-service/internal/mailer"
	"github.com/courierpost/newsletter-service/internal/repository"
)

// PublishRequest is the inbound payload for publishing an issue.
type PublishRequest struct {
	Title          string
	HTML           string
	Text           string
	IdempotencyKey string
}

// PublishService coordinates issue creation and recipient snapshotting.
// The idempotent path never sends email itself; it persists the issue and
// its full delivery queue atomically and lets the worker drain the queue.
// The legacy path sends synchronously, bypassing the queue.
type PublishService struct {
	publishes   repository.PublishRepository
	subscribers repository.SubscriberRepository
	mailer      mailer.Mailer
	logger      *zap.Logger
}

func NewPublishService(
	publishes repository.PublishRepository,
	subscribers repository.SubscriberRepository,
	m mailer.Mailer,
	logger *zap.Logger,
) *PublishService {
	return &PublishService{publishes: publishes, subscribers: subscribers, mailer: m, logger: logger}
}

// Publish creates an issue and one delivery queue row per confirmed
// subscriber, all inside the transaction opened by the idempotency gate.
// A retry carrying the same key observes the first attempt's captured
// response (replay=true) and triggers no new writes, even if the retried
// body differs.
func (s *PublishService) Publish(ctx context.Context, userID uuid.UUID, req PublishRequest) (resp *idempotency.CapturedResponse, replay bool, err error) {
	// Both validations happen before any transaction begins.
	key, err := idempotency.ParseKey(req.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}
	issue, err := domain.NewIssue(req.Title, req.HTML, req.Text)
	if err != nil {
		return nil, false, err
	}

	tx, saved, err := s.publishes.BeginPublish(ctx, userID, key)
	if err != nil {
		return nil, false, fmt.Errorf("resolve idempotency: %w", err)
	}
	if saved != nil {
		s.logger.Info("replaying saved publish response",
			zap.String("user_id", userID.String()),
			zap.String("idempotency_key", key.String()),
		)
		return saved, true, nil
	}

	if err := tx.InsertIssue(ctx, issue); err != nil {
		tx.Rollback(ctx) //nolint:errcheck
		return nil, false, err
	}

	emails, err := tx.ListConfirmedEmails(ctx)
	if err != nil {
		tx.Rollback(ctx) //nolint:errcheck
		return nil, false, err
	}

	enqueued := 0
	for _, raw := range emails {
		email, perr := domain.ParseSubscriberEmail(raw)
		if perr != nil {
			// A malformed stored address must not abort publication
			// for everyone else.
			s.logger.Warn("skipping confirmed subscriber: stored address fails validation",
				zap.String("email", raw),
				zap.Error(perr),
			)
			continue
		}
		if err := tx.EnqueueDelivery(ctx, issue.ID, email); err != nil {
			tx.Rollback(ctx) //nolint:errcheck
			return nil, false, err
		}
		enqueued++
	}

	resp = idempotency.SeeOther("/admin/newsletters")
	if err := tx.Finalize(ctx, resp); err != nil {
		tx.Rollback(ctx) //nolint:errcheck
		return nil, false, err
	}

	s.logger.Info("newsletter issue published",
		zap.String("issue_id", issue.ID.String()),
		zap.String("title", issue.Title),
		zap.Int("recipients", enqueued),
	)
	return resp, false, nil
}

// PublishLegacy is the pre-queue publish path: it sends to every confirmed
// subscriber inline and persists nothing. Any mailer failure aborts the
// whole request; invalid stored addresses are logged and skipped.
func (s *PublishService) PublishLegacy(ctx context.Context, title, html, text string) error {
	if title == "" {
		return domain.ErrInvalidTitle
	}

	emails, err := s.subscribers.ListConfirmedEmails(ctx)
	if err != nil {
		return fmt.Errorf("list confirmed subscribers: %w", err)
	}

	for _, raw := range emails {
		email, perr := domain.ParseSubscriberEmail(raw)
		if perr != nil {
			s.logger.Warn("skipping confirmed subscriber: stored address fails validation",
				zap.String("email", raw),
				zap.Error(perr),
			)
			continue
		}
		if err := s.mailer.Send(ctx, email, title, html, text); err != nil {
			return fmt.Errorf("send newsletter to %s: %w", email, err)
		}
	}
	return nil
}
