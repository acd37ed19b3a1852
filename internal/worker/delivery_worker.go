package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/courierpost/newsletter-service/internal/domain"
	"github.com/courierpost/newsletter-service/internal/mailer"
	"github.com/courierpost/newsletter-service/internal/repository"
)

// Outcome reports what a single worker iteration did.
type Outcome int

const (
	// OutcomeEmptyQueue means no row was claimable; the caller should
	// back off for the idle poll interval.
	OutcomeEmptyQueue Outcome = iota
	// OutcomeTaskCompleted means one queue row was claimed and removed.
	OutcomeTaskCompleted
)

// MetricHooks carries the metric callback functions injected by main.
// Using a struct keeps the worker constructor signature clean and the
// worker package metrics-agnostic.
type MetricHooks struct {
	OnSent    func(latency time.Duration)
	OnFailed  func()
	OnSkipped func()
}

// Worker drains the issue delivery queue: claim one row, send the email,
// delete the row. Sending happens here, decoupled from the publish
// request/response cycle; multiple instances coordinate purely through the
// database's row locks.
type Worker struct {
	id         int
	deliveries repository.DeliveryRepository
	mailer     mailer.Mailer

	pollInterval time.Duration // sleep when the queue is empty
	errorBackoff time.Duration // sleep after a failed iteration
	logger       *zap.Logger

	onSent    func(time.Duration)
	onFailed  func()
	onSkipped func()
}

// NewWorker constructs a worker. Hook fields may be nil (no-op).
func NewWorker(
	id int,
	deliveries repository.DeliveryRepository,
	m mailer.Mailer,
	pollInterval, errorBackoff time.Duration,
	logger *zap.Logger,
	hooks MetricHooks,
) *Worker {
	if hooks.OnSent == nil {
		hooks.OnSent = func(time.Duration) {}
	}
	if hooks.OnFailed == nil {
		hooks.OnFailed = func() {}
	}
	if hooks.OnSkipped == nil {
		hooks.OnSkipped = func() {}
	}
	return &Worker{
		id:           id,
		deliveries:   deliveries,
		mailer:       m,
		pollInterval: pollInterval,
		errorBackoff: errorBackoff,
		logger:       logger,
		onSent:       hooks.OnSent,
		onFailed:     hooks.OnFailed,
		onSkipped:    hooks.OnSkipped,
	}
}

// Run blocks until ctx is cancelled. A failed iteration never terminates
// the loop; it only delays the next one.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("delivery worker started", zap.Int("id", w.id))
	for {
		outcome, err := w.ExecuteOnce(ctx)

		var wait time.Duration
		switch {
		case err != nil:
			if ctx.Err() != nil {
				w.logger.Info("delivery worker stopping", zap.Int("id", w.id))
				return
			}
			w.logger.Error("delivery iteration failed", zap.Int("id", w.id), zap.Error(err))
			wait = w.errorBackoff
		case outcome == OutcomeEmptyQueue:
			wait = w.pollInterval
		}

		if wait == 0 {
			select {
			case <-ctx.Done():
				w.logger.Info("delivery worker stopping", zap.Int("id", w.id))
				return
			default:
			}
			continue
		}

		select {
		case <-ctx.Done():
			w.logger.Info("delivery worker stopping", zap.Int("id", w.id))
			return
		case <-time.After(wait):
		}
	}
}

// ExecuteOnce runs one iteration of the claim/process state machine.
//
// The claimed row is deleted whether the send succeeded, failed, or was
// skipped for an unparseable address: a failed send is not retried. Only
// errors around the claim itself (database trouble, missing issue content)
// release the row for another attempt.
func (w *Worker) ExecuteOnce(ctx context.Context) (Outcome, error) {
	claim, err := w.deliveries.Dequeue(ctx)
	if err != nil {
		return 0, fmt.Errorf("claim queue row: %w", err)
	}
	if claim == nil {
		return OutcomeEmptyQueue, nil
	}

	log := w.logger.With(
		zap.String("issue_id", claim.IssueID().String()),
		zap.String("subscriber_email", claim.Email()),
	)

	email, perr := domain.ParseSubscriberEmail(claim.Email())
	if perr != nil {
		log.Error("skipping a confirmed subscriber, their stored contact details don't pass validation",
			zap.Error(perr),
		)
		w.onSkipped()
	} else {
		issue, err := w.deliveries.GetIssue(ctx, claim.IssueID())
		if err != nil {
			claim.Release(ctx) //nolint:errcheck
			return 0, fmt.Errorf("load issue content: %w", err)
		}

		start := time.Now()
		if err := w.mailer.Send(ctx, email, issue.Title, issue.HTMLContent, issue.TextContent); err != nil {
			log.Error("failed to deliver issue to a confirmed subscriber, skipping",
				zap.Error(err),
			)
			w.onFailed()
		} else {
			w.onSent(time.Since(start))
			log.Info("issue delivered", zap.Duration("latency", time.Since(start)))
		}
	}

	if err := claim.Complete(ctx); err != nil {
		return 0, fmt.Errorf("complete delivery task: %w", err)
	}
	return OutcomeTaskCompleted, nil
}
