package mailer

import (
	"context"

	"github.com/courierpost/newsletter-service/internal/domain"
)

// Mailer abstracts the outbound transactional-email API.
// Mocking this interface in tests gives full control over send behaviour
// without making real HTTP calls.
type Mailer interface {
	Send(ctx context.Context, recipient domain.SubscriberEmail, subject, htmlBody, textBody string) error
}
