package mailer

import (
	"context"
	"sync"

	"github.com/courierpost/newsletter-service/internal/domain"
)

// SentEmail records one call to MockMailer.Send.
type SentEmail struct {
	Recipient domain.SubscriberEmail
	Subject   string
	HTMLBody  string
	TextBody  string
}

// MockMailer is a hand-written in-memory Mailer used in unit tests.
type MockMailer struct {
	mu   sync.Mutex
	sent []SentEmail

	// SendErr, when set, is returned by every Send call.
	SendErr error
}

func NewMockMailer() *MockMailer { return &MockMailer{} }

func (m *MockMailer) Send(_ context.Context, recipient domain.SubscriberEmail, subject, htmlBody, textBody string) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentEmail{
		Recipient: recipient,
		Subject:   subject,
		HTMLBody:  htmlBody,
		TextBody:  textBody,
	})
	return nil
}

// Sent returns a copy of all recorded sends.
func (m *MockMailer) Sent() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentEmail, len(m.sent))
	copy(out, m.sent)
	return out
}

var _ Mailer = (*MockMailer)(nil)
