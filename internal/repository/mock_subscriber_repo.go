package repository

import (
	"context"
	"sync"

	"github.com/courierpost/newsletter-service/internal/domain"
)

// MockSubscriberRepository is an in-memory SubscriberRepository for tests.
type MockSubscriberRepository struct {
	mu          sync.Mutex
	subscribers map[string]*domain.Subscriber // keyed by email
	tokens      map[string]string             // token -> email

	CreateErr error
}

func NewMockSubscriberRepository() *MockSubscriberRepository {
	return &MockSubscriberRepository{
		subscribers: make(map[string]*domain.Subscriber),
		tokens:      make(map[string]string),
	}
}

func (m *MockSubscriberRepository) CreateSubscriber(_ context.Context, sub *domain.Subscriber, token string) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	email := sub.Email.String()
	if _, ok := m.subscribers[email]; ok {
		return domain.ErrEmailTaken
	}
	clone := *sub
	m.subscribers[email] = &clone
	m.tokens[token] = email
	return nil
}

func (m *MockSubscriberRepository) ConfirmByToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	email, ok := m.tokens[token]
	if !ok {
		return domain.ErrUnknownToken
	}
	m.subscribers[email].Status = domain.StatusConfirmed
	return nil
}

func (m *MockSubscriberRepository) ListConfirmedEmails(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var emails []string
	for email, sub := range m.subscribers {
		if sub.Status == domain.StatusConfirmed {
			emails = append(emails, email)
		}
	}
	return emails, nil
}

// Get returns the stored subscriber for an email, if any.
func (m *MockSubscriberRepository) Get(email string) (*domain.Subscriber, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subscribers[email]
	if !ok {
		return nil, false
	}
	clone := *sub
	return &clone, true
}
