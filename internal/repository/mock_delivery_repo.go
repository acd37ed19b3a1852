package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/courierpost/newsletter-service/internal/domain"
)

type mockQueueRow struct {
	issueID uuid.UUID
	email   string
	locked  bool
}

// MockDeliveryRepository is an in-memory DeliveryRepository for worker tests.
type MockDeliveryRepository struct {
	mu     sync.Mutex
	rows   []*mockQueueRow
	issues map[uuid.UUID]*domain.Issue

	// Optional error overrides.
	DequeueErr  error
	GetIssueErr error
}

func NewMockDeliveryRepository() *MockDeliveryRepository {
	return &MockDeliveryRepository{issues: make(map[uuid.UUID]*domain.Issue)}
}

// AddIssue seeds issue content.
func (m *MockDeliveryRepository) AddIssue(issue *domain.Issue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *issue
	m.issues[issue.ID] = &clone
}

// Enqueue seeds one queue row.
func (m *MockDeliveryRepository) Enqueue(issueID uuid.UUID, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, &mockQueueRow{issueID: issueID, email: email})
}

// QueueDepth returns the number of remaining rows, locked or not.
func (m *MockDeliveryRepository) QueueDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *MockDeliveryRepository) Dequeue(_ context.Context) (DeliveryClaim, error) {
	if m.DequeueErr != nil {
		return nil, m.DequeueErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if !row.locked {
			row.locked = true
			return &mockDeliveryClaim{repo: m, row: row}, nil
		}
	}
	return nil, nil
}

func (m *MockDeliveryRepository) GetIssue(_ context.Context, issueID uuid.UUID) (*domain.Issue, error) {
	if m.GetIssueErr != nil {
		return nil, m.GetIssueErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	issue, ok := m.issues[issueID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *issue
	return &clone, nil
}

type mockDeliveryClaim struct {
	repo *MockDeliveryRepository
	row  *mockQueueRow
}

func (c *mockDeliveryClaim) IssueID() uuid.UUID { return c.row.issueID }
func (c *mockDeliveryClaim) Email() string      { return c.row.email }

func (c *mockDeliveryClaim) Complete(_ context.Context) error {
	c.repo.mu.Lock()
	defer c.repo.mu.Unlock()
	for i, row := range c.repo.rows {
		if row == c.row {
			c.repo.rows = append(c.repo.rows[:i], c.repo.rows[i+1:]...)
			break
		}
	}
	return nil
}

func (c *mockDeliveryClaim) Release(_ context.Context) error {
	c.repo.mu.Lock()
	defer c.repo.mu.Unlock()
	c.row.locked = false
	return nil
}
