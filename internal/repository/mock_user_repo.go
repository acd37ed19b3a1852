package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/courierpost/newsletter-service/internal/domain"
)

type mockUser struct {
	id   uuid.UUID
	hash string
}

// MockUserRepository is an in-memory UserRepository for tests.
type MockUserRepository struct {
	mu    sync.Mutex
	users map[string]*mockUser // keyed by username
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*mockUser)}
}

func (m *MockUserRepository) GetCredentials(_ context.Context, username string) (uuid.UUID, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return uuid.Nil, "", domain.ErrNotFound
	}
	return u.id, u.hash, nil
}

func (m *MockUserRepository) CreateUser(_ context.Context, userID uuid.UUID, username, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[username] = &mockUser{id: userID, hash: passwordHash}
	return nil
}

func (m *MockUserRepository) UpdatePassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.id == userID {
			u.hash = passwordHash
			return nil
		}
	}
	return domain.ErrNotFound
}
