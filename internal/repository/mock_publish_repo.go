package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/courierpost/newsletter-service/internal/domain"
	"github.com/courierpost/newsletter-service/internal/idempotency"
)

// QueueEntry is one staged delivery obligation recorded by the mock.
type QueueEntry struct {
	IssueID uuid.UUID
	Email   string
}

type idemKey struct {
	userID uuid.UUID
	key    idempotency.Key
}

// idemRecord mirrors one idempotency row. done is closed when the owning
// attempt finishes (finalized or rolled back); a reader arriving earlier
// blocks on it, the same way a concurrent insert blocks on the winner's
// uncommitted row lock in Postgres.
type idemRecord struct {
	done chan struct{}
	resp *idempotency.CapturedResponse
}

// MockPublishRepository is a hand-written, in-memory implementation of
// PublishRepository used in unit tests. No mock-generation library needed.
type MockPublishRepository struct {
	mu      sync.Mutex
	records map[idemKey]*idemRecord
	issues  map[uuid.UUID]*domain.Issue
	queue   []QueueEntry

	// ConfirmedEmails is the recipient snapshot returned inside every
	// publish transaction. Seed it before calling Publish.
	ConfirmedEmails []string

	// Optional error overrides — set in tests to simulate failure paths.
	BeginErr       error
	InsertIssueErr error
	EnqueueErr     error
	FinalizeErr    error
}

func NewMockPublishRepository() *MockPublishRepository {
	return &MockPublishRepository{
		records: make(map[idemKey]*idemRecord),
		issues:  make(map[uuid.UUID]*domain.Issue),
	}
}

func (m *MockPublishRepository) BeginPublish(ctx context.Context, userID uuid.UUID, key idempotency.Key) (PublishTx, *idempotency.CapturedResponse, error) {
	if m.BeginErr != nil {
		return nil, nil, m.BeginErr
	}
	k := idemKey{userID: userID, key: key}

	for {
		m.mu.Lock()
		rec, ok := m.records[k]
		if !ok {
			rec = &idemRecord{done: make(chan struct{})}
			m.records[k] = rec
			m.mu.Unlock()
			return &mockPublishTx{repo: m, key: k, rec: rec}, nil, nil
		}
		m.mu.Unlock()

		select {
		case <-rec.done:
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}

		m.mu.Lock()
		cur, ok := m.records[k]
		if !ok || cur != rec {
			// The owning attempt rolled back; race for the insert again.
			m.mu.Unlock()
			continue
		}
		resp := rec.resp
		m.mu.Unlock()

		if resp == nil {
			return nil, nil, domain.ErrPublishInFlight
		}
		return nil, resp, nil
	}
}

// SeedInFlight plants an idempotency record whose owning request never
// finished, simulating a crash between insert and finalize.
func (m *MockPublishRepository) SeedInFlight(userID uuid.UUID, key idempotency.Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	done := make(chan struct{})
	close(done)
	m.records[idemKey{userID: userID, key: key}] = &idemRecord{done: done}
}

// Issues returns all committed issues.
func (m *MockPublishRepository) Issues() []*domain.Issue {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Issue, 0, len(m.issues))
	for _, issue := range m.issues {
		clone := *issue
		out = append(out, &clone)
	}
	return out
}

// QueueEntries returns all committed delivery queue rows.
func (m *MockPublishRepository) QueueEntries() []QueueEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]QueueEntry, len(m.queue))
	copy(out, m.queue)
	return out
}

type mockPublishTx struct {
	repo *MockPublishRepository
	key  idemKey
	rec  *idemRecord

	stagedIssue *domain.Issue
	stagedQueue []QueueEntry
	closed      bool
}

func (t *mockPublishTx) InsertIssue(_ context.Context, issue *domain.Issue) error {
	if t.repo.InsertIssueErr != nil {
		return t.repo.InsertIssueErr
	}
	clone := *issue
	t.stagedIssue = &clone
	return nil
}

func (t *mockPublishTx) ListConfirmedEmails(_ context.Context) ([]string, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	out := make([]string, len(t.repo.ConfirmedEmails))
	copy(out, t.repo.ConfirmedEmails)
	return out, nil
}

func (t *mockPublishTx) EnqueueDelivery(_ context.Context, issueID uuid.UUID, email domain.SubscriberEmail) error {
	if t.repo.EnqueueErr != nil {
		return t.repo.EnqueueErr
	}
	t.stagedQueue = append(t.stagedQueue, QueueEntry{IssueID: issueID, Email: email.String()})
	return nil
}

func (t *mockPublishTx) Finalize(_ context.Context, resp *idempotency.CapturedResponse) error {
	if t.repo.FinalizeErr != nil {
		return t.repo.FinalizeErr
	}
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	if t.stagedIssue != nil {
		t.repo.issues[t.stagedIssue.ID] = t.stagedIssue
	}
	t.repo.queue = append(t.repo.queue, t.stagedQueue...)
	t.rec.resp = resp
	close(t.rec.done)
	t.closed = true
	return nil
}

func (t *mockPublishTx) Rollback(_ context.Context) error {
	if t.closed {
		return nil
	}
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	delete(t.repo.records, t.key)
	close(t.rec.done)
	t.closed = true
	return nil
}
