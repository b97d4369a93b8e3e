package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
)

// MockUserRecordStore is an in-memory UserRecordStore for testing.
// It counts writes so tests can assert that a transition left the store alone.
type MockUserRecordStore struct {
	mu      sync.RWMutex
	records map[domain.UserID]*domain.UserRecord

	// Err, when set, is returned by every operation (simulates an outage)
	Err error

	ensureCalls int
	createCalls int
	writeCalls  int
}

// NewMockUserRecordStore creates a new MockUserRecordStore
func NewMockUserRecordStore() *MockUserRecordStore {
	return &MockUserRecordStore{
		records: make(map[domain.UserID]*domain.UserRecord),
	}
}

func (m *MockUserRecordStore) Get(ctx context.Context, id domain.UserID) (*domain.UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	rec, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (m *MockUserRecordStore) Ensure(ctx context.Context, id domain.UserID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	m.ensureCalls++
	if _, ok := m.records[id]; ok {
		return false, nil
	}
	m.createCalls++
	m.records[id] = domain.NewUserRecord(id, time.Now())
	return true, nil
}

func (m *MockUserRecordStore) SetFields(ctx context.Context, id domain.UserID, update domain.FieldUpdate) error {
	if err := update.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	rec, ok := m.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.writeCalls++
	update.Apply(&rec.Authorization)
	rec.Authorization.UpdatedAt = time.Now()
	return nil
}

func (m *MockUserRecordStore) SetAuthenticated(ctx context.Context, id domain.UserID, authenticated bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	rec, ok := m.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.writeCalls++
	rec.Status.Authenticated = authenticated
	rec.Status.UpdatedAt = time.Now()
	return nil
}

func (m *MockUserRecordStore) Ping(ctx context.Context) error {
	return m.Err
}

// Helper methods for testing

// Put stores a record directly, bypassing write counters.
func (m *MockUserRecordStore) Put(rec *domain.UserRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Status.UserID] = cloneRecord(rec)
}

// Record returns a copy of the stored record, or nil.
func (m *MockUserRecordStore) Record(id domain.UserID) *domain.UserRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil
	}
	return cloneRecord(rec)
}

// Writes returns the number of SetFields and SetAuthenticated calls that
// reached the store.
func (m *MockUserRecordStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writeCalls
}

// Creates returns the number of Ensure calls that created records.
func (m *MockUserRecordStore) Creates() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.createCalls
}

func (m *MockUserRecordStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *MockUserRecordStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[domain.UserID]*domain.UserRecord)
	m.ensureCalls, m.createCalls, m.writeCalls = 0, 0, 0
	m.Err = nil
}

func cloneRecord(rec *domain.UserRecord) *domain.UserRecord {
	c := *rec
	a := &c.Authorization
	a.PendingMessageRef = cloneString(rec.Authorization.PendingMessageRef)
	a.PendingCode = cloneString(rec.Authorization.PendingCode)
	a.PendingAuthURL = cloneString(rec.Authorization.PendingAuthURL)
	a.AccessToken = cloneString(rec.Authorization.AccessToken)
	a.Username = cloneString(rec.Authorization.Username)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
