package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/pocketbot/internal/core/domain"
)

// SentMessage records a Send call.
type SentMessage struct {
	ChatID  int64
	Message domain.OutgoingMessage
	Ref     domain.MessageRef
}

// EditedMessage records an Edit call.
type EditedMessage struct {
	Ref     domain.MessageRef
	Message domain.OutgoingMessage
}

// MockMessenger records every message operation.
type MockMessenger struct {
	mu     sync.Mutex
	nextID int

	Sent     []SentMessage
	Edited   []EditedMessage
	Deleted  []domain.MessageRef
	Answered []string

	// Custom behavior hooks (optional)
	SendFn   func(chatID int64, msg domain.OutgoingMessage) (domain.MessageRef, error)
	EditFn   func(ref domain.MessageRef, msg domain.OutgoingMessage) error
	DeleteFn func(ref domain.MessageRef) error
}

// NewMockMessenger creates a new MockMessenger.
func NewMockMessenger() *MockMessenger {
	return &MockMessenger{nextID: 100}
}

func (m *MockMessenger) Send(ctx context.Context, chatID int64, msg domain.OutgoingMessage) (domain.MessageRef, error) {
	if m.SendFn != nil {
		return m.SendFn(chatID, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	ref := domain.MessageRef{ChatID: chatID, MessageID: m.nextID}
	m.Sent = append(m.Sent, SentMessage{ChatID: chatID, Message: msg, Ref: ref})
	return ref, nil
}

func (m *MockMessenger) Edit(ctx context.Context, ref domain.MessageRef, msg domain.OutgoingMessage) error {
	if m.EditFn != nil {
		return m.EditFn(ref, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Edited = append(m.Edited, EditedMessage{Ref: ref, Message: msg})
	return nil
}

func (m *MockMessenger) Delete(ctx context.Context, ref domain.MessageRef) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ref)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, ref)
	return nil
}

func (m *MockMessenger) AnswerCallback(ctx context.Context, callbackID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Answered = append(m.Answered, callbackID)
	return nil
}

// LastSent returns the most recent sent message.
func (m *MockMessenger) LastSent() (SentMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return SentMessage{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}

// LastEdited returns the most recent edit.
func (m *MockMessenger) LastEdited() (EditedMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Edited) == 0 {
		return EditedMessage{}, false
	}
	return m.Edited[len(m.Edited)-1], true
}
