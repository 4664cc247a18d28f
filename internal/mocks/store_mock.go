package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/omriShneor/clarity/internal/database"
)

// MockStore is a mock implementation of chat persistence
type MockStore struct {
	mock.Mock
}

func (m *MockStore) SaveMessage(msg *database.ChatMessage) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockStore) GetSessionMessages(sessionID string, limit int) ([]database.ChatMessage, error) {
	args := m.Called(sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.ChatMessage), args.Error(1)
}

func (m *MockStore) ListSessions() ([]database.SessionSummary, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]database.SessionSummary), args.Error(1)
}

func (m *MockStore) DeleteSession(sessionID string) (int64, error) {
	args := m.Called(sessionID)
	return args.Get(0).(int64), args.Error(1)
}
