package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/omriShneor/clarity/internal/llm"
)

// MockChatModel is a mock implementation of the streaming language model client.
// Deltas set with StreamDeltas are replayed through onDelta before returning.
type MockChatModel struct {
	mock.Mock
	deltas []string
}

// StreamDeltas sets the fragments passed to onDelta on every Stream call
func (m *MockChatModel) StreamDeltas(deltas ...string) *MockChatModel {
	m.deltas = deltas
	return m
}

func (m *MockChatModel) Stream(ctx context.Context, turns []llm.Turn, onDelta func(string)) (string, error) {
	args := m.Called(ctx, turns)
	if onDelta != nil {
		for _, d := range m.deltas {
			onDelta(d)
		}
	}
	return args.String(0), args.Error(1)
}
