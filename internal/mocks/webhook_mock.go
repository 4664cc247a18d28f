package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/omriShneor/clarity/internal/webhook"
)

// MockCalendarClient is a mock implementation of the calendar webhook client
type MockCalendarClient struct {
	mock.Mock
}

func (m *MockCalendarClient) Query(ctx context.Context, sessionID, input string) (*webhook.Reply, error) {
	args := m.Called(ctx, sessionID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*webhook.Reply), args.Error(1)
}
