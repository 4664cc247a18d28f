package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/omriShneor/clarity/internal/database"
	"github.com/omriShneor/clarity/internal/llm"
	"github.com/omriShneor/clarity/internal/mocks"
	"github.com/omriShneor/clarity/internal/webhook"
)

func TestSend_UserMessageSaveFails(t *testing.T) {
	store := &mocks.MockStore{}
	calendar := &mocks.MockCalendarClient{}
	store.On("SaveMessage", mock.Anything).Return(errors.New("disk full")).Once()

	svc := NewService(Config{Store: store, Calendar: calendar})

	_, err := svc.Send(context.Background(), "s1", "today?", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save user message")
	calendar.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestSend_AssistantMessageSaveFails(t *testing.T) {
	store := &mocks.MockStore{}
	calendar := &mocks.MockCalendarClient{}
	store.On("SaveMessage", mock.MatchedBy(func(m *database.ChatMessage) bool {
		return m.Role == database.RoleUser
	})).Return(nil).Once()
	store.On("SaveMessage", mock.MatchedBy(func(m *database.ChatMessage) bool {
		return m.Role == database.RoleAssistant
	})).Return(errors.New("locked")).Once()
	calendar.On("Query", mock.Anything, "s1", "today?").Return(&webhook.Reply{Spoken: "Nothing"}, nil).Once()

	svc := NewService(Config{Store: store, Calendar: calendar})

	_, err := svc.Send(context.Background(), "s1", "today?", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save assistant message")
	store.AssertExpectations(t)
	calendar.AssertExpectations(t)
}

func TestSend_HistoryLimitPassedToStore(t *testing.T) {
	store := &mocks.MockStore{}
	model := (&mocks.MockChatModel{}).StreamDeltas("Hi", "!")
	history := []database.ChatMessage{
		{Role: database.RoleUser, Content: "hello"},
	}

	store.On("SaveMessage", mock.Anything).Return(nil).Twice()
	store.On("GetSessionMessages", "s1", 7).Return(history, nil).Once()
	model.On("Stream", mock.Anything, []llm.Turn{{Role: database.RoleUser, Content: "hello"}}).Return("Hi!", nil).Once()

	svc := NewService(Config{Store: store, Model: model, Router: rejectAll{}, HistorySize: 7})

	var deltas []string
	msg, err := svc.Send(context.Background(), "s1", "hello", func(d string) { deltas = append(deltas, d) })

	require.NoError(t, err)
	assert.Equal(t, "Hi!", msg.Content)
	assert.Equal(t, []string{"Hi", "!"}, deltas)
	store.AssertExpectations(t)
	model.AssertExpectations(t)
}

func TestSend_HistoryLoadFailsStoresApology(t *testing.T) {
	store := &mocks.MockStore{}
	model := &mocks.MockChatModel{}

	store.On("SaveMessage", mock.Anything).Return(nil).Twice()
	store.On("GetSessionMessages", "s1", 0).Return(nil, errors.New("no such table")).Once()

	svc := NewService(Config{Store: store, Model: model, Router: rejectAll{}})

	msg, err := svc.Send(context.Background(), "s1", "hello", nil)

	require.NoError(t, err)
	assert.Equal(t, "Sorry, I couldn't process your request. Error: no such table", msg.Content)
	model.AssertNotCalled(t, "Stream", mock.Anything, mock.Anything)
}

func TestSend_NoCalendarClient(t *testing.T) {
	store := &mocks.MockStore{}
	store.On("SaveMessage", mock.Anything).Return(nil).Twice()

	svc := NewService(Config{Store: store})

	msg, err := svc.Send(context.Background(), "s1", "today?", nil)

	require.NoError(t, err)
	assert.Equal(t, "Sorry, I couldn't retrieve your calendar information. Error: calendar webhook URL not configured", msg.Content)
}

func TestSessions_PassThrough(t *testing.T) {
	store := &mocks.MockStore{}
	store.On("ListSessions").Return([]database.SessionSummary{{ID: "a", MessageCount: 2}}, nil)
	store.On("DeleteSession", "a").Return(int64(2), nil)
	store.On("DeleteSession", "b").Return(int64(0), errors.New("busy"))

	svc := NewService(Config{Store: store})

	sessions, err := svc.Sessions()
	require.NoError(t, err)
	assert.Equal(t, []database.SessionSummary{{ID: "a", MessageCount: 2}}, sessions)

	existed, err := svc.DeleteSession("a")
	require.NoError(t, err)
	assert.True(t, existed)

	_, err = svc.DeleteSession("b")
	assert.Error(t, err)
}
