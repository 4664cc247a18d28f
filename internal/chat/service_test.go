package chat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omriShneor/clarity/internal/calformat"
	"github.com/omriShneor/clarity/internal/classifier"
	"github.com/omriShneor/clarity/internal/database"
	"github.com/omriShneor/clarity/internal/llm"
	"github.com/omriShneor/clarity/internal/webhook"
)

type fakeCalendar struct {
	reply   *webhook.Reply
	err     error
	inputs  []string
	session string
}

func (f *fakeCalendar) Query(_ context.Context, sessionID, input string) (*webhook.Reply, error) {
	f.session = sessionID
	f.inputs = append(f.inputs, input)
	return f.reply, f.err
}

type fakeModel struct {
	deltas []string
	err    error
	turns  []llm.Turn
}

func (f *fakeModel) Stream(_ context.Context, turns []llm.Turn, onDelta func(string)) (string, error) {
	f.turns = turns
	full := ""
	for _, d := range f.deltas {
		full += d
		onDelta(d)
	}
	return full, f.err
}

type rejectAll struct{}

func (rejectAll) Route(string) classifier.Decision {
	return classifier.Decision{Calendar: false, Reason: "test"}
}

func newTestService(t *testing.T, cal CalendarClient, model ChatModel, router classifier.Router) *Service {
	t.Helper()
	return NewService(Config{
		Store:       database.NewTestDB(t),
		Router:      router,
		Calendar:    cal,
		Model:       model,
		HistorySize: 10,
	})
}

func TestSend_EmptyMessage(t *testing.T) {
	svc := newTestService(t, &fakeCalendar{}, &fakeModel{}, nil)

	_, err := svc.Send(context.Background(), "s1", "   \n", nil)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	sessions, err := svc.Sessions()
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSend_CalendarReply(t *testing.T) {
	cal := &fakeCalendar{reply: &webhook.Reply{
		Spoken:      "You have 1 event today",
		WebResponse: "**Today**\n**Monday**\n• 9:00 AM: Standup",
	}}
	svc := newTestService(t, cal, &fakeModel{}, nil)

	msg, err := svc.Send(context.Background(), "s1", "  what's on today?  ", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"what's on today?"}, cal.inputs)
	assert.Equal(t, "s1", cal.session)
	assert.Equal(t, database.RoleAssistant, msg.Role)
	assert.Equal(t, database.SourceWebhook, msg.Source)
	assert.Equal(t, "You have 1 event today", msg.Content)
	assert.Equal(t, "day_header", msg.Shape)
	assert.NotZero(t, msg.ID)

	history, err := svc.History("s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, database.RoleUser, history[0].Role)
	assert.Equal(t, "what's on today?", history[0].Content)
	assert.Equal(t, msg.WebResponse, history[1].WebResponse)
}

func TestSend_CalendarFailureStoresApology(t *testing.T) {
	cal := &fakeCalendar{err: &webhook.StatusError{Code: 500}}
	svc := newTestService(t, cal, &fakeModel{}, nil)

	msg, err := svc.Send(context.Background(), "s1", "my schedule", nil)
	require.NoError(t, err)

	assert.Equal(t, "Sorry, I couldn't retrieve your calendar information. Error: HTTP error! status: 500", msg.Content)
	assert.Equal(t, database.SourceWebhook, msg.Source)
}

func TestSend_ModelReplyStreams(t *testing.T) {
	model := &fakeModel{deltas: []string{"Why did ", "the chicken..."}}
	svc := newTestService(t, &fakeCalendar{}, model, rejectAll{})

	sub := svc.Hub().Subscribe("s1")
	defer svc.Hub().Unsubscribe("s1", sub)

	var streamed []string
	msg, err := svc.Send(context.Background(), "s1", "tell me a joke", func(d string) {
		streamed = append(streamed, d)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Why did ", "the chicken..."}, streamed)
	assert.Equal(t, "Why did the chicken...", msg.Content)
	assert.Equal(t, database.SourceLLM, msg.Source)
	assert.Equal(t, []llm.Turn{{Role: database.RoleUser, Content: "tell me a joke"}}, model.turns)

	// two deltas then the final message
	var types []string
	for i := 0; i < 3; i++ {
		select {
		case u := <-sub:
			types = append(types, u.Type)
			if u.Type == "message" {
				var published Message
				require.NoError(t, json.Unmarshal([]byte(u.Data), &published))
				assert.Equal(t, msg.ID, published.ID)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for update")
		}
	}
	assert.Equal(t, []string{"delta", "delta", "message"}, types)
}

func TestSend_ModelGetsHistory(t *testing.T) {
	model := &fakeModel{deltas: []string{"ok"}}
	svc := newTestService(t, &fakeCalendar{}, model, rejectAll{})

	_, err := svc.Send(context.Background(), "s1", "first", nil)
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), "s1", "second", nil)
	require.NoError(t, err)

	assert.Equal(t, []llm.Turn{
		{Role: database.RoleUser, Content: "first"},
		{Role: database.RoleAssistant, Content: "ok"},
		{Role: database.RoleUser, Content: "second"},
	}, model.turns)
}

func TestSend_ModelFailureStoresApology(t *testing.T) {
	tests := []struct {
		name     string
		model    ChatModel
		expected string
	}{
		{
			name:     "stream error",
			model:    &fakeModel{err: errors.New("overloaded")},
			expected: "Sorry, I couldn't process your request. Error: overloaded",
		},
		{
			name:     "empty reply",
			model:    &fakeModel{},
			expected: "Sorry, I couldn't process your request. Error: empty response from model",
		},
		{
			name:     "no model",
			model:    nil,
			expected: "Sorry, I couldn't process your request. Error: language model API key not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, &fakeCalendar{}, tt.model, rejectAll{})

			msg, err := svc.Send(context.Background(), "s1", "hello", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, msg.Content)
			assert.Equal(t, database.SourceLLM, msg.Source)
		})
	}
}

func TestSend_NewSession(t *testing.T) {
	cal := &fakeCalendar{reply: &webhook.Reply{Spoken: "Nothing today"}}
	svc := newTestService(t, cal, &fakeModel{}, nil)

	msg, err := svc.Send(context.Background(), "", "today?", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, msg.SessionID)

	sessions, err := svc.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, msg.SessionID, sessions[0].ID)
	assert.Equal(t, 2, sessions[0].MessageCount)
}

func TestDeleteSession(t *testing.T) {
	cal := &fakeCalendar{reply: &webhook.Reply{Spoken: "ok"}}
	svc := newTestService(t, cal, &fakeModel{}, nil)

	_, err := svc.Send(context.Background(), "s1", "today?", nil)
	require.NoError(t, err)

	existed, err := svc.DeleteSession("s1")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = svc.DeleteSession("s1")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestDisplay(t *testing.T) {
	svc := newTestService(t, &fakeCalendar{}, &fakeModel{}, nil)

	t.Run("calendar reply prefers web response", func(t *testing.T) {
		msg := &Message{
			Role:        database.RoleAssistant,
			Source:      database.SourceWebhook,
			Content:     "You have 1 event",
			WebResponse: "**Week**\n**Monday**\n• 9:00 AM: Standup",
		}
		resp := svc.Display(msg, true)
		require.True(t, resp.IsStructured())
		assert.Equal(t, "Week", resp.Title)
	})

	t.Run("calendar reply falls back to content", func(t *testing.T) {
		msg := &Message{
			Role:    database.RoleAssistant,
			Source:  database.SourceWebhook,
			Content: "You have 1 event today: Monday, Jun 9 at 7:00 AM: Gym",
		}
		resp := svc.Display(msg, true)
		require.True(t, resp.IsStructured())
		assert.Equal(t, "You have 1 event today:", resp.Title)
	})

	t.Run("non-interactive passes text through", func(t *testing.T) {
		msg := &Message{Role: database.RoleAssistant, Source: database.SourceWebhook, Content: "See https://cal.example"}
		resp := svc.Display(msg, false)
		assert.Equal(t, calformat.Plain([]calformat.Segment{calformat.TextSegment("See https://cal.example")}), resp)
	})

	t.Run("model reply is plain text", func(t *testing.T) {
		msg := &Message{Role: database.RoleAssistant, Source: database.SourceLLM, Content: "**bold** https://x.example"}
		resp := svc.Display(msg, true)
		assert.Equal(t, calformat.Plain([]calformat.Segment{calformat.TextSegment("**bold** https://x.example")}), resp)
	})

	t.Run("model reply listing events stays plain", func(t *testing.T) {
		content := "Sure! Upcoming events: Monday, Jun 9 at 7:00 AM: Gym"
		msg := &Message{Role: database.RoleAssistant, Source: database.SourceLLM, Content: content}
		resp := svc.Display(msg, true)
		assert.Equal(t, calformat.Plain([]calformat.Segment{calformat.TextSegment(content)}), resp)
	})

	t.Run("user message is plain text", func(t *testing.T) {
		msg := &Message{Role: database.RoleUser, Source: database.SourceUser, Content: "events: next week"}
		assert.Equal(t, calformat.KindPlain, svc.Display(msg, true).Kind)
	})
}

func TestIsCalendarResponse(t *testing.T) {
	assert.True(t, IsCalendarResponse(&Message{Role: database.RoleAssistant, Source: database.SourceWebhook}))
	assert.False(t, IsCalendarResponse(&Message{Role: database.RoleAssistant, Source: database.SourceLLM, Content: "You have 2 events:"}))
	assert.True(t, IsCalendarResponse(&Message{Role: database.RoleAssistant, Source: database.SourceLLM, WebResponse: "**Week**"}))
	assert.False(t, IsCalendarResponse(&Message{Role: database.RoleAssistant, Source: database.SourceLLM, Content: "hello"}))
	assert.False(t, IsCalendarResponse(&Message{Role: database.RoleUser, Source: database.SourceUser, WebResponse: "x"}))
}
