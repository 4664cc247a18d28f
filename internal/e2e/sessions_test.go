package e2e

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omriShneor/clarity/internal/calformat"
	"github.com/omriShneor/clarity/internal/database"
	"github.com/omriShneor/clarity/internal/testutil"
)

func TestSessionLifecycle(t *testing.T) {
	ts := testutil.NewTestServer(t)

	first := postChat(t, ts, map[string]interface{}{"message": "What's today?"})
	require.NotEmpty(t, first.SessionID)

	postChat(t, ts, map[string]interface{}{"session_id": first.SessionID, "message": "And tomorrow?"})
	postChat(t, ts, map[string]interface{}{"session_id": "other", "message": "Next week?"})

	t.Run("list sessions most recent first", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodGet, "/api/sessions", nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Sessions []database.SessionSummary `json:"sessions"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

		assert.Equal(t, []database.SessionSummary{
			{ID: "other", MessageCount: 2},
			{ID: first.SessionID, MessageCount: 4},
		}, result.Sessions)
	})

	t.Run("history in order with display", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodGet, "/api/sessions/"+first.SessionID+"/messages", nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			SessionID string `json:"session_id"`
			Messages  []struct {
				Message database.ChatMessage        `json:"message"`
				Display calformat.FormattedResponse `json:"display"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

		assert.Equal(t, first.SessionID, result.SessionID)
		require.Len(t, result.Messages, 4)
		assert.Equal(t, "What's today?", result.Messages[0].Message.Content)
		assert.Equal(t, database.RoleUser, result.Messages[0].Message.Role)
		assert.Equal(t, database.RoleAssistant, result.Messages[1].Message.Role)
		assert.Equal(t, "And tomorrow?", result.Messages[2].Message.Content)
		assert.Equal(t, calformat.KindPlain, result.Messages[0].Display.Kind)
	})

	t.Run("delete session", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodDelete, "/api/sessions/"+first.SessionID, nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp = doJSON(t, ts, http.MethodGet, "/api/sessions/"+first.SessionID+"/messages", nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp = doJSON(t, ts, http.MethodDelete, "/api/sessions/"+first.SessionID, nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestChatValidation(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := doJSON(t, ts, http.MethodPost, "/api/chat", map[string]string{"message": "   "})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Empty(t, ts.Webhook.Calls())
	assert.Empty(t, ts.Model.Requests())
}

func TestFormatEndpoint(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := doJSON(t, ts, http.MethodPost, "/api/format", map[string]string{
		"text": "You have 1 event tomorrow: Tuesday, Jun 10 at 8:30 AM: Flight",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var formatted calformat.FormattedResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&formatted))

	assert.Equal(t, calformat.Structured("You have 1 event tomorrow:", []calformat.DayGroup{{
		Label: "Tuesday, Jun 10",
		Lines: []calformat.Line{calformat.EventLine("8:30 AM", "Flight")},
	}}), formatted)
}
