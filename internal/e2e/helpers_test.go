package e2e

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omriShneor/clarity/internal/calformat"
	"github.com/omriShneor/clarity/internal/database"
	"github.com/omriShneor/clarity/internal/testutil"
)

type chatResult struct {
	SessionID string                      `json:"session_id"`
	Message   database.ChatMessage        `json:"message"`
	Display   calformat.FormattedResponse `json:"display"`
}

type streamEvent struct {
	Name string
	Data string
}

func postChat(t *testing.T, ts *testutil.TestServer, body map[string]interface{}) chatResult {
	t.Helper()

	resp := doJSON(t, ts, http.MethodPost, "/api/chat", body)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result chatResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func doJSON(t *testing.T, ts *testutil.TestServer, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.BaseURL()+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	return resp
}

// readEvents parses a finished event stream
func readEvents(t *testing.T, r io.Reader) []streamEvent {
	t.Helper()

	var events []streamEvent
	var current streamEvent
	var data []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if current.Name != "" || len(data) > 0 {
				current.Data = strings.Join(data, "\n")
				events = append(events, current)
			}
			current, data = streamEvent{}, nil
		case strings.HasPrefix(line, "event: "):
			current.Name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
	require.NoError(t, scanner.Err())
	return events
}
