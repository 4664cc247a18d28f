package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/omriShneor/clarity/internal/calformat"
	"github.com/omriShneor/clarity/internal/chat"
	"github.com/omriShneor/clarity/internal/classifier"
	"github.com/omriShneor/clarity/internal/config"
	"github.com/omriShneor/clarity/internal/database"
	"github.com/omriShneor/clarity/internal/llm"
	"github.com/omriShneor/clarity/internal/server"
	"github.com/omriShneor/clarity/internal/webhook"
)

// TestServer wraps a server for E2E testing
type TestServer struct {
	Server     *server.Server
	Chat       *chat.Service
	DB         *database.DB
	HTTPServer *httptest.Server
	t          *testing.T

	// Fake upstreams
	Webhook *MockWebhook
	Model   *MockModel

	routing       string
	disambiguate  bool
	legacyPayload bool
	historySize   int
}

// TestServerOption configures a test server
type TestServerOption func(*TestServer)

// NewTestServer creates a fully wired chat server backed by an in-memory
// database and fake calendar and model upstreams.
func NewTestServer(t *testing.T, opts ...TestServerOption) *TestServer {
	t.Helper()

	db, err := database.New(":memory:")
	require.NoError(t, err, "failed to create test database")

	ts := &TestServer{
		DB:          db,
		t:           t,
		Webhook:     NewMockWebhook(t),
		Model:       NewMockModel(t),
		routing:     config.RoutingAll,
		historySize: 25,
	}

	for _, opt := range opts {
		opt(ts)
	}

	calendar := webhook.NewClient(ts.Webhook.URL(), webhook.Options{
		Timeout:       5 * time.Second,
		LegacyPayload: ts.legacyPayload,
	})
	model := llm.NewClient("test-key", "", 0).WithAPIURL(ts.Model.URL())
	formatter := calformat.New(calformat.Options{DisambiguateDuplicateDays: ts.disambiguate})

	ts.Chat = chat.NewService(chat.Config{
		Store:       db,
		Router:      classifier.New(ts.routing),
		Calendar:    calendar,
		Model:       model,
		Formatter:   formatter,
		HistorySize: ts.historySize,
	})

	ts.Server = server.New(server.ServerConfig{
		DB:                 db,
		Chat:               ts.Chat,
		Formatter:          formatter,
		Port:               0, // Will use httptest server
		CalendarConfigured: true,
		LLMConfigured:      true,
	})

	ts.HTTPServer = httptest.NewServer(ts.Server.Handler())

	t.Cleanup(func() {
		ts.HTTPServer.Close()
		db.Close()
	})

	return ts
}

// BaseURL returns the test server base URL
func (ts *TestServer) BaseURL() string {
	return ts.HTTPServer.URL
}

// Client returns an HTTP client configured for the test server
func (ts *TestServer) Client() *http.Client {
	return ts.HTTPServer.Client()
}

// WithRouting selects the routing mode ("all" or "keywords")
func WithRouting(mode string) TestServerOption {
	return func(ts *TestServer) {
		ts.routing = mode
	}
}

// WithDisambiguate keeps repeated day headers as separate groups
func WithDisambiguate() TestServerOption {
	return func(ts *TestServer) {
		ts.disambiguate = true
	}
}

// WithLegacyPayload sends sessionId and action alongside chatInput
func WithLegacyPayload() TestServerOption {
	return func(ts *TestServer) {
		ts.legacyPayload = true
	}
}

// WithHistorySize bounds the turns sent to the model
func WithHistorySize(n int) TestServerOption {
	return func(ts *TestServer) {
		ts.historySize = n
	}
}
