package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/omriShneor/clarity/internal/calformat"
	"github.com/omriShneor/clarity/internal/classifier"
	"github.com/omriShneor/clarity/internal/database"
	"github.com/omriShneor/clarity/internal/llm"
	"github.com/omriShneor/clarity/internal/logging"
	"github.com/omriShneor/clarity/internal/sse"
	"github.com/omriShneor/clarity/internal/webhook"
)

// ErrEmptyMessage is returned when the user sends only whitespace
var ErrEmptyMessage = errors.New("message is empty")

const (
	calendarApology = "Sorry, I couldn't retrieve your calendar information. Error: "
	chatApology     = "Sorry, I couldn't process your request. Error: "
)

// Message is a stored chat turn
type Message = database.ChatMessage

// CalendarClient answers calendar questions
type CalendarClient interface {
	Query(ctx context.Context, sessionID, input string) (*webhook.Reply, error)
}

// ChatModel answers everything else, streaming its reply
type ChatModel interface {
	Stream(ctx context.Context, turns []llm.Turn, onDelta func(string)) (string, error)
}

// Store persists chat sessions
type Store interface {
	SaveMessage(m *database.ChatMessage) error
	GetSessionMessages(sessionID string, limit int) ([]database.ChatMessage, error)
	ListSessions() ([]database.SessionSummary, error)
	DeleteSession(sessionID string) (int64, error)
}

// Config wires the service dependencies
type Config struct {
	Store       Store
	Router      classifier.Router
	Calendar    CalendarClient
	Model       ChatModel
	Hub         *sse.Hub
	Formatter   *calformat.Formatter
	HistorySize int
}

// Service routes user messages to the calendar webhook or the language model
// and keeps the conversation.
type Service struct {
	store       Store
	router      classifier.Router
	calendar    CalendarClient
	model       ChatModel
	hub         *sse.Hub
	formatter   *calformat.Formatter
	historySize int
	logger      zerolog.Logger
}

// NewService creates a chat service. Router, Hub, and Formatter get defaults when nil.
func NewService(cfg Config) *Service {
	if cfg.Router == nil {
		cfg.Router = classifier.NewSafetyRouter()
	}
	if cfg.Hub == nil {
		cfg.Hub = sse.NewHub()
	}
	if cfg.Formatter == nil {
		cfg.Formatter = calformat.New(calformat.Options{})
	}

	return &Service{
		store:       cfg.Store,
		router:      cfg.Router,
		calendar:    cfg.Calendar,
		model:       cfg.Model,
		hub:         cfg.Hub,
		formatter:   cfg.Formatter,
		historySize: cfg.HistorySize,
		logger:      logging.For("chat"),
	}
}

// Hub returns the hub new assistant messages are published on
func (s *Service) Hub() *sse.Hub {
	return s.hub
}

// Send stores the user message, answers it and returns the stored assistant
// message. An empty sessionID starts a new session. onDelta, when set,
// receives the model reply as it streams.
func (s *Service) Send(ctx context.Context, sessionID, text string, onDelta func(string)) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	userMsg := &Message{
		SessionID: sessionID,
		Role:      database.RoleUser,
		Content:   text,
		Source:    database.SourceUser,
	}
	if err := s.store.SaveMessage(userMsg); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	decision := s.router.Route(text)
	s.logger.Debug().
		Str("session_id", sessionID).
		Bool("calendar", decision.Calendar).
		Str("reason", decision.Reason).
		Msg("routed message")

	var reply *Message
	if decision.Calendar {
		reply = s.askCalendar(ctx, sessionID, text)
	} else {
		reply = s.askModel(ctx, sessionID, onDelta)
	}

	if err := s.store.SaveMessage(reply); err != nil {
		return nil, fmt.Errorf("failed to save assistant message: %w", err)
	}

	if err := s.hub.PublishJSON(sessionID, "message", reply); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("failed to publish message")
	}

	return reply, nil
}

func (s *Service) askCalendar(ctx context.Context, sessionID, text string) *Message {
	msg := &Message{
		SessionID: sessionID,
		Role:      database.RoleAssistant,
		Source:    database.SourceWebhook,
	}

	if s.calendar == nil {
		msg.Content = calendarApology + webhook.ErrNotConfigured.Error()
		return msg
	}

	reply, err := s.calendar.Query(ctx, sessionID, text)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("calendar query failed")
		msg.Content = calendarApology + err.Error()
		return msg
	}

	msg.Content = reply.Spoken
	msg.WebResponse = reply.WebResponse
	msg.Shape = calformat.Shape(reply.DisplayText())

	s.logger.Info().
		Str("session_id", sessionID).
		Str("shape", msg.Shape).
		Int("events", len(calformat.ParseEvents(reply.DisplayText()))).
		Bool("web_response", reply.WebResponse != "").
		Msg("calendar reply received")

	return msg
}

func (s *Service) askModel(ctx context.Context, sessionID string, onDelta func(string)) *Message {
	msg := &Message{
		SessionID: sessionID,
		Role:      database.RoleAssistant,
		Source:    database.SourceLLM,
	}

	if s.model == nil {
		msg.Content = chatApology + llm.ErrNotConfigured.Error()
		return msg
	}

	history, err := s.store.GetSessionMessages(sessionID, s.historySize)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to load history")
		msg.Content = chatApology + err.Error()
		return msg
	}

	turns := make([]llm.Turn, 0, len(history))
	for _, h := range history {
		turns = append(turns, llm.Turn{Role: h.Role, Content: h.Content})
	}

	text, err := s.model.Stream(ctx, turns, func(delta string) {
		if onDelta != nil {
			onDelta(delta)
		}
		s.hub.Publish(sessionID, sse.Update{Type: "delta", Data: delta})
	})
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty response from model")
	}
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("model reply failed")
		msg.Content = chatApology + err.Error()
		return msg
	}

	msg.Content = text
	return msg
}

// History returns the whole conversation of a session, oldest first
func (s *Service) History(sessionID string) ([]Message, error) {
	return s.store.GetSessionMessages(sessionID, 0)
}

// Sessions lists known sessions, most recently active first
func (s *Service) Sessions() ([]database.SessionSummary, error) {
	return s.store.ListSessions()
}

// DeleteSession forgets a session and reports whether it existed
func (s *Service) DeleteSession(sessionID string) (bool, error) {
	n, err := s.store.DeleteSession(sessionID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Display builds the document shown for a message. Calendar replies are
// interpreted, preferring the web response; everything else is plain text.
func (s *Service) Display(msg *Message, interactive bool) calformat.FormattedResponse {
	if !IsCalendarResponse(msg) {
		return calformat.Plain([]calformat.Segment{calformat.TextSegment(msg.Content)})
	}

	text := msg.Content
	if msg.WebResponse != "" {
		text = msg.WebResponse
	}
	return s.formatter.FormatFor(text, interactive)
}

// IsCalendarResponse reports whether an assistant message carries calendar content
func IsCalendarResponse(msg *Message) bool {
	if msg.Role != database.RoleAssistant {
		return false
	}
	return msg.Source == database.SourceWebhook || msg.WebResponse != ""
}
