package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/omriShneor/clarity/internal/calformat"
	"github.com/omriShneor/clarity/internal/chat"
	"github.com/omriShneor/clarity/internal/logging"
	"github.com/omriShneor/clarity/internal/sse"
)

// Health

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	// Check database connectivity
	if err := s.db.Ping(); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	status := map[string]interface{}{
		"status":   "healthy",
		"calendar": "not_configured",
		"llm":      "not_configured",
	}
	if s.calendarConfigured {
		status["calendar"] = "configured"
	}
	if s.llmConfigured {
		status["llm"] = "configured"
	}

	respondJSON(w, http.StatusOK, status)
}

// Chat API

type chatRequest struct {
	SessionID   string `json:"session_id"`
	Message     string `json:"message"`
	Interactive *bool  `json:"interactive,omitempty"`
}

type chatResponse struct {
	SessionID string                      `json:"session_id"`
	Message   *chat.Message               `json:"message"`
	Display   calformat.FormattedResponse `json:"display"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, chat.ErrEmptyMessage.Error())
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	interactive := req.Interactive == nil || *req.Interactive

	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		if _, ok := sse.PrepareStream(w); ok {
			s.streamChat(w, r, req, interactive)
			return
		}
	}

	msg, err := s.chat.Send(r.Context(), req.SessionID, req.Message, nil)
	if err != nil {
		s.respondChatError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, chatResponse{
		SessionID: msg.SessionID,
		Message:   msg,
		Display:   s.chat.Display(msg, interactive),
	})
}

// streamChat answers with "session", "delta"... and a final "message" event
func (s *Server) streamChat(w http.ResponseWriter, r *http.Request, req chatRequest, interactive bool) {
	w.WriteHeader(http.StatusOK)
	if err := sse.WriteEvent(w, "session", req.SessionID); err != nil {
		s.logger.Warn().Err(err).Str("session_id", req.SessionID).Msg("client went away")
		return
	}

	// after a failed write the reply is still stored, only the stream stops
	var writeErr error
	msg, err := s.chat.Send(r.Context(), req.SessionID, req.Message, func(delta string) {
		if writeErr != nil {
			return
		}
		writeErr = sse.WriteEvent(w, "delta", delta)
	})
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", req.SessionID).Msg("chat failed")
		data, _ := json.Marshal(map[string]string{"error": err.Error()})
		if err := sse.WriteEvent(w, "error", string(data)); err != nil {
			s.logger.Warn().Err(err).Str("session_id", req.SessionID).Msg("failed to write error event")
		}
		return
	}
	if writeErr != nil {
		s.logger.Warn().Err(writeErr).Str("session_id", req.SessionID).Msg("client went away")
		return
	}

	data, err := json.Marshal(chatResponse{
		SessionID: msg.SessionID,
		Message:   msg,
		Display:   s.chat.Display(msg, interactive),
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode chat response")
		return
	}
	if err := sse.WriteEvent(w, "message", string(data)); err != nil {
		s.logger.Warn().Err(err).Str("session_id", req.SessionID).Msg("failed to write message event")
	}
}

func (s *Server) respondChatError(w http.ResponseWriter, err error) {
	if errors.Is(err, chat.ErrEmptyMessage) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error().Err(err).Msg("chat failed")
	respondError(w, http.StatusInternalServerError, err.Error())
}

// Sessions API

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.chat.Sessions()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

type displayedMessage struct {
	Message chat.Message                `json:"message"`
	Display calformat.FormattedResponse `json:"display"`
}

func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	interactive := true
	if v := r.URL.Query().Get("interactive"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid interactive flag")
			return
		}
		interactive = parsed
	}

	history, err := s.chat.History(sessionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(history) == 0 {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}

	messages := make([]displayedMessage, 0, len(history))
	for i := range history {
		messages = append(messages, displayedMessage{
			Message: history[i],
			Display: s.chat.Display(&history[i], interactive),
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"messages":   messages,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	existed, err := s.chat.DeleteSession(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !existed {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleSessionStream(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	flusher, ok := sse.PrepareStream(w)
	if !ok {
		respondError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	hub := s.chat.Hub()
	updates := hub.Subscribe(sessionID)
	defer hub.Unsubscribe(sessionID, updates)

	if err := sse.WriteEvent(w, "ready", sessionID); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if err := sse.WriteEvent(w, update.Type, update.Data); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

// Formatting API

type formatRequest struct {
	Text        string `json:"text"`
	Interactive *bool  `json:"interactive,omitempty"`
}

func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	var req formatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	interactive := req.Interactive == nil || *req.Interactive

	respondJSON(w, http.StatusOK, s.formatter.FormatFor(req.Text, interactive))
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger := logging.For("http")
		logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
