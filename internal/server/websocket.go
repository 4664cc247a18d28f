package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/omriShneor/clarity/internal/calformat"
	"github.com/omriShneor/clarity/internal/chat"
	"github.com/omriShneor/clarity/internal/sse"
)

const (
	socketWriteWait   = 10 * time.Second
	socketMaxInbound  = 64 * 1024
	socketPingPeriod  = 30 * time.Second
	socketPongTimeout = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type socketInbound struct {
	Message string `json:"message"`
}

type socketOutbound struct {
	Type    string                       `json:"type"`
	Data    string                       `json:"data,omitempty"`
	Message *chat.Message                `json:"message,omitempty"`
	Display *calformat.FormattedResponse `json:"display,omitempty"`
	Error   string                       `json:"error,omitempty"`
}

// handleSessionSocket is a two-way alternative to the SSE session stream.
// Inbound frames are chat messages for the session; outbound frames carry
// "delta", "message" and "error" updates for every client of the session.
func (s *Server) handleSessionSocket(w http.ResponseWriter, r *http.Request) {
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

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	send := func(frame socketOutbound) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
		return conn.WriteJSON(frame)
	}

	hub := s.chat.Hub()
	updates := hub.Subscribe(sessionID)
	defer hub.Unsubscribe(sessionID, updates)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go s.forwardUpdates(ctx, updates, send, interactive)
	go s.pingSocket(ctx, conn, &writeMu)

	if err := send(socketOutbound{Type: "ready", Data: sessionID}); err != nil {
		return
	}

	conn.SetReadLimit(socketMaxInbound)
	conn.SetReadDeadline(time.Now().Add(socketPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(socketPongTimeout))
	})

	for {
		var in socketInbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug().Err(err).Str("session_id", sessionID).Msg("websocket closed")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(socketPongTimeout))

		if strings.TrimSpace(in.Message) == "" {
			if err := send(socketOutbound{Type: "error", Error: chat.ErrEmptyMessage.Error()}); err != nil {
				return
			}
			continue
		}

		// replies reach this socket through the hub like any other subscriber
		if _, err := s.chat.Send(ctx, sessionID, in.Message, nil); err != nil {
			s.logger.Error().Err(err).Str("session_id", sessionID).Msg("chat failed")
			if err := send(socketOutbound{Type: "error", Error: err.Error()}); err != nil {
				return
			}
		}
	}
}

func (s *Server) forwardUpdates(ctx context.Context, updates <-chan sse.Update, send func(socketOutbound) error, interactive bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			frame := socketOutbound{Type: update.Type, Data: update.Data}
			if update.Type == "message" {
				var msg chat.Message
				if err := json.Unmarshal([]byte(update.Data), &msg); err == nil {
					display := s.chat.Display(&msg, interactive)
					frame = socketOutbound{Type: "message", Message: &msg, Display: &display}
				}
			}

			if err := send(frame); err != nil {
				return
			}
		}
	}
}

func (s *Server) pingSocket(ctx context.Context, conn *websocket.Conn, writeMu *sync.Mutex) {
	ticker := time.NewTicker(socketPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(socketWriteWait))
			writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
