package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message sources: who produced the content
const (
	SourceUser    = "user"
	SourceWebhook = "webhook"
	SourceLLM     = "llm"
)

// ChatMessage is one turn of a chat session
type ChatMessage struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	WebResponse string    `json:"web_response,omitempty"`
	Source      string    `json:"source"`
	Shape       string    `json:"shape,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionSummary describes a session for listing
type SessionSummary struct {
	ID           string `json:"id"`
	MessageCount int    `json:"message_count"`
}

// SaveMessage stores a message and fills in its ID and CreatedAt
func (d *DB) SaveMessage(m *ChatMessage) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	result, err := d.Exec(`
		INSERT INTO chat_messages (session_id, role, content, web_response, source, shape, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.SessionID, m.Role, m.Content, nullString(m.WebResponse), m.Source, nullString(m.Shape), m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get message ID: %w", err)
	}
	m.ID = id
	return nil
}

// GetSessionMessages returns the last limit messages of a session, oldest
// first. A limit <= 0 returns the whole session.
func (d *DB) GetSessionMessages(sessionID string, limit int) ([]ChatMessage, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := d.Query(`
		SELECT id, session_id, role, content, COALESCE(web_response, ''), source,
			COALESCE(shape, ''), created_at
		FROM chat_messages
		WHERE session_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query session messages: %w", err)
	}
	defer rows.Close()

	messages := []ChatMessage{}
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.WebResponse, &m.Source, &m.Shape, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	// Reverse to get chronological order (oldest first)
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// ListSessions returns every session, most recently active first
func (d *DB) ListSessions() ([]SessionSummary, error) {
	rows, err := d.Query(`
		SELECT session_id, COUNT(*)
		FROM chat_messages
		GROUP BY session_id
		ORDER BY MAX(id) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionSummary{}
	for rows.Next() {
		var s SessionSummary
		if err := rows.Scan(&s.ID, &s.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// DeleteSession removes all messages of a session and reports how many were deleted
func (d *DB) DeleteSession(sessionID string) (int64, error) {
	result, err := d.Exec(`DELETE FROM chat_messages WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete session: %w", err)
	}
	return result.RowsAffected()
}

// DeleteSessionsInactiveSince removes every session whose newest message is
// older than cutoff and returns how many sessions were removed
func (d *DB) DeleteSessionsInactiveSince(cutoff time.Time) (int64, error) {
	tx, err := d.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT session_id
		FROM chat_messages
		GROUP BY session_id
		HAVING MAX(created_at) < ?
	`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to query inactive sessions: %w", err)
	}

	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan session: %w", err)
		}
		stale = append(stale, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating sessions: %w", err)
	}

	for _, id := range stale {
		if _, err := tx.Exec(`DELETE FROM chat_messages WHERE session_id = ?`, id); err != nil {
			return 0, fmt.Errorf("failed to delete session %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return int64(len(stale)), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
