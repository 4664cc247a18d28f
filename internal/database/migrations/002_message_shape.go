package migrations

import (
	"database/sql"
)

func init() {
	Register(Migration{
		Version: 2,
		Name:    "message_shape",
		Up:      messageShape,
	})
}

// messageShape records which response layout a calendar reply was rendered with
func messageShape(db *sql.DB) error {
	return AddColumnIfNotExists(db, "chat_messages", "shape", "TEXT")
}
