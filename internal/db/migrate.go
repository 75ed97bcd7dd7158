package db

import (
	"database/sql"
	"fmt"
)

// Migrate creates the conversation history schema. Every statement is safe to re-run.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS conversations (
		id         TEXT PRIMARY KEY,
		remote_id  TEXT NOT NULL DEFAULT '',
		kind       TEXT NOT NULL DEFAULT 'ask'
		           CHECK(kind IN ('ask','assessment')),
		query      TEXT NOT NULL,
		content    TEXT NOT NULL DEFAULT '',
		endpoint   TEXT NOT NULL DEFAULT '',
		success    INTEGER NOT NULL DEFAULT 0,
		error      TEXT NOT NULL DEFAULT '',
		latency_ms INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_conversations_created ON conversations(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_remote ON conversations(remote_id)`,

	`CREATE TABLE IF NOT EXISTS assessment_answers (
		conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		question_id     INTEGER NOT NULL,
		question        TEXT NOT NULL,
		selected_option TEXT NOT NULL,
		PRIMARY KEY (conversation_id, question_id)
	)`,
}
