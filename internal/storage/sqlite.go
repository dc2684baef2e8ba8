package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRecorder stores events in a single "turns" table.
type SQLiteRecorder struct {
	db *sql.DB
}

// NewSQLiteRecorder opens (or creates) the database at path, ensuring that the
// parent directory exists, and creates the schema.
func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open db at %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db at %s: %w", path, err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS turns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts INTEGER NOT NULL,
			session_id TEXT NOT NULL,
			surface TEXT NOT NULL DEFAULT '',
			user_message TEXT NOT NULL,
			assistant_response TEXT NOT NULL DEFAULT '',
			model TEXT NOT NULL DEFAULT '',
			prompt_tokens INTEGER NOT NULL DEFAULT 0,
			completion_tokens INTEGER NOT NULL DEFAULT 0,
			total_tokens INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_turns_ts ON turns(ts);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteRecorder{db: db}, nil
}

func (r *SQLiteRecorder) AppendInteraction(ev Event) error {
	_, err := r.db.Exec(
		`INSERT INTO turns (ts, session_id, surface, user_message, assistant_response, model,
			prompt_tokens, completion_tokens, total_tokens, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Timestamp.UnixNano(), ev.SessionID, ev.Surface, ev.UserMessage, ev.AssistantResponse, ev.Model,
		ev.PromptTokens, ev.CompletionTokens, ev.TotalTokens, ev.Error,
	)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) LoadInteractions() ([]Event, error) {
	rows, err := r.db.Query(
		`SELECT ts, session_id, surface, user_message, assistant_response, model,
			prompt_tokens, completion_tokens, total_tokens, error
		 FROM turns ORDER BY ts, id`)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev Event
			ts int64
		)
		if err := rows.Scan(&ts, &ev.SessionID, &ev.Surface, &ev.UserMessage, &ev.AssistantResponse, &ev.Model,
			&ev.PromptTokens, &ev.CompletionTokens, &ev.TotalTokens, &ev.Error); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		ev.Timestamp = time.Unix(0, ts).UTC()
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
