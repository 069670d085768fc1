package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/franizus/slack-jira-agent/pkg/conversation"
	"github.com/franizus/slack-jira-agent/pkg/logx"
)

// Store persists conversation threads and processed Slack events.
type Store struct {
	db             *sql.DB
	eventRetention time.Duration
	logger         *logx.Logger
}

// NewStore wraps an open database. eventRetention bounds how long
// processed event keys are remembered for deduplication.
func NewStore(db *sql.DB, eventRetention time.Duration) *Store {
	return &Store{
		db:             db,
		eventRetention: eventRetention,
		logger:         logx.NewLogger("store"),
	}
}

// Thread is a stored conversation.
type Thread struct {
	ID       string
	UserName string
	Messages []conversation.Message
}

// LoadThread returns the thread with its messages in sequence order.
// A thread that was never seen comes back empty, not as an error.
func (s *Store) LoadThread(ctx context.Context, threadID string) (*Thread, error) {
	thread := &Thread{ID: threadID}

	err := s.db.QueryRowContext(ctx,
		"SELECT user_name FROM threads WHERE thread_id = ?", threadID,
	).Scan(&thread.UserName)
	if err == sql.ErrNoRows {
		return thread, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load thread %s: %w", threadID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content, tool_calls, tool_call_id, tool_name, is_error, created_at
		FROM messages WHERE thread_id = ? ORDER BY seq`, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages for thread %s: %w", threadID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var msg conversation.Message
		var role string
		var toolCalls sql.NullString
		var isError int
		if err := rows.Scan(&role, &msg.Content, &toolCalls, &msg.ToolCallID, &msg.ToolName, &isError, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Role = conversation.Role(role)
		msg.IsError = isError != 0
		if toolCalls.Valid && toolCalls.String != "" {
			if err := json.Unmarshal([]byte(toolCalls.String), &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("failed to decode tool calls: %w", err)
			}
		}
		thread.Messages = append(thread.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return thread, nil
}

// AppendMessages appends messages to a thread in one transaction,
// creating the thread row if needed. A non-empty userName overwrites the
// stored display name so renamed users stay current.
func (s *Store) AppendMessages(ctx context.Context, threadID, userName string, messages []conversation.Message) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO threads (thread_id, user_name) VALUES (?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			user_name = CASE WHEN excluded.user_name != '' THEN excluded.user_name ELSE user_name END,
			updated_at = CURRENT_TIMESTAMP`,
		threadID, userName); err != nil {
		return fmt.Errorf("failed to upsert thread %s: %w", threadID, err)
	}

	var nextSeq int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), -1) + 1 FROM messages WHERE thread_id = ?", threadID,
	).Scan(&nextSeq); err != nil {
		return fmt.Errorf("failed to compute next sequence: %w", err)
	}

	for i := range messages {
		msg := &messages[i]
		var toolCalls any
		if len(msg.ToolCalls) > 0 {
			encoded, err := json.Marshal(msg.ToolCalls)
			if err != nil {
				return fmt.Errorf("failed to encode tool calls: %w", err)
			}
			toolCalls = string(encoded)
		}
		isError := 0
		if msg.IsError {
			isError = 1
		}
		createdAt := msg.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (thread_id, seq, role, content, tool_calls, tool_call_id, tool_name, is_error, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			threadID, nextSeq+i, string(msg.Role), msg.Content, toolCalls,
			msg.ToolCallID, msg.ToolName, isError, createdAt); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit messages: %w", err)
	}
	return nil
}

// AlreadyProcessed reports whether the event key was seen before, and
// records it when it was not. Expired keys are purged opportunistically.
func (s *Store) AlreadyProcessed(ctx context.Context, eventKey string) (bool, error) {
	cutoff := time.Now().UTC().Add(-s.eventRetention)
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM processed_events WHERE processed_at < ?", cutoff); err != nil {
		return false, fmt.Errorf("failed to purge processed events: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO processed_events (event_key, processed_at) VALUES (?, ?)",
		eventKey, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to record event %s: %w", eventKey, err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check event insert: %w", err)
	}
	if inserted == 0 {
		s.logger.Debug("duplicate event skipped: %s", eventKey)
		return true, nil
	}
	return false, nil
}
