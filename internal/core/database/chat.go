package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/Devmate/internal/models"
)

// AppendChatMessages appends msgs to the user's conversation in order.
func (c *DatabaseClient) AppendChatMessages(ctx context.Context, userID string, msgs []models.Message) (err error) {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = c.lockUser(ctx, tx, "chat:"+userID); err != nil {
		return fmt.Errorf("lock user chat: %w", err)
	}

	var next int64
	if err = tx.QueryRowContext(ctx, c.q(`SELECT COALESCE(MAX(seq), 0) + 1 FROM chat_messages WHERE user_id = $1`),
		userID).Scan(&next); err != nil {
		return fmt.Errorf("next seq: %w", err)
	}

	const q = `
		INSERT INTO chat_messages (id, user_id, seq, role, content, tool_calls_json, tool_call_id, name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	stmt, err := tx.PrepareContext(ctx, c.q(q))
	if err != nil {
		return fmt.Errorf("prepare chat insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i, m := range msgs {
		var calls string
		if len(m.ToolCalls) > 0 {
			b, mErr := json.Marshal(m.ToolCalls)
			if mErr != nil {
				return fmt.Errorf("encode tool calls: %w", mErr)
			}
			calls = string(b)
		}
		if _, err = stmt.ExecContext(ctx,
			uuid.NewString(), userID, next+int64(i), m.Role, m.Content, calls, m.ToolCallID, m.Name, now,
		); err != nil {
			return fmt.Errorf("insert chat message: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit chat: %w", err)
	}
	return nil
}

func (c *DatabaseClient) GetChatHistory(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
		SELECT role, content, tool_calls_json, tool_call_id, name
		FROM chat_messages
		WHERE user_id = $1
		ORDER BY seq DESC
		LIMIT $2
	`
	rows, err := c.db.QueryContext(ctx, c.q(q), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("get chat history: %w", err)
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var (
			m     models.Message
			calls string
		)
		if err := rows.Scan(&m.Role, &m.Content, &calls, &m.ToolCallID, &m.Name); err != nil {
			return nil, err
		}
		if calls != "" {
			if err := json.Unmarshal([]byte(calls), &m.ToolCalls); err != nil {
				return nil, fmt.Errorf("decode tool calls: %w", err)
			}
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return trimOrphanToolResults(out), nil
}

// trimOrphanToolResults drops leading tool results whose assistant request
// fell outside the history window.
func trimOrphanToolResults(msgs []models.Message) []models.Message {
	for len(msgs) > 0 && msgs[0].Role == models.RoleTool {
		msgs = msgs[1:]
	}
	return msgs
}

func (c *DatabaseClient) ClearChatHistory(ctx context.Context, userID string) error {
	if _, err := c.db.ExecContext(ctx, c.q(`DELETE FROM chat_messages WHERE user_id = $1`), userID); err != nil {
		return fmt.Errorf("clear chat history: %w", err)
	}
	return nil
}
