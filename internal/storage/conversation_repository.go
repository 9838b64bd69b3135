package storage

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// AppendMessage stores one conversation turn.
func (db *DB) AppendMessage(ctx context.Context, userEmail, role, text string) error {
	_, err := db.writer.ExecContext(ctx,
		`INSERT INTO conversations (user_email, role, message, created_at) VALUES (?, ?, ?, ?)`,
		userEmail, role, text, time.Now().UnixNano())
	if err != nil {
		slog.ErrorContext(ctx, "failed to save message", "role", role, "error", err)
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

// RecentMessages returns the last limit turns of a user in chronological order.
func (db *DB) RecentMessages(ctx context.Context, userEmail string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.reader.QueryContext(ctx,
		`SELECT id, user_email, role, message, created_at FROM conversations
		 WHERE user_email = ? ORDER BY id DESC LIMIT ?`, userEmail, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var (
			m       Message
			created int64
		)
		if err := rows.Scan(&m.ID, &m.UserEmail, &m.Role, &m.Text, &created); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.CreatedAt = time.Unix(0, created).UTC()
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	slices.Reverse(msgs)
	return msgs, nil
}
