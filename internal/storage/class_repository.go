package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domerrors "github.com/garyellow/campus-ai-go/internal/errors"
)

// CreateClass inserts a class. CreatedAt is set when zero.
func (db *DB) CreateClass(ctx context.Context, c *Class) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := db.writer.ExecContext(ctx,
		`INSERT INTO classes (id, teacher_email, subject, year, branch, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.TeacherEmail, c.Subject, c.Year, c.Branch, c.CreatedAt.UnixNano())
	if err != nil {
		slog.ErrorContext(ctx, "failed to create class",
			"class_id", c.ID,
			"teacher_email", c.TeacherEmail,
			"error", err)
		return fmt.Errorf("failed to create class: %w", err)
	}
	return nil
}

// ListClassesByTeacher returns a teacher's classes, oldest first.
func (db *DB) ListClassesByTeacher(ctx context.Context, teacherEmail string) ([]Class, error) {
	rows, err := db.reader.QueryContext(ctx,
		`SELECT id, teacher_email, subject, year, branch, created_at FROM classes
		 WHERE teacher_email = ? ORDER BY created_at, id`, teacherEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to query classes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var classes []Class
	for rows.Next() {
		var (
			c       Class
			created int64
		)
		if err := rows.Scan(&c.ID, &c.TeacherEmail, &c.Subject, &c.Year, &c.Branch, &created); err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		c.CreatedAt = time.Unix(0, created).UTC()
		classes = append(classes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate classes: %w", err)
	}
	return classes, nil
}

// FirstClassByTeacher returns the oldest class of a teacher, or ErrNotFound.
func (db *DB) FirstClassByTeacher(ctx context.Context, teacherEmail string) (*Class, error) {
	var (
		c       Class
		created int64
	)
	err := db.reader.QueryRowContext(ctx,
		`SELECT id, teacher_email, subject, year, branch, created_at FROM classes
		 WHERE teacher_email = ? ORDER BY created_at, id LIMIT 1`, teacherEmail).
		Scan(&c.ID, &c.TeacherEmail, &c.Subject, &c.Year, &c.Branch, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no class for %s: %w", teacherEmail, domerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query class: %w", err)
	}
	c.CreatedAt = time.Unix(0, created).UTC()
	return &c, nil
}
