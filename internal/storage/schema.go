package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
func InitSchema(ctx context.Context, db *sql.DB) error {
	statements := []struct {
		name  string
		query string
	}{
		{"classes", `
		CREATE TABLE IF NOT EXISTS classes (
			id TEXT PRIMARY KEY,
			teacher_email TEXT NOT NULL,
			subject TEXT NOT NULL,
			year TEXT NOT NULL DEFAULT '',
			branch TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_classes_teacher ON classes(teacher_email, created_at);
		`},
		{"students", `
		CREATE TABLE IF NOT EXISTS students (
			class_id TEXT NOT NULL,
			student_id TEXT NOT NULL,
			name TEXT NOT NULL,
			teacher_email TEXT NOT NULL DEFAULT '',
			details TEXT NOT NULL DEFAULT '{}',
			created_at INTEGER NOT NULL,
			PRIMARY KEY (class_id, student_id)
		);
		CREATE INDEX IF NOT EXISTS idx_students_teacher ON students(teacher_email);
		`},
		{"attendance_records", `
		CREATE TABLE IF NOT EXISTS attendance_records (
			student_id TEXT NOT NULL,
			class_id TEXT NOT NULL,
			date TEXT NOT NULL,
			status TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (student_id, class_id, date)
		);
		CREATE INDEX IF NOT EXISTS idx_attendance_class ON attendance_records(class_id, date);
		`},
		{"conversations", `
		CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_email TEXT NOT NULL,
			role TEXT NOT NULL CHECK (role IN ('user', 'model')),
			message TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_email, id);
		`},
	}

	for _, s := range statements {
		if _, err := db.ExecContext(ctx, s.query); err != nil {
			return fmt.Errorf("failed to create %s table: %w", s.name, err)
		}
	}
	return nil
}
