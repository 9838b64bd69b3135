package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	domerrors "github.com/garyellow/campus-ai-go/internal/errors"
)

const upsertStudentQuery = `
	INSERT INTO students (class_id, student_id, name, teacher_email, details, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(class_id, student_id) DO UPDATE SET
		name = excluded.name,
		teacher_email = excluded.teacher_email,
		details = excluded.details
`

// UpsertStudent inserts or replaces a roster entry keyed by (class_id, student_id).
func (db *DB) UpsertStudent(ctx context.Context, s *Student) error {
	details, err := encodeDetails(s.Details)
	if err != nil {
		return err
	}
	start := time.Now()
	if _, err := db.writer.ExecContext(ctx, upsertStudentQuery,
		s.ClassID, s.StudentID, s.Name, s.TeacherEmail, details, time.Now().Unix()); err != nil {
		slog.ErrorContext(ctx, "failed to save student",
			"class_id", s.ClassID,
			"student_id", s.StudentID,
			"error", err)
		return fmt.Errorf("failed to save student: %w", err)
	}
	warnSlow(ctx, "UpsertStudent", start, "student_id", s.StudentID)
	return nil
}

// UpsertStudentsBatch upserts many roster entries in one transaction.
func (db *DB) UpsertStudentsBatch(ctx context.Context, students []*Student) error {
	if len(students) == 0 {
		return nil
	}
	start := time.Now()

	tx, err := db.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertStudentQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().Unix()
	for _, s := range students {
		details, err := encodeDetails(s.Details)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, s.ClassID, s.StudentID, s.Name, s.TeacherEmail, details, now); err != nil {
			slog.ErrorContext(ctx, "failed to save student in batch",
				"student_id", s.StudentID,
				"error", err)
			return fmt.Errorf("failed to save student %s: %w", s.StudentID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.DebugContext(ctx, "batch operation completed",
		"operation", "UpsertStudentsBatch",
		"count", len(students),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// ListRosterByClass returns the roster of a class ordered by student id.
func (db *DB) ListRosterByClass(ctx context.Context, classID string) ([]Student, error) {
	return db.queryStudents(ctx, "ListRosterByClass",
		`SELECT class_id, student_id, name, teacher_email, details, created_at
		 FROM students WHERE class_id = ? ORDER BY student_id`, classID)
}

// ListStudentsByTeacher returns every roster entry uploaded by a teacher.
func (db *DB) ListStudentsByTeacher(ctx context.Context, teacherEmail string) ([]Student, error) {
	return db.queryStudents(ctx, "ListStudentsByTeacher",
		`SELECT class_id, student_id, name, teacher_email, details, created_at
		 FROM students WHERE teacher_email = ? ORDER BY class_id, student_id`, teacherEmail)
}

// DeleteStudent removes a roster entry and its attendance history.
// Returns ErrNotFound if the entry does not exist.
func (db *DB) DeleteStudent(ctx context.Context, classID, studentID string) error {
	tx, err := db.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM students WHERE class_id = ? AND student_id = ?`, classID, studentID)
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("student %s in class %s: %w", studentID, classID, domerrors.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_records WHERE class_id = ? AND student_id = ?`, classID, studentID); err != nil {
		return fmt.Errorf("failed to delete attendance: %w", err)
	}
	return tx.Commit()
}

func (db *DB) queryStudents(ctx context.Context, op, query string, args ...any) ([]Student, error) {
	start := time.Now()
	rows, err := db.reader.QueryContext(ctx, query, args...)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query students", "operation", op, "error", err)
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var students []Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate students: %w", err)
	}
	warnSlow(ctx, op, start, "count", len(students))
	return students, nil
}

func scanStudent(rows *sql.Rows) (Student, error) {
	var (
		s         Student
		details   string
		createdAt int64
	)
	if err := rows.Scan(&s.ClassID, &s.StudentID, &s.Name, &s.TeacherEmail, &details, &createdAt); err != nil {
		return Student{}, fmt.Errorf("failed to scan student: %w", err)
	}
	s.CreatedAt = time.Unix(createdAt, 0).UTC()
	if err := json.Unmarshal([]byte(details), &s.Details); err != nil {
		// A corrupt bag should not hide the whole roster.
		slog.Warn("invalid student details JSON", "student_id", s.StudentID, "error", err)
		s.Details = map[string]any{}
	}
	return s, nil
}

func encodeDetails(details map[string]any) (string, error) {
	if details == nil {
		return "{}", nil
	}
	b, err := json.Marshal(details)
	if err != nil {
		return "", fmt.Errorf("failed to encode student details: %w", err)
	}
	return string(b), nil
}
