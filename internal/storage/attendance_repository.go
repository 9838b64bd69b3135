package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// UpsertAttendance writes one attendance record. Repeating the call for the
// same (student, class, date) overwrites the status instead of adding a row.
func (db *DB) UpsertAttendance(ctx context.Context, rec AttendanceRecord) error {
	query := `
		INSERT INTO attendance_records (student_id, class_id, date, status, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(student_id, class_id, date) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at
	`
	start := time.Now()
	if _, err := db.writer.ExecContext(ctx, query, rec.StudentID, rec.ClassID, rec.Date, rec.Status, time.Now().Unix()); err != nil {
		slog.ErrorContext(ctx, "failed to save attendance",
			"student_id", rec.StudentID,
			"class_id", rec.ClassID,
			"date", rec.Date,
			"error", err)
		return fmt.Errorf("failed to save attendance: %w", err)
	}
	warnSlow(ctx, "UpsertAttendance", start, "student_id", rec.StudentID)
	return nil
}

// ListAttendanceByClass returns every attendance record of a class, by date then student.
func (db *DB) ListAttendanceByClass(ctx context.Context, classID string) ([]AttendanceRecord, error) {
	start := time.Now()
	rows, err := db.reader.QueryContext(ctx,
		`SELECT student_id, class_id, date, status FROM attendance_records
		 WHERE class_id = ? ORDER BY date, student_id`, classID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query attendance", "class_id", classID, "error", err)
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []AttendanceRecord
	for rows.Next() {
		var r AttendanceRecord
		if err := rows.Scan(&r.StudentID, &r.ClassID, &r.Date, &r.Status); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance: %w", err)
	}
	warnSlow(ctx, "ListAttendanceByClass", start, "count", len(records))
	return records, nil
}
