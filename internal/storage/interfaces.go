package storage

import "context"

// RosterRepository defines roster operations.
type RosterRepository interface {
	ListRosterByClass(ctx context.Context, classID string) ([]Student, error)
	ListStudentsByTeacher(ctx context.Context, teacherEmail string) ([]Student, error)
	UpsertStudent(ctx context.Context, s *Student) error
	UpsertStudentsBatch(ctx context.Context, students []*Student) error
	DeleteStudent(ctx context.Context, classID, studentID string) error
}

// AttendanceRepository defines attendance operations.
type AttendanceRepository interface {
	ListAttendanceByClass(ctx context.Context, classID string) ([]AttendanceRecord, error)
	UpsertAttendance(ctx context.Context, rec AttendanceRecord) error
}

// ClassRepository defines class operations.
type ClassRepository interface {
	CreateClass(ctx context.Context, c *Class) error
	ListClassesByTeacher(ctx context.Context, teacherEmail string) ([]Class, error)
	FirstClassByTeacher(ctx context.Context, teacherEmail string) (*Class, error)
}

// ConversationRepository defines chat history operations.
type ConversationRepository interface {
	AppendMessage(ctx context.Context, userEmail, role, text string) error
	RecentMessages(ctx context.Context, userEmail string, limit int) ([]Message, error)
}

var (
	_ RosterRepository       = (*DB)(nil)
	_ AttendanceRepository   = (*DB)(nil)
	_ ClassRepository        = (*DB)(nil)
	_ ConversationRepository = (*DB)(nil)
)
