package storage

import "time"

// AttendancePresent is the status counted toward attendance percentages.
const AttendancePresent = "Present"

// Conversation roles.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Class is a teacher-owned class scope.
type Class struct {
	ID           string    `json:"id"`
	TeacherEmail string    `json:"teacher_email"`
	Subject      string    `json:"subject"`
	Year         string    `json:"year"`
	Branch       string    `json:"branch"`
	CreatedAt    time.Time `json:"created_at"`
}

// Student is one roster entry. Details is an open attribute bag (marks, notes, ...).
type Student struct {
	ClassID      string         `json:"class_id"`
	StudentID    string         `json:"student_id"`
	Name         string         `json:"name"`
	TeacherEmail string         `json:"teacher_email"`
	Details      map[string]any `json:"details"`
	CreatedAt    time.Time      `json:"created_at"`
}

// AttendanceRecord is keyed by (StudentID, ClassID, Date). Date is YYYY-MM-DD.
type AttendanceRecord struct {
	StudentID string `json:"student_id"`
	ClassID   string `json:"class_id"`
	Date      string `json:"date"`
	Status    string `json:"status"`
}

// Message is one conversation turn. Role is "user" or "model".
type Message struct {
	ID        int64     `json:"id"`
	UserEmail string    `json:"user_email"`
	Role      string    `json:"role"`
	Text      string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
