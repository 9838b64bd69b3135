package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/garyellow/campus-ai-go/internal/storage"
)

// User-visible responses.
const (
	MsgNoStudents = "❌ No students found matching your criteria."
	MsgNoMatches  = "No students matched your criteria."
	ReportHeader  = "### Analysis Report\n"

	// confirmListLimit is the most names listed individually in a confirmation.
	confirmListLimit = 5
)

// Store is the live data the resolver reads and writes.
type Store interface {
	ListRosterByClass(ctx context.Context, classID string) ([]storage.Student, error)
	ListAttendanceByClass(ctx context.Context, classID string) ([]storage.AttendanceRecord, error)
	UpsertAttendance(ctx context.Context, rec storage.AttendanceRecord) error
}

// Observer receives command outcomes. *metrics.Metrics satisfies it.
type Observer interface {
	RecordCommand(action, outcome string)
	RecordAttendanceWrite(status string)
}

// Outcome labels.
const (
	OutcomeApplied    = "applied"
	OutcomeNoMatch    = "no_match"
	OutcomeParseError = "parse_error"
	OutcomeStoreError = "store_error"
	OutcomeSkipped    = "skipped"
)

// Result is the final response for a model reply.
type Result struct {
	Text     string
	Action   string // empty when no command ran
	Outcome  string
	Writes   int
	Executed bool
}

// Resolver executes commands against the live store.
type Resolver struct {
	store    Store
	observer Observer
	now      func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(r *Resolver) { r.observer = o }
}

// WithClock overrides the clock used for the default attendance date.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a resolver.
func NewResolver(store Store, opts ...Option) *Resolver {
	r := &Resolver{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the response for a model reply. Replies without a command,
// replies that fail to parse, unknown actions and replies with no class scope
// come back unchanged. Store failures also fall back to the raw reply; writes
// made before the failure stay committed.
func (r *Resolver) Resolve(ctx context.Context, modelOutput, classID string) Result {
	raw := Result{Text: modelOutput}
	if !HasCommand(modelOutput) {
		return raw
	}

	cmd, err := Parse(modelOutput)
	if err != nil {
		slog.WarnContext(ctx, "Failed to parse model command", "error", err)
		r.record("unknown", OutcomeParseError)
		return raw
	}
	if classID == "" {
		slog.DebugContext(ctx, "Command without class scope ignored", "action", cmd.Action)
		r.record(cmd.Action, OutcomeSkipped)
		return raw
	}

	var (
		res  Result
		rerr error
	)
	switch cmd.Action {
	case ActionUpdateAttendance:
		res, rerr = r.updateAttendance(ctx, cmd, classID)
	case ActionAnalyzeData:
		res, rerr = r.analyze(ctx, cmd, classID)
	default:
		r.record(cmd.Action, OutcomeSkipped)
		return raw
	}
	if rerr != nil {
		slog.ErrorContext(ctx, "Command execution failed",
			"action", cmd.Action,
			"writes", res.Writes,
			"error", rerr)
		r.record(cmd.Action, OutcomeStoreError)
		raw.Action = cmd.Action
		raw.Outcome = OutcomeStoreError
		raw.Writes = res.Writes
		return raw
	}
	res.Action = cmd.Action
	res.Executed = true
	r.record(cmd.Action, res.Outcome)
	return res
}

func (r *Resolver) updateAttendance(ctx context.Context, cmd Command, classID string) (Result, error) {
	status := cmd.Status
	if status == "" {
		status = storage.AttendancePresent
	}
	date := cmd.Date
	if date == "" {
		date = r.now().Format(time.DateOnly)
	}

	roster, err := r.store.ListRosterByClass(ctx, classID)
	if err != nil {
		return Result{}, fmt.Errorf("list roster: %w", err)
	}

	var targets []storage.Student
	switch {
	case cmd.IDs != nil:
		targets = ResolveIDs(cmd.IDs.Strings(), roster)
	case cmd.Pattern != nil:
		targets = MatchPattern(*cmd.Pattern, roster)
	}
	if len(targets) == 0 {
		return Result{Text: MsgNoStudents, Outcome: OutcomeNoMatch}, nil
	}

	names := make([]string, 0, len(targets))
	for _, s := range targets {
		rec := storage.AttendanceRecord{StudentID: s.StudentID, ClassID: classID, Date: date, Status: status}
		if err := r.store.UpsertAttendance(ctx, rec); err != nil {
			return Result{Writes: len(names)}, fmt.Errorf("upsert attendance for %s: %w", s.StudentID, err)
		}
		if r.observer != nil {
			r.observer.RecordAttendanceWrite(status)
		}
		names = append(names, s.Name)
	}

	slog.InfoContext(ctx, "Attendance updated",
		"class_id", classID,
		"date", date,
		"status", status,
		"count", len(names))
	return Result{Text: confirmation(status, names), Outcome: OutcomeApplied, Writes: len(names)}, nil
}

// confirmation names every student up to the list limit, and summarises by count beyond it.
func confirmation(status string, names []string) string {
	if len(names) > confirmListLimit {
		return fmt.Sprintf("✅ Marked **%s** for **%d students** (including %s, %s...)",
			status, len(names), names[0], names[1])
	}
	return fmt.Sprintf("✅ Marked **%s** for: %s", status, strings.Join(names, ", "))
}

func (r *Resolver) record(action, outcome string) {
	if r.observer != nil {
		r.observer.RecordCommand(action, outcome)
	}
}
