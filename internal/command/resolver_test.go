package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/campus-ai-go/internal/storage"
)

// memStore is an in-memory Store with failure injection.
type memStore struct {
	mu        sync.Mutex
	roster    []storage.Student
	records   map[string]storage.AttendanceRecord
	writes    int
	failAfter int // fail the write after this many successes; 0 disables
	rosterErr error
}

func newMemStore(students ...storage.Student) *memStore {
	return &memStore{roster: students, records: make(map[string]storage.AttendanceRecord)}
}

func (m *memStore) ListRosterByClass(_ context.Context, classID string) ([]storage.Student, error) {
	if m.rosterErr != nil {
		return nil, m.rosterErr
	}
	var out []storage.Student
	for _, s := range m.roster {
		if s.ClassID == classID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) ListAttendanceByClass(_ context.Context, classID string) ([]storage.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.AttendanceRecord
	for _, r := range m.records {
		if r.ClassID == classID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) UpsertAttendance(_ context.Context, rec storage.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAfter > 0 && m.writes >= m.failAfter {
		return errors.New("disk full")
	}
	m.writes++
	m.records[rec.StudentID+"|"+rec.ClassID+"|"+rec.Date] = rec
	return nil
}

type recordingObserver struct {
	commands []string
	writes   int
}

func (o *recordingObserver) RecordCommand(action, outcome string) {
	o.commands = append(o.commands, action+":"+outcome)
}

func (o *recordingObserver) RecordAttendanceWrite(string) { o.writes++ }

func student(id, name string, details map[string]any) storage.Student {
	return storage.Student{ClassID: "c1", StudentID: id, Name: name, Details: details}
}

func fixedClock() time.Time { return time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC) }

func TestResolve_PassThrough(t *testing.T) {
	t.Parallel()

	store := newMemStore(student("CSE101", "Asha", nil))
	r := NewResolver(store)
	ctx := context.Background()

	tests := []struct {
		name    string
		text    string
		classID string
	}{
		{"plain text", "Room 101 is free after 2pm.", "c1"},
		{"malformed", `{"action": "update_attendance", "ids": [}`, "c1"},
		{"no class scope", `{"action": "update_attendance", "ids": ["101"]}`, ""},
		{"unknown action", `{"action": "delete_everything"}`, "c1"},
	}
	for _, tt := range tests {
		res := r.Resolve(ctx, tt.text, tt.classID)
		assert.Equal(t, tt.text, res.Text, tt.name)
		assert.False(t, res.Executed, tt.name)
	}
	assert.Zero(t, store.writes)
}

func TestResolve_ExplicitIDs(t *testing.T) {
	t.Parallel()

	store := newMemStore(
		student("CSE101", "Asha", nil),
		student("ECE101", "Ravi", nil),
		student("CSE102", "Kai", nil),
	)
	obs := &recordingObserver{}
	r := NewResolver(store, WithObserver(obs), WithClock(fixedClock))

	res := r.Resolve(context.Background(), "```json\n{\"action\": \"update_attendance\", \"ids\": [\"102\", \"101\"]}\n```", "c1")

	// "101" is ambiguous and silently dropped.
	assert.Equal(t, "✅ Marked **Present** for: Kai", res.Text)
	assert.True(t, res.Executed)
	assert.Equal(t, 1, res.Writes)
	rec, ok := store.records["CSE102|c1|2025-03-14"]
	require.True(t, ok, "default date should be today")
	assert.Equal(t, "Present", rec.Status)
	assert.Equal(t, []string{"update_attendance:applied"}, obs.commands)
	assert.Equal(t, 1, obs.writes)
}

func TestResolve_UnknownIDNoWrites(t *testing.T) {
	t.Parallel()

	store := newMemStore(student("CSE101", "Asha", nil), student("CSE102", "Kai", nil))
	r := NewResolver(store)

	res := r.Resolve(context.Background(), `{"action": "update_attendance", "ids": ["999"], "status": "Present", "date": "2025-03-10"}`, "c1")
	assert.Equal(t, MsgNoStudents, res.Text)
	assert.Equal(t, OutcomeNoMatch, res.Outcome)
	assert.Zero(t, store.writes)
}

func TestResolve_PatternEndsWith(t *testing.T) {
	t.Parallel()

	store := newMemStore(
		student("CSE101", "Asha", nil),
		student("ECE101", "Ravi", nil),
		student("CSE102", "Kai", nil),
	)
	r := NewResolver(store)

	res := r.Resolve(context.Background(),
		`{"action": "update_attendance", "status": "Late", "date": "2025-03-10", "pattern": {"field": "id", "type": "endswith", "value": "101"}}`, "c1")
	assert.Equal(t, "✅ Marked **Late** for: Asha, Ravi", res.Text)
	assert.Len(t, store.records, 2)
	assert.Contains(t, store.records, "CSE101|c1|2025-03-10")
	assert.Contains(t, store.records, "ECE101|c1|2025-03-10")
}

func TestResolve_Idempotent(t *testing.T) {
	t.Parallel()

	db, err := storage.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	require.NoError(t, db.UpsertStudent(ctx, &storage.Student{ClassID: "c1", StudentID: "CSE101", Name: "Asha"}))
	require.NoError(t, db.UpsertStudent(ctx, &storage.Student{ClassID: "c1", StudentID: "CSE102", Name: "Kai"}))

	r := NewResolver(db)
	cmd := `{"action": "update_attendance", "ids": ["CSE101", "CSE102"], "date": "2025-03-10"}`
	for range 2 {
		res := r.Resolve(ctx, cmd, "c1")
		require.True(t, res.Executed)
	}

	records, err := db.ListAttendanceByClass(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestResolve_SummarisesLargeBatches(t *testing.T) {
	t.Parallel()

	var students []storage.Student
	for i := range 7 {
		students = append(students, student(fmt.Sprintf("CSE1%02d", i), fmt.Sprintf("S%d", i), nil))
	}
	store := newMemStore(students...)
	r := NewResolver(store)

	res := r.Resolve(context.Background(),
		`{"action": "update_attendance", "date": "2025-03-10", "pattern": {"field": "id", "type": "startswith", "value": "cse"}}`, "c1")
	assert.Equal(t, "✅ Marked **Present** for **7 students** (including S0, S1...)", res.Text)
	assert.Equal(t, 7, store.writes)
}

func TestResolve_PartialFailureKeepsEarlierWrites(t *testing.T) {
	t.Parallel()

	store := newMemStore(
		student("CSE101", "Asha", nil),
		student("CSE102", "Kai", nil),
		student("CSE103", "Lin", nil),
	)
	store.failAfter = 2
	obs := &recordingObserver{}
	r := NewResolver(store, WithObserver(obs))

	text := `{"action": "update_attendance", "date": "2025-03-10", "pattern": {"field": "id", "type": "startswith", "value": "cse"}}`
	res := r.Resolve(context.Background(), text, "c1")

	assert.Equal(t, text, res.Text, "store failure falls back to the raw reply")
	assert.Equal(t, OutcomeStoreError, res.Outcome)
	assert.Equal(t, 2, res.Writes)
	assert.Len(t, store.records, 2, "no rollback of committed writes")
	assert.Equal(t, []string{"update_attendance:store_error"}, obs.commands)
}

func TestResolve_RosterError(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.rosterErr = errors.New("db locked")
	r := NewResolver(store)
	text := `{"action": "analyze_data"}`
	res := r.Resolve(context.Background(), text, "c1")
	assert.Equal(t, text, res.Text)
}

func kaiStore(t *testing.T) *memStore {
	t.Helper()
	store := newMemStore(student("1", "Kai", map[string]any{"Attendance": "0%", "cgpa": 8.2}))
	dates := []string{"2025-03-01", "2025-03-02", "2025-03-03", "2025-03-04", "2025-03-05"}
	for i, d := range dates {
		status := "Absent"
		if i < 3 {
			status = "Present"
		}
		require.NoError(t, store.UpsertAttendance(context.Background(),
			storage.AttendanceRecord{StudentID: "1", ClassID: "c1", Date: d, Status: status}))
	}
	return store
}

func TestResolve_AnalyzeAttendance(t *testing.T) {
	t.Parallel()

	r := NewResolver(kaiStore(t))
	ctx := context.Background()

	res := r.Resolve(ctx, `{"action": "analyze_data", "filter_type": "attendance", "operator": ">", "value": 50}`, "c1")
	want := ReportHeader +
		"| Name | Roll ID | Present | Total | % |\n|:---|:---|:---:|:---:|:---:|\n" +
		"| Kai | 1 | 3 | 5 | **60.0%** |\n"
	assert.Equal(t, want, res.Text)

	res = r.Resolve(ctx, `{"action": "analyze_data", "filter_type": "attendance", "operator": ">", "value": 70}`, "c1")
	assert.Equal(t, MsgNoMatches, res.Text)
	assert.Equal(t, OutcomeNoMatch, res.Outcome)
}

func TestResolve_AnalyzeMarks(t *testing.T) {
	t.Parallel()

	r := NewResolver(kaiStore(t))
	res := r.Resolve(context.Background(),
		`{"action": "analyze_data", "search_name": "KA", "filter_type": "marks", "operator": ">=", "value": "8"}`, "c1")
	want := ReportHeader + "| Name | Roll ID | Marks |\n|:---|:---|:---:|\n| Kai | 1 | **8.2** |\n"
	assert.Equal(t, want, res.Text)
}

func TestResolve_AnalyzeNonNumericThreshold(t *testing.T) {
	t.Parallel()

	r := NewResolver(kaiStore(t))
	res := r.Resolve(context.Background(),
		`{"action": "analyze_data", "filter_type": "attendance", "operator": ">", "value": "lots"}`, "c1")
	assert.True(t, strings.Contains(res.Text, "| Kai | 1 |"), "comparator disabled, entry kept: %q", res.Text)
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	roster := []storage.Student{
		student("A1", "Ann", nil),
		student("B2", "Ben", map[string]any{"notes": "good", "Score": "7.5"}),
	}
	records := []storage.AttendanceRecord{
		{StudentID: "A1", Date: "d1", Status: "Present"},
		{StudentID: "A1", Date: "d2", Status: "Present"},
		{StudentID: "B2", Date: "d2", Status: "Absent"},
		{StudentID: "B2", Date: "d3", Status: "present"}, // status match is exact
	}
	a := Summarize(roster, records)
	require.Equal(t, 3, a.TotalDates)
	assert.Equal(t, 2, a.Students[0].Present)
	assert.Equal(t, 66.7, a.Students[0].Attendance)
	assert.Equal(t, 0, a.Students[1].Present)
	assert.Equal(t, 7.5, a.Students[1].Marks)

	empty := Summarize(roster, nil)
	assert.Equal(t, 0.0, empty.Students[0].Attendance)
}

func TestRepresentativeMarks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		details map[string]any
		want    float64
	}{
		{"nil", nil, 0},
		{"percent string is not numeric", map[string]any{"Attendance": "0%"}, 0},
		{"priority key beats lexical order", map[string]any{"age": 19.0, "Marks": 42.0}, 42},
		{"priority order", map[string]any{"gpa": 3.1, "score": 77.0}, 77},
		{"numeric string", map[string]any{"CGPA": "8.5"}, 8.5},
		{"lexical fallback", map[string]any{"zeta": 1.0, "alpha": 2.0, "name": "x"}, 2},
		{"non-numeric priority key skipped", map[string]any{"grade": "A", "total": 88.0}, 88},
	}
	for _, tt := range tests {
		if got := RepresentativeMarks(tt.details); got != tt.want {
			t.Errorf("%s: RepresentativeMarks() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFilter_UnknownOperator(t *testing.T) {
	t.Parallel()

	students := []StudentSummary{{Name: "Ann", Attendance: 10}, {Name: "Ben", Attendance: 90}}
	got := Filter(students, Command{Operator: "!=", Value: []byte("50")})
	assert.Len(t, got, 2)

	got = Filter(students, Command{Operator: "<=", Value: []byte("10")})
	require.Len(t, got, 1)
	assert.Equal(t, "Ann", got[0].Name)
}
