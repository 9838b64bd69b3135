// Package roster imports class rosters from uploaded CSV files.
package roster

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	domerrors "github.com/garyellow/campus-ai-go/internal/errors"
	"github.com/garyellow/campus-ai-go/internal/storage"
)

// ErrMissingColumns means no roll or name column could be found.
var ErrMissingColumns = errors.New(`Columns "Roll Number" and "Name" not found.`)

// SaveFailedMessage is shown to the uploader when the store rejects the roster.
const SaveFailedMessage = "Could not save the roster, please retry."

var saveWrapper = domerrors.NewWrapper("roster", "upload_roster")

// DefaultDetails is the details bag given to every imported student.
func DefaultDetails() map[string]any {
	return map[string]any{"Attendance": "0%"}
}

// Row is one parsed roster line.
type Row struct {
	StudentID string
	Name      string
}

// Store persists imported students.
type Store interface {
	UpsertStudentsBatch(ctx context.Context, students []*storage.Student) error
}

// Importer turns an uploaded file into roster rows for one class.
type Importer struct {
	store Store
}

// NewImporter creates an importer.
func NewImporter(store Store) *Importer {
	return &Importer{store: store}
}

// Import parses file and upserts every row into classID. It returns the
// number of students written.
func (i *Importer) Import(ctx context.Context, filename string, r io.Reader, classID, teacherEmail string) (int, error) {
	if classID == "" {
		return 0, domerrors.NewValidationError("class_id", "is required")
	}
	if ext := strings.ToLower(filepath.Ext(filename)); ext != ".csv" {
		return 0, fmt.Errorf("%w: %q, upload the roster as .csv", domerrors.ErrUnsupportedFormat, ext)
	}

	rows, err := Parse(r)
	if err != nil {
		return 0, err
	}

	students := make([]*storage.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, &storage.Student{
			ClassID:      classID,
			StudentID:    row.StudentID,
			Name:         row.Name,
			TeacherEmail: teacherEmail,
			Details:      DefaultDetails(),
		})
	}
	if err := i.store.UpsertStudentsBatch(ctx, students); err != nil {
		return 0, saveWrapper.Wrap(fmt.Errorf("save roster: %w", err), SaveFailedMessage)
	}

	slog.InfoContext(ctx, "Roster imported",
		"class_id", classID,
		"file", filename,
		"count", len(students))
	return len(students), nil
}

// Parse reads a CSV roster. Headers are lower-cased and trimmed; the roll
// column is the first containing "roll" or "id", the name column the first
// other column containing "name" or "student". Rows without a roll value are
// skipped.
func Parse(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingColumns
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domerrors.ErrInvalidInput, err)
	}

	rollCol, nameCol := columns(header)
	if rollCol < 0 || nameCol < 0 {
		return nil, ErrMissingColumns
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domerrors.ErrInvalidInput, err)
		}
		id := field(record, rollCol)
		if id == "" {
			continue
		}
		rows = append(rows, Row{StudentID: id, Name: field(record, nameCol)})
	}
	return rows, nil
}

func columns(header []string) (roll, name int) {
	roll, name = -1, -1
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		if roll < 0 && (strings.Contains(h, "roll") || strings.Contains(h, "id")) {
			roll = i
			continue
		}
		if name < 0 && (strings.Contains(h, "name") || strings.Contains(h, "student")) {
			name = i
		}
	}
	return roll, name
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
