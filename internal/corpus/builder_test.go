package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	domerrors "github.com/garyellow/campus-ai-go/internal/errors"
	"github.com/garyellow/campus-ai-go/internal/segment"
)

var defaultSegments = segment.Options{MaxSize: segment.DefaultMaxSize, Overlap: segment.DefaultOverlap}

// fileExtractor reads .txt files verbatim and fails on names containing "broken".
type fileExtractor struct {
	calls []string
}

func (f *fileExtractor) Extract(_ context.Context, path string) (string, error) {
	f.calls = append(f.calls, filepath.Base(path))
	if strings.Contains(path, "broken") {
		return "", errors.New("corrupt file")
	}
	if filepath.Ext(path) != ".txt" {
		return "", fmt.Errorf("%s: %w", path, domerrors.ErrUnsupportedFormat)
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"b_timetable.txt":             "Monday CSE101 9am\n---\nTuesday ECE101 10am",
		"a_campus_room_inventory.txt": "Room 101 lab\nRoom 102 seminar hall",
		"broken_notes.txt":            "never read",
		"map.bin":                     "binary",
		".hidden.txt":                 "ignored",
	})
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}

	ext := &fileExtractor{}
	b := NewBuilder(ext, defaultSegments)
	c, stats, err := b.Build(context.Background(), dir)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	wantCalls := []string{"a_campus_room_inventory.txt", "b_timetable.txt", "broken_notes.txt", "map.bin"}
	if strings.Join(ext.calls, ",") != strings.Join(wantCalls, ",") {
		t.Errorf("extract order = %v, want %v", ext.calls, wantCalls)
	}
	if stats.Files != 4 || stats.Skipped != 2 {
		t.Errorf("stats = %+v", stats)
	}

	want := []string{
		"[A Campus Room Inventory] Room 101 lab\nRoom 102 seminar hall",
		"[B Timetable] Monday CSE101 9am",
		"[B Timetable] ---\nTuesday ECE101 10am",
	}
	if len(c.Segments) != len(want) {
		t.Fatalf("segments = %q", c.Segments)
	}
	for i := range want {
		if c.Segments[i] != want[i] {
			t.Errorf("segment[%d] = %q, want %q", i, c.Segments[i], want[i])
		}
	}
	if stats.Segments != len(want) {
		t.Errorf("stats.Segments = %d", stats.Segments)
	}
}

func TestBuilder_Idempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"notes.txt": "Unit 1 sorting\nUnit 2 graphs"})

	b := NewBuilder(&fileExtractor{}, defaultSegments)
	first, _, err := b.Build(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := b.Build(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(first.Segments, "|") != strings.Join(second.Segments, "|") {
		t.Error("repeated builds produced different segments")
	}
}

func TestBuilder_Empty(t *testing.T) {
	t.Parallel()

	b := NewBuilder(&fileExtractor{}, defaultSegments)
	_, _, err := b.Build(context.Background(), t.TempDir())
	if !errors.Is(err, domerrors.ErrEmptyContent) {
		t.Errorf("Build() error = %v, want ErrEmptyContent", err)
	}
	if _, _, err := b.Build(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Build() on missing dir should fail")
	}
}
