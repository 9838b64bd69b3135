package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	domerrors "github.com/garyellow/campus-ai-go/internal/errors"
	"github.com/garyellow/campus-ai-go/internal/genai"
)

type fakeCaptioner struct {
	mu       sync.Mutex
	calls    []time.Time
	mime     string
	text     string
	err      error
	failures int // leading calls that fail with a transient error
}

func (f *fakeCaptioner) Caption(_ context.Context, prompt, mimeType string, _ []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, time.Now())
	f.mime = mimeType
	if prompt != ImagePrompt {
		return "", errors.New("unexpected prompt")
	}
	if len(f.calls) <= f.failures {
		return "", errors.New("503 service unavailable")
	}
	return f.text, f.err
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRegistry_Text(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := write(t, dir, "Notes.TXT", "Unit 1 intro\n## Details")

	r := NewDefaultRegistry(nil)
	got, err := r.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != "Unit 1 intro\n## Details" {
		t.Errorf("Extract() = %q", got)
	}
}

func TestRegistry_Unsupported(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := NewDefaultRegistry(nil)

	tests := []string{"data.xlsx", "photo.png", "archive.zip"}
	for _, name := range tests {
		path := write(t, dir, name, "x")
		_, err := r.Extract(context.Background(), path)
		if !errors.Is(err, domerrors.ErrUnsupportedFormat) {
			t.Errorf("Extract(%q) error = %v, want ErrUnsupportedFormat", name, err)
		}
	}
}

func TestRegistry_EmptyContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := write(t, dir, "blank.txt", "  \n\t")

	_, err := NewDefaultRegistry(nil).Extract(context.Background(), path)
	if !errors.Is(err, domerrors.ErrEmptyContent) {
		t.Errorf("Extract() error = %v, want ErrEmptyContent", err)
	}
	var extErr *domerrors.ExtractionError
	if !errors.As(err, &extErr) || extErr.Kind != "text" {
		t.Errorf("expected ExtractionError with kind text, got %v", err)
	}
}

func TestRegistry_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewDefaultRegistry(nil).Extract(context.Background(), filepath.Join(t.TempDir(), "gone.txt"))
	var extErr *domerrors.ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should unwrap to os.ErrNotExist: %v", err)
	}
}

func TestRegistry_CorruptPDF(t *testing.T) {
	t.Parallel()

	path := write(t, t.TempDir(), "broken.pdf", "not a pdf at all")
	_, err := NewDefaultRegistry(nil).Extract(context.Background(), path)
	var extErr *domerrors.ExtractionError
	if !errors.As(err, &extErr) || extErr.Kind != "pdf" {
		t.Errorf("expected pdf ExtractionError, got %v", err)
	}
}

func TestHTMLReader(t *testing.T) {
	t.Parallel()

	page := `<html><head><title>x</title><style>p{color:red}</style></head>
<body>
<h2>Campus   Rooms</h2>
<p>Room 101 is a lab.</p>
<script>var hidden = "secret";</script>
<hr>
<table><tr><td><p>Room 102</p></td><td>Seminar</td></tr></table>
</body></html>`
	path := write(t, t.TempDir(), "rooms.html", page)

	got, err := NewDefaultRegistry(nil).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want := "## Campus Rooms\nRoom 101 is a lab.\n---\nRoom 102\nSeminar"
	if got != want {
		t.Errorf("Extract() = %q, want %q", got, want)
	}
	if strings.Contains(got, "secret") || strings.Contains(got, "color") {
		t.Error("script or style text leaked into output")
	}
}

func TestImageReader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	captioner := &fakeCaptioner{text: "Block A: Library, Block B: Labs"}
	r := NewDefaultRegistry(NewImageReader(captioner, 0, genai.RetryConfig{}))

	got, err := r.Extract(context.Background(), write(t, dir, "campus_map.jpg", "\xff\xd8jpeg"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != captioner.text {
		t.Errorf("Extract() = %q", got)
	}
	if captioner.mime != "image/jpeg" {
		t.Errorf("mime = %q, want image/jpeg", captioner.mime)
	}
}

func TestImageReader_Throttle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	captioner := &fakeCaptioner{text: "caption"}
	reader := NewImageReader(captioner, 100*time.Millisecond, genai.RetryConfig{})
	path := write(t, dir, "a.png", "png")

	for range 3 {
		if _, err := reader.Read(context.Background(), path); err != nil {
			t.Fatalf("Read() error = %v", err)
		}
	}
	if len(captioner.calls) != 3 {
		t.Fatalf("calls = %d", len(captioner.calls))
	}
	if gap := captioner.calls[2].Sub(captioner.calls[0]); gap < 180*time.Millisecond {
		t.Errorf("three calls spanned %v, want at least ~200ms", gap)
	}
}

func TestImageReader_RetriesAreThrottled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	captioner := &fakeCaptioner{text: "caption", failures: 2}
	retry := genai.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}
	reader := NewImageReader(captioner, 100*time.Millisecond, retry)

	got, err := reader.Read(context.Background(), write(t, dir, "a.png", "png"))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != "caption" {
		t.Errorf("Read() = %q", got)
	}
	if len(captioner.calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(captioner.calls))
	}
	for i := 1; i < len(captioner.calls); i++ {
		if gap := captioner.calls[i].Sub(captioner.calls[i-1]); gap < 90*time.Millisecond {
			t.Errorf("attempt %d came %v after the previous one, want at least ~100ms", i+1, gap)
		}
	}
}

func TestImageReader_GivesUpAfterRetries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	captioner := &fakeCaptioner{text: "caption", failures: 5}
	retry := genai.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}
	reader := NewImageReader(captioner, 0, retry)

	if _, err := reader.Read(context.Background(), write(t, dir, "a.png", "png")); err == nil {
		t.Fatal("Read() should fail once retries are exhausted")
	}
	if len(captioner.calls) != 2 {
		t.Errorf("calls = %d, want 2", len(captioner.calls))
	}
}

func TestImageReader_ContextCancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	reader := NewImageReader(&fakeCaptioner{text: "x"}, time.Hour, genai.RetryConfig{})
	path := write(t, dir, "a.png", "png")

	if _, err := reader.Read(context.Background(), path); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := reader.Read(ctx, path); err == nil {
		t.Error("Read() with cancelled context should fail while throttled")
	}
}

func TestNormalizeSpace(t *testing.T) {
	t.Parallel()

	if got := normalizeSpace("  a\n\n b\t\tc  "); got != "a b c" {
		t.Errorf("normalizeSpace() = %q", got)
	}
}
