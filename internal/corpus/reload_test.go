package corpus

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recordingObserver struct {
	mu       sync.Mutex
	statuses []string
	segments int
}

func (o *recordingObserver) RecordCorpusReload(status string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, status)
}

func (o *recordingObserver) SetCorpusSegments(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.segments = n
}

func TestReloader_Reload(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "corpus")
	holder := NewHolder(nil)
	obs := &recordingObserver{}
	r := NewReloader(dir, holder, obs)

	if _, err := r.Reload(context.Background()); err == nil {
		t.Fatal("Reload() without artifacts should fail")
	}
	if holder.Ready() {
		t.Fatal("holder should stay empty after failed reload")
	}

	c, _ := New([]string{"alpha beta", "gamma delta"})
	if err := Save(dir, c); err != nil {
		t.Fatal(err)
	}
	n, err := r.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if n != 2 || holder.Load().Len() != 2 {
		t.Errorf("reloaded %d segments, holder has %d", n, holder.Load().Len())
	}
	if len(obs.statuses) != 2 || obs.statuses[0] != "error" || obs.statuses[1] != "success" || obs.segments != 2 {
		t.Errorf("observer = %+v", obs)
	}
}

func TestReloader_KeepsPreviousOnFailure(t *testing.T) {
	t.Parallel()

	previous, _ := New([]string{"kept segment"})
	holder := NewHolder(previous)
	r := NewReloader(filepath.Join(t.TempDir(), "missing"), holder, nil)

	if _, err := r.Reload(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if holder.Load() != previous {
		t.Error("failed reload replaced the previous corpus")
	}
}

func TestReloader_Watch(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "corpus")
	holder := NewHolder(nil)
	r := NewReloader(dir, holder, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx, 20*time.Millisecond) }()

	// Give the watcher time to register.
	time.Sleep(50 * time.Millisecond)
	c, _ := New([]string{"watched alpha", "watched beta", "watched gamma"})
	if err := Save(dir, c); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for !holder.Ready() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !holder.Ready() || holder.Load().Len() != 3 {
		t.Fatal("watcher did not load the saved corpus")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}

func TestReloader_Relevant(t *testing.T) {
	t.Parallel()

	r := NewReloader("/srv/data/corpus", NewHolder(nil), nil)
	tests := []struct {
		path string
		want bool
	}{
		{"/srv/data/corpus", true},
		{"/srv/data/corpus/knowledge_base.json", true},
		{"/srv/data/corpus/notes.txt", false},
		{"/srv/data/.corpus.tmp-123", false},
		{"/srv/data/campus.db", false},
	}
	for _, tt := range tests {
		if got := r.relevant(tt.path); got != tt.want {
			t.Errorf("relevant(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
