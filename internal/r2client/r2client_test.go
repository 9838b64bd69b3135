package r2client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/campus-ai-go/internal/corpus"
)

// memStore is an in-memory ObjectStore with conditional-write semantics.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	etags   map[string]string
	seq     int
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, etags: map[string]string{}}
}

func (m *memStore) put(key string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.seq++
	m.objects[key] = data
	m.etags[key] = fmt.Sprintf("etag-%d", m.seq)
	return m.etags[key], nil
}

func (m *memStore) Upload(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.put(key, body)
}

func (m *memStore) Download(_ context.Context, key string) (io.ReadCloser, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, "", ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), m.etags[key], nil
}

func (m *memStore) PutObjectIfNotExists(_ context.Context, key string, body io.Reader, _ string) (bool, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; ok {
		return false, "", nil
	}
	etag, err := m.put(key, body)
	return err == nil, etag, err
}

func (m *memStore) PutObjectIfMatch(_ context.Context, key string, body io.Reader, etag, _ string) (bool, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.etags[key] != etag {
		return false, "", nil
	}
	newTag, err := m.put(key, body)
	return err == nil, newTag, err
}

func (m *memStore) DeleteObject(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	delete(m.etags, key)
	return nil
}

func saveCorpus(t *testing.T, dir string, segments ...string) *corpus.Corpus {
	t.Helper()
	c, err := corpus.New(segments)
	require.NoError(t, err)
	require.NoError(t, corpus.Save(dir, c))
	return c
}

func TestBundle_RoundTrip(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "corpus")
	want := saveCorpus(t, src,
		"[Source: Syllabus] DBMS covers normalisation and transactions",
		"[Source: Rooms] [Campus Room Inventory] Room 101 Block A")

	var buf bytes.Buffer
	b, err := EncodeBundle(&buf, src)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Segments)
	assert.Len(t, b.Artifacts, len(corpus.ArtifactNames))

	dst := filepath.Join(t.TempDir(), "pulled")
	got, err := DecodeBundle(&buf, dst)
	require.NoError(t, err)
	assert.Equal(t, want.Segments, got.Segments)

	reloaded, err := corpus.Load(dst)
	require.NoError(t, err)
	hits := reloaded.Rank("normalisation transactions", 8, 0.1)
	require.NotEmpty(t, hits)
	assert.Equal(t, 0, hits[0].Index)
}

func TestEncodeBundle_MissingCorpus(t *testing.T) {
	t.Parallel()

	_, err := EncodeBundle(io.Discard, t.TempDir())
	assert.ErrorIs(t, err, corpus.ErrCorpusUnavailable)
}

func TestDecodeBundle_Rejects(t *testing.T) {
	t.Parallel()

	_, err := DecodeBundle(bytes.NewReader([]byte("not zstd")), t.TempDir())
	assert.Error(t, err)
}

func TestPublisher(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()
	pub := NewPublisher(store, "corpus/bundle.json.zst")

	src := filepath.Join(t.TempDir(), "corpus")
	saveCorpus(t, src, "alpha beta gamma", "delta epsilon zeta")

	b, err := pub.Publish(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Segments)
	_, locked := store.objects["corpus/bundle.json.zst.lock"]
	assert.False(t, locked, "lock released after publish")

	dst := filepath.Join(t.TempDir(), "corpus")
	c, err := pub.Pull(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	for _, name := range corpus.ArtifactNames {
		_, err := os.Stat(filepath.Join(dst, name))
		assert.NoError(t, err, name)
	}
}

func TestPublisher_PullMissing(t *testing.T) {
	t.Parallel()

	_, err := NewPublisher(newMemStore(), "k").Pull(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPublisher_Locked(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()
	holder := NewDistributedLock(store, "k.lock", time.Hour)
	ok, err := holder.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	src := filepath.Join(t.TempDir(), "corpus")
	saveCorpus(t, src, "alpha beta", "gamma delta")
	_, err = NewPublisher(store, "k").Publish(ctx, src)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestDistributedLock(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()

	a := NewDistributedLock(store, "lock", time.Minute)
	b := NewDistributedLock(store, "lock", time.Minute)
	require.NotEqual(t, a.OwnerID(), b.OwnerID())

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "live lock is exclusive")

	// Releasing someone else's lock is a no-op.
	require.NoError(t, b.Release(ctx))
	_, held := store.objects["lock"]
	assert.True(t, held)

	// An expired lock is taken over.
	b.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, a.Release(ctx), "stale owner release is a no-op")
	_, held = store.objects["lock"]
	assert.True(t, held)

	require.NoError(t, b.Release(ctx))
	_, held = store.objects["lock"]
	assert.False(t, held)
	require.NoError(t, b.Release(ctx), "releasing a missing lock is fine")
}

func TestDistributedLock_CorruptBodyCountsAsExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore()
	_, err := store.Upload(ctx, "lock", bytes.NewReader([]byte("garbage")), "")
	require.NoError(t, err)

	ok, err := NewDistributedLock(store, "lock", time.Minute).Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestErrNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, errors.Is(fmt.Errorf("x: %w", ErrNotFound), ErrNotFound))
}
