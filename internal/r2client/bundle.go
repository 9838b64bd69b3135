package r2client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/garyellow/campus-ai-go/internal/corpus"
)

// BundleVersion is bumped when the bundle layout changes.
const BundleVersion = 1

// DefaultLockTTL bounds how long a crashed publisher blocks others.
const DefaultLockTTL = 5 * time.Minute

// ErrLocked is returned when another publisher holds the lock.
var ErrLocked = errors.New("r2client: bundle is being published by another process")

// Bundle is the decoded form of a published corpus: every artifact file
// keyed by name.
type Bundle struct {
	Version   int                        `json:"version"`
	BuiltAt   time.Time                  `json:"built_at"`
	Segments  int                        `json:"segments"`
	Artifacts map[string]json.RawMessage `json:"artifacts"`
}

// EncodeBundle writes the artifacts in dir as a zstd-compressed bundle. The
// directory must hold a loadable corpus.
func EncodeBundle(w io.Writer, dir string) (*Bundle, error) {
	// Pin one artifact version so a concurrent Save cannot mix the set.
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	c, err := corpus.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}

	b := &Bundle{
		Version:   BundleVersion,
		BuiltAt:   c.BuiltAt,
		Segments:  c.Len(),
		Artifacts: make(map[string]json.RawMessage, len(corpus.ArtifactNames)),
	}
	for _, name := range corpus.ArtifactNames {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("encode bundle: %w", err)
		}
		b.Artifacts[name] = data
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("encode bundle: create encoder: %w", err)
	}
	if err := json.NewEncoder(enc).Encode(b); err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode bundle: close encoder: %w", err)
	}
	return b, nil
}

// DecodeBundle reads a bundle, validates it as a corpus and saves it to dir,
// replacing what was there.
func DecodeBundle(r io.Reader, dir string) (*corpus.Corpus, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("decode bundle: create decoder: %w", err)
	}
	defer dec.Close()

	var b Bundle
	if err := json.NewDecoder(dec).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if b.Version != BundleVersion {
		return nil, fmt.Errorf("decode bundle: unsupported version %d", b.Version)
	}

	staging, err := os.MkdirTemp("", "corpus-bundle-*")
	if err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	for _, name := range corpus.ArtifactNames {
		data, ok := b.Artifacts[name]
		if !ok {
			return nil, fmt.Errorf("decode bundle: missing %s", name)
		}
		if err := os.WriteFile(filepath.Join(staging, name), data, 0o600); err != nil {
			return nil, fmt.Errorf("decode bundle: %w", err)
		}
	}

	c, err := corpus.Load(staging)
	if err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if err := corpus.Save(dir, c); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	return c, nil
}

// Publisher moves corpus bundles between a local directory and one object key.
type Publisher struct {
	store   ObjectStore
	key     string
	lockTTL time.Duration
}

// NewPublisher creates a publisher for key.
func NewPublisher(store ObjectStore, key string) *Publisher {
	return &Publisher{store: store, key: key, lockTTL: DefaultLockTTL}
}

// Publish uploads the corpus in dir under the publish lock.
func (p *Publisher) Publish(ctx context.Context, dir string) (*Bundle, error) {
	lock := NewDistributedLock(p.store, p.key+".lock", p.lockTTL)
	ok, err := lock.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			slog.WarnContext(ctx, "Failed to release publish lock", "error", err)
		}
	}()

	var buf bytes.Buffer
	b, err := EncodeBundle(&buf, dir)
	if err != nil {
		return nil, err
	}
	size := buf.Len()
	etag, err := p.store.Upload(ctx, p.key, &buf, "application/zstd")
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Corpus bundle published",
		"key", p.key,
		"segments", b.Segments,
		"bytes", size,
		"etag", etag,
		"lock_owner", lock.OwnerID())
	return b, nil
}

// Pull downloads the bundle and installs it in dir.
func (p *Publisher) Pull(ctx context.Context, dir string) (*corpus.Corpus, error) {
	body, etag, err := p.store.Download(ctx, p.key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	c, err := DecodeBundle(body, dir)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Corpus bundle pulled",
		"key", p.key,
		"segments", c.Len(),
		"etag", etag)
	return c, nil
}
