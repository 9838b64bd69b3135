package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Artifact file names inside a corpus directory.
const (
	SegmentsFile   = "knowledge_base.json"
	VectorizerFile = "vectorizer.json"
	MatrixFile     = "tfidf_matrix.json"
)

// ArtifactNames lists every file that makes up a persisted corpus.
var ArtifactNames = []string{SegmentsFile, VectorizerFile, MatrixFile}

// keepVersions is how many artifact versions survive a Save, the live one
// included. Older versions stay readable for loads that resolved them
// before the swap.
const keepVersions = 3

// loadAttempts bounds how often Load re-resolves dir when the version it
// resolved is pruned mid-read.
const loadAttempts = 3

// Save writes the three artifacts into a fresh version directory next to dir
// and then points dir at it with a single symlink rename. dir is never
// missing once it exists, and a reader sees either the old set or the new one.
func Save(dir string, c *Corpus) error {
	if err := c.Validate(); err != nil {
		return err
	}
	dir = filepath.Clean(dir)
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("corpus: create parent dir: %w", err)
	}

	version, err := os.MkdirTemp(parent, versionPrefix(dir)+"*")
	if err != nil {
		return fmt.Errorf("corpus: create version dir: %w", err)
	}
	installed := false
	defer func() {
		if !installed {
			_ = os.RemoveAll(version)
		}
	}()

	artifacts := map[string]any{
		SegmentsFile:   c.Segments,
		VectorizerFile: c.Vectorizer,
		MatrixFile:     c.Matrix,
	}
	for name, v := range artifacts {
		if err := writeJSON(filepath.Join(version, name), v); err != nil {
			return err
		}
	}

	if err := swapLink(version, dir); err != nil {
		return err
	}
	installed = true
	pruneVersions(dir)
	return nil
}

// versionPrefix names the hidden siblings that hold artifact versions of dir.
func versionPrefix(dir string) string {
	return "." + filepath.Base(dir) + ".v-"
}

// swapLink points dst at target. A symlink dst is replaced by renaming a new
// link over it. A plain directory left by an older layout is moved aside
// first, which is the only time dst is briefly absent.
func swapLink(target, dst string) error {
	rel := filepath.Base(target)
	tmpLink := fmt.Sprintf("%s.link-%d", target, time.Now().UnixNano())
	if err := os.Symlink(rel, tmpLink); err != nil {
		return fmt.Errorf("corpus: create link: %w", err)
	}

	legacy := ""
	if info, err := os.Lstat(dst); err == nil && info.Mode()&fs.ModeSymlink == 0 {
		legacy = fmt.Sprintf("%s.old-%d", dst, time.Now().UnixNano())
		if err := os.Rename(dst, legacy); err != nil {
			_ = os.Remove(tmpLink)
			return fmt.Errorf("corpus: move previous artifacts aside: %w", err)
		}
	}
	if err := os.Rename(tmpLink, dst); err != nil {
		_ = os.Remove(tmpLink)
		if legacy != "" {
			_ = os.Rename(legacy, dst)
		}
		return fmt.Errorf("corpus: install artifacts: %w", err)
	}
	if legacy != "" {
		_ = os.RemoveAll(legacy)
	}
	return nil
}

// pruneVersions removes all but the newest keepVersions version directories
// of dir. The live target is always kept.
func pruneVersions(dir string) {
	parent := filepath.Dir(dir)
	entries, err := os.ReadDir(parent)
	if err != nil {
		return
	}
	live, _ := os.Readlink(dir)

	type version struct {
		name string
		mod  time.Time
	}
	prefix := versionPrefix(dir)
	var versions []version
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), prefix) || e.Name() == live {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		versions = append(versions, version{name: e.Name(), mod: info.ModTime()})
	}
	slices.SortFunc(versions, func(a, b version) int { return b.mod.Compare(a.mod) })

	for i, v := range versions {
		if i >= keepVersions-1 {
			_ = os.RemoveAll(filepath.Join(parent, v.name))
		}
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("corpus: create %s: %w", filepath.Base(path), err)
	}
	if err := json.NewEncoder(f).Encode(v); err != nil {
		_ = f.Close()
		return fmt.Errorf("corpus: encode %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("corpus: close %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Load reads a persisted corpus. dir is resolved once so all three artifacts
// come from the same version. Missing artifacts yield ErrCorpusUnavailable.
func Load(dir string) (*Corpus, error) {
	var lastErr error
	for range loadAttempts {
		resolved, err := filepath.EvalSymlinks(dir)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s missing", ErrCorpusUnavailable, filepath.Base(dir))
		}
		if err != nil {
			return nil, fmt.Errorf("%w: resolve %s: %w", ErrCorpusUnavailable, filepath.Base(dir), err)
		}
		c, err := loadVersion(resolved)
		if err == nil {
			return c, nil
		}
		lastErr = err
		// Retry only when a newer Save pruned the version under us.
		if current, rerr := filepath.EvalSymlinks(dir); rerr != nil || current == resolved {
			break
		}
	}
	return nil, lastErr
}

func loadVersion(dir string) (*Corpus, error) {
	c := &Corpus{}
	targets := map[string]any{
		SegmentsFile:   &c.Segments,
		VectorizerFile: &c.Vectorizer,
		MatrixFile:     &c.Matrix,
	}
	for _, name := range ArtifactNames {
		if err := readJSON(filepath.Join(dir, name), targets[name]); err != nil {
			return nil, err
		}
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorpusUnavailable, err)
	}

	if info, err := os.Stat(filepath.Join(dir, SegmentsFile)); err == nil {
		c.BuiltAt = info.ModTime().UTC()
	}
	return c, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s missing", ErrCorpusUnavailable, filepath.Base(path))
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrCorpusUnavailable, filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrCorpusUnavailable, filepath.Base(path), err)
	}
	return nil
}
