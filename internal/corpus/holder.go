package corpus

import "sync/atomic"

// Holder publishes the current Corpus to concurrent readers.
// Readers never block; a swap is a single pointer store.
type Holder struct {
	current atomic.Pointer[Corpus]
}

// NewHolder creates a Holder with an optional initial corpus.
func NewHolder(c *Corpus) *Holder {
	h := &Holder{}
	if c != nil {
		h.current.Store(c)
	}
	return h
}

// Load returns the current corpus, or nil when none has been loaded.
func (h *Holder) Load() *Corpus {
	return h.current.Load()
}

// Swap installs c and returns the previous corpus.
func (h *Holder) Swap(c *Corpus) *Corpus {
	return h.current.Swap(c)
}

// Ready reports whether a corpus is loaded.
func (h *Holder) Ready() bool {
	return h.current.Load() != nil
}

// Segments returns the segment count of the current corpus, 0 when none is loaded.
func (h *Holder) Segments() int {
	if c := h.current.Load(); c != nil {
		return c.Len()
	}
	return 0
}
