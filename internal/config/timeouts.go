// Package config provides centralized timeout constants for the application.
//
// The chat path is dominated by the language model call; everything else
// (SQLite reads, TF-IDF ranking over a few thousand segments) completes in
// milliseconds.
package config

import "time"

// HTTP server timeouts
const (
	// ChatProcessing bounds a single /chat request including the model call.
	ChatProcessing = 60 * time.Second

	// HTTPRead is the HTTP server read timeout. Roster uploads are the largest bodies.
	HTTPRead = 30 * time.Second

	// HTTPWrite must exceed ChatProcessing.
	HTTPWrite = 65 * time.Second

	// HTTPIdle is the keep-alive idle timeout.
	HTTPIdle = 120 * time.Second
)

// Corpus timeouts
const (
	// CaptionInterval is the pause between image captioning calls (1 call/second).
	CaptionInterval = 1 * time.Second

	// CaptionRequest bounds a single image captioning call.
	CaptionRequest = 45 * time.Second

	// CorpusReloadDebounce coalesces the burst of fsnotify events produced by one rebuild.
	CorpusReloadDebounce = 500 * time.Millisecond

	// R2Transfer bounds publishing or pulling a corpus bundle.
	R2Transfer = 2 * time.Minute
)
