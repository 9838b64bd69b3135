package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNoProvider is returned when no converser is configured.
var ErrNoProvider = errors.New("no LLM provider configured")

// FallbackConverser tries each converser in order:
//  1. the same model is retried with backoff on transient errors
//  2. the next model of the same provider is tried
//  3. a permanent error skips the provider's remaining models
type FallbackConverser struct {
	chain    []Converser
	retry    RetryConfig
	observer Observer
}

// NewFallbackConverser wraps chain. A nil observer disables metrics.
func NewFallbackConverser(retry RetryConfig, observer Observer, chain ...Converser) *FallbackConverser {
	return &FallbackConverser{chain: chain, retry: retry, observer: observer}
}

// Converse implements Converser.
func (f *FallbackConverser) Converse(ctx context.Context, system string, history []Turn, message string) (string, error) {
	if f == nil || len(f.chain) == 0 {
		return "", ErrNoProvider
	}

	var (
		lastErr      error
		skipProvider Provider
	)
	for i, c := range f.chain {
		if skipProvider != "" && c.Provider() == skipProvider {
			continue
		}
		if err := ctx.Err(); err != nil {
			break
		}

		start := time.Now()
		var reply string
		err := WithRetry(ctx, f.retry, func(attempt int, err error) {
			slog.DebugContext(ctx, "Retrying LLM call",
				"provider", c.Provider(),
				"model", c.Model(),
				"attempt", attempt,
				"error", err)
		}, func() error {
			var err error
			reply, err = c.Converse(ctx, system, history, message)
			return err
		})
		f.record(c.Provider(), err, start)
		if err == nil {
			if i > 0 {
				slog.InfoContext(ctx, "LLM fallback succeeded",
					"provider", c.Provider(),
					"model", c.Model(),
					"position", i)
			}
			return reply, nil
		}

		lastErr = err
		action := ClassifyError(err)
		slog.WarnContext(ctx, "LLM call failed",
			"provider", c.Provider(),
			"model", c.Model(),
			"action", action,
			"error", err)
		if errors.Is(err, context.Canceled) {
			break
		}
		switch action {
		case ActionFail, ActionFallback:
			skipProvider = c.Provider()
		default:
			skipProvider = ""
		}
	}

	if lastErr == nil {
		lastErr = ctx.Err()
	}
	return "", fmt.Errorf("all LLM providers failed: %w", lastErr)
}

func (f *FallbackConverser) record(p Provider, err error, start time.Time) {
	if f.observer != nil {
		f.observer.RecordLLM(string(p), errorStatus(err), time.Since(start).Seconds())
	}
}

// Provider returns the primary provider.
func (f *FallbackConverser) Provider() Provider {
	if f == nil || len(f.chain) == 0 {
		return ""
	}
	return f.chain[0].Provider()
}

// Model returns the primary model.
func (f *FallbackConverser) Model() string {
	if f == nil || len(f.chain) == 0 {
		return ""
	}
	return f.chain[0].Model()
}

// Len returns the chain length.
func (f *FallbackConverser) Len() int {
	if f == nil {
		return 0
	}
	return len(f.chain)
}

// Close closes every converser in the chain.
func (f *FallbackConverser) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, c := range f.chain {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
