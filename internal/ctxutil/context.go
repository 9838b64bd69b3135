// Package ctxutil provides type-safe context value management.
// Uses private key types to prevent collisions.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	userEmailKey contextKey = "ctxutil.userEmail"
	classIDKey   contextKey = "ctxutil.classID"
	requestIDKey contextKey = "ctxutil.requestID"
)

// WithUserEmail adds the requesting user's email to the context.
// The email identifies a teacher or student session and keys rate limits.
func WithUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, userEmailKey, email)
}

// GetUserEmail retrieves the user email from the context.
// Returns an empty string if not set.
func GetUserEmail(ctx context.Context) string {
	if v := ctx.Value(userEmailKey); v != nil {
		if email, ok := v.(string); ok && email != "" {
			return email
		}
	}
	return ""
}

// WithClassID adds the class scope to the context.
func WithClassID(ctx context.Context, classID string) context.Context {
	return context.WithValue(ctx, classIDKey, classID)
}

// GetClassID retrieves the class scope from the context.
// Returns an empty string if not set.
func GetClassID(ctx context.Context) string {
	if v := ctx.Value(classIDKey); v != nil {
		if classID, ok := v.(string); ok && classID != "" {
			return classID
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context for tracing.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID and true if found, empty string and false otherwise.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}

// PreserveTracing creates a detached context that keeps only tracing values.
// The new context is independent of the parent's cancellation and deadlines,
// so it can be used for work that outlives an HTTP request (e.g. corpus reloads
// triggered from an admin endpoint).
func PreserveTracing(ctx context.Context) context.Context {
	newCtx := context.Background()

	if email := GetUserEmail(ctx); email != "" {
		newCtx = WithUserEmail(newCtx, email)
	}
	if classID := GetClassID(ctx); classID != "" {
		newCtx = WithClassID(newCtx, classID)
	}
	if requestID, ok := GetRequestID(ctx); ok && requestID != "" {
		newCtx = WithRequestID(newCtx, requestID)
	}

	return newCtx
}
