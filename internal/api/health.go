package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/garyellow/campus-ai-go/internal/ctxutil"
	"github.com/gin-gonic/gin"
)

// reloadTimeout bounds a forced reload once it is detached from the request.
const reloadTimeout = time.Minute

// liveness never checks dependencies; it only proves the process serves HTTP.
func (h *Handler) liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (h *Handler) readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.readyTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "Readiness check failed: database unavailable", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}

	corpus := gin.H{"loaded": false, "segments": 0}
	if h.corpus != nil {
		corpus["loaded"] = h.corpus.Ready()
		corpus["segments"] = h.corpus.Segments()
	}

	// An empty knowledge base still answers general and roster questions.
	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"database": "connected",
		"corpus":   corpus,
	})
}

func (h *Handler) handleReload(c *gin.Context) {
	// Reloads are shared between callers, so one client hanging up must not
	// cancel the reload for the others.
	ctx, cancel := context.WithTimeout(ctxutil.PreserveTracing(c.Request.Context()), reloadTimeout)
	defer cancel()
	n, err := h.reloader.Reload(ctx)
	if err != nil {
		serverError(c.Request.Context(), "Corpus reload failed", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, gin.H{"segments": n})
}
