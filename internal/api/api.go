// Package api exposes the campus assistant over HTTP with gin.
//
// The JSON shapes follow the web client: chat replies are {response, success},
// admin mutations are {success, msg}, and list endpoints wrap their rows in a
// named field ({history}, {classes}, {students}, {subjects}).
package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/garyellow/campus-ai-go/internal/assistant"
	"github.com/garyellow/campus-ai-go/internal/sentry"
	"github.com/garyellow/campus-ai-go/internal/storage"
	"github.com/gin-gonic/gin"
)

// HistoryLimit is the number of turns returned by /get_history.
const HistoryLimit = 50

// ChatService answers one chat turn.
type ChatService interface {
	Chat(ctx context.Context, req assistant.Request) assistant.Response
}

// Store is the persistence the handlers read and write directly.
type Store interface {
	RecentMessages(ctx context.Context, userEmail string, limit int) ([]storage.Message, error)
	ListClassesByTeacher(ctx context.Context, teacherEmail string) ([]storage.Class, error)
	ListStudentsByTeacher(ctx context.Context, teacherEmail string) ([]storage.Student, error)
	CreateClass(ctx context.Context, c *storage.Class) error
	DeleteStudent(ctx context.Context, classID, studentID string) error
	Ping(ctx context.Context) error
}

// RosterImporter loads an uploaded roster file into a class.
type RosterImporter interface {
	Import(ctx context.Context, filename string, r io.Reader, classID, teacherEmail string) (int, error)
}

// SubjectCatalogue lists subjects for a year and branch.
type SubjectCatalogue interface {
	Subjects(year, branch string) []string
}

// CorpusStatus reports whether a knowledge base is loaded.
type CorpusStatus interface {
	Ready() bool
	Segments() int
}

// CorpusReloader re-reads the persisted corpus.
type CorpusReloader interface {
	Reload(ctx context.Context) (int, error)
}

// Limiter admits or rejects a request for a key.
type Limiter interface {
	Allow(key string) bool
}

// Config wires a Handler. Only Chat and Store are required.
type Config struct {
	Chat         ChatService
	Store        Store
	Roster       RosterImporter
	Subjects     SubjectCatalogue
	Corpus       CorpusStatus
	Reloader     CorpusReloader
	ChatLimiter  Limiter
	DataDir      string // served under /data when set
	AdminToken   string // bearer token for /admin; empty disables the admin group
	ReadyTimeout time.Duration
}

// Handler serves the HTTP API.
type Handler struct {
	chat         ChatService
	store        Store
	roster       RosterImporter
	subjects     SubjectCatalogue
	corpus       CorpusStatus
	reloader     CorpusReloader
	chatLimiter  Limiter
	dataDir      string
	adminToken   string
	readyTimeout time.Duration
}

// New creates a Handler.
func New(cfg Config) *Handler {
	readyTimeout := cfg.ReadyTimeout
	if readyTimeout <= 0 {
		readyTimeout = 3 * time.Second
	}
	return &Handler{
		chat:         cfg.Chat,
		store:        cfg.Store,
		roster:       cfg.Roster,
		subjects:     cfg.Subjects,
		corpus:       cfg.Corpus,
		reloader:     cfg.Reloader,
		chatLimiter:  cfg.ChatLimiter,
		dataDir:      cfg.DataDir,
		adminToken:   cfg.AdminToken,
		readyTimeout: readyTimeout,
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.liveness)
	r.HEAD("/healthz", h.liveness)
	r.GET("/ready", h.readiness)
	r.HEAD("/ready", h.readiness)

	r.POST("/chat", h.handleChat)
	r.GET("/get_history", h.handleHistory)
	r.POST("/get_history", h.handleHistory)
	r.POST("/login", h.handleLogin)

	r.POST("/get_subjects_dynamic", h.handleSubjects)
	r.POST("/get_classes", h.handleClasses)
	r.POST("/get_students", h.handleStudents)
	r.POST("/create_class", h.handleCreateClass)
	r.POST("/delete_student", h.handleDeleteStudent)
	r.POST("/upload_smart_roster", h.handleUploadRoster)

	if h.dataDir != "" {
		r.StaticFS("/data", gin.Dir(h.dataDir, false))
	}

	if h.reloader != nil && h.adminToken != "" {
		admin := r.Group("/admin", bearerAuthMiddleware(h.adminToken))
		admin.POST("/reload", h.handleReload)
	}
}

// serverError logs a failure behind a 5xx response and reports it to Sentry.
func serverError(ctx context.Context, msg string, err error, args ...any) {
	slog.ErrorContext(ctx, msg, append(args, "error", err)...)
	sentry.CaptureExceptionWithContext(ctx, err)
}

// fail writes the {success:false, msg} shape used by the admin endpoints.
func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "msg": msg})
}

func ok(c *gin.Context, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["success"] = true
	c.JSON(http.StatusOK, body)
}
