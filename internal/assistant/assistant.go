// Package assistant runs one chat turn: retrieval, roster context, the model
// call, history persistence and command resolution.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/garyellow/campus-ai-go/internal/command"
	"github.com/garyellow/campus-ai-go/internal/ctxutil"
	domerrors "github.com/garyellow/campus-ai-go/internal/errors"
	"github.com/garyellow/campus-ai-go/internal/genai"
	"github.com/garyellow/campus-ai-go/internal/storage"
)

// RoleTeacher unlocks roster context and default class selection.
const RoleTeacher = "teacher"

// ExecutingActionText is stored in history in place of a command reply.
const ExecutingActionText = "✅ Executing Action..."

// Store is the persistence the chat pipeline needs.
type Store interface {
	AppendMessage(ctx context.Context, userEmail, role, text string) error
	FirstClassByTeacher(ctx context.Context, teacherEmail string) (*storage.Class, error)
	ListRosterByClass(ctx context.Context, classID string) ([]storage.Student, error)
}

// Retriever returns knowledge-base context for a query.
type Retriever interface {
	Context(ctx context.Context, query string) string
}

// Resolver turns a model reply into the final response.
type Resolver interface {
	Resolve(ctx context.Context, modelOutput, classID string) command.Result
}

// Observer receives chat outcomes. *metrics.Metrics satisfies it.
type Observer interface {
	RecordChat(status string, duration float64)
}

// Request is one user turn.
type Request struct {
	Message string
	History []genai.Turn
	Role    string
	Email   string
	ClassID string
}

// Response is the text shown to the user.
type Response struct {
	Text    string
	Success bool
	Action  string
}

// Config wires a Service.
type Config struct {
	Store     Store
	Retriever Retriever
	Converser genai.Converser // nil disables chat
	Resolver  Resolver
	Observer  Observer
	Timeout   time.Duration
}

// Service answers chat requests.
type Service struct {
	store     Store
	retriever Retriever
	converser genai.Converser
	resolver  Resolver
	observer  Observer
	timeout   time.Duration
}

// NewService creates a chat service.
func NewService(cfg Config) *Service {
	return &Service{
		store:     cfg.Store,
		retriever: cfg.Retriever,
		converser: cfg.Converser,
		resolver:  cfg.Resolver,
		observer:  cfg.Observer,
		timeout:   cfg.Timeout,
	}
}

// Chat answers one turn. A model failure comes back as an unsuccessful
// Response rather than an error.
func (s *Service) Chat(ctx context.Context, req Request) Response {
	start := time.Now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if req.Email != "" {
		ctx = ctxutil.WithUserEmail(ctx, req.Email)
	}

	s.appendMessage(ctx, req.Email, storage.RoleUser, req.Message)

	classID := req.ClassID
	var roster string
	if req.Role == RoleTeacher && req.Email != "" {
		if classID == "" {
			classID = s.defaultClass(ctx, req.Email)
		}
		if classID != "" {
			roster = s.rosterBlock(ctx, classID)
		}
	}
	if classID != "" {
		ctx = ctxutil.WithClassID(ctx, classID)
	}

	knowledge := s.retriever.Context(ctx, req.Message)
	system := genai.SystemPrompt(knowledge, roster)

	if s.converser == nil {
		s.record("unavailable", start)
		return serverError(domerrors.ErrLLMUnavailable)
	}
	reply, err := s.converser.Converse(ctx, system, req.History, req.Message)
	if err != nil {
		slog.ErrorContext(ctx, "Chat model call failed", "error", err)
		s.record("llm_error", start)
		return serverError(err)
	}

	saved := reply
	if command.HasCommand(reply) {
		saved = ExecutingActionText
	}
	s.appendMessage(ctx, req.Email, storage.RoleModel, saved)

	res := s.resolver.Resolve(ctx, reply, classID)
	s.record("success", start)
	return Response{Text: res.Text, Success: true, Action: res.Action}
}

func serverError(err error) Response {
	return Response{Text: fmt.Sprintf("Server Error: %v", err), Success: false}
}

// appendMessage persists a turn. Failures are logged; the chat continues.
func (s *Service) appendMessage(ctx context.Context, email, role, text string) {
	if email == "" {
		return
	}
	if err := s.store.AppendMessage(ctx, email, role, text); err != nil {
		slog.WarnContext(ctx, "Failed to save conversation turn", "role", role, "error", err)
	}
}

func (s *Service) defaultClass(ctx context.Context, email string) string {
	c, err := s.store.FirstClassByTeacher(ctx, email)
	if err != nil {
		if !domerrors.IsNotFound(err) {
			slog.WarnContext(ctx, "Failed to look up default class", "error", err)
		}
		return ""
	}
	return c.ID
}

// rosterBlock renders the class roster for the system prompt.
func (s *Service) rosterBlock(ctx context.Context, classID string) string {
	students, err := s.store.ListRosterByClass(ctx, classID)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load roster", "class_id", classID, "error", err)
		return ""
	}
	return RosterBlock(students)
}

// RosterBlock formats one "ID: x | Name: y | Data: {...}" line per student.
func RosterBlock(students []storage.Student) string {
	var b strings.Builder
	b.WriteString(genai.RosterHeader)
	b.WriteByte('\n')
	for i, st := range students {
		if i > 0 {
			b.WriteByte('\n')
		}
		details := st.Details
		if details == nil {
			details = map[string]any{}
		}
		data, err := json.Marshal(details)
		if err != nil {
			data = []byte("{}")
		}
		fmt.Fprintf(&b, "ID: %s | Name: %s | Data: %s", st.StudentID, st.Name, data)
	}
	b.WriteByte('\n')
	return b.String()
}

func (s *Service) record(status string, start time.Time) {
	if s.observer != nil {
		s.observer.RecordChat(status, time.Since(start).Seconds())
	}
}
