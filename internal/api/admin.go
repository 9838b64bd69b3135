package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/garyellow/campus-ai-go/internal/ctxutil"
	domerrors "github.com/garyellow/campus-ai-go/internal/errors"
	"github.com/garyellow/campus-ai-go/internal/roster"
	"github.com/garyellow/campus-ai-go/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type subjectsRequest struct {
	Year   string `json:"year"`
	Branch string `json:"branch"`
}

func (h *Handler) handleSubjects(c *gin.Context) {
	var req subjectsRequest
	if err := c.ShouldBindJSON(&req); err != nil || h.subjects == nil {
		c.JSON(http.StatusOK, gin.H{"subjects": []string{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subjects": h.subjects.Subjects(req.Year, req.Branch)})
}

// classView adds the class_name field the web client renders.
type classView struct {
	ID           string    `json:"id"`
	ClassName    string    `json:"class_name"`
	TeacherEmail string    `json:"teacher_email"`
	Year         string    `json:"year,omitempty"`
	Branch       string    `json:"branch,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (h *Handler) handleClasses(c *gin.Context) {
	email := bindEmail(c)
	views := []classView{}
	if email == "" {
		c.JSON(http.StatusOK, gin.H{"classes": views})
		return
	}
	ctx := ctxutil.WithUserEmail(c.Request.Context(), email)
	classes, err := h.store.ListClassesByTeacher(ctx, email)
	if err != nil {
		serverError(ctx, "Failed to list classes", err)
		c.JSON(http.StatusInternalServerError, gin.H{"classes": views})
		return
	}
	for _, cl := range classes {
		views = append(views, classView{
			ID:           cl.ID,
			ClassName:    cl.Subject,
			TeacherEmail: cl.TeacherEmail,
			Year:         cl.Year,
			Branch:       cl.Branch,
			CreatedAt:    cl.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"classes": views})
}

func (h *Handler) handleStudents(c *gin.Context) {
	email := bindEmail(c)
	if email == "" {
		c.JSON(http.StatusOK, gin.H{"students": []storage.Student{}})
		return
	}
	ctx := ctxutil.WithUserEmail(c.Request.Context(), email)
	students, err := h.store.ListStudentsByTeacher(ctx, email)
	if err != nil {
		serverError(ctx, "Failed to list students", err)
		c.JSON(http.StatusInternalServerError, gin.H{"students": []storage.Student{}})
		return
	}
	if students == nil {
		students = []storage.Student{}
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

type createClassRequest struct {
	ID      flexID `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Year    string `json:"year"`
	Branch  string `json:"branch"`
}

func (h *Handler) handleCreateClass(c *gin.Context) {
	var req createClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	email := strings.TrimSpace(req.Email)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.TrimSpace(req.Subject)
	}
	if email == "" || name == "" {
		fail(c, http.StatusBadRequest, "email and name are required")
		return
	}

	cl := &storage.Class{
		ID:           string(req.ID),
		TeacherEmail: email,
		Subject:      name,
		Year:         strings.TrimSpace(req.Year),
		Branch:       strings.TrimSpace(req.Branch),
	}
	if cl.ID == "" {
		cl.ID = uuid.NewString()
	}

	ctx := ctxutil.WithUserEmail(c.Request.Context(), email)
	if err := h.store.CreateClass(ctx, cl); err != nil {
		serverError(ctx, "Failed to create class", err)
		fail(c, http.StatusInternalServerError, "could not create class")
		return
	}
	ok(c, gin.H{"id": cl.ID})
}

type deleteStudentRequest struct {
	ID      flexID `json:"id"`
	ClassID flexID `json:"class_id"`
	Email   string `json:"email"`
}

// handleDeleteStudent removes a student from one class, or from every class
// of the teacher when class_id is omitted.
func (h *Handler) handleDeleteStudent(c *gin.Context) {
	var req deleteStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == "" {
		fail(c, http.StatusBadRequest, "id is required")
		return
	}
	ctx := c.Request.Context()
	studentID := string(req.ID)
	email := strings.TrimSpace(req.Email)

	var classIDs []string
	switch {
	case req.ClassID != "":
		classIDs = []string{string(req.ClassID)}
	case email != "":
		ctx = ctxutil.WithUserEmail(ctx, email)
		students, err := h.store.ListStudentsByTeacher(ctx, email)
		if err != nil {
			serverError(ctx, "Failed to load roster", err)
			fail(c, http.StatusInternalServerError, "could not load roster")
			return
		}
		for _, st := range students {
			if st.StudentID == studentID {
				classIDs = append(classIDs, st.ClassID)
			}
		}
	default:
		fail(c, http.StatusBadRequest, "class_id or email is required")
		return
	}

	deleted := 0
	for _, classID := range classIDs {
		err := h.store.DeleteStudent(ctx, classID, studentID)
		switch {
		case err == nil:
			deleted++
		case domerrors.IsNotFound(err):
		default:
			serverError(ctx, "Failed to delete student", err,
				"class_id", classID,
				"student_id", studentID)
			fail(c, http.StatusInternalServerError, "could not delete student")
			return
		}
	}
	if deleted == 0 {
		fail(c, http.StatusNotFound, "student not found")
		return
	}
	ok(c, gin.H{"deleted": deleted})
}

func (h *Handler) handleUploadRoster(c *gin.Context) {
	if h.roster == nil {
		fail(c, http.StatusServiceUnavailable, "DB Error")
		return
	}
	file, err := c.FormFile("file")
	classID := strings.TrimSpace(c.PostForm("class_id"))
	email := strings.TrimSpace(c.PostForm("email"))
	if err != nil || classID == "" {
		fail(c, http.StatusBadRequest, "Missing data")
		return
	}

	ctx := ctxutil.WithClassID(c.Request.Context(), classID)
	if email != "" {
		ctx = ctxutil.WithUserEmail(ctx, email)
	}

	f, err := file.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "could not read upload")
		return
	}
	defer func() { _ = f.Close() }()

	count, err := h.roster.Import(ctx, file.Filename, f, classID, email)
	if err != nil {
		status := http.StatusInternalServerError
		if domerrors.IsInvalidInput(err) || errors.Is(err, domerrors.ErrUnsupportedFormat) ||
			errors.Is(err, roster.ErrMissingColumns) {
			status = http.StatusBadRequest
		}
		if status == http.StatusInternalServerError {
			serverError(ctx, "Roster upload failed", err, "file", file.Filename)
		} else {
			slog.WarnContext(ctx, "Roster upload rejected", "file", file.Filename, "error", err)
		}
		fail(c, status, domerrors.GetUserMessage(err))
		return
	}
	ok(c, gin.H{"count": count, "msg": uploadedMessage(count)})
}

func uploadedMessage(count int) string {
	return fmt.Sprintf("Uploaded %d students.", count)
}
