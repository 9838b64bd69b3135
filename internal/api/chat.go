package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/garyellow/campus-ai-go/internal/assistant"
	"github.com/garyellow/campus-ai-go/internal/ctxutil"
	"github.com/garyellow/campus-ai-go/internal/genai"
	"github.com/garyellow/campus-ai-go/internal/storage"
	"github.com/gin-gonic/gin"
)

// defaultRole is assumed when a chat request names none.
const defaultRole = "guest"

// RateLimitedText is the chat reply when a requester exceeds the limit.
const RateLimitedText = "Too many messages. Please wait a moment and try again."

// flexID accepts an identifier sent either as a JSON string or a number.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type historyTurn struct {
	Text   string `json:"text"`
	IsUser bool   `json:"isUser"`
}

type chatRequest struct {
	Message string        `json:"message"`
	History []historyTurn `json:"history"`
	Role    string        `json:"role"`
	Email   string        `json:"email"`
	ClassID flexID        `json:"class_id"`
}

type chatResponse struct {
	Response string `json:"response"`
	Success  bool   `json:"success"`
}

func (r chatRequest) toAssistant() assistant.Request {
	history := make([]genai.Turn, 0, len(r.History))
	for _, t := range r.History {
		role := genai.RoleModel
		if t.IsUser {
			role = genai.RoleUser
		}
		history = append(history, genai.Turn{Role: role, Text: t.Text})
	}
	role := strings.ToLower(strings.TrimSpace(r.Role))
	if role == "" {
		role = defaultRole
	}
	return assistant.Request{
		Message: r.Message,
		History: history,
		Role:    role,
		Email:   strings.TrimSpace(r.Email),
		ClassID: string(r.ClassID),
	}
}

// allowChat keys the limiter by email, falling back to client IP for anonymous users.
func (h *Handler) allowChat(c *gin.Context, email string) bool {
	if h.chatLimiter == nil {
		return true
	}
	key := "ip:" + c.ClientIP()
	if email != "" {
		key = "email:" + strings.ToLower(email)
	}
	return h.chatLimiter.Allow(key)
}

func (h *Handler) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, chatResponse{Response: "Server Error: invalid request body"})
		return
	}

	areq := req.toAssistant()
	ctx := c.Request.Context()
	if !h.allowChat(c, areq.Email) {
		slog.WarnContext(ctx, "Chat rate limited", "email", areq.Email, "client_ip", c.ClientIP())
		c.Header("Retry-After", "5")
		c.JSON(http.StatusTooManyRequests, chatResponse{Response: RateLimitedText})
		return
	}
	if areq.Email != "" {
		ctx = ctxutil.WithUserEmail(ctx, areq.Email)
	}
	resp := h.chat.Chat(ctx, areq)
	if !resp.Success {
		slog.WarnContext(ctx, "Chat turn failed", "role", areq.Role, "reply", resp.Text)
	}
	c.JSON(http.StatusOK, chatResponse{Response: resp.Text, Success: resp.Success})
}

type emailRequest struct {
	Email string `json:"email" form:"email"`
}

// bindEmail reads {email} from a JSON body, falling back to the query string.
func bindEmail(c *gin.Context) string {
	var req emailRequest
	if c.Request.Method == http.MethodGet {
		_ = c.ShouldBindQuery(&req)
	} else if err := c.ShouldBindJSON(&req); err != nil {
		req.Email = c.Query("email")
	}
	return strings.TrimSpace(req.Email)
}

func (h *Handler) handleHistory(c *gin.Context) {
	email := bindEmail(c)
	if email == "" {
		c.JSON(http.StatusOK, gin.H{"history": []storage.Message{}})
		return
	}
	ctx := ctxutil.WithUserEmail(c.Request.Context(), email)
	msgs, err := h.store.RecentMessages(ctx, email, HistoryLimit)
	if err != nil {
		serverError(ctx, "Failed to load history", err)
		c.JSON(http.StatusInternalServerError, gin.H{"history": []storage.Message{}})
		return
	}
	if msgs == nil {
		msgs = []storage.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"history": msgs})
}

func (h *Handler) handleLogin(c *gin.Context) {
	email := bindEmail(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "email": email})
}
