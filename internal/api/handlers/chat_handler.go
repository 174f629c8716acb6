package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/markdave123-py/Devmate/internal/core/agent"
	"github.com/markdave123-py/Devmate/internal/core/message"
	"github.com/markdave123-py/Devmate/internal/models"
	"github.com/markdave123-py/Devmate/internal/services"
)

// Conversation runs agent turns for a user.
type Conversation interface {
	Send(ctx context.Context, userID, text string) (*services.ChatTurn, error)
	Run(ctx context.Context, userID string, msgs []models.Message) (*agent.Result, error)
	History(ctx context.Context, userID string) ([]models.Message, error)
	ClearHistory(ctx context.Context, userID string) error
}

type ChatHandler struct {
	chat   Conversation
	logger *slog.Logger
}

func NewChatHandler(chat Conversation, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: orDefault(logger)}
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Messages      []message.Wire `json:"messages"`
	Reply         string         `json:"reply"`
	LimitExceeded bool           `json:"limit_exceeded,omitempty"`
}

// Chat continues the user's stored conversation.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	turn, err := h.chat.Send(r.Context(), userID, req.Message)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Messages:      message.ToWire(turn.Messages),
		Reply:         turn.Reply,
		LimitExceeded: turn.LimitExceeded,
	})
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	msgs, err := h.chat.History(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": message.ToWire(msgs)})
}

func (h *ChatHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.chat.ClearHistory(r.Context(), userID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Run executes one turn over a caller-supplied conversation. The body is
// {"message": "..."} or {"messages": [...]} with messages in any supported
// wire shape.
func (h *ChatHandler) Run(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var payload map[string]any
	if !decodeJSON(w, r, &payload) {
		return
	}

	var msgs []models.Message
	switch raw := payload["messages"].(type) {
	case []any:
		msgs = message.ToInternal(raw)
	default:
		text, isText := payload["message"].(string)
		if !isText {
			writeError(w, http.StatusUnprocessableEntity, "payload must include 'message' or 'messages'")
			return
		}
		msgs = []models.Message{{Role: models.RoleUser, Content: text}}
	}

	res, err := h.chat.Run(r.Context(), userID, msgs)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Messages:      message.ToWire(res.Messages),
		Reply:         res.Reply(),
		LimitExceeded: res.LimitExceeded,
	})
}
