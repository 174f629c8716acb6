package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/markdave123-py/Devmate/internal/core"
	"github.com/markdave123-py/Devmate/internal/core/agent"
	"github.com/markdave123-py/Devmate/internal/models"
)

// AgentRunner runs one conversational turn.
type AgentRunner interface {
	Run(ctx context.Context, userID string, history []models.Message) (*agent.Result, error)
}

// ChatTurn is the outcome of one persisted chat turn.
type ChatTurn struct {
	// Messages holds the user message and everything the turn produced.
	Messages      []models.Message
	Reply         string
	LimitExceeded bool
}

// ChatService keeps a persisted conversation per user and drives the agent
// over it.
type ChatService struct {
	chats        core.ChatStore
	agent        AgentRunner
	historyLimit int
	logger       *slog.Logger
}

func NewChatService(chats core.ChatStore, runner AgentRunner, historyLimit int, logger *slog.Logger) *ChatService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{chats: chats, agent: runner, historyLimit: historyLimit, logger: logger}
}

// Send appends the user's message to the stored conversation, runs a turn
// and persists what the turn added. Nothing is stored when the turn fails.
func (s *ChatService) Send(ctx context.Context, userID, text string) (*ChatTurn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}

	history, err := s.chats.GetChatHistory(ctx, userID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	input := append(history, models.Message{Role: models.RoleUser, Content: text})

	res, err := s.agent.Run(ctx, userID, input)
	if err != nil {
		return nil, err
	}

	added := res.Appended(len(history))
	if err := s.chats.AppendChatMessages(ctx, userID, added); err != nil {
		return nil, fmt.Errorf("save history: %w", err)
	}

	s.logger.InfoContext(ctx, "chat turn completed",
		"user_id", userID,
		"iterations", res.Iterations,
		"messages_added", len(added),
		"limit_exceeded", res.LimitExceeded,
	)
	return &ChatTurn{Messages: added, Reply: res.Reply(), LimitExceeded: res.LimitExceeded}, nil
}

// Run executes a stateless turn over caller-supplied messages.
func (s *ChatService) Run(ctx context.Context, userID string, msgs []models.Message) (*agent.Result, error) {
	if len(msgs) == 0 {
		return nil, fmt.Errorf("%w: at least one message is required", ErrInvalidInput)
	}
	return s.agent.Run(ctx, userID, msgs)
}

func (s *ChatService) History(ctx context.Context, userID string) ([]models.Message, error) {
	return s.chats.GetChatHistory(ctx, userID, s.historyLimit)
}

func (s *ChatService) ClearHistory(ctx context.Context, userID string) error {
	return s.chats.ClearChatHistory(ctx, userID)
}
