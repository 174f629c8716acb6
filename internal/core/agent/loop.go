// Package agent runs the tool-augmented model loop for one turn.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/Devmate/internal/core"
	"github.com/markdave123-py/Devmate/internal/models"
)

// DefaultMaxIterations bounds model invocations per turn.
const DefaultMaxIterations = 10

// Dispatcher executes one tool call and always yields a tool-result message.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID string, call models.ToolCall) models.Message
	Specs() []core.ToolSpec
}

// Result is the outcome of one turn.
type Result struct {
	// Messages is the full history: the input followed by everything the
	// turn appended. The system instruction is not part of it.
	Messages      []models.Message
	State         State
	Iterations    int
	LimitExceeded bool
}

// Appended returns the messages produced by the turn.
func (r *Result) Appended(inputLen int) []models.Message {
	if inputLen >= len(r.Messages) {
		return nil
	}
	return r.Messages[inputLen:]
}

// Reply is the content of the final assistant message.
func (r *Result) Reply() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if m := r.Messages[i]; m.Role == models.RoleAssistant && !m.HasToolCalls() {
			return m.Content
		}
	}
	return ""
}

// Loop alternates between the chat model and tool dispatch until the model
// answers without tool calls. It keeps no per-turn state and is safe for
// concurrent use.
type Loop struct {
	model         core.ChatModel
	tools         Dispatcher
	logger        *slog.Logger
	maxIterations int
	system        string
}

type Option func(*Loop)

// WithMaxIterations overrides DefaultMaxIterations.
func WithMaxIterations(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxIterations = n
		}
	}
}

// WithSystemPrompt replaces the generated system instruction.
func WithSystemPrompt(s string) Option {
	return func(l *Loop) { l.system = s }
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func NewLoop(model core.ChatModel, tools Dispatcher, opts ...Option) *Loop {
	l := &Loop{
		model:         model,
		tools:         tools,
		logger:        slog.Default(),
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.system == "" {
		l.system = SystemPrompt(tools.Specs())
	}
	return l
}

// Run executes one turn over history for userID. The input slice is not
// modified. Model errors and context cancellation abort the turn; tool
// failures do not.
func (l *Loop) Run(ctx context.Context, userID string, history []models.Message) (*Result, error) {
	msgs := make([]models.Message, len(history), len(history)+4)
	copy(msgs, history)

	res := &Result{State: StateAgent}
	specs := l.tools.Specs()
	start := time.Now()

	for res.State != StateEnd {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch res.State {
		case StateAgent:
			if res.Iterations >= l.maxIterations {
				l.logger.Warn("agent iteration limit reached",
					"user_id", userID, "iterations", res.Iterations, "error", core.ErrLoopIterationLimit)
				msgs = append(msgs, models.Message{
					Role: models.RoleAssistant,
					Content: fmt.Sprintf("I stopped after %d reasoning steps without reaching a final answer. "+
						"Please rephrase or narrow the request.", res.Iterations),
				})
				res.LimitExceeded = true
				res.State = StateEnd
				continue
			}

			res.Iterations++
			reply, err := l.model.Chat(ctx, l.system, msgs, specs)
			if err != nil {
				return nil, fmt.Errorf("model call %d: %w", res.Iterations, err)
			}
			reply.Role = models.RoleAssistant
			reply.ToolCalls = withCallIDs(reply.ToolCalls)
			msgs = append(msgs, reply)

			if reply.HasToolCalls() {
				res.State = StateTools
			} else {
				res.State = StateEnd
			}

		case StateTools:
			last := msgs[len(msgs)-1]
			for _, call := range last.ToolCalls {
				result := l.tools.Dispatch(ctx, userID, call)
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				msgs = append(msgs, result)
			}
			res.State = StateAgent
		}
	}

	l.logger.Debug("agent turn finished",
		"user_id", userID,
		"iterations", res.Iterations,
		"appended", len(msgs)-len(history),
		"limit_exceeded", res.LimitExceeded,
		"elapsed", time.Since(start),
	)
	res.Messages = msgs
	return res, nil
}

// withCallIDs returns a copy of calls where every call has an id, so each
// tool result can be matched to its request.
func withCallIDs(calls []models.ToolCall) []models.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]models.ToolCall, len(calls))
	copy(out, calls)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = "call_" + uuid.NewString()
		}
	}
	return out
}
