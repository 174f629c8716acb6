// Package tools holds the tool registry the agent loop dispatches to and the
// built-in tools.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/markdave123-py/Devmate/internal/core"
	"github.com/markdave123-py/Devmate/internal/models"
)

// DefaultTimeout bounds a single tool invocation when none is configured.
const DefaultTimeout = 30 * time.Second

// Invocation is everything a tool handler receives besides the context.
// UserID scopes per-user tools; it is never read from ambient state.
type Invocation struct {
	UserID string
	CallID string
	Args   map[string]any
}

// Handler runs a tool and returns text for the model.
type Handler func(ctx context.Context, inv Invocation) (string, error)

// Tool represents a callable tool.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Handler     Handler        `json:"-"`
}

// Registry holds available tools. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]*Tool
	timeout time.Duration
	logger  *slog.Logger
}

// NewRegistry creates an empty registry. A non-positive timeout selects
// DefaultTimeout.
func NewRegistry(timeout time.Duration, logger *slog.Logger) *Registry {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:   make(map[string]*Tool),
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(t *Tool) error {
	if t == nil || t.Name == "" {
		return errors.New("tool must have a name")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %q has no handler", t.Name)
	}
	if t.Parameters == nil {
		t.Parameters = map[string]any{"type": "object", "properties": map[string]any{}}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool %q already registered", t.Name)
	}
	r.tools[t.Name] = t
	return nil
}

// MustRegister is Register for built-in tools, where a failure is a bug.
func (r *Registry) MustRegister(t *Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Get returns the named tool or nil.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Specs describes every tool for the chat model, sorted by name.
func (r *Registry) Specs() []core.ToolSpec {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]core.ToolSpec, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		specs = append(specs, core.ToolSpec{Name: t.Name, Description: t.Description, Parameters: t.Parameters})
	}
	return specs
}

// Execute runs the named tool under the registry timeout. Errors wrap
// core.ErrToolNotFound or are an *ExecError.
func (r *Registry) Execute(ctx context.Context, name string, inv Invocation) (string, error) {
	tool := r.Get(name)
	if tool == nil {
		return "", fmt.Errorf("%w: %s", core.ErrToolNotFound, name)
	}
	if inv.Args == nil {
		inv.Args = map[string]any{}
	}

	tctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("tool panicked", "tool", name, "panic", p, "stack", string(debug.Stack()))
				done <- result{err: fmt.Errorf("panic: %v", p)}
			}
		}()
		out, err := tool.Handler(tctx, inv)
		done <- result{out: out, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", &ExecError{Tool: name, Err: res.err}
		}
		return res.out, nil
	case <-tctx.Done():
		if ctx.Err() != nil {
			return "", &ExecError{Tool: name, Err: ctx.Err()}
		}
		return "", &ExecError{Tool: name, Err: fmt.Errorf("timed out after %s", r.timeout)}
	}
}

// Dispatch executes one tool call and always returns a tool-result message
// tagged with the call id. Failures become error text for the model.
func (r *Registry) Dispatch(ctx context.Context, userID string, call models.ToolCall) models.Message {
	start := time.Now()
	out, err := r.Execute(ctx, call.Name, Invocation{UserID: userID, CallID: call.ID, Args: call.Arguments})

	msg := models.Message{Role: models.RoleTool, ToolCallID: call.ID, Name: call.Name}
	switch {
	case errors.Is(err, core.ErrToolNotFound):
		r.logger.Warn("unknown tool requested", "tool", call.Name, "call_id", call.ID)
		msg.Content = fmt.Sprintf("Error: tool %q not found. Available tools: %s", call.Name, strings.Join(r.Names(), ", "))
	case err != nil:
		r.logger.Warn("tool failed", "tool", call.Name, "call_id", call.ID, "error", err, "elapsed", time.Since(start))
		msg.Content = fmt.Sprintf("Error executing %s: %s", call.Name, errorDetail(err))
	default:
		r.logger.Debug("tool executed", "tool", call.Name, "call_id", call.ID, "elapsed", time.Since(start))
		msg.Content = out
	}
	return msg
}

// ExecError is a tool failure. It matches core.ErrToolExecution and the
// handler's own error under errors.Is.
type ExecError struct {
	Tool string
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%v: %s: %v", core.ErrToolExecution, e.Tool, e.Err)
}

func (e *ExecError) Unwrap() []error {
	return []error{core.ErrToolExecution, e.Err}
}

func errorDetail(err error) string {
	var execErr *ExecError
	if errors.As(err, &execErr) {
		return execErr.Err.Error()
	}
	return err.Error()
}
