package tools

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/markdave123-py/Devmate/internal/core"
	"github.com/markdave123-py/Devmate/internal/models"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func echoTool(name string) *Tool {
	return &Tool{
		Name:        name,
		Description: "echo",
		Handler: func(_ context.Context, inv Invocation) (string, error) {
			return inv.UserID + ":" + stringArg(inv.Args, "text"), nil
		},
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(time.Second, quietLogger())
	if err := r.Register(echoTool("echo")); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if err := r.Register(echoTool("echo")); err == nil {
		t.Error("duplicate Register() should fail")
	}
	if err := r.Register(&Tool{Name: "nohandler"}); err == nil {
		t.Error("Register() without handler should fail")
	}
	if err := r.Register(&Tool{Handler: echoTool("x").Handler}); err == nil {
		t.Error("Register() without name should fail")
	}
	if r.Get("echo").Parameters == nil {
		t.Error("default parameter schema not set")
	}
}

func TestRegistry_SpecsSorted(t *testing.T) {
	r := NewRegistry(time.Second, quietLogger())
	r.MustRegister(echoTool("zeta"))
	r.MustRegister(echoTool("alpha"))
	specs := r.Specs()
	if len(specs) != 2 || specs[0].Name != "alpha" || specs[1].Name != "zeta" {
		t.Errorf("Specs() = %+v", specs)
	}
}

func TestDispatch_Success(t *testing.T) {
	r := NewRegistry(time.Second, quietLogger())
	r.MustRegister(echoTool("echo"))

	msg := r.Dispatch(context.Background(), "u1", models.ToolCall{ID: "call_1", Name: "echo", Arguments: map[string]any{"text": "hi"}})
	if msg.Role != models.RoleTool || msg.ToolCallID != "call_1" || msg.Name != "echo" {
		t.Errorf("Dispatch() message = %+v", msg)
	}
	if msg.Content != "u1:hi" {
		t.Errorf("Content = %q, want %q", msg.Content, "u1:hi")
	}
}

func TestDispatch_UnknownTool(t *testing.T) {
	r := NewRegistry(time.Second, quietLogger())
	r.MustRegister(echoTool("echo"))

	msg := r.Dispatch(context.Background(), "u1", models.ToolCall{ID: "call_9", Name: "teleport"})
	if msg.Role != models.RoleTool || msg.ToolCallID != "call_9" {
		t.Errorf("Dispatch() message = %+v", msg)
	}
	if !strings.Contains(msg.Content, `"teleport"`) || !strings.Contains(msg.Content, "not found") {
		t.Errorf("Content = %q, want unknown tool named", msg.Content)
	}

	_, err := r.Execute(context.Background(), "teleport", Invocation{})
	if !errors.Is(err, core.ErrToolNotFound) {
		t.Errorf("Execute() error = %v, want ErrToolNotFound", err)
	}
}

func TestDispatch_FailuresBecomeText(t *testing.T) {
	r := NewRegistry(50*time.Millisecond, quietLogger())
	r.MustRegister(&Tool{Name: "fails", Handler: func(context.Context, Invocation) (string, error) {
		return "", errors.New("upstream exploded")
	}})
	r.MustRegister(&Tool{Name: "panics", Handler: func(context.Context, Invocation) (string, error) {
		panic("boom")
	}})
	r.MustRegister(&Tool{Name: "hangs", Handler: func(ctx context.Context, _ Invocation) (string, error) {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return "too late", nil
	}})

	tests := []struct {
		tool string
		want string
	}{
		{"fails", "Error executing fails: upstream exploded"},
		{"panics", "Error executing panics: panic: boom"},
		{"hangs", "Error executing hangs: timed out after 50ms"},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			msg := r.Dispatch(context.Background(), "u1", models.ToolCall{ID: "c", Name: tt.tool})
			if msg.Content != tt.want {
				t.Errorf("Content = %q, want %q", msg.Content, tt.want)
			}
			if msg.ToolCallID != "c" {
				t.Errorf("ToolCallID = %q", msg.ToolCallID)
			}
		})
	}

	_, err := r.Execute(context.Background(), "fails", Invocation{})
	if !errors.Is(err, core.ErrToolExecution) {
		t.Errorf("Execute() error = %v, want ErrToolExecution", err)
	}
}

func TestDispatch_CancelledContext(t *testing.T) {
	r := NewRegistry(time.Minute, quietLogger())
	started := make(chan struct{})
	r.MustRegister(&Tool{Name: "slow", Handler: func(ctx context.Context, _ Invocation) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	}})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	msg := r.Dispatch(ctx, "u1", models.ToolCall{ID: "c", Name: "slow"})
	if !strings.Contains(msg.Content, "context canceled") {
		t.Errorf("Content = %q, want cancellation error", msg.Content)
	}
}
