package tools

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"10 + 20 / 2", "20"},
		{"5 * (4 + 3)", "35"},
		{"2 ** 8", "256"},
		{"2 ** 3 ** 2", "512"},
		{"-2 ** 2", "-4"},
		{"(-2) ** 2", "4"},
		{"0.1 + 0.2", "0.3"},
		{"7 % 3", "1"},
		{"-7 % 3", "2"},
		{"7 // 2", "3"},
		{"-7 // 2", "-4"},
		{"2 ** -2", "0.25"},
		{"1.5 * 4", "6"},
		{" 3 ", "3"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Evaluate(context.Background(), tt.expr)
			if err != nil {
				t.Fatalf("Evaluate(%q) error: %v", tt.expr, err)
			}
			if got.String() != tt.want {
				t.Errorf("Evaluate(%q) = %s, want %s", tt.expr, got.String(), tt.want)
			}
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	for _, expr := range []string{"", "1 +", "(1 + 2", "1 / 0", "5 % 0", "2 ** 5000", "1 2", "()"} {
		if _, err := Evaluate(context.Background(), expr); err == nil {
			t.Errorf("Evaluate(%q) expected error", expr)
		}
	}
}

func TestEvaluate_BoundsNestedPowers(t *testing.T) {
	for _, expr := range []string{
		"(9 ** 1000) ** 1000",
		"((9 ** 1000) ** 1000) ** 1000",
		"(9 ** 1000) ** -1000",
		"(9 ** 1000) * (9 ** 1000) * (9 ** 1000) * (9 ** 1000) * (9 ** 1000) * (9 ** 1000) * (9 ** 1000) * (9 ** 1000) * (9 ** 1000) * (9 ** 1000) * (9 ** 1000)",
	} {
		start := time.Now()
		_, err := Evaluate(context.Background(), expr)
		if !errors.Is(err, errResultTooLarge) {
			t.Errorf("Evaluate(%q) err = %v, want %v", expr, err, errResultTooLarge)
		}
		if d := time.Since(start); d > time.Second {
			t.Errorf("Evaluate(%q) took %s", expr, d)
		}
	}

	got, err := Evaluate(context.Background(), "9 ** 1000")
	if err != nil {
		t.Fatalf("9 ** 1000: %v", err)
	}
	if n := len(got.String()); n != 955 {
		t.Errorf("9 ** 1000 has %d digits, want 955", n)
	}
}

func TestEvaluate_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Evaluate(ctx, "1 + 2 * 3"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	tool := calculatorTool()
	if _, err := tool.Handler(ctx, Invocation{Args: map[string]any{"expression": "2 ** 8"}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("handler err = %v, want context.Canceled", err)
	}
}

func TestCalculatorTool(t *testing.T) {
	tool := calculatorTool()
	ctx := context.Background()

	out, err := tool.Handler(ctx, Invocation{Args: map[string]any{"expression": "6 * 7"}})
	if err != nil || out != "42" {
		t.Errorf("calculator(6 * 7) = %q, %v", out, err)
	}

	out, _ = tool.Handler(ctx, Invocation{Args: map[string]any{"expression": "__import__('os')"}})
	if out != "Invalid characters in expression" {
		t.Errorf("calculator(injection) = %q", out)
	}

	out, _ = tool.Handler(ctx, Invocation{Args: map[string]any{"expression": "1 / 0"}})
	if out != "Calculation error: division by zero" {
		t.Errorf("calculator(1 / 0) = %q", out)
	}

	if _, err := tool.Handler(ctx, Invocation{Args: map[string]any{}}); err == nil {
		t.Error("missing expression should be an error")
	}
}
