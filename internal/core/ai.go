package core

import (
	"context"

	"github.com/markdave123-py/Devmate/internal/models"
)

// ToolSpec is what a chat model needs to know about a callable tool.
// Parameters is a JSON-schema object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ChatModel is the tool-aware language model used by the agent loop.
// The returned message may carry zero or more tool calls.
type ChatModel interface {
	Chat(ctx context.Context, system string, messages []models.Message, tools []ToolSpec) (models.Message, error)
}

// LLMProvider is the single-shot form: prompt in, text out.
type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

// VisionProvider describes or transcribes image content.
type VisionProvider interface {
	DescribeImage(ctx context.Context, data []byte, mimeType string, prompt string) (string, error)
}

// Transcriber turns recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}
