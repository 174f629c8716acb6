package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"

	"github.com/markdave123-py/Devmate/internal/core"
	"github.com/markdave123-py/Devmate/internal/models"
)

const (
	roleUser  = "user"
	roleModel = "model"
)

// Chat runs one model step over the conversation. Gemini function calls do
// not carry ids, so ids are generated here and tool results are matched back
// to their function by name.
func (g *GeminiLLM) Chat(ctx context.Context, system string, messages []models.Message, tools []core.ToolSpec) (models.Message, error) {
	m := g.client.GenerativeModel(g.modelName)

	instruction, contents := toContents(system, messages)
	if instruction != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(instruction)}}
	}
	if len(tools) > 0 {
		m.Tools = []*genai.Tool{toGenaiTool(tools)}
	}
	if len(contents) == 0 {
		contents = []*genai.Content{{Role: roleUser, Parts: []genai.Part{genai.Text("Hello")}}}
	}

	cs := m.StartChat()
	cs.History = contents[:len(contents)-1]
	resp, err := cs.SendMessage(ctx, contents[len(contents)-1].Parts...)
	if err != nil {
		return models.Message{}, fmt.Errorf("gemini chat: %w", err)
	}
	return fromResponse(resp), nil
}

// toContents converts the internal history into Gemini contents. System
// messages found in the history are folded into the system instruction.
// Adjacent contents with the same role are merged, which also groups the
// results of one tool step into a single function-response turn.
func toContents(system string, messages []models.Message) (string, []*genai.Content) {
	instructions := []string{}
	if strings.TrimSpace(system) != "" {
		instructions = append(instructions, system)
	}

	callNames := map[string]string{}
	var out []*genai.Content
	push := func(role string, parts ...genai.Part) {
		if len(parts) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Parts = append(out[n-1].Parts, parts...)
			return
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}

	for _, msg := range messages {
		switch msg.Role {
		case models.RoleSystem:
			if strings.TrimSpace(msg.Content) != "" {
				instructions = append(instructions, msg.Content)
			}
		case models.RoleAssistant:
			var parts []genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, c := range msg.ToolCalls {
				callNames[c.ID] = c.Name
				parts = append(parts, genai.FunctionCall{Name: c.Name, Args: c.Arguments})
			}
			push(roleModel, parts...)
		case models.RoleTool:
			name := msg.Name
			if name == "" {
				name = callNames[msg.ToolCallID]
			}
			push(roleUser, genai.FunctionResponse{
				Name:     name,
				Response: map[string]any{"content": msg.Content},
			})
		default:
			if msg.Content != "" {
				push(roleUser, genai.Text(msg.Content))
			}
		}
	}
	return strings.Join(instructions, "\n\n"), out
}

func fromResponse(resp *genai.GenerateContentResponse) models.Message {
	reply := models.Message{Role: models.RoleAssistant}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return reply
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			b.WriteString(string(p))
		case genai.FunctionCall:
			reply.ToolCalls = append(reply.ToolCalls, models.ToolCall{
				ID:        "call_" + uuid.NewString(),
				Name:      p.Name,
				Arguments: p.Args,
			})
		}
	}
	reply.Content = strings.TrimSpace(b.String())
	return reply
}
