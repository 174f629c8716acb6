package llm

import (
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"

	"github.com/markdave123-py/Devmate/internal/core"
	"github.com/markdave123-py/Devmate/internal/models"
)

func TestToContentsGroupsToolResults(t *testing.T) {
	history := []models.Message{
		{Role: models.RoleSystem, Content: "extra rule"},
		{Role: models.RoleUser, Content: "weather and time?"},
		{Role: models.RoleAssistant, ToolCalls: []models.ToolCall{
			{ID: "c1", Name: "get_weather", Arguments: map[string]any{"city": "Paris"}},
			{ID: "c2", Name: "get_current_time"},
		}},
		{Role: models.RoleTool, ToolCallID: "c1", Name: "get_weather", Content: "sunny"},
		{Role: models.RoleTool, ToolCallID: "c2", Content: "noon"},
	}

	instruction, contents := toContents("base", history)
	if instruction != "base\n\nextra rule" {
		t.Fatalf("instruction = %q", instruction)
	}
	if len(contents) != 3 {
		t.Fatalf("contents = %d, want 3", len(contents))
	}
	if contents[1].Role != roleModel || len(contents[1].Parts) != 2 {
		t.Fatalf("model turn = %+v", contents[1])
	}
	results := contents[2]
	if results.Role != roleUser || len(results.Parts) != 2 {
		t.Fatalf("results turn = %+v", results)
	}
	second, ok := results.Parts[1].(genai.FunctionResponse)
	if !ok {
		t.Fatalf("part type %T", results.Parts[1])
	}
	if second.Name != "get_current_time" || second.Response["content"] != "noon" {
		t.Fatalf("response = %+v", second)
	}
}

func TestToContentsSkipsEmptyUserText(t *testing.T) {
	_, contents := toContents("", []models.Message{{Role: models.RoleUser}, {Role: models.RoleUser, Content: "hi"}})
	if len(contents) != 1 || len(contents[0].Parts) != 1 {
		t.Fatalf("contents = %+v", contents)
	}
}

func TestFromResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Role: roleModel, Parts: []genai.Part{
			genai.Text("Let me check. "),
			genai.FunctionCall{Name: "calculator", Args: map[string]any{"expression": "2+2"}},
		}},
	}}}
	msg := fromResponse(resp)
	if msg.Role != models.RoleAssistant || msg.Content != "Let me check." {
		t.Fatalf("msg = %+v", msg)
	}
	if len(msg.ToolCalls) != 1 || msg.ToolCalls[0].Name != "calculator" {
		t.Fatalf("calls = %+v", msg.ToolCalls)
	}
	if !strings.HasPrefix(msg.ToolCalls[0].ID, "call_") {
		t.Fatalf("id = %q", msg.ToolCalls[0].ID)
	}

	if empty := fromResponse(&genai.GenerateContentResponse{}); empty.Role != models.RoleAssistant || empty.Content != "" {
		t.Fatalf("empty = %+v", empty)
	}
}

func TestToGenaiTool(t *testing.T) {
	tool := toGenaiTool([]core.ToolSpec{
		{
			Name:        "calculator",
			Description: "math",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"expression": map[string]any{"type": "string", "description": "expr"},
					"tags":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				},
				"required": []string{"expression"},
			},
		},
		{Name: "get_current_time", Description: "now", Parameters: map[string]any{"type": "object", "properties": map[string]any{}}},
	})

	if len(tool.FunctionDeclarations) != 2 {
		t.Fatalf("decls = %d", len(tool.FunctionDeclarations))
	}
	calc := tool.FunctionDeclarations[0].Parameters
	if calc.Type != genai.TypeObject || calc.Required[0] != "expression" {
		t.Fatalf("schema = %+v", calc)
	}
	if calc.Properties["tags"].Items.Type != genai.TypeString {
		t.Fatalf("items = %+v", calc.Properties["tags"].Items)
	}
	if tool.FunctionDeclarations[1].Parameters != nil {
		t.Fatal("empty parameter object should be omitted")
	}
}

func TestStringList(t *testing.T) {
	if got := stringList([]any{"a", 1}); len(got) != 2 || got[1] != "1" {
		t.Fatalf("got %v", got)
	}
	if stringList("x") != nil {
		t.Fatal("want nil")
	}
}
