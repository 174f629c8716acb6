package message

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/markdave123-py/Devmate/internal/models"
)

var roleAliases = map[string]string{
	"user":        models.RoleUser,
	"human":       models.RoleUser,
	"assistant":   models.RoleAssistant,
	"ai":          models.RoleAssistant,
	"model":       models.RoleAssistant,
	"bot":         models.RoleAssistant,
	"system":      models.RoleSystem,
	"developer":   models.RoleSystem,
	"tool":        models.RoleTool,
	"function":    models.RoleTool,
	"tool_result": models.RoleTool,
	"tool-result": models.RoleTool,
}

func normalizeRole(role, defaultRole string) string {
	if r, ok := roleAliases[strings.ToLower(strings.TrimSpace(role))]; ok {
		return r
	}
	return defaultRole
}

// ToInternal converts inbound wire values into messages. Accepted shapes are
// Wire values, models.Message, JSON objects decoded as map[string]any (with
// role/type aliases, content part lists and several tool-call layouts), raw
// JSON and plain strings. Anything else becomes a user message holding its
// textual form. nil entries are skipped.
func ToInternal(items []any) []models.Message {
	return normalizeAll(items, models.RoleUser)
}

func normalizeAll(items []any, defaultRole string) []models.Message {
	out := make([]models.Message, 0, len(items))
	for _, item := range items {
		if m, ok := normalize(item, defaultRole); ok {
			out = append(out, m)
		}
	}
	return out
}

func normalize(item any, defaultRole string) (models.Message, bool) {
	switch v := item.(type) {
	case nil:
		return models.Message{}, false
	case models.Message:
		v.Role = normalizeRole(v.Role, defaultRole)
		return v, true
	case *models.Message:
		if v == nil {
			return models.Message{}, false
		}
		return normalize(*v, defaultRole)
	case Wire:
		return fromWire(v, defaultRole), true
	case *Wire:
		if v == nil {
			return models.Message{}, false
		}
		return fromWire(*v, defaultRole), true
	case map[string]any:
		return fromMap(v, defaultRole), true
	case string:
		return models.Message{Role: defaultRole, Content: v}, true
	case []byte:
		return normalizeJSONOrText(v, defaultRole)
	case json.RawMessage:
		return normalizeJSONOrText(v, defaultRole)
	case fmt.Stringer:
		// fmt recovers nil-receiver panics and prints <nil>.
		return models.Message{Role: defaultRole, Content: fmt.Sprint(v)}, true
	default:
		// Structs with json tags may still carry a role and content.
		if b, err := json.Marshal(v); err == nil {
			var obj map[string]any
			if json.Unmarshal(b, &obj) == nil && hasMessageKeys(obj) {
				return fromMap(obj, defaultRole), true
			}
		}
		return models.Message{Role: defaultRole, Content: fmt.Sprint(v)}, true
	}
}

func normalizeJSONOrText(raw []byte, defaultRole string) (models.Message, bool) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err == nil {
		if obj, ok := decoded.(map[string]any); ok {
			return fromMap(obj, defaultRole), true
		}
	}
	return models.Message{Role: defaultRole, Content: string(raw)}, true
}

func hasMessageKeys(obj map[string]any) bool {
	for _, k := range []string{"role", "type", "content", "text", "tool_calls"} {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

func fromMap(obj map[string]any, defaultRole string) models.Message {
	role, _ := obj["role"].(string)
	if role == "" {
		// LangChain-style {"type": "human", ...}
		role, _ = obj["type"].(string)
	}

	m := models.Message{Role: normalizeRole(role, defaultRole)}

	switch {
	case obj["content"] != nil:
		m.Content = contentText(obj["content"])
	case obj["text"] != nil:
		m.Content = contentText(obj["text"])
	case obj["message"] != nil:
		m.Content = contentText(obj["message"])
	}

	m.ToolCalls = toolCallsFrom(obj)
	if m.Role == models.RoleTool {
		m.ToolCallID = firstString(obj, "tool_call_id", "toolCallId", "id")
	} else {
		m.ToolCallID, _ = obj["tool_call_id"].(string)
	}
	m.Name, _ = obj["name"].(string)
	return m
}

// contentText flattens string, part-list or structured content to text.
func contentText(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case []any:
		var parts []string
		for _, p := range c {
			switch part := p.(type) {
			case string:
				parts = append(parts, part)
			case map[string]any:
				if t, ok := part["text"].(string); ok {
					parts = append(parts, t)
				} else if t, ok := part["content"].(string); ok {
					parts = append(parts, t)
				}
			}
		}
		return strings.Join(parts, "\n")
	case nil:
		return ""
	default:
		if b, err := json.Marshal(c); err == nil {
			return string(b)
		}
		return fmt.Sprint(c)
	}
}

// toolCallsFrom collects tool calls from every layout seen in practice:
// tool_calls, additional_kwargs.tool_calls, a single tool_call and the
// legacy function_call.
func toolCallsFrom(obj map[string]any) []models.ToolCall {
	if calls := parseToolCallList(obj["tool_calls"]); len(calls) > 0 {
		return calls
	}
	if extra, ok := obj["additional_kwargs"].(map[string]any); ok {
		if calls := parseToolCallList(extra["tool_calls"]); len(calls) > 0 {
			return calls
		}
		if fc, ok := extra["function_call"].(map[string]any); ok {
			if c, ok := parseToolCall(fc); ok {
				return []models.ToolCall{c}
			}
		}
	}
	if single, ok := obj["tool_call"].(map[string]any); ok {
		if c, ok := parseToolCall(single); ok {
			return []models.ToolCall{c}
		}
	}
	if fc, ok := obj["function_call"].(map[string]any); ok {
		if c, ok := parseToolCall(fc); ok {
			return []models.ToolCall{c}
		}
	}
	return nil
}

func parseToolCallList(v any) []models.ToolCall {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []models.ToolCall
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			if c, ok := parseToolCall(obj); ok {
				out = append(out, c)
			}
		}
	}
	return out
}

// parseToolCall accepts {id, name, arguments|args|input} and the OpenAI
// {id, function: {name, arguments: "<json>"}} layout.
func parseToolCall(obj map[string]any) (models.ToolCall, bool) {
	c := models.ToolCall{ID: firstString(obj, "id", "tool_call_id", "call_id")}
	c.Name, _ = obj["name"].(string)

	var rawArgs any
	for _, k := range []string{"arguments", "args", "input", "parameters"} {
		if a, ok := obj[k]; ok {
			rawArgs = a
			break
		}
	}
	if fn, ok := obj["function"].(map[string]any); ok {
		if c.Name == "" {
			c.Name, _ = fn["name"].(string)
		}
		if rawArgs == nil {
			rawArgs = fn["arguments"]
		}
	}
	if c.Name == "" {
		return models.ToolCall{}, false
	}
	c.Arguments = parseArguments(rawArgs)
	return c, true
}

func parseArguments(v any) map[string]any {
	switch a := v.(type) {
	case map[string]any:
		return a
	case string:
		if strings.TrimSpace(a) == "" {
			return nil
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(a), &m); err == nil {
			return m
		}
		return map[string]any{"input": a}
	case nil:
		return nil
	default:
		return map[string]any{"input": a}
	}
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
