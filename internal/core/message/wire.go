// Package message converts between wire messages and models.Message.
// Conversions are total: malformed input degrades to text, never to an error.
package message

import "github.com/markdave123-py/Devmate/internal/models"

// WireToolCall is a tool-call directive as it appears on the wire.
type WireToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Wire is the JSON message shape exchanged with clients.
type Wire struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []WireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
}

// ToWire converts internal messages for output. Messages without a role
// become assistant messages.
func ToWire(msgs []models.Message) []Wire {
	out := make([]Wire, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toWire(m))
	}
	return out
}

func toWire(m models.Message) Wire {
	w := Wire{
		Role:       normalizeRole(m.Role, models.RoleAssistant),
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
		Name:       m.Name,
	}
	for _, c := range m.ToolCalls {
		w.ToolCalls = append(w.ToolCalls, WireToolCall{ID: c.ID, Name: c.Name, Arguments: c.Arguments})
	}
	return w
}

func fromWire(w Wire, defaultRole string) models.Message {
	m := models.Message{
		Role:       normalizeRole(w.Role, defaultRole),
		Content:    w.Content,
		ToolCallID: w.ToolCallID,
		Name:       w.Name,
	}
	for _, c := range w.ToolCalls {
		m.ToolCalls = append(m.ToolCalls, models.ToolCall{ID: c.ID, Name: c.Name, Arguments: c.Arguments})
	}
	return m
}

// ToWireValues converts arbitrary outbound values, defaulting to the
// assistant role.
func ToWireValues(items []any) []Wire {
	return ToWire(normalizeAll(items, models.RoleAssistant))
}
