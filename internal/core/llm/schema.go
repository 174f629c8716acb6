package llm

import (
	"fmt"

	"github.com/google/generative-ai-go/genai"

	"github.com/markdave123-py/Devmate/internal/core"
)

func toGenaiTool(specs []core.ToolSpec) *genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, s := range specs {
		decl := &genai.FunctionDeclaration{Name: s.Name, Description: s.Description}
		if schema := toSchema(s.Parameters); schema != nil && len(schema.Properties) > 0 {
			decl.Parameters = schema
		}
		decls = append(decls, decl)
	}
	return &genai.Tool{FunctionDeclarations: decls}
}

// toSchema converts a JSON-schema map into the subset Gemini understands.
// Unknown keywords are dropped.
func toSchema(js map[string]any) *genai.Schema {
	if js == nil {
		return nil
	}
	s := &genai.Schema{Type: schemaType(js["type"])}
	s.Description, _ = js["description"].(string)
	s.Format, _ = js["format"].(string)
	s.Enum = stringList(js["enum"])
	s.Required = stringList(js["required"])

	if items, ok := js["items"].(map[string]any); ok {
		s.Items = toSchema(items)
	}
	if props, ok := js["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if p, ok := raw.(map[string]any); ok {
				s.Properties[name] = toSchema(p)
			}
		}
	}
	return s
}

func schemaType(v any) genai.Type {
	switch v {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

func stringList(v any) []string {
	switch l := v.(type) {
	case []string:
		return l
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return nil
}
