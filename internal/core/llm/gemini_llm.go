package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/markdave123-py/Devmate/internal/core"
)

const (
	defaultModel     = "gemini-1.5-flash"
	defaultAudioMIME = "audio/webm"

	transcribePrompt = "Transcribe the speech in this recording verbatim. " +
		"Reply with the transcript only. If nobody speaks, reply with nothing."
)

// GeminiLLM talks to the Gemini API. One client serves chat, single-shot
// generation, image description and speech transcription.
type GeminiLLM struct {
	client      *genai.Client
	modelName   string
	visionModel string
}

func NewGeminiLLM(ctx context.Context, apiKey, modelName, visionModel string) (*GeminiLLM, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	if modelName == "" {
		modelName = defaultModel
	}
	if visionModel == "" {
		visionModel = modelName
	}
	return &GeminiLLM{client: cl, modelName: modelName, visionModel: visionModel}, nil
}

func (g *GeminiLLM) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GeminiLLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m := g.client.GenerativeModel(g.modelName)
	if systemPrompt != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(systemPrompt)},
		}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return responseText(resp), nil
}

// DescribeImage sends the image inline together with prompt.
func (g *GeminiLLM) DescribeImage(ctx context.Context, data []byte, mimeType, prompt string) (string, error) {
	format := strings.TrimPrefix(strings.ToLower(mimeType), "image/")
	if format == "" || format == "jpg" {
		format = "jpeg"
	}

	m := g.client.GenerativeModel(g.visionModel)
	resp, err := m.GenerateContent(ctx, genai.ImageData(format, data), genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini vision: %w", err)
	}
	return responseText(resp), nil
}

// Transcribe sends the recording inline and returns the spoken text.
func (g *GeminiLLM) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = defaultAudioMIME
	}
	m := g.client.GenerativeModel(g.modelName)
	resp, err := m.GenerateContent(ctx, genai.Blob{MIMEType: mimeType, Data: audio}, genai.Text(transcribePrompt))
	if err != nil {
		return "", fmt.Errorf("gemini transcribe: %w", err)
	}
	return responseText(resp), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}

var (
	_ core.LLMProvider    = (*GeminiLLM)(nil)
	_ core.VisionProvider = (*GeminiLLM)(nil)
	_ core.ChatModel      = (*GeminiLLM)(nil)
	_ core.Transcriber    = (*GeminiLLM)(nil)
)
