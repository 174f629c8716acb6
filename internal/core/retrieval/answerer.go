package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/markdave123-py/Devmate/internal/core"
	"github.com/markdave123-py/Devmate/internal/models"
)

const (
	// MaxContextChars caps the context handed to the model.
	MaxContextChars = 8000
	summaryChunks   = 10
	targetedTopK    = 5
	fallbackChunks  = 3
	truncationMark  = "..."
)

// Answer is a model answer grounded in one document.
type Answer struct {
	Text    string `json:"answer"`
	Source  string `json:"source"`
	Summary bool   `json:"summary"`
}

// Cited renders the answer followed by its source line.
func (a *Answer) Cited() string {
	return fmt.Sprintf("%s\n\nSource: %s", strings.TrimSpace(a.Text), a.Source)
}

// Answerer answers questions over a user's latest document.
type Answerer struct {
	docs   core.DocumentStore
	llm    core.LLMProvider
	logger *slog.Logger
}

func NewAnswerer(docs core.DocumentStore, llm core.LLMProvider, logger *slog.Logger) *Answerer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Answerer{docs: docs, llm: llm, logger: logger}
}

// Answer resolves the latest document, selects context for the question and
// asks the model. Model failures are returned unchanged.
func (a *Answerer) Answer(ctx context.Context, userID, question string) (*Answer, error) {
	doc, err := a.docs.GetLatestDocument(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(doc.Chunks) == 0 && strings.TrimSpace(doc.ExtractedText) == "" {
		return nil, fmt.Errorf("%w: %s has no content", core.ErrNoDocument, doc.FileName)
	}

	summary := IsSummaryRequest(question)
	ctxText := SelectContext(doc, question)

	var prompt string
	if summary {
		prompt = fmt.Sprintf(summaryPromptTemplate, doc.FileName, ctxText)
	} else {
		prompt = fmt.Sprintf(questionPromptTemplate, doc.FileName, ctxText, question)
	}

	a.logger.DebugContext(ctx, "answering from document",
		"user_id", userID,
		"document_id", doc.ID,
		"summary", summary,
		"context_chars", utf8.RuneCountInString(ctxText),
	)

	text, err := a.llm.Generate(ctx, answerSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	return &Answer{Text: text, Source: doc.FileName, Summary: summary}, nil
}

// SelectContext picks the document text a question is answered from.
func SelectContext(doc *models.Document, question string) string {
	if IsSummaryRequest(question) {
		if utf8.RuneCountInString(doc.ExtractedText) <= MaxContextChars {
			return doc.ExtractedText
		}
		return truncateRunes(strings.Join(head(doc.Chunks, summaryChunks), "\n\n"), MaxContextChars)
	}

	selected, matched := rank(doc.Chunks, question, targetedTopK)
	if !matched {
		selected = head(doc.Chunks, fallbackChunks)
	}
	return strings.Join(selected, "\n\n")
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + truncationMark
}
