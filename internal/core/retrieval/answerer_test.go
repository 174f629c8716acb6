package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/markdave123-py/Devmate/internal/core"
	"github.com/markdave123-py/Devmate/internal/models"
)

type stubDocs struct {
	core.DocumentStore
	doc *models.Document
}

func (s stubDocs) GetLatestDocument(context.Context, string) (*models.Document, error) {
	if s.doc == nil {
		return nil, core.ErrNoDocument
	}
	return s.doc, nil
}

type recordingLLM struct {
	prompt string
	reply  string
	err    error
}

func (r *recordingLLM) Generate(_ context.Context, _ string, userPrompt string) (string, error) {
	r.prompt = userPrompt
	return r.reply, r.err
}

func manyChunks(n, size int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("chunk%02d ", i) + strings.Repeat("z", size)
	}
	return out
}

func TestSelectContext_SmallSummaryUsesFullText(t *testing.T) {
	text := strings.Repeat("Lorem ipsum dolor sit amet. ", 8)[:200]
	doc := &models.Document{ExtractedText: text, Chunks: []string{"ignored"}}

	if got := SelectContext(doc, "please summarize"); got != text {
		t.Errorf("SelectContext() = %q, want full text", got)
	}
}

func TestSelectContext_LongSummaryIsCapped(t *testing.T) {
	chunks := manyChunks(12, 1000)
	doc := &models.Document{ExtractedText: strings.Join(chunks, " "), Chunks: chunks}

	got := SelectContext(doc, "give me a summary")
	if !strings.HasSuffix(got, truncationMark) {
		t.Errorf("context not marked as truncated")
	}
	if n := len([]rune(got)); n != MaxContextChars+len(truncationMark) {
		t.Errorf("context length = %d", n)
	}
	if strings.Contains(got, "chunk10") {
		t.Error("context includes chunks past the first ten")
	}
}

func TestSelectContext_TargetedFallsBackToFirstThree(t *testing.T) {
	doc := &models.Document{Chunks: []string{"one", "two", "three", "four", "five", "six"}}
	got := SelectContext(doc, "nothing here matches anything")
	if got != "one\n\ntwo\n\nthree" {
		t.Errorf("SelectContext() = %q", got)
	}
}

func TestSelectContext_TargetedRanks(t *testing.T) {
	doc := &models.Document{Chunks: []string{"intro", "pricing is per seat", "support hours"}}
	got := SelectContext(doc, "how is pricing computed")
	if !strings.HasPrefix(got, "pricing is per seat") {
		t.Errorf("SelectContext() = %q", got)
	}
}

func TestAnswer(t *testing.T) {
	doc := &models.Document{ID: "d1", FileName: "handbook.pdf", ExtractedText: "Vacation is 25 days.", Chunks: []string{"Vacation is 25 days."}}
	llm := &recordingLLM{reply: "25 days."}
	a := NewAnswerer(stubDocs{doc: doc}, llm, nil)

	ans, err := a.Answer(context.Background(), "u1", "How many vacation days?")
	if err != nil {
		t.Fatalf("Answer() error: %v", err)
	}
	if ans.Text != "25 days." || ans.Source != "handbook.pdf" || ans.Summary {
		t.Errorf("Answer() = %+v", ans)
	}
	for _, want := range []string{"handbook.pdf", "Vacation is 25 days.", "User Question: How many vacation days?", "not in the document"} {
		if !strings.Contains(llm.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if got := ans.Cited(); got != "25 days.\n\nSource: handbook.pdf" {
		t.Errorf("Cited() = %q", got)
	}
}

func TestAnswer_Summary(t *testing.T) {
	doc := &models.Document{FileName: "notes.txt", ExtractedText: "Short notes.", Chunks: []string{"Short notes."}}
	llm := &recordingLLM{reply: "A summary."}
	ans, err := NewAnswerer(stubDocs{doc: doc}, llm, nil).Answer(context.Background(), "u1", "Summarize it")
	if err != nil {
		t.Fatal(err)
	}
	if !ans.Summary {
		t.Error("expected summary answer")
	}
	if strings.Contains(llm.prompt, "User Question") {
		t.Error("summary prompt should not embed the question")
	}
}

func TestAnswer_Errors(t *testing.T) {
	_, err := NewAnswerer(stubDocs{}, &recordingLLM{}, nil).Answer(context.Background(), "u1", "anything")
	if !errors.Is(err, core.ErrNoDocument) {
		t.Errorf("error = %v, want ErrNoDocument", err)
	}

	boom := errors.New("provider unavailable")
	doc := &models.Document{FileName: "a.txt", ExtractedText: "x.", Chunks: []string{"x."}}
	_, err = NewAnswerer(stubDocs{doc: doc}, &recordingLLM{err: boom}, nil).Answer(context.Background(), "u1", "question here")
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want provider error", err)
	}
}
