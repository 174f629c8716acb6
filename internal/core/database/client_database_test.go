package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/markdave123-py/Devmate/internal/config"
	"github.com/markdave123-py/Devmate/internal/core"
	"github.com/markdave123-py/Devmate/internal/models"
)

func newTestClient(t *testing.T) *DatabaseClient {
	t.Helper()
	cfg := &config.Config{DatabaseURL: "sqlite://" + filepath.Join(t.TempDir(), "devmate.db")}
	c, err := NewDatabaseClient(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewDatabaseClient() error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func newDoc(userID, name string, chunks ...string) *models.Document {
	return &models.Document{
		ID:            uuid.NewString(),
		UserID:        userID,
		FileName:      name,
		FileType:      "text/plain",
		ExtractedText: fmt.Sprintf("text of %s", name),
		Chunks:        chunks,
		Metadata:      models.DocumentMetadata{ProcessedBy: "document_ingestor", Version: "1.0"},
	}
}

func latestCount(t *testing.T, c *DatabaseClient, userID string) int {
	t.Helper()
	docs, err := c.ListDocumentsByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListDocumentsByUser() error: %v", err)
	}
	n := 0
	for _, d := range docs {
		if d.IsLatest {
			n++
		}
	}
	return n
}

func TestRebindPlaceholders(t *testing.T) {
	c := &DatabaseClient{dialect: dialectSQLite}
	got := c.q(`SELECT a FROM t WHERE x = $1 AND y = $2 LIMIT $10`)
	want := `SELECT a FROM t WHERE x = ? AND y = ? LIMIT ?`
	if got != want {
		t.Errorf("q() = %q, want %q", got, want)
	}

	pg := &DatabaseClient{dialect: dialectPostgres}
	if got := pg.q(`x = $1`); got != `x = $1` {
		t.Errorf("postgres query rewritten: %q", got)
	}
}

func TestUsers(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	u := &models.User{ID: uuid.NewString(), FirstName: "Ada", Email: "ada@example.com", PasswordHash: "hash"}
	if err := c.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}

	dup := &models.User{ID: uuid.NewString(), FirstName: "Ada", Email: "ada@example.com", PasswordHash: "hash"}
	if err := c.CreateUser(ctx, dup); !errors.Is(err, core.ErrUserExists) {
		t.Fatalf("CreateUser() duplicate error = %v, want ErrUserExists", err)
	}

	got, err := c.GetUserByEmail(ctx, "ada@example.com")
	if err != nil || got == nil {
		t.Fatalf("GetUserByEmail() = %v, %v", got, err)
	}
	if got.ID != u.ID || got.PasswordHash != "hash" {
		t.Errorf("GetUserByEmail() = %+v", got)
	}

	missing, err := c.GetUserByEmail(ctx, "nobody@example.com")
	if err != nil || missing != nil {
		t.Errorf("GetUserByEmail(missing) = %v, %v; want nil, nil", missing, err)
	}
}

func TestGetLatestDocument_None(t *testing.T) {
	c := newTestClient(t)
	_, err := c.GetLatestDocument(context.Background(), "u1")
	if !errors.Is(err, core.ErrNoDocument) {
		t.Fatalf("GetLatestDocument() error = %v, want ErrNoDocument", err)
	}
}

func TestCreateLatestDocument_FlipsFlag(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	first := newDoc("u1", "a.txt", "alpha one.", "alpha two.")
	if err := c.CreateLatestDocument(ctx, first); err != nil {
		t.Fatalf("CreateLatestDocument() error: %v", err)
	}
	second := newDoc("u1", "b.txt", "beta.")
	if err := c.CreateLatestDocument(ctx, second); err != nil {
		t.Fatalf("CreateLatestDocument() error: %v", err)
	}
	other := newDoc("u2", "c.txt", "gamma.")
	if err := c.CreateLatestDocument(ctx, other); err != nil {
		t.Fatalf("CreateLatestDocument() error: %v", err)
	}

	if first.Revision != 1 || second.Revision != 2 || other.Revision != 1 {
		t.Errorf("revisions = %d, %d, %d; want 1, 2, 1", first.Revision, second.Revision, other.Revision)
	}

	latest, err := c.GetLatestDocument(ctx, "u1")
	if err != nil {
		t.Fatalf("GetLatestDocument() error: %v", err)
	}
	if latest.ID != second.ID {
		t.Errorf("latest = %s, want %s", latest.FileName, second.FileName)
	}
	if len(latest.Chunks) != 1 || latest.Chunks[0] != "beta." {
		t.Errorf("latest chunks = %q", latest.Chunks)
	}
	if latest.Metadata.ProcessedBy != "document_ingestor" {
		t.Errorf("metadata = %+v", latest.Metadata)
	}
	if n := latestCount(t, c, "u1"); n != 1 {
		t.Errorf("u1 latest count = %d, want 1", n)
	}
	if n := latestCount(t, c, "u2"); n != 1 {
		t.Errorf("u2 latest count = %d, want 1", n)
	}

	count, err := c.CountDocumentsByUser(ctx, "u1")
	if err != nil || count != 2 {
		t.Errorf("CountDocumentsByUser() = %d, %v; want 2", count, err)
	}
}

func TestCreateLatestDocument_Concurrent(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- c.CreateLatestDocument(ctx, newDoc("u1", fmt.Sprintf("f%d.txt", i), "x."))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent CreateLatestDocument() error: %v", err)
		}
	}

	if got := latestCount(t, c, "u1"); got != 1 {
		t.Fatalf("latest count = %d, want 1", got)
	}
	docs, _ := c.ListDocumentsByUser(ctx, "u1")
	seen := map[int64]bool{}
	for _, d := range docs {
		if seen[d.Revision] {
			t.Errorf("duplicate revision %d", d.Revision)
		}
		seen[d.Revision] = true
	}
	latest, _ := c.GetLatestDocument(ctx, "u1")
	if latest.Revision != n {
		t.Errorf("latest revision = %d, want %d", latest.Revision, n)
	}
}

func TestDeleteDocument_PromotesNewestRemaining(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	a := newDoc("u1", "a.txt", "a.")
	b := newDoc("u1", "b.txt", "b.")
	cc := newDoc("u1", "c.txt", "c.")
	for _, d := range []*models.Document{a, b, cc} {
		if err := c.CreateLatestDocument(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := c.DeleteDocument(ctx, "u1", "c.txt")
	if err != nil || deleted == nil {
		t.Fatalf("DeleteDocument() = %v, %v", deleted, err)
	}
	latest, err := c.GetLatestDocument(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != b.ID || !latest.IsLatest {
		t.Errorf("latest after delete = %s (latest=%v), want b.txt", latest.FileName, latest.IsLatest)
	}
	if n := latestCount(t, c, "u1"); n != 1 {
		t.Errorf("latest count = %d, want 1", n)
	}

	// Deleting a non-latest document leaves the flag alone.
	if _, err := c.DeleteDocument(ctx, "u1", "a.txt"); err != nil {
		t.Fatal(err)
	}
	latest, _ = c.GetLatestDocument(ctx, "u1")
	if latest.ID != b.ID {
		t.Errorf("latest = %s, want b.txt", latest.FileName)
	}

	missing, err := c.DeleteDocument(ctx, "u1", "nope.txt")
	if err != nil || missing != nil {
		t.Errorf("DeleteDocument(missing) = %v, %v; want nil, nil", missing, err)
	}
}

func TestDeleteAllDocuments(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	for _, name := range []string{"a.txt", "b.txt"} {
		if err := c.CreateLatestDocument(ctx, newDoc("u1", name, "x.")); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.CreateLatestDocument(ctx, newDoc("u2", "keep.txt", "y.")); err != nil {
		t.Fatal(err)
	}

	deleted, err := c.DeleteAllDocuments(ctx, "u1")
	if err != nil {
		t.Fatalf("DeleteAllDocuments() error: %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("deleted %d documents, want 2", len(deleted))
	}
	if _, err := c.GetLatestDocument(ctx, "u1"); !errors.Is(err, core.ErrNoDocument) {
		t.Errorf("GetLatestDocument(u1) error = %v, want ErrNoDocument", err)
	}
	if _, err := c.GetLatestDocument(ctx, "u2"); err != nil {
		t.Errorf("GetLatestDocument(u2) error = %v", err)
	}
}

func TestChatHistory(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	msgs := []models.Message{
		{Role: models.RoleUser, Content: "what time is it?"},
		{Role: models.RoleAssistant, ToolCalls: []models.ToolCall{{ID: "call_1", Name: "current_time", Arguments: map[string]any{"tz": "UTC"}}}},
		{Role: models.RoleTool, Content: "12:00", ToolCallID: "call_1", Name: "current_time"},
		{Role: models.RoleAssistant, Content: "It is noon."},
	}
	if err := c.AppendChatMessages(ctx, "u1", msgs[:2]); err != nil {
		t.Fatal(err)
	}
	if err := c.AppendChatMessages(ctx, "u1", msgs[2:]); err != nil {
		t.Fatal(err)
	}

	got, err := c.GetChatHistory(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("GetChatHistory() error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("history length = %d, want 4", len(got))
	}
	if got[0].Content != "what time is it?" || got[3].Content != "It is noon." {
		t.Errorf("history order wrong: %+v", got)
	}
	if len(got[1].ToolCalls) != 1 || got[1].ToolCalls[0].Arguments["tz"] != "UTC" {
		t.Errorf("tool calls not restored: %+v", got[1])
	}
	if got[2].ToolCallID != "call_1" || got[2].Name != "current_time" {
		t.Errorf("tool result not restored: %+v", got[2])
	}

	// A window starting on a tool result drops the orphan.
	window, err := c.GetChatHistory(ctx, "u1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(window) != 1 || window[0].Content != "It is noon." {
		t.Errorf("windowed history = %+v", window)
	}

	if err := c.ClearChatHistory(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	got, _ = c.GetChatHistory(ctx, "u1", 10)
	if len(got) != 0 {
		t.Errorf("history after clear = %d messages", len(got))
	}
}
