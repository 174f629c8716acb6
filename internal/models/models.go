package models

import (
	"time"
)

// Message roles understood by the agent loop.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// DocumentMetadata records which pipeline produced a document.
type DocumentMetadata struct {
	ProcessedBy string `db:"processed_by" json:"processed_by"`
	Version     string `db:"version" json:"version"`
}

// Document is an uploaded file together with its extracted text and chunks.
//
// Chunks are always derived from ExtractedText at ingestion time and are never
// edited on their own. Revision increases monotonically per user and breaks
// ties when resolving the latest document.
type Document struct {
	ID            string           `db:"id" json:"id"`
	UserID        string           `db:"user_id" json:"user_id"`
	FileName      string           `db:"file_name" json:"file_name"`
	FileType      string           `db:"file_type" json:"file_type"`
	FileSize      int64            `db:"file_size" json:"file_size"`
	StorageURL    string           `db:"storage_url" json:"storage_url,omitempty"`
	ExtractedText string           `db:"extracted_text" json:"-"`
	Chunks        []string         `db:"-" json:"-"`
	ChunkCount    int              `db:"chunk_count" json:"chunk_count"`
	IsLatest      bool             `db:"is_latest" json:"is_latest"`
	Revision      int64            `db:"revision" json:"revision"`
	Metadata      DocumentMetadata `json:"metadata"`
	UploadedAt    time.Time        `db:"uploaded_at" json:"uploaded_at"`
}

// ToolCall is a model request to run a named tool.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Message is the single internal message shape used by the agent loop.
//
// ToolCalls is only set on assistant messages; ToolCallID and Name are only
// set on tool results.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// HasToolCalls reports whether the message asks for at least one tool.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// ChatMessage is a persisted message of a user's running conversation.
type ChatMessage struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Seq       int64     `db:"seq" json:"seq"`
	Message   Message   `json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
