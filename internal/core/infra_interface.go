package core

import (
	"context"
	"io"

	"github.com/markdave123-py/Devmate/internal/models"
)

// DbClient defines all persistence operations your services will need.
// It abstracts Postgres/SQLite so higher layers never depend on a specific DB.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) (err error)
	GetUserByEmail(ctx context.Context, email string) (user *models.User, err error)

	DocumentStore
	ChatStore

	Ping(ctx context.Context) error
	Close() error
}

// DocumentStore persists ingested documents and the per-user latest pointer.
type DocumentStore interface {
	// CreateLatestDocument inserts doc and makes it the only latest document of
	// its user in one transaction. It assigns doc.Revision.
	CreateLatestDocument(ctx context.Context, doc *models.Document) error
	// GetLatestDocument returns ErrNoDocument when the user has none.
	GetLatestDocument(ctx context.Context, userID string) (*models.Document, error)
	ListDocumentsByUser(ctx context.Context, userID string) ([]models.Document, error)
	CountDocumentsByUser(ctx context.Context, userID string) (int, error)
	// DeleteDocument removes the user's document with the given file name and
	// promotes the most recent remaining document when the latest was removed.
	// The deleted record is returned, nil when nothing matched.
	DeleteDocument(ctx context.Context, userID, fileName string) (*models.Document, error)
	DeleteAllDocuments(ctx context.Context, userID string) ([]models.Document, error)
}

// ChatStore keeps a user's running conversation.
type ChatStore interface {
	AppendChatMessages(ctx context.Context, userID string, msgs []models.Message) error
	// GetChatHistory returns at most limit of the most recent messages, oldest first.
	GetChatHistory(ctx context.Context, userID string, limit int) ([]models.Message, error)
	ClearChatHistory(ctx context.Context, userID string) error
}

// ObjectClient defines interactions with S3 or any object storage.
// It's abstract so you can replace AWS with MinIO, GCP, etc. easily.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
	// CreateFile stores data only when key is free and returns ErrObjectExists otherwise.
	CreateFile(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, key string) error

	// GetObjectReader streams the object; the caller closes it.
	GetObjectReader(ctx context.Context, key string) (io.ReadCloser, error)
}
