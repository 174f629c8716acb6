package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/markdave123-py/Devmate/internal/core"
	ingestion "github.com/markdave123-py/Devmate/internal/core/ingestion_engine"
	"github.com/markdave123-py/Devmate/internal/core/retrieval"
	"github.com/markdave123-py/Devmate/internal/models"
)

// QuestionAnswerer answers questions from the user's latest document.
type QuestionAnswerer interface {
	Answer(ctx context.Context, userID, question string) (*retrieval.Answer, error)
}

// DocumentService is the user-facing document library: upload, list,
// delete and ask. storage may be nil when object storage is disabled.
type DocumentService struct {
	store    core.DocumentStore
	storage  core.ObjectClient
	ingestor ingestion.Ingestor
	answerer QuestionAnswerer
	maxBytes int64
	logger   *slog.Logger
}

func NewDocumentService(store core.DocumentStore, storage core.ObjectClient, ingestor ingestion.Ingestor, answerer QuestionAnswerer, maxBytes int64, logger *slog.Logger) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentService{
		store:    store,
		storage:  storage,
		ingestor: ingestor,
		answerer: answerer,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Upload ingests a payload as the user's new latest document.
func (s *DocumentService) Upload(ctx context.Context, userID, fileName, contentType string, data []byte) (*models.Document, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, len(data), s.maxBytes)
	}
	return s.ingestor.Ingest(ctx, userID, data, fileName, contentType)
}

// Ask answers a question from the latest document.
func (s *DocumentService) Ask(ctx context.Context, userID, question string) (*retrieval.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is required", ErrInvalidInput)
	}
	return s.answerer.Answer(ctx, userID, question)
}

func (s *DocumentService) ListDocuments(ctx context.Context, userID string) ([]models.Document, error) {
	return s.store.ListDocumentsByUser(ctx, userID)
}

func (s *DocumentService) CountDocuments(ctx context.Context, userID string) (int, error) {
	return s.store.CountDocumentsByUser(ctx, userID)
}

// DeleteDocument removes the newest document named fileName. It returns nil
// when the user has no such document.
func (s *DocumentService) DeleteDocument(ctx context.Context, userID, fileName string) (*models.Document, error) {
	doc, err := s.store.DeleteDocument(ctx, userID, fileName)
	if err != nil || doc == nil {
		return doc, err
	}
	s.removeArchives(ctx, []models.Document{*doc})
	return doc, nil
}

func (s *DocumentService) DeleteAllDocuments(ctx context.Context, userID string) ([]models.Document, error) {
	docs, err := s.store.DeleteAllDocuments(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.removeArchives(ctx, docs)
	return docs, nil
}

// removeArchives deletes archived payloads best-effort; the records are
// already gone.
func (s *DocumentService) removeArchives(ctx context.Context, docs []models.Document) {
	if s.storage == nil {
		return
	}
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	for _, d := range docs {
		if d.StorageURL == "" {
			continue
		}
		key := ingestion.DocumentObjectKey(d.UserID, d.ID, d.FileName)
		if err := s.storage.DeleteFile(cleanupCtx, key); err != nil {
			s.logger.WarnContext(ctx, "failed to remove archived payload", "key", key, "error", err)
		}
	}
}
