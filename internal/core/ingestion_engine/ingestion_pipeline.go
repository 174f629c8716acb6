package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/Devmate/internal/core"
	"github.com/markdave123-py/Devmate/internal/models"
)

var _ Ingestor = (*DocumentIngestor)(nil)

// NewDocumentIngestor constructs the ingestor. obj may be nil, in which case
// raw payloads are not archived.
func NewDocumentIngestor(store core.DocumentStore, obj core.ObjectClient, extractor core.DocumentExtractor, cfg *IngestConfig, logger *slog.Logger) *DocumentIngestor {
	if cfg == nil {
		cfg = DefaultIngestConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentIngestor{store: store, obj: obj, extractor: extractor, cfg: cfg, logger: logger}
}

// DocumentObjectKey is where the raw payload of a document is archived.
func DocumentObjectKey(userID, docID, fileName string) string {
	return path.Join("users", userID, "documents", docID, path.Base(fileName))
}

// Ingest extracts, chunks and stores a payload as the user's latest document.
// Extraction and archiving run concurrently; any failure leaves the store
// unchanged and removes a payload that was already archived.
func (i *DocumentIngestor) Ingest(ctx context.Context, userID string, data []byte, fileName, kind string) (*models.Document, error) {
	kind = ResolveKind(kind, fileName)
	if !IsSupportedKind(kind) {
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedKind, kind)
	}

	doc := &models.Document{
		ID:       uuid.NewString(),
		UserID:   userID,
		FileName: fileName,
		FileType: kind,
		FileSize: int64(len(data)),
		Metadata: models.DocumentMetadata{ProcessedBy: processedBy, Version: pipelineVersion},
	}
	key := DocumentObjectKey(userID, doc.ID, fileName)

	g, gctx := errgroup.WithContext(ctx)

	var text string
	g.Go(func() error {
		extracted, err := i.extractor.ExtractText(gctx, data, kind)
		if err != nil {
			return err
		}
		if strings.TrimSpace(extracted) == "" {
			return core.ErrEmptyExtraction
		}
		text = extracted
		return nil
	})

	archived := false
	if i.obj != nil {
		g.Go(func() error {
			url, err := i.obj.UploadFile(gctx, key, data, kind)
			if err != nil {
				return fmt.Errorf("archive payload: %w", err)
			}
			doc.StorageURL = url
			archived = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		i.discardArchive(ctx, archived, key)
		return nil, err
	}

	doc.ExtractedText = text
	doc.Chunks = Chunk(text, i.cfg.ChunkSize, i.cfg.ChunkOverlap)
	doc.UploadedAt = time.Now().UTC()

	if err := i.store.CreateLatestDocument(ctx, doc); err != nil {
		i.discardArchive(ctx, archived, key)
		return nil, fmt.Errorf("persist document: %w", err)
	}

	i.logger.InfoContext(ctx, "document ingested",
		"user_id", userID,
		"document_id", doc.ID,
		"file_name", fileName,
		"kind", kind,
		"chars", len(text),
		"chunks", doc.ChunkCount,
		"revision", doc.Revision,
	)
	return doc, nil
}

func (i *DocumentIngestor) discardArchive(ctx context.Context, archived bool, key string) {
	if !archived {
		return
	}
	// The request context may already be cancelled.
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := i.obj.DeleteFile(cleanupCtx, key); err != nil && !errors.Is(err, context.Canceled) {
		i.logger.WarnContext(ctx, "failed to discard archived payload", "key", key, "error", err)
	}
}
