package ingestion_engine

import (
	"context"

	"github.com/markdave123-py/Devmate/internal/models"
)

type Ingestor interface {
	Ingest(ctx context.Context, userID string, data []byte, fileName, kind string) (*models.Document, error)
}
