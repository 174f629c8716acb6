package ingestion_engine

import (
	"log/slog"

	"github.com/markdave123-py/Devmate/internal/core"
)

const (
	processedBy     = "document_ingestor"
	pipelineVersion = "1.0"
)

// IngestConfig tunes chunking.
//
// ChunkSize:    maximum characters per chunk before a split is forced (e.g., 500).
// ChunkOverlap: words carried from the end of a chunk into the next (e.g., 50).
type IngestConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

// DefaultIngestConfig mirrors CHUNK_SIZE and CHUNK_OVERLAP defaults.
func DefaultIngestConfig() *IngestConfig {
	return &IngestConfig{ChunkSize: 500, ChunkOverlap: 50}
}

// DocumentIngestor turns an uploaded payload into a stored latest document:
//
// store:     persistence for documents and chunks.
// obj:       optional object storage for the raw payload.
// extractor: text extraction by media kind.
// cfg:       chunking knobs.
type DocumentIngestor struct {
	store     core.DocumentStore
	obj       core.ObjectClient
	extractor core.DocumentExtractor
	cfg       *IngestConfig
	logger    *slog.Logger
}

// DocconvExtractor implements core.DocumentExtractor using sajari/docconv for
// structured documents, a vision model (with OCR fallback) for images and
// goquery for HTML.
type DocconvExtractor struct {
	useReadability bool
	vision         core.VisionProvider
	ocr            core.OCR
	visionPrompt   string
	logger         *slog.Logger
}
