package core

import (
	"context"
)

// DocumentExtractor turns a raw payload into plain text.
// The contentType hint helps the extractor choose the right parsing strategy.
type DocumentExtractor interface {
	ExtractText(ctx context.Context, data []byte, contentType string) (string, error)
}

// OCR reads printed text out of an image.
type OCR interface {
	ReadImage(ctx context.Context, data []byte) (string, error)
}
