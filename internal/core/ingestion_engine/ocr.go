//go:build !ocr

package ingestion_engine

import (
	"github.com/markdave123-py/Devmate/internal/core"
)

// NewOCR returns nil unless the binary is built with the ocr tag, which links
// Tesseract through gosseract. Images then rely on the vision model alone.
func NewOCR() core.OCR {
	return nil
}
