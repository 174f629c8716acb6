//go:build ocr

package ingestion_engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/markdave123-py/Devmate/internal/core"
)

// TesseractOCR reads images with a fresh Tesseract client per call; clients
// are not safe for concurrent use.
type TesseractOCR struct {
	languages []string
}

func NewOCR() core.OCR {
	return &TesseractOCR{languages: []string{"eng"}}
}

func (t *TesseractOCR) ReadImage(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return "", fmt.Errorf("tesseract language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("tesseract image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return strings.TrimSpace(text), nil
}
