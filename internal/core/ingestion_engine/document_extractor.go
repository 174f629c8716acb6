package ingestion_engine

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"
	"github.com/PuerkitoBio/goquery"

	"github.com/markdave123-py/Devmate/internal/core"
)

var _ core.DocumentExtractor = (*DocconvExtractor)(nil)

const defaultVisionPrompt = "Extract all text and describe all content from this image in detail. " +
	"Include any text, labels, diagrams, charts, or visual information. Be comprehensive and structured."

// isStructured reports whether kind is handed to docconv.
func isStructured(kind string) bool {
	switch kind {
	case "application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/vnd.oasis.opendocument.text",
		"application/rtf", "text/rtf",
		"application/vnd.apple.pages":
		return true
	}
	return false
}

// NewDocconvExtractor builds an extractor. vision and ocr may be nil; images
// are then rejected or read by whichever is present.
func NewDocconvExtractor(useReadability bool, vision core.VisionProvider, ocr core.OCR, logger *slog.Logger) *DocconvExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocconvExtractor{
		useReadability: useReadability,
		vision:         vision,
		ocr:            ocr,
		visionPrompt:   defaultVisionPrompt,
		logger:         logger,
	}
}

// ResolveKind normalizes a declared media type, falling back to the file
// extension when the declared type is missing or generic.
func ResolveKind(declared, fileName string) string {
	kind := declared
	if mt, _, err := mime.ParseMediaType(declared); err == nil {
		kind = mt
	}
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind != "" && kind != "application/octet-stream" {
		return kind
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt", ".log":
		return "text/plain"
	}
	if byDocconv := docconv.MimeTypeByExtension(fileName); byDocconv != "application/octet-stream" {
		return byDocconv
	}
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		mt, _, _ := mime.ParseMediaType(byExt)
		return mt
	}
	return kind
}

// IsSupportedKind reports whether ExtractText has a strategy for kind.
func IsSupportedKind(kind string) bool {
	return isStructured(kind) ||
		strings.HasPrefix(kind, "image/") ||
		strings.HasPrefix(kind, "text/") ||
		kind == "application/json"
}

// ExtractText picks a strategy by content type and returns the plain text.
func (e *DocconvExtractor) ExtractText(ctx context.Context, data []byte, contentType string) (string, error) {
	kind := ResolveKind(contentType, "")
	switch {
	case isStructured(kind):
		return e.extractStructured(ctx, data, kind)
	case strings.HasPrefix(kind, "image/"):
		return e.extractImage(ctx, data, kind)
	case kind == "text/html":
		return extractHTML(data)
	case strings.HasPrefix(kind, "text/"), kind == "application/json":
		return decodeText(data)
	default:
		return "", fmt.Errorf("%w: %s", core.ErrUnsupportedKind, contentType)
	}
}

// extractStructured concatenates pages; docconv separates PDF pages with a
// form feed.
func (e *DocconvExtractor) extractStructured(ctx context.Context, data []byte, kind string) (string, error) {
	res, err := docconv.Convert(bytes.NewReader(data), kind, e.useReadability)
	if err != nil {
		return "", fmt.Errorf("%w: docconv %s: %v", core.ErrExtractionBackend, kind, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pages := strings.Split(res.Body, "\f")
	kept := pages[:0]
	for _, p := range pages {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n"), nil
}

// extractImage asks the vision model first and falls back to OCR when it
// returns nothing. OCR failures count as empty text.
func (e *DocconvExtractor) extractImage(ctx context.Context, data []byte, kind string) (string, error) {
	if e.vision == nil && e.ocr == nil {
		return "", fmt.Errorf("%w: %s (no image reader configured)", core.ErrUnsupportedKind, kind)
	}

	var text string
	if e.vision != nil {
		described, err := e.vision.DescribeImage(ctx, data, kind, e.visionPrompt)
		if err != nil {
			return "", fmt.Errorf("%w: vision: %v", core.ErrExtractionBackend, err)
		}
		text = described
	}

	if strings.TrimSpace(text) == "" && e.ocr != nil {
		ocrText, err := e.ocr.ReadImage(ctx, data)
		if err != nil {
			e.logger.WarnContext(ctx, "ocr fallback failed", "kind", kind, "error", err)
			return "", nil
		}
		text = ocrText
	}
	return strings.TrimSpace(text), nil
}

func extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: html: %v", core.ErrExtractionBackend, err)
	}
	doc.Find("script, style, noscript").Remove()

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func decodeText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: payload is not valid UTF-8", core.ErrExtractionBackend)
	}
	return string(data), nil
}
