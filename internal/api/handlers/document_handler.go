package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/Devmate/internal/core/retrieval"
	"github.com/markdave123-py/Devmate/internal/models"
)

const multipartMemory = 32 << 20

// DocumentManager is the document library used by the HTTP layer.
type DocumentManager interface {
	Upload(ctx context.Context, userID, fileName, contentType string, data []byte) (*models.Document, error)
	ListDocuments(ctx context.Context, userID string) ([]models.Document, error)
	DeleteDocument(ctx context.Context, userID, fileName string) (*models.Document, error)
	DeleteAllDocuments(ctx context.Context, userID string) ([]models.Document, error)
	Ask(ctx context.Context, userID, question string) (*retrieval.Answer, error)
}

type DocumentHandler struct {
	docs     DocumentManager
	maxBytes int64
	logger   *slog.Logger
}

func NewDocumentHandler(docs DocumentManager, maxBytes int64, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{docs: docs, maxBytes: maxBytes, logger: orDefault(logger)}
}

// UploadDocument ingests the multipart "file" field as the user's latest
// document.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if h.maxBytes > 0 {
		// Leave room for multipart framing; the service enforces the exact limit.
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartMemory)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file exceeds upload limit")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file")
		return
	}
	defer file.Close()

	var reader io.Reader = file
	if h.maxBytes > 0 {
		reader = io.LimitReader(file, h.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read file")
		return
	}

	doc, err := h.docs.Upload(r.Context(), userID, filepath.Base(header.Filename), header.Header.Get("Content-Type"), data)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "document uploaded", "user_id", userID, "file_name", doc.FileName, "chunks", doc.ChunkCount)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Document processed successfully",
		"document": doc,
	})
}

func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	documents, err := h.docs.ListDocuments(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if documents == nil {
		documents = []models.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": documents, "count": len(documents)})
}

func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	name, err := url.PathUnescape(chi.URLParam(r, "file_name"))
	if err != nil || strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}

	doc, err := h.docs.DeleteDocument(r.Context(), userID, name)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "document not found: "+name)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": doc})
}

func (h *DocumentHandler) DeleteAllDocuments(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	docs, err := h.docs.DeleteAllDocuments(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": len(docs)})
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer  string `json:"answer"`
	Source  string `json:"source"`
	Summary bool   `json:"summary"`
}

// Ask answers a question from the latest document without going through the
// agent.
func (h *DocumentHandler) Ask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req askRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ans, err := h.docs.Ask(r.Context(), userID, req.Question)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, askResponse{Answer: ans.Cited(), Source: ans.Source, Summary: ans.Summary})
}
