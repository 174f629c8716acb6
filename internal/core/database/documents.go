package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/markdave123-py/Devmate/internal/core"
	"github.com/markdave123-py/Devmate/internal/models"
)

const documentColumns = `id, user_id, file_name, file_type, file_size, storage_url, extracted_text,
	chunk_count, is_latest, revision, processed_by, version, uploaded_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var d models.Document
	if err := row.Scan(
		&d.ID, &d.UserID, &d.FileName, &d.FileType, &d.FileSize, &d.StorageURL, &d.ExtractedText,
		&d.ChunkCount, &d.IsLatest, &d.Revision, &d.Metadata.ProcessedBy, &d.Metadata.Version, &d.UploadedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateLatestDocument stores doc with its chunks, clears the latest flag on
// every other document of the user and assigns the next revision, all in one
// transaction.
func (c *DatabaseClient) CreateLatestDocument(ctx context.Context, doc *models.Document) (err error) {
	if doc == nil {
		return errors.New("nil document")
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = c.lockUser(ctx, tx, "documents:"+doc.UserID); err != nil {
		return fmt.Errorf("lock user documents: %w", err)
	}

	var revision int64
	err = tx.QueryRowContext(ctx, c.q(`SELECT COALESCE(MAX(revision), 0) + 1 FROM documents WHERE user_id = $1`),
		doc.UserID).Scan(&revision)
	if err != nil {
		return fmt.Errorf("next revision: %w", err)
	}

	if _, err = tx.ExecContext(ctx, c.q(`UPDATE documents SET is_latest = $1 WHERE user_id = $2 AND is_latest = $3`),
		false, doc.UserID, true); err != nil {
		return fmt.Errorf("clear latest: %w", err)
	}

	const insertDoc = `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if _, err = tx.ExecContext(ctx, c.q(insertDoc),
		doc.ID, doc.UserID, doc.FileName, doc.FileType, doc.FileSize, doc.StorageURL, doc.ExtractedText,
		len(doc.Chunks), true, revision, doc.Metadata.ProcessedBy, doc.Metadata.Version, doc.UploadedAt,
	); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, c.q(`INSERT INTO document_chunks (document_id, position, text) VALUES ($1, $2, $3)`))
	if err != nil {
		return fmt.Errorf("prepare chunks: %w", err)
	}
	defer stmt.Close()
	for i, text := range doc.Chunks {
		if _, err = stmt.ExecContext(ctx, doc.ID, i, text); err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit document: %w", err)
	}

	doc.Revision = revision
	doc.IsLatest = true
	doc.ChunkCount = len(doc.Chunks)
	return nil
}

func (c *DatabaseClient) GetLatestDocument(ctx context.Context, userID string) (*models.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE user_id = $1
		ORDER BY is_latest DESC, revision DESC
		LIMIT 1
	`
	doc, err := scanDocument(c.db.QueryRowContext(ctx, c.q(q), userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("get latest document: %w", err)
	}

	chunks, err := c.getChunks(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	doc.Chunks = chunks
	return doc, nil
}

func (c *DatabaseClient) getChunks(ctx context.Context, documentID string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		c.q(`SELECT text FROM document_chunks WHERE document_id = $1 ORDER BY position ASC`), documentID)
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		out = append(out, text)
	}
	return out, rows.Err()
}

// ListDocumentsByUser returns the user's documents, newest revision first.
// Chunks are not loaded.
func (c *DatabaseClient) ListDocumentsByUser(ctx context.Context, userID string) ([]models.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE user_id = $1
		ORDER BY revision DESC
	`
	return c.queryDocuments(ctx, c.db, c.q(q), userID)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (c *DatabaseClient) queryDocuments(ctx context.Context, db querier, q string, args ...any) ([]models.Document, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) CountDocumentsByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, c.q(`SELECT COUNT(*) FROM documents WHERE user_id = $1`), userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// DeleteDocument removes the newest document of the user named fileName.
// If it was the latest, the highest remaining revision becomes latest.
func (c *DatabaseClient) DeleteDocument(ctx context.Context, userID, fileName string) (deleted *models.Document, err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = c.lockUser(ctx, tx, "documents:"+userID); err != nil {
		return nil, fmt.Errorf("lock user documents: %w", err)
	}

	const find = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE user_id = $1 AND file_name = $2
		ORDER BY revision DESC
		LIMIT 1
	`
	deleted, err = scanDocument(tx.QueryRowContext(ctx, c.q(find), userID, fileName))
	if errors.Is(err, sql.ErrNoRows) {
		err = tx.Rollback()
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("find document: %w", err)
	}

	if _, err = tx.ExecContext(ctx, c.q(`DELETE FROM document_chunks WHERE document_id = $1`), deleted.ID); err != nil {
		return nil, fmt.Errorf("delete chunks: %w", err)
	}
	if _, err = tx.ExecContext(ctx, c.q(`DELETE FROM documents WHERE id = $1`), deleted.ID); err != nil {
		return nil, fmt.Errorf("delete document: %w", err)
	}

	if deleted.IsLatest {
		const promote = `
			UPDATE documents SET is_latest = $1
			WHERE id = (SELECT id FROM documents WHERE user_id = $2 ORDER BY revision DESC LIMIT 1)
		`
		if _, err = tx.ExecContext(ctx, c.q(promote), true, userID); err != nil {
			return nil, fmt.Errorf("promote latest: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete: %w", err)
	}
	deleted.IsLatest = false
	return deleted, nil
}

// DeleteAllDocuments removes every document of the user and returns them.
func (c *DatabaseClient) DeleteAllDocuments(ctx context.Context, userID string) (deleted []models.Document, err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = c.lockUser(ctx, tx, "documents:"+userID); err != nil {
		return nil, fmt.Errorf("lock user documents: %w", err)
	}

	deleted, err = c.queryDocuments(ctx, tx,
		c.q(`SELECT `+documentColumns+` FROM documents WHERE user_id = $1 ORDER BY revision DESC`), userID)
	if err != nil {
		return nil, err
	}

	const deleteChunks = `
		DELETE FROM document_chunks
		WHERE document_id IN (SELECT id FROM documents WHERE user_id = $1)
	`
	if _, err = tx.ExecContext(ctx, c.q(deleteChunks), userID); err != nil {
		return nil, fmt.Errorf("delete chunks: %w", err)
	}
	if _, err = tx.ExecContext(ctx, c.q(`DELETE FROM documents WHERE user_id = $1`), userID); err != nil {
		return nil, fmt.Errorf("delete documents: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete: %w", err)
	}
	return deleted, nil
}
