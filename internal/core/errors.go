package core

import "errors"

// Ingestion errors abort a single ingestion and leave the store unchanged.
var (
	ErrUnsupportedKind    = errors.New("unsupported file type")
	ErrEmptyExtraction    = errors.New("no text could be extracted from the file")
	ErrExtractionBackend  = errors.New("extraction backend failed")
	ErrNoDocument         = errors.New("no document found")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrObjectStoreMissing = errors.New("object storage is not configured")
	ErrObjectNotFound     = errors.New("object not found")
	ErrObjectExists       = errors.New("object already exists")
)

// Tool and loop errors never reach the caller of a turn; they are turned into
// message text by the dispatcher and the loop.
var (
	ErrToolNotFound       = errors.New("tool not found")
	ErrToolExecution      = errors.New("tool execution failed")
	ErrLoopIterationLimit = errors.New("agent iteration limit exceeded")
)
