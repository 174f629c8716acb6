package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/markdave123-py/Devmate/internal/core"
	"github.com/markdave123-py/Devmate/internal/core/retrieval"
	"github.com/markdave123-py/Devmate/internal/models"
)

// DocumentLibrary manages a user's uploaded documents.
type DocumentLibrary interface {
	ListDocuments(ctx context.Context, userID string) ([]models.Document, error)
	CountDocuments(ctx context.Context, userID string) (int, error)
	DeleteDocument(ctx context.Context, userID, fileName string) (*models.Document, error)
	DeleteAllDocuments(ctx context.Context, userID string) ([]models.Document, error)
}

// DocumentAnswerer answers a question from the user's latest document.
type DocumentAnswerer interface {
	Answer(ctx context.Context, userID, question string) (*retrieval.Answer, error)
}

const noDocumentReply = "No document found. Please upload a file first, then I can answer questions about it."

func queryDocumentsTool(answerer DocumentAnswerer) *Tool {
	return &Tool{
		Name: "query_documents",
		Description: "Answer a question about the user's most recently uploaded document. " +
			"Use for any question about an uploaded file, including requests to summarize it.",
		Parameters: objectSchema(map[string]any{
			"question": stringParam("The question to answer from the document"),
		}, "question"),
		Handler: func(ctx context.Context, inv Invocation) (string, error) {
			question, err := requiredString(inv.Args, "question")
			if err != nil {
				return "", err
			}
			ans, err := answerer.Answer(ctx, inv.UserID, question)
			if errors.Is(err, core.ErrNoDocument) {
				return noDocumentReply, nil
			}
			if err != nil {
				return "", err
			}
			return ans.Cited(), nil
		},
	}
}

func listUserFilesTool(lib DocumentLibrary) *Tool {
	return &Tool{
		Name:        "list_user_files",
		Description: "List the documents the user has uploaded, newest first.",
		Parameters:  objectSchema(map[string]any{}),
		Handler: func(ctx context.Context, inv Invocation) (string, error) {
			docs, err := lib.ListDocuments(ctx, inv.UserID)
			if err != nil {
				return "", err
			}
			return FormatDocumentList(docs), nil
		},
	}
}

// FormatDocumentList renders documents for the model.
func FormatDocumentList(docs []models.Document) string {
	if len(docs) == 0 {
		return "You haven't uploaded any files yet. Upload a document to get started!"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Your Uploaded Documents (%d total):\n", len(docs))
	for i, d := range docs {
		latest := ""
		if d.IsLatest {
			latest = " (Latest)"
		}
		fmt.Fprintf(&b, "\n%d. %s%s\n", i+1, d.FileName, latest)
		fmt.Fprintf(&b, "   Type: %s\n", d.FileType)
		fmt.Fprintf(&b, "   Size: %.2f KB\n", float64(d.FileSize)/1024)
		fmt.Fprintf(&b, "   Chunks: %d\n", d.ChunkCount)
		fmt.Fprintf(&b, "   Uploaded: %s\n", d.UploadedAt.UTC().Format("2006-01-02 15:04:05"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func deleteUserFileTool(lib DocumentLibrary) *Tool {
	return &Tool{
		Name:        "delete_user_file",
		Description: "Delete one of the user's uploaded documents by file name.",
		Parameters: objectSchema(map[string]any{
			"file_name": stringParam("Exact file name to delete"),
		}, "file_name"),
		Handler: func(ctx context.Context, inv Invocation) (string, error) {
			name, err := requiredString(inv.Args, "file_name")
			if err != nil {
				return "", err
			}
			deleted, err := lib.DeleteDocument(ctx, inv.UserID, name)
			if err != nil {
				return "", err
			}
			if deleted == nil {
				return fmt.Sprintf("File '%s' not found in your uploads.", name), nil
			}
			return fmt.Sprintf("File '%s' has been deleted successfully.", name), nil
		},
	}
}

func deleteAllUserFilesTool(lib DocumentLibrary) *Tool {
	return &Tool{
		Name: "delete_all_user_files",
		Description: "Delete ALL of the user's uploaded documents. Only call with confirmation \"yes\" after the user " +
			"explicitly confirmed; any other value just reports how many files would be deleted.",
		Parameters: objectSchema(map[string]any{
			"confirmation": stringParam(`Must be "yes" to proceed`),
		}),
		Handler: func(ctx context.Context, inv Invocation) (string, error) {
			if !strings.EqualFold(stringArg(inv.Args, "confirmation"), "yes") {
				n, err := lib.CountDocuments(ctx, inv.UserID)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("You have %d file(s). To delete all files, please confirm by saying 'yes, delete all my files'.", n), nil
			}
			deleted, err := lib.DeleteAllDocuments(ctx, inv.UserID)
			if err != nil {
				return "", err
			}
			if len(deleted) == 0 {
				return "You don't have any files to delete.", nil
			}
			return fmt.Sprintf("Successfully deleted %d file(s).", len(deleted)), nil
		},
	}
}
