package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/markdave123-py/Devmate/internal/core"
)

const (
	maxReadChars = 20000
	maxReadBytes = maxReadChars * utf8.UTFMax
)

// UserFileKey is the object key of a file a user created through write_file.
func UserFileKey(userID, fileName string) (string, error) {
	name := path.Base(path.Clean("/" + strings.TrimSpace(fileName)))
	if name == "/" || name == "." || name == "" {
		return "", fmt.Errorf("invalid file name %q", fileName)
	}
	return path.Join("users", userID, "files", name), nil
}

func writeFileTool(obj core.ObjectClient) *Tool {
	return &Tool{
		Name:        "write_file",
		Description: "Create a text file in the user's storage. Existing files are never overwritten; choose another name if one exists.",
		Parameters: objectSchema(map[string]any{
			"filename": stringParam("File name, e.g. notes.md"),
			"content":  stringParam("Text content of the file"),
		}, "filename", "content"),
		Handler: func(ctx context.Context, inv Invocation) (string, error) {
			name, err := requiredString(inv.Args, "filename")
			if err != nil {
				return "", err
			}
			key, err := UserFileKey(inv.UserID, name)
			if err != nil {
				return "", err
			}

			content, _ := inv.Args["content"].(string)
			url, err := obj.CreateFile(ctx, key, []byte(content), "text/plain; charset=utf-8")
			if errors.Is(err, core.ErrObjectExists) {
				return fmt.Sprintf("A file named '%s' already exists. Would you like to read it, or choose another filename?", path.Base(key)), nil
			}
			if err != nil {
				return "", fmt.Errorf("write %s: %w", name, err)
			}
			return fmt.Sprintf("File created successfully: %s. Download link: %s", path.Base(key), url), nil
		},
	}
}

func readFileTool(obj core.ObjectClient) *Tool {
	return &Tool{
		Name:        "read_file",
		Description: "Read a text file previously created in the user's storage.",
		Parameters: objectSchema(map[string]any{
			"filename": stringParam("File name to read"),
		}, "filename"),
		Handler: func(ctx context.Context, inv Invocation) (string, error) {
			name, err := requiredString(inv.Args, "filename")
			if err != nil {
				return "", err
			}
			key, err := UserFileKey(inv.UserID, name)
			if err != nil {
				return "", err
			}

			rc, err := obj.GetObjectReader(ctx, key)
			if errors.Is(err, core.ErrObjectNotFound) {
				return fmt.Sprintf("File not found: %s", path.Base(key)), nil
			}
			if err != nil {
				return "", fmt.Errorf("read %s: %w", name, err)
			}
			defer rc.Close()

			data, err := io.ReadAll(io.LimitReader(rc, maxReadBytes+1))
			if err != nil {
				return "", fmt.Errorf("read %s: %w", name, err)
			}
			truncated := len(data) > maxReadBytes
			if truncated {
				data = trimPartialRune(data[:maxReadBytes])
			}
			if !utf8.Valid(data) {
				return fmt.Sprintf("File %s is not a text file.", path.Base(key)), nil
			}

			text := string(data)
			if utf8.RuneCountInString(text) > maxReadChars {
				text = string([]rune(text)[:maxReadChars])
				truncated = true
			}
			if truncated {
				text += "\n...(truncated)"
			}
			return text, nil
		},
	}
}

// trimPartialRune drops an incomplete UTF-8 sequence left by a byte cap.
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax-1 && len(b) > 0; i++ {
		if r, size := utf8.DecodeLastRune(b); r != utf8.RuneError || size != 1 {
			break
		}
		b = b[:len(b)-1]
	}
	return b
}
