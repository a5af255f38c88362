// Package extract turns files into plain text for indexing.
//
// The contract at this boundary is strict: extraction never fails past
// it. Any internal error degrades to an empty string plus a log record,
// so one unreadable file can never abort an indexing run. Dispatch is by
// file extension; formats without a registered extractor fall back to
// the plain-text reader.
package extract

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Extractor maps a file path to its extracted plain text.
type Extractor interface {
	// Extract returns the text content of the file at path.
	// Implementations report failure through the error; the Registry
	// absorbs it so callers above the boundary only ever see text.
	Extract(path string) (string, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(path string) (string, error)

// Extract implements Extractor.
func (f ExtractorFunc) Extract(path string) (string, error) {
	return f(path)
}

// Registry dispatches extraction by file extension.
type Registry struct {
	byExt    map[string]Extractor
	fallback Extractor
}

// NewRegistry creates a registry with the plain-text reader as the
// fallback for unregistered extensions.
func NewRegistry() *Registry {
	return &Registry{
		byExt:    make(map[string]Extractor),
		fallback: ExtractorFunc(PlainText),
	}
}

// Register binds an extractor to one or more extensions (".pdf", ".docx", ...).
// Extensions are matched case-insensitively.
func (r *Registry) Register(e Extractor, exts ...string) {
	for _, ext := range exts {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// Extract returns the text content of path, or "" on any failure.
// Failures are logged, never propagated.
func (r *Registry) Extract(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.byExt[ext]
	if !ok {
		e = r.fallback
	}

	text, err := e.Extract(path)
	if err != nil {
		slog.Error("extract_failed",
			slog.String("path", path),
			slog.String("ext", ext),
			slog.String("error", err.Error()))
		return ""
	}
	return text
}

// PlainText reads a file as UTF-8 text, replacing NUL bytes that would
// otherwise confuse the full-text tokenizer.
func PlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(string(data), "\x00", ""), nil
}
