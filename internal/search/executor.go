// Package search executes translated queries against an index store,
// choosing between the full-text path and the substring fallback and
// shaping rows into display-ready results.
package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	fserrors "github.com/fileseek/fileseek/internal/errors"
	"github.com/fileseek/fileseek/internal/query"
	"github.com/fileseek/fileseek/internal/store"
)

// timestampFormat is how result timestamps are rendered for display.
const timestampFormat = "2006-01-02 15:04"

// Options narrows a search beyond the query text.
type Options struct {
	// FileTypes restricts hits to these extensions (".pdf", ...).
	FileTypes []string
	// Modified and Created are relative date keywords
	// (today, this_week, this_month, this_year, year:YYYY).
	Modified string
	Created  string
	// Limit caps the result count; 0 or anything above the executor's
	// cap falls back to the cap.
	Limit int
}

// Result is one matching file, formatted for display. Timestamps are
// empty strings when the record has none.
type Result struct {
	Path     string
	Modified string
	Created  string
	Snippet  string
}

// Executor runs searches with a fixed snippet budget and result cap.
type Executor struct {
	snippetLength int
	maxResults    int
	now           func() time.Time
}

// NewExecutor creates an executor. snippetLength is the display budget
// in runes; maxResults is the hard cap on returned rows.
func NewExecutor(snippetLength, maxResults int) *Executor {
	return &Executor{
		snippetLength: snippetLength,
		maxResults:    maxResults,
		now:           time.Now,
	}
}

// Search translates rawQuery and executes it against st.
// Three error conditions are kept distinct for the caller: an empty
// query, missing full-text structures (re-index required), and a query
// the engine rejects as malformed. Everything else is internal.
func (e *Executor) Search(ctx context.Context, st *store.Store, rawQuery string, opts Options) ([]Result, error) {
	fts, rawTerms := query.Translate(rawQuery)
	if fts == query.Empty {
		return nil, fserrors.New(fserrors.ErrCodeQueryEmpty, "search query is empty", nil)
	}

	req := &store.SearchRequest{
		FileTypes:     lowerTypes(opts.FileTypes),
		ModifiedRange: query.DateRange(opts.Modified, e.now()),
		CreatedRange:  query.DateRange(opts.Created, e.now()),
		SnippetLength: e.snippetLength,
		Limit:         e.limit(opts.Limit),
	}

	fallback := query.NeedsFallback(rawTerms)
	if fallback {
		req.LikeTerms = rawTerms
	} else {
		req.MatchQuery = fts
	}

	started := e.now()
	hits, err := st.Search(ctx, req)
	if err != nil {
		return nil, classify(err)
	}

	slog.Info("search_complete",
		slog.String("query", rawQuery),
		slog.Bool("fallback", fallback),
		slog.Int("hits", len(hits)),
		slog.Duration("took", e.now().Sub(started)))

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, Result{
			Path:     hit.Path,
			Modified: formatTime(hit.ModifiedDate),
			Created:  formatTime(hit.CreatedDate),
			Snippet:  truncate(hit.Snippet, e.snippetLength),
		})
	}
	return results, nil
}

// limit clamps the requested result count to the executor's cap.
func (e *Executor) limit(requested int) int {
	if requested <= 0 || requested > e.maxResults {
		return e.maxResults
	}
	return requested
}

// classify maps engine errors onto the three caller-visible conditions.
// The driver exposes failure modes only as message text, so this
// sniffs strings the same way the engine reports them.
func classify(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such table: files_fts"),
		strings.Contains(msg, "no such module: fts5"),
		strings.Contains(msg, "malformed database"):
		return fserrors.New(fserrors.ErrCodeNeedsReindex,
			"full-text structures are missing or damaged, re-index required", err)
	case strings.Contains(msg, "fts5: syntax error"),
		strings.Contains(msg, "unterminated string"),
		strings.Contains(msg, "unknown special query"):
		return fserrors.New(fserrors.ErrCodeQuerySyntax,
			"search query syntax error", err)
	default:
		return fserrors.New(fserrors.ErrCodeSearchFailed, "search failed", err)
	}
}

// lowerTypes folds the type filter to the stored form: the writer
// records every file_type lowercased.
func lowerTypes(types []string) []string {
	if len(types) == 0 {
		return nil
	}
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = strings.ToLower(t)
	}
	return out
}

// truncate bounds s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

// formatTime renders an optional timestamp, empty when absent.
func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(timestampFormat)
}
