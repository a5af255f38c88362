package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fserrors "github.com/fileseek/fileseek/internal/errors"
	"github.com/fileseek/fileseek/internal/store"
)

func seedStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	modA := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	modB := time.Date(2024, 2, 2, 10, 0, 0, 0, time.UTC)

	batch, err := s.BeginBatch(ctx)
	require.NoError(t, err)
	require.NoError(t, batch.Upsert(ctx, &store.FileRecord{
		Path: "/proj/guide.md", Content: "a complete python tutorial for beginners",
		FileType: ".md", ModifiedDate: &modA, CreatedDate: &modB,
	}))
	require.NoError(t, batch.Upsert(ctx, &store.FileRecord{
		Path: "/proj/notes.txt", Content: "python reference notes, no walkthrough",
		FileType: ".txt", ModifiedDate: &modB, CreatedDate: &modB,
	}))
	require.NoError(t, batch.Upsert(ctx, &store.FileRecord{
		Path: "/proj/ai.txt", Content: "short piece on ai safety",
		FileType: ".txt", ModifiedDate: &modA,
	}))
	require.NoError(t, batch.Commit())
	return s
}

func TestSearch_FullTextPath(t *testing.T) {
	// Given: a seeded store and a query of 3+ char terms
	s := seedStore(t)
	e := NewExecutor(200, 100)

	// When: searching
	results, err := e.Search(context.Background(), s, "python tutorial", Options{})
	require.NoError(t, err)

	// Then: only the document containing both terms matches
	require.Len(t, results, 1)
	assert.Equal(t, "/proj/guide.md", results[0].Path)
	assert.Equal(t, "2026-08-20 10:00", results[0].Modified)
	assert.Equal(t, "2024-02-02 10:00", results[0].Created)
	assert.Contains(t, results[0].Snippet, "tutorial")
}

func TestSearch_OrQuery(t *testing.T) {
	s := seedStore(t)
	e := NewExecutor(200, 100)

	results, err := e.Search(context.Background(), s, "tutorial OR walkthrough", Options{})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_NotQuery(t *testing.T) {
	s := seedStore(t)
	e := NewExecutor(200, 100)

	results, err := e.Search(context.Background(), s, "python -tutorial", Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/proj/notes.txt", results[0].Path)
}

func TestSearch_ShortTermTakesFallbackPath(t *testing.T) {
	// Given: a 2-char term, below the trigram minimum
	s := seedStore(t)
	e := NewExecutor(200, 100)

	// When: searching for it
	results, err := e.Search(context.Background(), s, "ai", Options{})
	require.NoError(t, err)

	// Then: the substring path finds the document containing it
	require.Len(t, results, 1)
	assert.Equal(t, "/proj/ai.txt", results[0].Path)
}

func TestSearch_MixedShortAndLongTermsStillFallBack(t *testing.T) {
	s := seedStore(t)
	e := NewExecutor(200, 100)

	results, err := e.Search(context.Background(), s, "ai safety", Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/proj/ai.txt", results[0].Path)
}

func TestSearch_FileTypeFilter(t *testing.T) {
	s := seedStore(t)
	e := NewExecutor(200, 100)

	results, err := e.Search(context.Background(), s, "python", Options{FileTypes: []string{".md"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/proj/guide.md", results[0].Path)
}

func TestSearch_FileTypeFilterIsCaseInsensitive(t *testing.T) {
	// Given: stored types are lowercased; the filter arrives uppercased
	s := seedStore(t)
	e := NewExecutor(200, 100)

	results, err := e.Search(context.Background(), s, "python", Options{FileTypes: []string{".MD"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/proj/guide.md", results[0].Path)
}

func TestSearch_ModifiedKeywordFilter(t *testing.T) {
	// Given: executor time pinned inside the window of one document
	s := seedStore(t)
	e := NewExecutor(200, 100)
	e.now = func() time.Time { return time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC) }

	results, err := e.Search(context.Background(), s, "python", Options{Modified: "this_year"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/proj/guide.md", results[0].Path)
}

func TestSearch_MissingTimestampRendersEmpty(t *testing.T) {
	s := seedStore(t)
	e := NewExecutor(200, 100)

	results, err := e.Search(context.Background(), s, "safety", Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Created)
	assert.NotEmpty(t, results[0].Modified)
}

func TestSearch_SnippetTruncatedToBudget(t *testing.T) {
	// Given: a tiny snippet budget
	s := seedStore(t)
	e := NewExecutor(10, 100)

	results, err := e.Search(context.Background(), s, "python", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.LessOrEqual(t, len([]rune(strings.TrimSuffix(r.Snippet, "…"))), 10)
	}
}

func TestSearch_LimitCapsResults(t *testing.T) {
	s := seedStore(t)
	e := NewExecutor(200, 100)

	results, err := e.Search(context.Background(), s, "python", Options{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, results, 1)

	// Requests above the cap are clamped to it
	e = NewExecutor(200, 1)
	results, err = e.Search(context.Background(), s, "python", Options{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearch_EmptyQueryIsDistinct(t *testing.T) {
	s := seedStore(t)
	e := NewExecutor(200, 100)

	_, err := e.Search(context.Background(), s, "   ", Options{})
	assert.ErrorIs(t, err, fserrors.ErrEmptyQuery)
}

func TestClassify_ThreeConditions(t *testing.T) {
	reindex := classify(fmt.Errorf("SQL logic error: no such table: files_fts (1)"))
	assert.Equal(t, fserrors.ErrCodeNeedsReindex, fserrors.CodeOf(reindex))

	syntax := classify(fmt.Errorf("SQL logic error: fts5: syntax error near \"(\""))
	assert.Equal(t, fserrors.ErrCodeQuerySyntax, fserrors.CodeOf(syntax))

	internal := classify(errors.New("disk I/O error"))
	assert.Equal(t, fserrors.ErrCodeSearchFailed, fserrors.CodeOf(internal))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exact", truncate("exact", 5))
	assert.Equal(t, "abcde…", truncate("abcdefgh", 5))
	assert.Equal(t, "東京…", truncate("東京都庁舎", 2))
}
