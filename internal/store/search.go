package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// TimeRange bounds a timestamp column. Zero endpoints are unbounded.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether the range imposes no bound.
func (r TimeRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// SearchRequest describes one search against a store. Exactly one of
// MatchQuery and LikeTerms drives content matching: MatchQuery runs the
// full-text path, LikeTerms the substring fallback used when a term is
// too short for the trigram tokenizer.
type SearchRequest struct {
	MatchQuery string
	LikeTerms  []string

	FileTypes     []string
	ModifiedRange TimeRange
	CreatedRange  TimeRange

	SnippetLength int
	Limit         int
}

// SearchHit is one matching record.
type SearchHit struct {
	Path         string
	ModifiedDate *time.Time
	CreatedDate  *time.Time
	Snippet      string
}

// Search runs the request and returns up to Limit hits. The full-text
// path orders by relevance rank; the fallback path returns rows in
// storage order with a content prefix standing in for the snippet.
func (s *Store) Search(ctx context.Context, req *SearchRequest) ([]SearchHit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	if len(req.LikeTerms) > 0 {
		return s.searchLike(ctx, req)
	}
	return s.searchMatch(ctx, req)
}

func (s *Store) searchMatch(ctx context.Context, req *SearchRequest) ([]SearchHit, error) {
	var sb strings.Builder
	args := []any{req.MatchQuery}

	// snippet() token budget is capped at 64 by FTS5; the executor trims
	// the text down to its character budget afterwards.
	sb.WriteString(`SELECT files.path, files.modified_date, files.created_date,
		snippet(files_fts, 1, '', '', '...', 32)
		FROM files_fts
		INNER JOIN files ON files.path = files_fts.path
		WHERE files_fts MATCH ?`)

	appendFilters(&sb, &args, "files.", req)

	sb.WriteString(` ORDER BY rank LIMIT ?`)
	args = append(args, req.Limit)

	return s.scanHits(ctx, sb.String(), args)
}

func (s *Store) searchLike(ctx context.Context, req *SearchRequest) ([]SearchHit, error) {
	var sb strings.Builder
	var args []any

	sb.WriteString(`SELECT path, modified_date, created_date, substr(content, 1, ?)
		FROM files WHERE 1=1`)
	args = append(args, req.SnippetLength)

	for _, term := range req.LikeTerms {
		sb.WriteString(` AND content LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(term)+"%")
	}

	appendFilters(&sb, &args, "", req)

	sb.WriteString(` LIMIT ?`)
	args = append(args, req.Limit)

	return s.scanHits(ctx, sb.String(), args)
}

// appendFilters adds the type and date predicates shared by both paths.
// prefix qualifies column names when the query joins the shadow table.
func appendFilters(sb *strings.Builder, args *[]any, prefix string, req *SearchRequest) {
	if len(req.FileTypes) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(req.FileTypes)), ", ")
		fmt.Fprintf(sb, ` AND %sfile_type IN (%s)`, prefix, placeholders)
		for _, ft := range req.FileTypes {
			*args = append(*args, ft)
		}
	}
	appendRange(sb, args, prefix+"modified_date", req.ModifiedRange)
	appendRange(sb, args, prefix+"created_date", req.CreatedRange)
}

func appendRange(sb *strings.Builder, args *[]any, column string, r TimeRange) {
	if !r.From.IsZero() {
		fmt.Fprintf(sb, ` AND %s >= ?`, column)
		t := r.From
		*args = append(*args, unixOrNil(&t))
	}
	if !r.To.IsZero() {
		fmt.Fprintf(sb, ` AND %s < ?`, column)
		t := r.To
		*args = append(*args, unixOrNil(&t))
	}
}

func (s *Store) scanHits(ctx context.Context, query string, args []any) ([]SearchHit, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var hit SearchHit
		var mtime, ctime sql.NullFloat64
		var snippet sql.NullString
		if err := rows.Scan(&hit.Path, &mtime, &ctime, &snippet); err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}
		hit.ModifiedDate = timePtrFromUnix(mtime)
		hit.CreatedDate = timePtrFromUnix(ctime)
		hit.Snippet = snippet.String
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// escapeLike escapes the LIKE wildcards and the escape character itself
// so terms match literally.
func escapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}
