package query

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/fileseek/fileseek/internal/store"
)

// DateRange resolves a relative date keyword into absolute bounds.
// Recognized keywords: today, this_week (weeks start Monday),
// this_month, this_year, year:YYYY. An empty keyword means no filter.
// Unrecognized keywords and unparseable years are logged and resolve
// to no filter rather than failing the search.
func DateRange(keyword string, now time.Time) store.TimeRange {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return store.TimeRange{}
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case keyword == "today":
		return store.TimeRange{From: midnight, To: midnight.AddDate(0, 0, 1)}

	case keyword == "this_week":
		daysSinceMonday := (int(now.Weekday()) + 6) % 7
		monday := midnight.AddDate(0, 0, -daysSinceMonday)
		return store.TimeRange{From: monday, To: monday.AddDate(0, 0, 7)}

	case keyword == "this_month":
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return store.TimeRange{From: first, To: first.AddDate(0, 1, 0)}

	case keyword == "this_year":
		first := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return store.TimeRange{From: first, To: first.AddDate(1, 0, 0)}

	case strings.HasPrefix(keyword, "year:"):
		year, err := strconv.Atoi(strings.TrimPrefix(keyword, "year:"))
		if err != nil || year < 1 {
			slog.Warn("date_filter_invalid_year", slog.String("keyword", keyword))
			return store.TimeRange{}
		}
		first := time.Date(year, 1, 1, 0, 0, 0, 0, now.Location())
		return store.TimeRange{From: first, To: first.AddDate(1, 0, 0)}
	}

	slog.Warn("date_filter_unknown_keyword", slog.String("keyword", keyword))
	return store.TimeRange{}
}
