package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDateRange(t *testing.T) {
	// Friday 2026-08-21 15:30 UTC
	now := time.Date(2026, 8, 21, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		keyword  string
		wantFrom time.Time
		wantTo   time.Time
	}{
		{
			name:     "today",
			keyword:  "today",
			wantFrom: time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "this_week starts Monday",
			keyword:  "this_week",
			wantFrom: time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "this_month",
			keyword:  "this_month",
			wantFrom: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "this_year",
			keyword:  "this_year",
			wantFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "explicit year",
			keyword:  "year:2023",
			wantFrom: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DateRange(tt.keyword, now)
			assert.Equal(t, tt.wantFrom, r.From)
			assert.Equal(t, tt.wantTo, r.To)
		})
	}
}

func TestDateRange_SundayBelongsToCurrentWeek(t *testing.T) {
	// Sunday 2026-08-23
	now := time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC)

	r := DateRange("this_week", now)
	assert.Equal(t, time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC), r.From)
	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), r.To)
}

func TestDateRange_InvalidInputsResolveToNoFilter(t *testing.T) {
	now := time.Now()

	assert.True(t, DateRange("", now).IsZero())
	assert.True(t, DateRange("yesterday", now).IsZero())
	assert.True(t, DateRange("year:abcd", now).IsZero())
	assert.True(t, DateRange("year:-5", now).IsZero())
}
