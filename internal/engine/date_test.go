package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDueDateKeywordAnchored(t *testing.T) {
	text := "Rechnung Nr. 4711\nFälligkeit: 15.03.2024\nBetrag: 89,90 €"
	got := ExtractDueDate(text, ResolveLocale("de", "DE"))
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), got.Date)
	assert.Equal(t, "15.03.2024", got.Raw)
	assert.Equal(t, "DD.MM.YYYY", got.Format)
}

func TestExtractDueDateInvalidCalendarDates(t *testing.T) {
	locale := ResolveLocale("de", "DE")
	tests := []struct {
		name string
		text string
	}{
		{"day 32 rejected even next to keyword", "Fälligkeit: 32.03.2024"},
		{"month 13 rejected", "Fälligkeit: 15.13.2024"},
		{"february 30 rejected", "Fälligkeit: 30.02.2024"},
		{"year before 2020 rejected", "Fälligkeit: 15.03.2019"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, ExtractDueDate(tt.text, locale))
		})
	}
}

func TestExtractDueDateSingleUnambiguousCandidate(t *testing.T) {
	// No keyword anywhere, but only one valid date: accept it.
	got := ExtractDueDate("Vertrag vom 05.06.2024 über Stromlieferung", ResolveLocale("de", "DE"))
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC), got.Date)
}

func TestExtractDueDateAmbiguousWithoutKeyword(t *testing.T) {
	// Two valid dates and no due-date keyword near either: do not guess.
	text := "Rechnungsdatum 01.02.2024 Lieferdatum 05.02.2024"
	assert.Nil(t, ExtractDueDate(text, ResolveLocale("de", "DE")))
}

func TestExtractDueDateKeywordOutsideWindow(t *testing.T) {
	// The keyword sits more than 50 characters away from both dates, so
	// neither is anchored and two candidates stay ambiguous.
	filler := strings.Repeat("x", 80)
	text := "fälligkeit " + filler + " 01.02.2024 " + filler + " 05.02.2024"
	assert.Nil(t, ExtractDueDate(text, ResolveLocale("de", "DE")))
}

func TestExtractDueDateKeywordSelectsAmongSeveral(t *testing.T) {
	// The issue date is far from any keyword; only the second date is
	// anchored and must win despite appearing later in the text.
	text := "Rechnungsdatum: 01.02.2024 " + strings.Repeat(". ", 30) + "Zahlbar bis 28.02.2024"
	got := ExtractDueDate(text, ResolveLocale("de", "DE"))
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC), got.Date)
}

func TestExtractDueDateMonthFirstLocale(t *testing.T) {
	text := "Due date: 03/15/2024"
	got := ExtractDueDate(text, ResolveLocale("en", "US"))
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), got.Date)
	assert.Equal(t, "MM/DD/YYYY", got.Format)
}

func TestExtractDueDateISOFormat(t *testing.T) {
	text := "son ödeme tarihi: 2024-11-30"
	got := ExtractDueDate(text, ResolveLocale("tr", "TR"))
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, time.November, 30, 0, 0, 0, 0, time.UTC), got.Date)
	assert.Equal(t, "YYYY-MM-DD", got.Format)
}

func TestValidCalendarDate(t *testing.T) {
	assert.True(t, validCalendarDate(29, 2, 2024))  // leap year
	assert.False(t, validCalendarDate(29, 2, 2023)) // not a leap year
	assert.False(t, validCalendarDate(0, 1, 2024))
	assert.False(t, validCalendarDate(31, 4, 2024))
}
