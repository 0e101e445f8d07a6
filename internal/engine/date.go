package engine

import (
	"regexp"
	"strings"
	"time"
)

// minDueYear rejects dates from before the product existed; they are almost
// always invoice numbers or meter readings misread as dates.
const minDueYear = 2020

// keywordWindow is the number of characters inspected on each side of a date
// match when looking for a due-date keyword.
const keywordWindow = 50

// DateCandidate is one date-like substring found in the text, before and
// after calendar validation.
type DateCandidate struct {
	Day, Month, Year int
	Raw              string
	Format           string
	NearKeyword      bool
	Position         int
}

type datePattern struct {
	re       *regexp.Regexp
	format   string
	dayIdx   int
	monthIdx int
	yearIdx  int
}

// dayFirstPatterns is the pattern order for DD-first locales; monthFirstPatterns
// for the US. The slash/dash patterns are identical regexes read differently,
// so order and group mapping are the only locale-sensitive parts.
var (
	dayFirstPatterns = []datePattern{
		{regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.(\d{4})\b`), "DD.MM.YYYY", 1, 2, 3},
		{regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`), "DD/MM/YYYY", 1, 2, 3},
		{regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{4})\b`), "DD-MM-YYYY", 1, 2, 3},
		{regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`), "YYYY-MM-DD", 3, 2, 1},
	}
	monthFirstPatterns = []datePattern{
		{regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`), "MM/DD/YYYY", 2, 1, 3},
		{regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{4})\b`), "MM-DD-YYYY", 2, 1, 3},
		{regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`), "YYYY-MM-DD", 3, 2, 1},
		{regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.(\d{4})\b`), "DD.MM.YYYY", 1, 2, 3},
	}
)

// ExtractDueDate finds the payment due date in the text. Every date-like
// substring is validated as a real calendar date, then a due-date keyword is
// searched for in a window around each match. The first keyword-anchored
// valid date wins; with no keyword anchor a single unambiguous valid date is
// accepted; multiple unanchored dates mean the due date stays absent rather
// than guessed.
func ExtractDueDate(text string, locale LocaleInfo) *ExtractedDueDate {
	candidates := collectDateCandidates(text, locale)

	for _, c := range candidates {
		if c.NearKeyword {
			return candidateToDate(c)
		}
	}
	if len(candidates) == 1 {
		return candidateToDate(candidates[0])
	}
	return nil
}

func candidateToDate(c DateCandidate) *ExtractedDueDate {
	return &ExtractedDueDate{
		Date:   time.Date(c.Year, time.Month(c.Month), c.Day, 0, 0, 0, 0, time.UTC),
		Raw:    c.Raw,
		Format: c.Format,
	}
}

// collectDateCandidates returns all validated candidates in pattern order.
// When several patterns match the same position the first pattern's reading
// wins, so one printed date never counts as two candidates.
func collectDateCandidates(text string, locale LocaleInfo) []DateCandidate {
	patterns := dayFirstPatterns
	if locale.MonthFirst {
		patterns = monthFirstPatterns
	}

	var candidates []DateCandidate
	seen := make(map[int]bool)
	for _, p := range patterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(text, -1) {
			if seen[m[0]] {
				continue
			}
			day := atoiGroup(text, m, p.dayIdx)
			month := atoiGroup(text, m, p.monthIdx)
			year := atoiGroup(text, m, p.yearIdx)
			if !validCalendarDate(day, month, year) {
				continue
			}
			seen[m[0]] = true
			candidates = append(candidates, DateCandidate{
				Day:         day,
				Month:       month,
				Year:        year,
				Raw:         text[m[0]:m[1]],
				Format:      p.format,
				NearKeyword: keywordNear(text, m[0], m[1], locale.DueDateKeywords),
				Position:    m[0],
			})
		}
	}
	return candidates
}

func atoiGroup(text string, m []int, group int) int {
	s := text[m[2*group] : m[2*group+1]]
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

// keywordNear reports whether any due-date keyword appears in the window
// around a match. Lower-casing happens on the window, not the whole text:
// some characters change byte length under ToLower and would shift the
// match offsets.
func keywordNear(text string, start, end int, keywords []string) bool {
	from := start - keywordWindow
	if from < 0 {
		from = 0
	}
	to := end + keywordWindow
	if to > len(text) {
		to = len(text)
	}
	window := strings.ToLower(text[from:to])
	for _, kw := range keywords {
		if strings.Contains(window, kw) {
			return true
		}
	}
	return false
}

// validCalendarDate rejects impossible day/month/year combinations,
// including real-calendar overflow like Feb 30.
func validCalendarDate(day, month, year int) bool {
	if year < minDueYear || month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}
