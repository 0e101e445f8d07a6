package engine

import (
	"regexp"
	"strings"
	"unicode"
)

// Company extraction confidences: a hit from the winning type's known
// company list beats either structural fallback.
const (
	knownCompanyConfidence   = 0.95
	genericCompanyConfidence = 0.7
)

// legalEntityPattern finds a capitalized word sequence followed by a
// legal-entity suffix, e.g. "Acme Utilities Ltd" or "Stadtwerke GmbH".
// Runs against the original (non-normalized) text since capitalization is
// the signal.
var legalEntityPattern = regexp.MustCompile(
	`(\p{Lu}[\p{L}&.'-]*(?:[ \t]+\p{Lu}[\p{L}&.'-]*){0,4})[ \t]+` +
		`(Ltd\.?|Inc\.?|LLC|GmbH|AG|A\.Ş\.|AŞ|S\.A\.|SA|B\.V\.|BV|AB|PLC|Co\.)`)

// capsStopwords are all-caps tokens that show up on nearly every bill and
// are never company names.
var capsStopwords = map[string]bool{
	"TOTAL": true, "AMOUNT": true, "DUE": true, "DATE": true, "INVOICE": true,
	"FATURA": true, "TOPLAM": true, "KDV": true, "TAX": true, "VAT": true,
	"IBAN": true, "TL": true, "USD": true, "EUR": true, "GBP": true, "TRY": true,
}

// ExtractCompany finds the issuing company. The winning type's known-company
// list is tried first (case-insensitive substring, first hit wins); failing
// that, two generic structural heuristics: a capitalized sequence with a
// legal-entity suffix, then the longest run of consecutive all-uppercase
// words. Returns nil when nothing plausible is found.
func ExtractCompany(text string, knownCompanies []string) *CompanyMatch {
	lower := strings.ToLower(text)
	for _, name := range knownCompanies {
		if strings.Contains(lower, strings.ToLower(name)) {
			return &CompanyMatch{Name: name, Confidence: knownCompanyConfidence}
		}
	}

	if m := legalEntityPattern.FindString(text); m != "" {
		return &CompanyMatch{Name: strings.TrimSpace(m), Confidence: genericCompanyConfidence}
	}

	if run := longestUppercaseRun(text); run != "" {
		return &CompanyMatch{Name: run, Confidence: genericCompanyConfidence}
	}
	return nil
}

// longestUppercaseRun returns the longest sequence of consecutive all-caps
// words. Single words are too noisy on bills (TOTAL, KDV, ...) so a run must
// span at least two words; earlier runs win ties.
func longestUppercaseRun(text string) string {
	words := strings.Fields(text)
	var best, current []string
	flush := func() {
		if len(current) >= 2 && len(current) > len(best) {
			best = current
		}
		current = nil
	}
	for _, w := range words {
		trimmed := strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if isUppercaseWord(trimmed) && !capsStopwords[trimmed] {
			current = append(current, trimmed)
			continue
		}
		flush()
	}
	flush()
	return strings.Join(best, " ")
}

// isUppercaseWord requires at least two letters, all of them uppercase;
// digits are allowed after the first letter ("O2", "A101").
func isUppercaseWord(w string) bool {
	letters := 0
	for i, r := range w {
		switch {
		case unicode.IsUpper(r):
			letters++
		case unicode.IsNumber(r) && i > 0:
		default:
			return false
		}
	}
	return letters >= 2
}
