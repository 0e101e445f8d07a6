package engine

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountCandidate is one currency-tagged numeric match. Candidates only live
// for the duration of a single extraction call.
type AmountCandidate struct {
	Raw      string
	Currency Currency
	Value    decimal.Decimal
	Position int
}

// numberPattern matches digit groups with optional period/comma thousands
// separators and an optional one-or-two digit fraction.
const numberPattern = `\d+(?:[.,]\d{3})*(?:[.,]\d{1,2})?`

type currencySpec struct {
	currency Currency
	symbols  []string
	codes    []string
}

// currencySpecs declares the surface forms each currency takes on a printed
// bill: currency symbols (valid as prefix or suffix) and ISO-like codes.
var currencySpecs = []currencySpec{
	{CurrencyUSD, []string{"$", "US$"}, []string{"USD"}},
	{CurrencyEUR, []string{"€"}, []string{"EUR"}},
	{CurrencyGBP, []string{"£"}, []string{"GBP"}},
	{CurrencyTRY, []string{"₺", "TL"}, []string{"TRY"}},
	{CurrencyCAD, []string{"C$", "CA$"}, []string{"CAD"}},
	{CurrencyAUD, []string{"A$", "AU$"}, []string{"AUD"}},
	{CurrencyJPY, []string{"¥"}, []string{"JPY"}},
	{CurrencyCHF, []string{"Fr."}, []string{"CHF"}},
	{CurrencySEK, []string{"kr"}, []string{"SEK"}},
	{CurrencyNOK, []string{"kr"}, []string{"NOK"}},
}

var amountPatterns = buildAmountPatterns()

func buildAmountPatterns() map[Currency][]*regexp.Regexp {
	patterns := make(map[Currency][]*regexp.Regexp, len(currencySpecs))
	for _, spec := range currencySpecs {
		var res []*regexp.Regexp
		for _, sym := range spec.symbols {
			q := regexp.QuoteMeta(sym)
			if isAlphabetic(sym) {
				// Alphabetic tokens like "TL" or "kr" need word boundaries
				// so they do not fire inside ordinary words.
				res = append(res,
					regexp.MustCompile(`(?i)\b`+q+`\s*(`+numberPattern+`)`),
					regexp.MustCompile(`(?i)(`+numberPattern+`)\s*`+q+`\b`))
			} else {
				res = append(res,
					regexp.MustCompile(q+`\s*(`+numberPattern+`)`),
					regexp.MustCompile(`(`+numberPattern+`)\s*`+q))
			}
		}
		for _, code := range spec.codes {
			q := regexp.QuoteMeta(code)
			res = append(res, regexp.MustCompile(`(?i)\b`+q+`\s*(`+numberPattern+`)`))
		}
		patterns[spec.currency] = res
	}
	return patterns
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return len(s) > 0
}

// ExtractAmount scans the text for currency-tagged amounts. Currencies are
// tried in order: explicit hint, locale primary, then the fixed enumeration
// order. The first currency producing at least one valid match wins, and
// among that currency's matches the largest value is taken: bills list
// subtotal and tax lines before the total, and the total is the largest
// number on the page. Returns nil when nothing matched.
func ExtractAmount(text string, locale LocaleInfo, hint Currency) *ExtractedAmount {
	for _, cur := range currencyTryOrder(hint, locale.PrimaryCurrency) {
		best := bestCandidateFor(text, cur, locale.Separator)
		if best != nil {
			return &ExtractedAmount{Value: best.Value, Currency: best.Currency, Raw: best.Raw}
		}
	}
	return nil
}

// bestCandidateFor returns the largest-value valid match for one currency.
func bestCandidateFor(text string, cur Currency, conv SeparatorConvention) *AmountCandidate {
	var best *AmountCandidate
	for _, re := range amountPatterns[cur] {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			value, ok := parseLocalizedNumber(text[m[2]:m[3]], conv)
			if !ok || !value.IsPositive() {
				continue
			}
			if best == nil || value.GreaterThan(best.Value) {
				best = &AmountCandidate{
					Raw:      text[m[0]:m[1]],
					Currency: cur,
					Value:    value,
					Position: m[0],
				}
			}
		}
	}
	return best
}

// currencyTryOrder builds the ordered, deduplicated list of currencies to
// attempt: explicit hint first, then the locale's primary currency, then the
// remaining currencies in enumeration order.
func currencyTryOrder(hint, primary Currency) []Currency {
	order := make([]Currency, 0, len(Currencies)+2)
	seen := make(map[Currency]bool, len(Currencies)+2)
	add := func(c Currency) {
		if c != "" && !seen[c] {
			seen[c] = true
			order = append(order, c)
		}
	}
	add(hint)
	add(primary)
	for _, c := range Currencies {
		add(c)
	}
	return order
}

var (
	trailingCommaCents  = regexp.MustCompile(`,\d{2}$`)
	trailingPeriodCents = regexp.MustCompile(`\.\d{2}$`)
)

// parseLocalizedNumber resolves the decimal separator of a matched numeric
// substring and parses it. A trailing comma plus exactly two digits marks a
// decimal comma, a trailing period plus exactly two digits a decimal period;
// anything else falls back to the locale convention. This can misread a
// thousands-grouped integer whose last group happens to look like cents;
// that ambiguity is inherent to OCR text and accepted.
func parseLocalizedNumber(s string, conv SeparatorConvention) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	var normalized string
	switch {
	case trailingCommaCents.MatchString(s), trailingPeriodCents.MatchString(s):
		normalized = digitsOf(s[:len(s)-3]) + "." + s[len(s)-2:]
	default:
		sep := ","
		if conv == PeriodDecimal {
			sep = "."
		}
		if i := strings.LastIndex(s, sep); i >= 0 && i < len(s)-1 {
			normalized = digitsOf(s[:i]) + "." + digitsOf(s[i+1:])
		} else {
			normalized = digitsOf(s)
		}
	}

	if normalized == "" || normalized[0] == '.' {
		return decimal.Zero, false
	}
	value, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, false
	}
	return value, true
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
