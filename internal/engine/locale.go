package engine

import "strings"

// SeparatorConvention says how an ambiguous numeric string should be read
// when its own shape does not settle the question.
type SeparatorConvention int

const (
	// PeriodDecimal reads "1,234.56" style numbers (US/UK).
	PeriodDecimal SeparatorConvention = iota
	// CommaDecimal reads "1.234,56" style numbers (continental Europe).
	CommaDecimal
)

// LocaleInfo is everything the extraction steps need to know about a locale:
// the country's primary currency, the language's due-date vocabulary and the
// preferred decimal-separator convention.
type LocaleInfo struct {
	PrimaryCurrency Currency
	DueDateKeywords []string
	Separator       SeparatorConvention
	// MonthFirst selects MM/DD date reading; only US-style locales set it.
	MonthFirst bool
}

// countryCurrencies maps ISO country codes to their primary currency.
var countryCurrencies = map[string]Currency{
	"US": CurrencyUSD,
	"DE": CurrencyEUR,
	"FR": CurrencyEUR,
	"ES": CurrencyEUR,
	"IT": CurrencyEUR,
	"NL": CurrencyEUR,
	"AT": CurrencyEUR,
	"BE": CurrencyEUR,
	"PT": CurrencyEUR,
	"FI": CurrencyEUR,
	"IE": CurrencyEUR,
	"GB": CurrencyGBP,
	"TR": CurrencyTRY,
	"CA": CurrencyCAD,
	"AU": CurrencyAUD,
	"JP": CurrencyJPY,
	"CH": CurrencyCHF,
	"SE": CurrencySEK,
	"NO": CurrencyNOK,
}

// dueDateKeywords maps language codes to the phrases whose proximity to a
// date marks it as the payment due date. Order matters: more specific
// phrases come first so reasoning strings show the strongest evidence.
var dueDateKeywords = map[string][]string{
	"en": {"due date", "payment due", "pay by", "due by", "amount due", "due on"},
	"de": {"fälligkeitsdatum", "fälligkeit", "fällig am", "zahlbar bis", "zahlungsziel"},
	"tr": {"son ödeme tarihi", "son ödeme", "ödeme tarihi", "vade tarihi", "son odeme"},
	"fr": {"date d'échéance", "échéance", "à payer avant", "payable avant"},
	"es": {"fecha de vencimiento", "vencimiento", "fecha límite", "pagar antes de"},
	"it": {"data di scadenza", "scadenza", "pagare entro"},
	"nl": {"vervaldatum", "uiterste betaaldatum", "betalen voor"},
	"sv": {"förfallodag", "förfallodatum", "betalas senast"},
	"no": {"forfallsdato", "betalingsfrist", "betales innen"},
}

// periodDecimalCountries are the locales that write amounts as "1,234.56".
// Everything else defaults to the continental "1.234,56" style.
var periodDecimalCountries = map[string]bool{
	"US": true,
	"GB": true,
	"CA": true,
	"AU": true,
	"IE": true,
	"JP": true,
}

// ResolveLocale maps a (language, country) pair to its extraction defaults.
// Unrecognized inputs fall back to English/USD with period decimals; it
// never fails.
func ResolveLocale(language, country string) LocaleInfo {
	language = strings.ToLower(strings.TrimSpace(language))
	country = strings.ToUpper(strings.TrimSpace(country))

	info := LocaleInfo{
		PrimaryCurrency: CurrencyUSD,
		DueDateKeywords: dueDateKeywords["en"],
		Separator:       PeriodDecimal,
	}

	c, known := countryCurrencies[country]
	if known {
		info.PrimaryCurrency = c
		if !periodDecimalCountries[country] {
			info.Separator = CommaDecimal
		}
	}
	// Unknown countries inherit the full US-style default, dates included.
	info.MonthFirst = country == "US" || !known
	if kws, ok := dueDateKeywords[language]; ok {
		info.DueDateKeywords = kws
	}
	return info
}
