package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveLocaleKnownLocales(t *testing.T) {
	tests := []struct {
		language   string
		country    string
		currency   Currency
		separator  SeparatorConvention
		monthFirst bool
		keyword    string
	}{
		{"en", "US", CurrencyUSD, PeriodDecimal, true, "due date"},
		{"en", "GB", CurrencyGBP, PeriodDecimal, false, "due date"},
		{"de", "DE", CurrencyEUR, CommaDecimal, false, "fälligkeit"},
		{"tr", "TR", CurrencyTRY, CommaDecimal, false, "son ödeme"},
		{"fr", "FR", CurrencyEUR, CommaDecimal, false, "échéance"},
		{"sv", "SE", CurrencySEK, CommaDecimal, false, "förfallodag"},
		{"ja", "JP", CurrencyJPY, PeriodDecimal, false, "due date"}, // no ja keyword table: English fallback
	}
	for _, tt := range tests {
		t.Run(tt.language+"-"+tt.country, func(t *testing.T) {
			info := ResolveLocale(tt.language, tt.country)
			assert.Equal(t, tt.currency, info.PrimaryCurrency)
			assert.Equal(t, tt.separator, info.Separator)
			assert.Equal(t, tt.monthFirst, info.MonthFirst)
			assert.Contains(t, info.DueDateKeywords, tt.keyword)
		})
	}
}

func TestResolveLocaleUnknownFallsBackToEnglishUSD(t *testing.T) {
	info := ResolveLocale("xx", "ZZ")
	assert.Equal(t, CurrencyUSD, info.PrimaryCurrency)
	assert.Equal(t, PeriodDecimal, info.Separator)
	assert.True(t, info.MonthFirst)
	assert.Contains(t, info.DueDateKeywords, "due date")
}

func TestResolveLocaleNormalizesCase(t *testing.T) {
	info := ResolveLocale("TR", " tr ")
	assert.Equal(t, CurrencyTRY, info.PrimaryCurrency)
}
