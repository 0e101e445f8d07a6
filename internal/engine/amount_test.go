package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAmountSeparatorDisambiguation(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		language string
		country  string
		want     string
		currency Currency
	}{
		{
			name:     "european thousands with decimal comma",
			text:     "Gesamtbetrag: 1.234,56 €",
			language: "de",
			country:  "DE",
			want:     "1234.56",
			currency: CurrencyEUR,
		},
		{
			name:     "us decimal period",
			text:     "Total due: $89.99",
			language: "en",
			country:  "US",
			want:     "89.99",
			currency: CurrencyUSD,
		},
		{
			name:     "turkish decimal comma with TL suffix",
			text:     "Ödenecek tutar: 130,50 TL",
			language: "tr",
			country:  "TR",
			want:     "130.5",
			currency: CurrencyTRY,
		},
		{
			name:     "us thousands with comma",
			text:     "Balance: $1,234.56",
			language: "en",
			country:  "US",
			want:     "1234.56",
			currency: CurrencyUSD,
		},
		{
			name:     "iso code prefix",
			text:     "USD 42.00 payable on receipt",
			language: "en",
			country:  "US",
			want:     "42",
			currency: CurrencyUSD,
		},
		{
			name:     "euro found under us locale via enumeration order",
			text:     "Montant: 1.234,56 €",
			language: "en",
			country:  "US",
			want:     "1234.56",
			currency: CurrencyEUR,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locale := ResolveLocale(tt.language, tt.country)
			got := ExtractAmount(tt.text, locale, "")
			require.NotNil(t, got)
			assert.Equal(t, tt.currency, got.Currency)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got.Value),
				"want %s, got %s", tt.want, got.Value)
		})
	}
}

func TestExtractAmountPicksLargestValue(t *testing.T) {
	text := "Subtotal: $45.50\nTax: $4.55\nTotal: $50.05\nThank you"
	got := ExtractAmount(text, ResolveLocale("en", "US"), "")
	require.NotNil(t, got)
	assert.Equal(t, CurrencyUSD, got.Currency)
	assert.True(t, decimal.RequireFromString("50.05").Equal(got.Value))
	assert.Equal(t, "$50.05", got.Raw)
}

func TestExtractAmountHintBeatsLocalePrimary(t *testing.T) {
	text := "Amount: $100.00 (approx. €95.50)"
	got := ExtractAmount(text, ResolveLocale("en", "US"), CurrencyEUR)
	require.NotNil(t, got)
	assert.Equal(t, CurrencyEUR, got.Currency)
	assert.True(t, decimal.RequireFromString("95.5").Equal(got.Value))
}

func TestExtractAmountAbsentResults(t *testing.T) {
	locale := ResolveLocale("en", "US")

	assert.Nil(t, ExtractAmount("no amounts here at all", locale, ""))
	// A zero value never counts as found.
	assert.Nil(t, ExtractAmount("Balance: $0.00", locale, ""))
	// Bare numbers without any currency marker are ignored.
	assert.Nil(t, ExtractAmount("reference 123456 dated 2024", locale, ""))
}

func TestParseLocalizedNumberFallsBackToConvention(t *testing.T) {
	tests := []struct {
		in   string
		conv SeparatorConvention
		want string
	}{
		{"1,5", CommaDecimal, "1.5"},
		{"1,5", PeriodDecimal, "15"}, // comma read as thousands separator
		{"2.345", PeriodDecimal, "2.345"},
		{"2.345", CommaDecimal, "2345"},
		{"1200", PeriodDecimal, "1200"},
	}
	for _, tt := range tests {
		got, ok := parseLocalizedNumber(tt.in, tt.conv)
		require.True(t, ok, tt.in)
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got),
			"%s under conv %v: want %s, got %s", tt.in, tt.conv, tt.want, got)
	}
}

func TestCurrencyTryOrder(t *testing.T) {
	order := currencyTryOrder(CurrencyEUR, CurrencyTRY)
	assert.Equal(t, CurrencyEUR, order[0])
	assert.Equal(t, CurrencyTRY, order[1])
	assert.Len(t, order, len(Currencies))

	// Hint equal to primary is not listed twice.
	order = currencyTryOrder(CurrencyUSD, CurrencyUSD)
	assert.Equal(t, CurrencyUSD, order[0])
	assert.Len(t, order, len(Currencies))
}
