package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultRuleset(t *testing.T) *Ruleset {
	t.Helper()
	rs, err := NewRuleset(DefaultRules())
	require.NoError(t, err)
	return rs
}

func TestClassifyTurkishElectricityBill(t *testing.T) {
	c := NewClassifier(defaultRuleset(t), DefaultWeights())
	text := "TEDAŞ elektrik tüketimi bildirimi, ödenecek tutar aşağıdadır"

	got := c.Classify(text, ClassifyContext{})
	assert.Equal(t, BillTypeElectricity, got.Type)
	assert.GreaterOrEqual(t, got.Confidence, 0.9)
	require.NotNil(t, got.Company)
	assert.Equal(t, "TEDAŞ", got.Company.Name)
	assert.InDelta(t, 0.9, got.Company.Confidence, 1e-9)
	assert.Contains(t, got.Reasoning, "elektrik")
	assert.Contains(t, got.Reasoning, "TEDAŞ")
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := NewClassifier(defaultRuleset(t), DefaultWeights())
	text := "Internet broadband service 100 mbps monthly subscription"
	ctx := ClassifyContext{Currency: CurrencyUSD, Country: "US"}

	first := c.Classify(text, ctx)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Classify(text, ctx))
	}
	assert.Equal(t, BillTypeInternet, first.Type)
}

func TestClassifyNegativeKeywordSuppression(t *testing.T) {
	c := NewClassifier(defaultRuleset(t), DefaultWeights())

	// Both vocabularies present in equal measure: the cross-type negative
	// keywords cancel both down to the same score and the declaration-order
	// tie-break yields a stable winner.
	tied := c.Classify("su ve elektrik", ClassifyContext{})
	assert.Equal(t, BillTypeElectricity, tied.Type)
	for i := 0; i < 5; i++ {
		assert.Equal(t, tied, c.Classify("su ve elektrik", ClassifyContext{}))
	}

	// With genuinely water-heavy text the water rule dominates.
	water := c.Classify("İSKİ su faturası, su tüketim bedeli", ClassifyContext{})
	assert.Equal(t, BillTypeWater, water.Type)
}

func TestClassifyUnknownFallback(t *testing.T) {
	c := NewClassifier(defaultRuleset(t), DefaultWeights())
	got := c.Classify("lorem ipsum dolor sit amet", ClassifyContext{})
	assert.Equal(t, BillTypeUnknown, got.Type)
	assert.Zero(t, got.Confidence)
	assert.Nil(t, got.Company)
	assert.NotEmpty(t, got.Reasoning)
}

func TestClassifyContextualBoosts(t *testing.T) {
	c := NewClassifier(defaultRuleset(t), DefaultWeights())

	base := c.Classify("elektrik", ClassifyContext{Currency: CurrencyUSD})
	require.Equal(t, BillTypeElectricity, base.Type)

	t.Run("currency boost", func(t *testing.T) {
		boosted := c.Classify("elektrik", ClassifyContext{Currency: CurrencyTRY})
		assert.InDelta(t, base.Confidence+0.1, boosted.Confidence, 1e-9)
	})

	t.Run("large amount boost", func(t *testing.T) {
		amount := decimal.NewFromInt(600)
		boosted := c.Classify("elektrik", ClassifyContext{Currency: CurrencyUSD, Amount: &amount})
		assert.InDelta(t, base.Confidence+0.05, boosted.Confidence, 1e-9)
	})

	t.Run("small amount gets no boost", func(t *testing.T) {
		amount := decimal.NewFromInt(45)
		same := c.Classify("elektrik", ClassifyContext{Currency: CurrencyUSD, Amount: &amount})
		assert.InDelta(t, base.Confidence, same.Confidence, 1e-9)
	})

	t.Run("country company overlap boost", func(t *testing.T) {
		boosted := c.Classify("elektrik", ClassifyContext{Currency: CurrencyUSD, Country: "TR"})
		assert.InDelta(t, base.Confidence+0.1, boosted.Confidence, 1e-9)
	})
}

func TestClassifyContextAloneNeverClassifies(t *testing.T) {
	c := NewClassifier(defaultRuleset(t), DefaultWeights())

	// Country, currency and amount context without any supporting text
	// must not lift a type past the minimum score.
	amount := decimal.NewFromInt(600)
	contexts := []ClassifyContext{
		{Country: "US"},
		{Country: "TR"},
		{Currency: CurrencyTRY},
		{Currency: CurrencyTRY, Country: "US", Amount: &amount},
	}
	for _, ctx := range contexts {
		got := c.Classify("handwritten note about groceries", ctx)
		assert.Equal(t, BillTypeUnknown, got.Type)
		assert.Zero(t, got.Confidence)
	}
}

func TestClassifyCompanyHint(t *testing.T) {
	c := NewClassifier(defaultRuleset(t), DefaultWeights())
	got := c.Classify("monthly bill attached", ClassifyContext{Company: "Turkcell"})
	assert.Equal(t, BillTypePhone, got.Type)
	require.NotNil(t, got.Company)
	assert.Equal(t, "Turkcell", got.Company.Name)
}

func TestClassifyScoreClampedToOne(t *testing.T) {
	c := NewClassifier(defaultRuleset(t), DefaultWeights())
	text := "TEDAŞ elektrik strom electricity kwh tüketim power energy 500 kwh"
	got := c.Classify(text, ClassifyContext{Currency: CurrencyTRY, Country: "TR"})
	assert.Equal(t, BillTypeElectricity, got.Type)
	assert.LessOrEqual(t, got.Confidence, 1.0)
}

func TestNewRulesetRejectsBadTables(t *testing.T) {
	tests := []struct {
		name  string
		rules []TypeRule
	}{
		{
			name: "unknown is not classifiable",
			rules: []TypeRule{
				{Type: BillTypeUnknown, PrimaryKeywords: []string{"x"}},
			},
		},
		{
			name: "duplicate type",
			rules: []TypeRule{
				{Type: BillTypeWater, PrimaryKeywords: []string{"water"}},
				{Type: BillTypeWater, PrimaryKeywords: []string{"su"}},
			},
		},
		{
			name: "invalid regex pattern",
			rules: []TypeRule{
				{Type: BillTypeGas, Patterns: []string{"("}},
			},
		},
		{
			name: "empty keyword",
			rules: []TypeRule{
				{Type: BillTypeRent, PrimaryKeywords: []string{"  "}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRuleset(tt.rules)
			assert.Error(t, err)
		})
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "elektrik tüketim faturası",
		NormalizeText("Elektrik   tüketim-faturası!!"))
	assert.Equal(t, "total 1 234 56", NormalizeText("TOTAL: 1.234,56"))
}

func TestContainsPhraseRequiresWordAlignment(t *testing.T) {
	// "su" must not fire inside "insurance".
	assert.False(t, containsPhrase(NormalizeText("home insurance policy"), "su"))
	assert.True(t, containsPhrase(NormalizeText("su faturası"), "su"))
}
