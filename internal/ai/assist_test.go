package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billsnap/bill-analyzer-service/internal/engine"
)

type fakeProvider struct {
	response string
	err      error
	prompt   string
}

func (f *fakeProvider) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func (f *fakeProvider) Name() string { return "fake" }

func TestReviewFillsOnlyMissingFields(t *testing.T) {
	provider := &fakeProvider{response: `{
		"billType": "WATER",
		"amount": "45.20",
		"currency": "EUR",
		"dueDate": "2024-06-01",
		"company": "Stadtwerke"
	}`}
	assist := NewAssist(provider)

	amount := &engine.ExtractedAmount{
		Value:    decimal.RequireFromString("99.99"),
		Currency: engine.CurrencyUSD,
		Raw:      "$99.99",
	}
	result := &engine.AnalysisResult{
		Type:       engine.BillTypeUnknown,
		Amount:     amount,
		Confidence: 0.2,
	}

	updated, merged, err := assist.Review(context.Background(), "some bill text", result)
	require.NoError(t, err)
	assert.True(t, merged)

	// Engine-extracted amount is never overridden.
	assert.Same(t, amount, updated.Amount)

	assert.Equal(t, engine.BillTypeWater, updated.Type)
	require.NotNil(t, updated.DueDate)
	assert.Equal(t, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), updated.DueDate.Date)
	require.NotNil(t, updated.Company)
	assert.Equal(t, "Stadtwerke", updated.Company.Name)
	assert.InDelta(t, 0.6, updated.Company.Confidence, 1e-9)
}

func TestReviewNoopWhenNothingMissing(t *testing.T) {
	provider := &fakeProvider{response: `{}`}
	assist := NewAssist(provider)

	result := &engine.AnalysisResult{
		Type: engine.BillTypeElectricity,
		Amount: &engine.ExtractedAmount{
			Value: decimal.RequireFromString("10"), Currency: engine.CurrencyEUR,
		},
		DueDate: &engine.ExtractedDueDate{Date: time.Now()},
		Company: &engine.CompanyMatch{Name: "X", Confidence: 0.95},
	}

	_, merged, err := assist.Review(context.Background(), "text", result)
	require.NoError(t, err)
	assert.False(t, merged)
	assert.Empty(t, provider.prompt, "provider should not be called")
}

func TestReviewHandlesMarkdownFencedJSON(t *testing.T) {
	provider := &fakeProvider{response: "```json\n{\"amount\": 33.5, \"currency\": \"GBP\"}\n```"}
	assist := NewAssist(provider)

	result := &engine.AnalysisResult{Type: engine.BillTypeInternet}
	_, merged, err := assist.Review(context.Background(), "text", result)
	require.NoError(t, err)
	assert.True(t, merged)
	require.NotNil(t, result.Amount)
	assert.Equal(t, engine.CurrencyGBP, result.Amount.Currency)
	assert.True(t, decimal.RequireFromString("33.5").Equal(result.Amount.Value))
}

func TestReviewIgnoresInvalidSuggestions(t *testing.T) {
	provider := &fakeProvider{response: `{
		"billType": "PIZZA",
		"amount": "-5",
		"dueDate": "2019-01-01",
		"company": "  "
	}`}
	assist := NewAssist(provider)

	result := &engine.AnalysisResult{Type: engine.BillTypeUnknown}
	_, merged, err := assist.Review(context.Background(), "text", result)
	require.NoError(t, err)
	assert.False(t, merged)
	assert.Equal(t, engine.BillTypeUnknown, result.Type)
	assert.Nil(t, result.Amount)
	assert.Nil(t, result.DueDate)
	assert.Nil(t, result.Company)
}

func TestReviewSurfacesProviderErrors(t *testing.T) {
	provider := &fakeProvider{err: errors.New("rate limited")}
	assist := NewAssist(provider)

	result := &engine.AnalysisResult{Type: engine.BillTypeUnknown}
	returned, merged, err := assist.Review(context.Background(), "text", result)
	assert.Error(t, err)
	assert.False(t, merged)
	assert.Same(t, result, returned)
}

func TestReviewWithNilProviderIsNoop(t *testing.T) {
	assist := NewAssist(nil)
	result := &engine.AnalysisResult{Type: engine.BillTypeUnknown}
	_, merged, err := assist.Review(context.Background(), "text", result)
	require.NoError(t, err)
	assert.False(t, merged)
}
