package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billsnap/bill-analyzer-service/internal/engine"
)

// Assist runs an LLM second-opinion pass over low-confidence analysis
// results. The rule engine stays the source of truth: the assist pass
// only fills fields the engine could not extract, never overrides
// fields it did.
type Assist struct {
	provider Provider
}

// NewAssist creates an assist pass backed by the given provider
func NewAssist(provider Provider) *Assist {
	return &Assist{provider: provider}
}

// Review asks the model about fields missing from the result and merges
// its answers in. Returns the (possibly updated) result and whether
// anything was merged. Provider errors are returned alongside the
// untouched result so callers can degrade gracefully.
func (a *Assist) Review(ctx context.Context, ocrText string, result *engine.AnalysisResult) (*engine.AnalysisResult, bool, error) {
	if a.provider == nil {
		return result, false, nil
	}

	missing := missingFields(result)
	if len(missing) == 0 {
		return result, false, nil
	}

	prompt := buildPrompt(ocrText, missing)
	response, err := a.provider.Complete(ctx, prompt)
	if err != nil {
		return result, false, fmt.Errorf("assist pass failed: %w", err)
	}

	parsed, err := parseResponse(response)
	if err != nil {
		return result, false, fmt.Errorf("failed to parse assist response: %w", err)
	}

	merged := mergeResult(result, parsed, missing)
	if merged {
		log.Printf("AI assist (%s) filled fields: %s", a.provider.Name(), strings.Join(missing, ", "))
	}
	return result, merged, nil
}

func missingFields(result *engine.AnalysisResult) []string {
	var missing []string
	if result.Type == engine.BillTypeUnknown {
		missing = append(missing, "billType")
	}
	if result.Amount == nil {
		missing = append(missing, "amount")
	}
	if result.DueDate == nil {
		missing = append(missing, "dueDate")
	}
	if result.Company == nil {
		missing = append(missing, "company")
	}
	return missing
}

func buildPrompt(ocrText string, missing []string) string {
	var types []string
	for _, t := range engine.BillTypes {
		types = append(types, string(t))
	}

	return fmt.Sprintf(`You are analyzing OCR text from a scanned household bill.
The automatic analyzer could not determine these fields: %s.

Return ONLY valid JSON (no markdown, no comments) with exactly these keys:
{
  "billType": "one of %s, or null if unclear",
  "amount": "total amount due as a plain number with period decimal separator, or null",
  "currency": "ISO 4217 code like USD, EUR, TRY, or null",
  "dueDate": "payment due date as YYYY-MM-DD, or null",
  "company": "name of the issuing company, or null"
}

Rules:
1. NEVER invent values - use null for anything you cannot read in the text
2. The amount is the total payable, usually the largest amount on the bill
3. The company is the issuer of the bill, not the customer

Bill text:
%s`, strings.Join(missing, ", "), strings.Join(types, ", "), ocrText)
}

type assistResponse struct {
	BillType *string     `json:"billType"`
	Amount   interface{} `json:"amount"`
	Currency *string     `json:"currency"`
	DueDate  *string     `json:"dueDate"`
	Company  *string     `json:"company"`
}

func parseResponse(response string) (*assistResponse, error) {
	cleaned := strings.TrimSpace(response)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var parsed assistResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("JSON parse error: %w", err)
	}
	return &parsed, nil
}

func mergeResult(result *engine.AnalysisResult, parsed *assistResponse, missing []string) bool {
	merged := false
	wanted := map[string]bool{}
	for _, f := range missing {
		wanted[f] = true
	}

	if wanted["billType"] && parsed.BillType != nil {
		if t, ok := validBillType(*parsed.BillType); ok {
			result.Type = t
			result.Reasoning += "; bill type suggested by AI assist"
			merged = true
		}
	}

	if wanted["amount"] && parsed.Amount != nil {
		if value, ok := parseAmount(parsed.Amount); ok && value.IsPositive() {
			currency := engine.CurrencyUSD
			if parsed.Currency != nil {
				if c, ok := validCurrency(*parsed.Currency); ok {
					currency = c
				}
			}
			result.Amount = &engine.ExtractedAmount{
				Value:    value,
				Currency: currency,
				Raw:      fmt.Sprintf("%v", parsed.Amount),
			}
			merged = true
		}
	}

	if wanted["dueDate"] && parsed.DueDate != nil {
		if date, err := time.Parse("2006-01-02", *parsed.DueDate); err == nil && date.Year() >= 2020 {
			result.DueDate = &engine.ExtractedDueDate{
				Date:   date,
				Raw:    *parsed.DueDate,
				Format: "YYYY-MM-DD",
			}
			merged = true
		}
	}

	if wanted["company"] && parsed.Company != nil && strings.TrimSpace(*parsed.Company) != "" {
		result.Company = &engine.CompanyMatch{
			Name:       strings.TrimSpace(*parsed.Company),
			Confidence: 0.6, // model-sourced, below both extractor tiers
		}
		merged = true
	}

	return merged
}

func validBillType(s string) (engine.BillType, bool) {
	candidate := engine.BillType(strings.ToUpper(strings.TrimSpace(s)))
	for _, t := range engine.BillTypes {
		if t == candidate {
			return t, true
		}
	}
	return engine.BillTypeUnknown, false
}

func validCurrency(s string) (engine.Currency, bool) {
	candidate := engine.Currency(strings.ToUpper(strings.TrimSpace(s)))
	for _, c := range engine.Currencies {
		if c == candidate {
			return c, true
		}
	}
	return "", false
}

// parseAmount handles flexible number parsing: the model may answer
// with a JSON number or a string, possibly with thousands commas
func parseAmount(v interface{}) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), true
	case string:
		cleaned := strings.ReplaceAll(strings.TrimSpace(val), ",", "")
		if cleaned == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case json.Number:
		d, err := decimal.NewFromString(string(val))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}
