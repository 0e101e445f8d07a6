// Package engine implements the locale-aware extraction and classification
// core: amount parsing, due-date detection, bill-type classification, company
// extraction and confidence calibration over raw OCR text.
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillType identifies the kind of bill a document represents.
type BillType string

// Supported bill types. Declaration order is significant: it is the
// deterministic tie-break order during classification.
const (
	BillTypeElectricity BillType = "ELECTRICITY"
	BillTypeWater       BillType = "WATER"
	BillTypeGas         BillType = "GAS"
	BillTypeInternet    BillType = "INTERNET"
	BillTypePhone       BillType = "PHONE"
	BillTypeCable       BillType = "CABLE"
	BillTypeInsurance   BillType = "INSURANCE"
	BillTypeRent        BillType = "RENT"
	BillTypeCreditCard  BillType = "CREDIT_CARD"
	BillTypeUnknown     BillType = "UNKNOWN"
)

// BillTypes lists all classifiable types in tie-break order (UNKNOWN excluded).
var BillTypes = []BillType{
	BillTypeElectricity,
	BillTypeWater,
	BillTypeGas,
	BillTypeInternet,
	BillTypePhone,
	BillTypeCable,
	BillTypeInsurance,
	BillTypeRent,
	BillTypeCreditCard,
}

// Currency is an ISO-like currency code.
type Currency string

// Supported currencies. Declaration order is the fixed enumeration order
// used when no hint or locale preference applies.
const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyTRY Currency = "TRY"
	CurrencyCAD Currency = "CAD"
	CurrencyAUD Currency = "AUD"
	CurrencyJPY Currency = "JPY"
	CurrencyCHF Currency = "CHF"
	CurrencySEK Currency = "SEK"
	CurrencyNOK Currency = "NOK"
)

// Currencies lists all supported currencies in enumeration order.
var Currencies = []Currency{
	CurrencyUSD,
	CurrencyEUR,
	CurrencyGBP,
	CurrencyTRY,
	CurrencyCAD,
	CurrencyAUD,
	CurrencyJPY,
	CurrencyCHF,
	CurrencySEK,
	CurrencyNOK,
}

// RawText is the OCR output for a scanned bill: the recognized text plus the
// OCR engine's own confidence in [0,1]. The engine only reads it.
type RawText struct {
	Text       string
	Confidence float64
}

// LocaleContext carries the language/country pair of the device or user that
// scanned the bill, plus an optional explicit currency hint.
type LocaleContext struct {
	Language     string
	Country      string
	CurrencyHint Currency
}

// Hints are optional caller-supplied overrides that augment locale defaults.
type Hints struct {
	Currency Currency
	Country  string
	Company  string
}

// ExtractedAmount is a successfully parsed bill total. Value is always
// strictly positive; a missing amount is represented by a nil pointer, never
// by a zero value.
type ExtractedAmount struct {
	Value    decimal.Decimal `json:"value"`
	Currency Currency        `json:"currency"`
	Raw      string          `json:"raw"`
}

// ExtractedDueDate is a validated calendar date believed to be the payment
// due date. Raw and Format are preserved for display and audit.
type ExtractedDueDate struct {
	Date   time.Time `json:"date"`
	Raw    string    `json:"raw"`
	Format string    `json:"format"`
}

// CompanyMatch is an issuing-company name found in the text.
type CompanyMatch struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// ClassificationResult is the outcome of bill-type scoring.
type ClassificationResult struct {
	Type       BillType      `json:"type"`
	Confidence float64       `json:"confidence"`
	Reasoning  string        `json:"reasoning"`
	Company    *CompanyMatch `json:"company,omitempty"`
}

// AnalysisResult is the final product of one pipeline run. Amount, DueDate
// and Company are nil when not found; Confidence is calibrated into
// [0.10, 0.98].
type AnalysisResult struct {
	Type       BillType          `json:"type"`
	Amount     *ExtractedAmount  `json:"amount,omitempty"`
	DueDate    *ExtractedDueDate `json:"dueDate,omitempty"`
	Company    *CompanyMatch     `json:"company,omitempty"`
	Confidence float64           `json:"confidence"`
	Reasoning  string            `json:"reasoning"`
}
