package engine

import (
	"errors"
	"sync"
)

// MinOCRConfidence is the caller-level input gate: OCR output below this
// confidence is rejected before any extraction runs.
const MinOCRConfidence = 0.3

// ErrLowInputQuality reports that the OCR confidence was too low to attempt
// extraction. It is a distinct precondition failure, not a generic error;
// callers typically respond by asking the user to rescan.
var ErrLowInputQuality = errors.New("input text quality below minimum OCR confidence")

// Analyzer runs the full extraction pipeline over OCR text. It is immutable
// after construction and safe for concurrent use; every Analyze call is a
// pure function of its inputs.
type Analyzer struct {
	rules      *Ruleset
	classifier *Classifier
	weights    ScoringWeights
}

// NewAnalyzer validates the rule table and builds the pipeline. A malformed
// table is a configuration defect: callers should treat the error as fatal.
func NewAnalyzer(rules []TypeRule, weights ScoringWeights) (*Analyzer, error) {
	rs, err := NewRuleset(rules)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		rules:      rs,
		classifier: NewClassifier(rs, weights),
		weights:    weights,
	}, nil
}

// NewDefaultAnalyzer builds an analyzer over the built-in rule table and
// weights. The built-in table is covered by tests, so a compile failure here
// is a programming error.
func NewDefaultAnalyzer() *Analyzer {
	a, err := NewAnalyzer(DefaultRules(), DefaultWeights())
	if err != nil {
		panic("engine: built-in rule table invalid: " + err.Error())
	}
	return a
}

// Analyze runs the pipeline: the amount and date extractors run concurrently
// (they are independent pure functions), the classifier consumes the
// extracted amount's currency as context, the company extractor is
// conditioned on the winning type, and the calibrator folds everything into
// the final confidence. Missing fields are nil, never errors; the only error
// is the low-input-quality gate.
func (a *Analyzer) Analyze(input RawText, locale LocaleContext, hints Hints) (*AnalysisResult, error) {
	if input.Confidence < MinOCRConfidence {
		return nil, ErrLowInputQuality
	}

	country := locale.Country
	if hints.Country != "" {
		country = hints.Country
	}
	info := ResolveLocale(locale.Language, country)

	currencyHint := hints.Currency
	if currencyHint == "" {
		currencyHint = locale.CurrencyHint
	}

	var (
		amount *ExtractedAmount
		due    *ExtractedDueDate
		wg     sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		amount = ExtractAmount(input.Text, info, currencyHint)
	}()
	go func() {
		defer wg.Done()
		due = ExtractDueDate(input.Text, info)
	}()
	wg.Wait()

	ctx := ClassifyContext{Country: country, Company: hints.Company}
	switch {
	case amount != nil:
		ctx.Currency = amount.Currency
		v := amount.Value
		ctx.Amount = &v
	case currencyHint != "":
		ctx.Currency = currencyHint
	default:
		ctx.Currency = info.PrimaryCurrency
	}

	cls := a.classifier.Classify(input.Text, ctx)

	company := ExtractCompany(input.Text, a.rules.CompaniesFor(cls.Type))
	if company == nil {
		company = cls.Company
	}

	return &AnalysisResult{
		Type:       cls.Type,
		Amount:     amount,
		DueDate:    due,
		Company:    company,
		Confidence: Calibrate(cls.Confidence, amount != nil, due != nil, company != nil),
		Reasoning:  cls.Reasoning,
	}, nil
}
