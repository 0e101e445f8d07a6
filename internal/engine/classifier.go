package engine

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// NormalizeText lower-cases the input and collapses every punctuation run to
// a single space, which is the form all keyword matching runs against.
func NormalizeText(s string) string {
	return strings.TrimSpace(nonAlnum.ReplaceAllString(strings.ToLower(s), " "))
}

var nonAlnum = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// containsPhrase reports whether a normalized phrase occurs word-aligned in
// normalized text. Plain substring search would let "su" fire inside
// "insurance".
func containsPhrase(normText, phrase string) bool {
	return strings.Contains(" "+normText+" ", " "+phrase+" ")
}

type companyEntry struct {
	canonical  string
	normalized string
}

type compiledRule struct {
	rule      TypeRule
	regexps   []*regexp.Regexp
	primary   []string
	secondary []string
	negative  []string
	companies []companyEntry
}

// Ruleset is a validated, compiled rule table. It is immutable after
// construction and safe for concurrent use.
type Ruleset struct {
	order []BillType
	rules map[BillType]*compiledRule
}

// NewRuleset validates and compiles a rule table. Errors here are
// configuration defects and should be fatal at startup, never handled
// per request.
func NewRuleset(rules []TypeRule) (*Ruleset, error) {
	rs := &Ruleset{rules: make(map[BillType]*compiledRule, len(rules))}
	valid := make(map[BillType]bool, len(BillTypes))
	for _, bt := range BillTypes {
		valid[bt] = true
	}

	for _, r := range rules {
		if !valid[r.Type] {
			return nil, fmt.Errorf("rule table: %q is not a classifiable bill type", r.Type)
		}
		if _, dup := rs.rules[r.Type]; dup {
			return nil, fmt.Errorf("rule table: duplicate rules for type %s", r.Type)
		}
		cr := &compiledRule{rule: r}
		var err error
		if cr.primary, err = normalizePhrases(r.Type, "primary", r.PrimaryKeywords); err != nil {
			return nil, err
		}
		if cr.secondary, err = normalizePhrases(r.Type, "secondary", r.SecondaryKeywords); err != nil {
			return nil, err
		}
		if cr.negative, err = normalizePhrases(r.Type, "negative", r.NegativeKeywords); err != nil {
			return nil, err
		}
		for _, p := range r.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("rule table: type %s pattern %q: %w", r.Type, p, err)
			}
			cr.regexps = append(cr.regexps, re)
		}
		for _, name := range r.Companies {
			norm := NormalizeText(name)
			if norm == "" {
				return nil, fmt.Errorf("rule table: type %s has an empty company name", r.Type)
			}
			cr.companies = append(cr.companies, companyEntry{canonical: name, normalized: norm})
		}
		rs.rules[r.Type] = cr
	}

	// Keep tie-break order fixed by enum declaration, not by table order.
	for _, bt := range BillTypes {
		if _, ok := rs.rules[bt]; ok {
			rs.order = append(rs.order, bt)
		}
	}
	return rs, nil
}

func normalizePhrases(bt BillType, kind string, phrases []string) ([]string, error) {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		norm := NormalizeText(p)
		if norm == "" {
			return nil, fmt.Errorf("rule table: type %s has an empty %s keyword", bt, kind)
		}
		out = append(out, norm)
	}
	return out, nil
}

// CompaniesFor returns the canonical known-company list for a type, nil for
// UNKNOWN or unruled types.
func (rs *Ruleset) CompaniesFor(bt BillType) []string {
	cr, ok := rs.rules[bt]
	if !ok {
		return nil
	}
	names := make([]string, len(cr.companies))
	for i, c := range cr.companies {
		names[i] = c.canonical
	}
	return names
}

// ClassifyContext is the optional context a caller can supply to sharpen
// scoring: the resolved currency, the country, the extracted amount and a
// caller-provided company hint.
type ClassifyContext struct {
	Currency Currency
	Country  string
	Amount   *decimal.Decimal
	Company  string
}

// Classifier scores text against an injected rule table. It holds no mutable
// state; identical inputs always produce identical results.
type Classifier struct {
	rules   *Ruleset
	weights ScoringWeights
}

// NewClassifier builds a classifier over a compiled rule table.
func NewClassifier(rules *Ruleset, weights ScoringWeights) *Classifier {
	return &Classifier{rules: rules, weights: weights}
}

// Classify scores every rule-table type and returns the winner with its
// reasoning trace. Ties go to the earliest type in enum declaration order;
// when nothing clears the minimum score the result is UNKNOWN with
// confidence 0. It never fails.
func (c *Classifier) Classify(text string, ctx ClassifyContext) ClassificationResult {
	norm := NormalizeText(text)

	best := ClassificationResult{
		Type:      BillTypeUnknown,
		Reasoning: "no bill type scored above the minimum threshold",
	}
	bestScore := 0.0
	for _, bt := range c.rules.order {
		score, reasoning, company := c.scoreType(c.rules.rules[bt], norm, ctx)
		if score > bestScore {
			bestScore = score
			best = ClassificationResult{Type: bt, Confidence: score, Reasoning: reasoning, Company: company}
		}
	}
	if bestScore < c.weights.MinimumScore {
		return ClassificationResult{
			Type:      BillTypeUnknown,
			Reasoning: "no bill type scored above the minimum threshold",
		}
	}
	return best
}

// scoreType applies the additive scoring formula for a single type and
// builds its reasoning trace.
func (c *Classifier) scoreType(cr *compiledRule, norm string, ctx ClassifyContext) (float64, string, *CompanyMatch) {
	w := c.weights
	score := 0.0
	var reasons []string

	if hits := matchingPhrases(norm, cr.primary); len(hits) > 0 {
		score += w.PrimaryKeyword * float64(len(hits))
		reasons = append(reasons, "primary keywords ["+strings.Join(hits, ", ")+"]")
	}
	if hits := matchingPhrases(norm, cr.secondary); len(hits) > 0 {
		score += w.SecondaryKeyword * float64(len(hits))
		reasons = append(reasons, "secondary keywords ["+strings.Join(hits, ", ")+"]")
	}

	patternHits := 0
	for _, re := range cr.regexps {
		if re.MatchString(norm) {
			patternHits++
		}
	}
	if patternHits > 0 {
		score += w.Pattern * float64(patternHits)
		reasons = append(reasons, fmt.Sprintf("%d pattern match(es)", patternHits))
	}

	var company *CompanyMatch
	normHint := NormalizeText(ctx.Company)
	for _, ce := range cr.companies {
		if strings.Contains(norm, ce.normalized) || (normHint != "" && normHint == ce.normalized) {
			score += w.CompanyBonus
			company = &CompanyMatch{Name: ce.canonical, Confidence: w.CompanyConfidence}
			reasons = append(reasons, "known company "+ce.canonical)
			break
		}
	}

	if hits := matchingPhrases(norm, cr.negative); len(hits) > 0 {
		score -= w.NegativeKeyword * float64(len(hits))
		reasons = append(reasons, "negative keywords ["+strings.Join(hits, ", ")+"]")
	}

	// Contextual boosts only sharpen evidence found in the text; context
	// alone never classifies.
	if score > 0 {
		for _, cur := range cr.rule.BoostCurrencies {
			if ctx.Currency == cur {
				score += w.CurrencyBoost
				reasons = append(reasons, string(cur)+" currency boost")
				break
			}
		}
		if ctx.Amount != nil && utilityTypes[cr.rule.Type] &&
			ctx.Amount.GreaterThan(decimal.NewFromFloat(w.LargeAmountThreshold)) {
			score += w.LargeAmountBoost
			reasons = append(reasons, "large amount boost")
		}
		if countryOverlapsCompanies(ctx.Country, cr) {
			score += w.CountryCompanyBoost
			reasons = append(reasons, "country company overlap boost")
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	reasoning := fmt.Sprintf("%s (score %.2f)", cr.rule.Type, score)
	if len(reasons) > 0 {
		reasoning += ": " + strings.Join(reasons, "; ")
	}
	return score, reasoning, company
}

// matchingPhrases returns the distinct phrases present in the text, in table
// order; each phrase counts once no matter how often it repeats.
func matchingPhrases(norm string, phrases []string) []string {
	var hits []string
	for _, p := range phrases {
		if containsPhrase(norm, p) {
			hits = append(hits, p)
		}
	}
	return hits
}

// normalizedCountryCompanies indexes the country biller table by normalized
// name once, at startup.
var normalizedCountryCompanies = func() map[string]map[string]bool {
	idx := make(map[string]map[string]bool, len(countryCompanies))
	for country, names := range countryCompanies {
		set := make(map[string]bool, len(names))
		for _, n := range names {
			set[NormalizeText(n)] = true
		}
		idx[country] = set
	}
	return idx
}()

func countryOverlapsCompanies(country string, cr *compiledRule) bool {
	known, ok := normalizedCountryCompanies[strings.ToUpper(country)]
	if !ok {
		return false
	}
	for _, ce := range cr.companies {
		if known[ce.normalized] {
			return true
		}
	}
	return false
}
