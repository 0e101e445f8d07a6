package engine

// TypeRule is the scoring rule set for one bill type. Rule tables are plain
// data handed to NewAnalyzer; nothing in the engine mutates them after
// validation.
type TypeRule struct {
	Type              BillType
	PrimaryKeywords   []string
	SecondaryKeywords []string
	Patterns          []string
	Companies         []string
	NegativeKeywords  []string
	// BoostCurrencies are currencies strongly tied to this type's home
	// region (the rule table leans Turkish for utilities, so TRY).
	BoostCurrencies []Currency
}

// ScoringWeights holds the classifier's tuning constants. They are
// empirically chosen and deliberately live in configuration rather than in
// the scoring code so they can change without touching the algorithm.
type ScoringWeights struct {
	PrimaryKeyword       float64
	SecondaryKeyword     float64
	Pattern              float64
	CompanyBonus         float64
	CompanyConfidence    float64
	NegativeKeyword      float64
	CurrencyBoost        float64
	LargeAmountBoost     float64
	CountryCompanyBoost  float64
	LargeAmountThreshold float64
	// MinimumScore is the floor below which the result degrades to UNKNOWN.
	MinimumScore float64
}

// DefaultWeights returns the production scoring constants.
func DefaultWeights() ScoringWeights {
	return ScoringWeights{
		PrimaryKeyword:       0.4,
		SecondaryKeyword:     0.2,
		Pattern:              0.3,
		CompanyBonus:         0.5,
		CompanyConfidence:    0.9,
		NegativeKeyword:      0.3,
		CurrencyBoost:        0.1,
		LargeAmountBoost:     0.05,
		CountryCompanyBoost:  0.1,
		LargeAmountThreshold: 500,
		MinimumScore:         0.05,
	}
}

// utilityTypes are the types eligible for the large-amount contextual boost.
var utilityTypes = map[BillType]bool{
	BillTypeElectricity: true,
	BillTypeWater:       true,
	BillTypeGas:         true,
	BillTypeInternet:    true,
	BillTypePhone:       true,
	BillTypeCable:       true,
}

// countryCompanies maps a country to well-known billers operating there,
// used for the country-overlap contextual boost.
var countryCompanies = map[string][]string{
	"TR": {"TEDAŞ", "BEDAŞ", "İSKİ", "İGDAŞ", "Turkcell", "Türk Telekom", "Digiturk", "Anadolu Sigorta", "Yapı Kredi"},
	"US": {"Con Edison", "PG&E", "American Water", "Comcast", "AT&T", "Verizon", "State Farm", "Chase"},
	"GB": {"British Gas", "Thames Water", "Virgin Media", "Sky", "O2", "BT"},
	"DE": {"E.ON", "Vattenfall", "Telekom", "Allianz"},
}

// DefaultRules returns the built-in per-type rule table. Keywords are stored
// lower-case in normalized form; company names keep their canonical casing
// and are normalized during compilation.
func DefaultRules() []TypeRule {
	return []TypeRule{
		{
			Type:              BillTypeElectricity,
			PrimaryKeywords:   []string{"electricity", "elektrik", "strom", "électricité", "electricidad", "kwh"},
			SecondaryKeywords: []string{"power", "energy", "tüketim", "verbrauch", "meter", "sayaç", "tarife"},
			Patterns:          []string{`elektrik (tüketim|fatura)`, `\d+ ?kwh`, `electric(ity)? (bill|charges)`},
			Companies:         []string{"TEDAŞ", "BEDAŞ", "AYEDAŞ", "Con Edison", "PG&E", "E.ON", "Vattenfall", "EDF", "Enel", "National Grid"},
			NegativeKeywords:  []string{"su", "water", "doğalgaz", "broadband"},
			BoostCurrencies:   []Currency{CurrencyTRY},
		},
		{
			Type:              BillTypeWater,
			PrimaryKeywords:   []string{"water", "su", "wasser", "eau", "agua"},
			SecondaryKeywords: []string{"sewage", "sewer", "kanalizasyon", "abwasser", "metreküp", "consumption"},
			Patterns:          []string{`su (tüketim|fatura)`, `water (bill|charges|usage)`, `\d+ ?m3`},
			Companies:         []string{"İSKİ", "ASKİ", "Thames Water", "American Water", "Severn Trent", "Veolia"},
			NegativeKeywords:  []string{"elektrik", "electricity", "kwh", "broadband"},
			BoostCurrencies:   []Currency{CurrencyTRY},
		},
		{
			Type:              BillTypeGas,
			PrimaryKeywords:   []string{"doğalgaz", "natural gas", "erdgas", "gaz"},
			SecondaryKeywords: []string{"therm", "heating", "ısınma", "cubic", "gas"},
			Patterns:          []string{`gaz (tüketim|fatura)`, `gas (bill|charges|supply)`},
			Companies:         []string{"İGDAŞ", "British Gas", "SoCalGas", "National Fuel", "Engie"},
			NegativeKeywords:  []string{"elektrik", "electricity", "water", "su"},
			BoostCurrencies:   []Currency{CurrencyTRY},
		},
		{
			Type:              BillTypeInternet,
			PrimaryKeywords:   []string{"internet", "broadband", "fiber", "fibre", "wifi", "adsl"},
			SecondaryKeywords: []string{"mbps", "modem", "router", "unlimited", "download"},
			Patterns:          []string{`\d+ ?mbps`, `internet (service|fatura|bill)`},
			Companies:         []string{"Türk Telekom", "Superonline", "Comcast", "Xfinity", "Spectrum", "Virgin Media"},
			NegativeKeywords:  []string{"television", "kablo tv", "roaming"},
			BoostCurrencies:   []Currency{CurrencyTRY},
		},
		{
			Type:              BillTypePhone,
			PrimaryKeywords:   []string{"mobile", "telefon", "cep telefonu", "gsm", "mobilfunk", "cellular"},
			SecondaryKeywords: []string{"minutes", "sms", "roaming", "dakika", "call", "tariff"},
			Patterns:          []string{`\d+ ?(dk|min)\b`, `(phone|mobile) (bill|plan)`},
			Companies:         []string{"Turkcell", "Vodafone", "AT&T", "Verizon", "T-Mobile", "O2", "Orange"},
			NegativeKeywords:  []string{"broadband", "fiber", "kwh"},
			BoostCurrencies:   []Currency{CurrencyTRY},
		},
		{
			Type:              BillTypeCable,
			PrimaryKeywords:   []string{"cable tv", "television", "kablo tv", "satellite", "uydu"},
			SecondaryKeywords: []string{"channels", "kanal", "subscription", "abonelik", "paket"},
			Patterns:          []string{`(cable|tv) (package|bill)`, `\d+ kanal`},
			Companies:         []string{"DirecTV", "Dish", "Sky", "Digiturk", "D-Smart", "Tivibu"},
			NegativeKeywords:  []string{"broadband", "mobile", "kwh"},
		},
		{
			Type:              BillTypeInsurance,
			PrimaryKeywords:   []string{"insurance", "sigorta", "versicherung", "assurance", "seguro"},
			SecondaryKeywords: []string{"premium", "coverage", "poliçe", "prim", "deductible", "kasko"},
			Patterns:          []string{`policy (no|number)`, `poliçe no`},
			Companies:         []string{"Allianz", "AXA", "Anadolu Sigorta", "State Farm", "Geico", "Zurich"},
			NegativeKeywords:  []string{"kira", "rent", "kwh"},
		},
		{
			Type:              BillTypeRent,
			PrimaryKeywords:   []string{"rent", "kira", "miete", "loyer", "alquiler", "lease"},
			SecondaryKeywords: []string{"landlord", "tenant", "apartment", "deposit", "aidat", "daire"},
			Patterns:          []string{`monthly rent`, `kira (bedeli|ödemesi)`},
			Companies:         []string{"Greystar", "Emlak Konut"},
			NegativeKeywords:  []string{"sigorta", "insurance", "kwh"},
		},
		{
			Type:              BillTypeCreditCard,
			PrimaryKeywords:   []string{"credit card", "kredi kartı", "kreditkarte", "ekstre", "statement"},
			SecondaryKeywords: []string{"minimum payment", "asgari ödeme", "limit", "taksit", "interest", "apr"},
			Patterns:          []string{`card ending \d{4}`, `\d{4} \d{4} \d{4} \d{4}`, `asgari ödeme tutarı`},
			Companies:         []string{"Visa", "Mastercard", "American Express", "Yapı Kredi", "Garanti BBVA", "Chase", "Bonus", "Axess"},
			NegativeKeywords:  []string{"kwh", "electricity", "doğalgaz"},
		},
	}
}
