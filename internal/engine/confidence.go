package engine

// Calibration bounds and discount factors. The engine never reports absolute
// certainty or absolute zero for a non-empty classification.
const (
	confidenceFloor   = 0.10
	confidenceCeiling = 0.98

	missingAmountFactor  = 0.8
	missingDateFactor    = 0.9
	missingCompanyFactor = 0.85
)

// Calibrate discounts the raw classification confidence for each missing
// supporting signal and clamps the result to [0.10, 0.98]. Removing a signal
// can only lower the result, never raise it.
func Calibrate(raw float64, hasAmount, hasDate, hasCompany bool) float64 {
	c := raw
	if !hasAmount {
		c *= missingAmountFactor
	}
	if !hasDate {
		c *= missingDateFactor
	}
	if !hasCompany {
		c *= missingCompanyFactor
	}
	if c < confidenceFloor {
		return confidenceFloor
	}
	if c > confidenceCeiling {
		return confidenceCeiling
	}
	return c
}
