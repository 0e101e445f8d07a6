package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalibrateDiscountsMissingSignals(t *testing.T) {
	raw := 0.8
	full := Calibrate(raw, true, true, true)
	assert.InDelta(t, 0.8, full, 1e-9)

	assert.InDelta(t, raw*0.8, Calibrate(raw, false, true, true), 1e-9)
	assert.InDelta(t, raw*0.9, Calibrate(raw, true, false, true), 1e-9)
	assert.InDelta(t, raw*0.85, Calibrate(raw, true, true, false), 1e-9)
	assert.InDelta(t, raw*0.8*0.9*0.85, Calibrate(raw, false, false, false), 1e-9)
}

func TestCalibrateIsMonotonic(t *testing.T) {
	for _, raw := range []float64{0.2, 0.5, 0.75, 0.95} {
		full := Calibrate(raw, true, true, true)
		assert.Greater(t, full, Calibrate(raw, false, true, true), "raw=%v", raw)
		assert.Greater(t, full, Calibrate(raw, true, false, true), "raw=%v", raw)
		assert.Greater(t, full, Calibrate(raw, true, true, false), "raw=%v", raw)
	}
}

func TestCalibrateBounds(t *testing.T) {
	// Never absolute zero, never absolute certainty.
	assert.InDelta(t, 0.10, Calibrate(0, false, false, false), 1e-9)
	assert.InDelta(t, 0.98, Calibrate(1.0, true, true, true), 1e-9)

	for _, raw := range []float64{0, 0.1, 0.5, 1.0} {
		for _, hasAmount := range []bool{true, false} {
			got := Calibrate(raw, hasAmount, false, true)
			assert.GreaterOrEqual(t, got, 0.10)
			assert.LessOrEqual(t, got, 0.98)
		}
	}
}
