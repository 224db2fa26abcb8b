package thresholds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultValues(t *testing.T) {
	d := Default()

	assert.Equal(t, 0.98, d.LeakageCorrelation)
	assert.Equal(t, 20, d.ClassBalanceMaxClasses)
	assert.Equal(t, 20, d.ClassificationMaxDistinct)
	assert.Equal(t, 0.995, d.PerfectCVScore)
	assert.Equal(t, 0.02, d.NoiseLevel)
	assert.Equal(t, 0.15, d.FragileDrop)
	assert.Equal(t, 0.98, d.MisleadingBaseline)
	assert.Equal(t, 3, d.CVSplits)
	assert.Equal(t, int64(42), d.CVRandomState)
}

func TestMergeKeepsZeroFields(t *testing.T) {
	merged := Default().Merge(Thresholds{PerfectCVScore: 0.9, CVSplits: 5})

	assert.Equal(t, 0.9, merged.PerfectCVScore)
	assert.Equal(t, 5, merged.CVSplits)
	assert.Equal(t, 0.98, merged.LeakageCorrelation, "unset fields keep defaults")
	assert.Equal(t, 0.98, merged.MisleadingBaseline)
}

func TestMisleadingBaselineIndependentOfLeakage(t *testing.T) {
	merged := Default().Merge(Thresholds{LeakageCorrelation: 0.9})

	assert.Equal(t, 0.9, merged.LeakageCorrelation)
	assert.Equal(t, 0.98, merged.MisleadingBaseline)
}
