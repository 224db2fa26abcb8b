package integrity

import "encoding/json"

// TooManyClasses replaces class_balance when the target has too many
// distinct values to enumerate.
const TooManyClasses = "too many classes to enumerate"

// #region report
// Report is the data-integrity section of a review.
type Report struct {
	NSamples     int          `json:"n_samples"`
	NFeatures    int          `json:"n_features"`
	HasNaN       bool         `json:"has_nan"`
	ClassBalance ClassBalance `json:"class_balance"`
	DataLeakage  Leakage      `json:"data_leakage"`
}

// Leakage summarises features that track the target too closely.
type Leakage struct {
	Suspected bool             `json:"suspected"`
	Details   []LeakageFinding `json:"details"`
	Message   string           `json:"message"`
}

// LeakageFinding is one feature whose |correlation| with the target exceeded
// the leakage threshold.
type LeakageFinding struct {
	FeatureIndex int     `json:"feature_index"`
	Correlation  float64 `json:"correlation"`
}

// #endregion report

// #region class-balance
// ClassBalance holds per-value target counts, or nothing when the target has
// too many distinct values. It marshals to an object or to TooManyClasses.
type ClassBalance struct {
	Counts     map[string]int
	Enumerated bool
}

func (c ClassBalance) MarshalJSON() ([]byte, error) {
	if !c.Enumerated {
		return json.Marshal(TooManyClasses)
	}
	return json.Marshal(c.Counts)
}

func (c *ClassBalance) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = ClassBalance{}
		return nil
	}
	var counts map[string]int
	if err := json.Unmarshal(b, &counts); err != nil {
		return err
	}
	*c = ClassBalance{Counts: counts, Enumerated: true}
	return nil
}

// #endregion class-balance

// #region options
// Options configures Analyze.
type Options struct {
	LeakageCorrelation float64
	MaxClasses         int // enumerate class_balance when distinct targets < MaxClasses
	Correlations       bool
}

// DefaultOptions returns a 0.98 leakage threshold and a 20-class cap.
func DefaultOptions() Options {
	return Options{
		LeakageCorrelation: 0.98,
		MaxClasses:         20,
	}
}

// CorrelationMatrix is the pairwise Pearson matrix over every feature plus
// the target (last row/column). Undefined entries are NaN.
type CorrelationMatrix struct {
	Labels []string
	Values [][]float64
}

// #endregion options
