// Package thresholds holds every heuristic cut-off used by the review pipeline.
// Boundary comparisons are documented per field so tests can probe values
// exactly at the threshold.
package thresholds

// #region thresholds
// Thresholds is the single configuration object shared by all detectors.
type Thresholds struct {
	// LeakageCorrelation flags a feature when |corr(feature, target)| > value.
	LeakageCorrelation float64 `yaml:"leakage_correlation" json:"leakage_correlation"`

	// ClassBalanceMaxClasses enumerates class counts when distinct targets < value.
	ClassBalanceMaxClasses int `yaml:"class_balance_max_classes" json:"class_balance_max_classes"`

	// ClassificationMaxDistinct treats the target as categorical when distinct values <= value.
	ClassificationMaxDistinct int `yaml:"classification_max_distinct" json:"classification_max_distinct"`

	// PerfectCVScore marks the CV mean as suspicious when mean > value.
	PerfectCVScore float64 `yaml:"perfect_cv_score" json:"perfect_cv_score"`

	// NoiseLevel is the noise std as a fraction of the feature matrix std.
	NoiseLevel float64 `yaml:"noise_level" json:"noise_level"`

	// FragileDrop marks the model fragile when clean - noisy > value.
	FragileDrop float64 `yaml:"fragile_drop" json:"fragile_drop"`

	// MisleadingBaseline marks robustness misleading when leakage is suspected
	// and the clean score > value. Kept separate from LeakageCorrelation even
	// though both default to 0.98.
	MisleadingBaseline float64 `yaml:"misleading_baseline" json:"misleading_baseline"`

	// CVSplits is the number of cross-validation folds.
	CVSplits int `yaml:"cv_splits" json:"cv_splits"`

	// CVRandomState seeds fold shuffling.
	CVRandomState int64 `yaml:"cv_random_state" json:"cv_random_state"`
}

// Default returns the calibrated defaults.
func Default() Thresholds {
	return Thresholds{
		LeakageCorrelation:        0.98,
		ClassBalanceMaxClasses:    20,
		ClassificationMaxDistinct: 20,
		PerfectCVScore:            0.995,
		NoiseLevel:                0.02,
		FragileDrop:               0.15,
		MisleadingBaseline:        0.98,
		CVSplits:                  3,
		CVRandomState:             42,
	}
}

// #endregion thresholds

// #region merge
// Merge overwrites fields of t with the non-zero fields of o.
func (t Thresholds) Merge(o Thresholds) Thresholds {
	if o.LeakageCorrelation != 0 {
		t.LeakageCorrelation = o.LeakageCorrelation
	}
	if o.ClassBalanceMaxClasses != 0 {
		t.ClassBalanceMaxClasses = o.ClassBalanceMaxClasses
	}
	if o.ClassificationMaxDistinct != 0 {
		t.ClassificationMaxDistinct = o.ClassificationMaxDistinct
	}
	if o.PerfectCVScore != 0 {
		t.PerfectCVScore = o.PerfectCVScore
	}
	if o.NoiseLevel != 0 {
		t.NoiseLevel = o.NoiseLevel
	}
	if o.FragileDrop != 0 {
		t.FragileDrop = o.FragileDrop
	}
	if o.MisleadingBaseline != 0 {
		t.MisleadingBaseline = o.MisleadingBaseline
	}
	if o.CVSplits != 0 {
		t.CVSplits = o.CVSplits
	}
	if o.CVRandomState != 0 {
		t.CVRandomState = o.CVRandomState
	}
	return t
}

// #endregion merge
