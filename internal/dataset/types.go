package dataset

import "errors"

// Sentinel errors for dataset construction.
var (
	ErrEmpty         = errors.New("dataset has no samples or no features")
	ErrShapeMismatch = errors.New("feature rows and target length differ")
	ErrRagged        = errors.New("feature rows have different lengths")
)

// #region dataset
// Dataset is a real-valued feature matrix paired with a target vector.
// Row i of Features is labeled by Target[i].
type Dataset struct {
	Features [][]float64
	Target   []float64

	// IntegerTarget records that the target was supplied as integers
	// (e.g. class labels), which forces classification.
	IntegerTarget bool

	FeatureNames []string
	TargetName   string
}

// #endregion dataset
