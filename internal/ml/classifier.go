// Package ml holds the small classifiers used to forecast next-day direction.
package ml

import "errors"

var (
	// ErrEmptyTrainingSet is returned when Fit receives no rows.
	ErrEmptyTrainingSet = errors.New("ml: empty training set")
	// ErrSingleClass is returned when the training labels contain one class.
	ErrSingleClass = errors.New("ml: training labels contain a single class")
	// ErrShapeMismatch is returned when rows and labels disagree in length.
	ErrShapeMismatch = errors.New("ml: feature rows and labels differ in length")
)

// Classifier is a binary classifier over fixed-width feature vectors.
type Classifier interface {
	Fit(x [][]float64, y []int) error
	// PredictProba returns P(label = 1).
	PredictProba(x []float64) float64
	Name() string
}

// Predict thresholds a probability at 0.5.
func Predict(c Classifier, x []float64) int {
	if c.PredictProba(x) >= 0.5 {
		return 1
	}
	return 0
}

// balancedWeights returns per-class sample weights n / (2 * n_class).
func balancedWeights(y []int) ([2]float64, error) {
	var counts [2]int
	for _, label := range y {
		counts[label&1]++
	}
	if counts[0] == 0 || counts[1] == 0 {
		return [2]float64{}, ErrSingleClass
	}
	n := float64(len(y))
	return [2]float64{n / (2 * float64(counts[0])), n / (2 * float64(counts[1]))}, nil
}

func checkShape(x [][]float64, y []int) error {
	if len(x) == 0 {
		return ErrEmptyTrainingSet
	}
	if len(x) != len(y) {
		return ErrShapeMismatch
	}
	return nil
}
