// Package validation runs forward-chaining (expanding window) cross
// validation of the direction classifiers.
package validation

import (
	"errors"
	"fmt"

	"AlgoSentinel/internal/model"
)

// ErrLeakage is returned when a fold's training block reaches a date at or
// after the start of its test block.
var ErrLeakage = errors.New("validation: training block overlaps test block in time")

// Fold is a pair of half-open row windows [TrainStart, TrainEnd) and
// [TestStart, TestEnd). TrainEnd <= TestStart always holds.
type Fold struct {
	Index      int // 1-based
	TrainStart int
	TrainEnd   int
	TestStart  int
	TestEnd    int
}

// TrainLen is the number of training rows.
func (f Fold) TrainLen() int { return f.TrainEnd - f.TrainStart }

// TestLen is the number of test rows.
func (f Fold) TestLen() int { return f.TestEnd - f.TestStart }

// Split divides n chronologically ordered rows into k expanding folds. The
// rows are cut into k+1 equal blocks (the remainder goes to the first
// training block); fold i tests on block i+1 and trains on everything
// before it.
func Split(n, k int) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("validation: need at least 2 folds, got %d", k)
	}
	testSize := n / (k + 1)
	if testSize == 0 {
		return nil, fmt.Errorf("validation: %d rows cannot be split into %d folds", n, k)
	}
	folds := make([]Fold, 0, k)
	start := n - k*testSize
	for i := 0; i < k; i++ {
		testStart := start + i*testSize
		folds = append(folds, Fold{
			Index:      i + 1,
			TrainStart: 0,
			TrainEnd:   testStart,
			TestStart:  testStart,
			TestEnd:    testStart + testSize,
		})
	}
	return folds, nil
}

// CheckChronology verifies max(train dates) < min(test dates) for a fold.
func CheckChronology(rows []model.FeatureRow, f Fold) error {
	if f.TrainLen() == 0 || f.TestLen() == 0 {
		return nil
	}
	maxTrain := rows[f.TrainStart].Date
	for _, r := range rows[f.TrainStart:f.TrainEnd] {
		if r.Date.After(maxTrain) {
			maxTrain = r.Date
		}
	}
	minTest := rows[f.TestStart].Date
	for _, r := range rows[f.TestStart:f.TestEnd] {
		if r.Date.Before(minTest) {
			minTest = r.Date
		}
	}
	if !maxTrain.Before(minTest) {
		return fmt.Errorf("%w: fold %d trains through %s but tests from %s", ErrLeakage, f.Index,
			maxTrain.Format("2006-01-02"), minTest.Format("2006-01-02"))
	}
	return nil
}
