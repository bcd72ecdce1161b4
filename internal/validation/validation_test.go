package validation

import (
	"errors"
	"testing"
	"time"

	"AlgoSentinel/internal/model"
)

func makeRows(n int, label func(i int) int) []model.FeatureRow {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]model.FeatureRow, n)
	for i := range rows {
		l := label(i)
		f := make([]float64, len(model.FeatureNames))
		f[0] = float64(l)*10 + float64(i%3)*0.1
		for j := 1; j < len(f); j++ {
			f[j] = float64(i*j%17) + 100
		}
		rows[i] = model.FeatureRow{Date: start.AddDate(0, 0, i), Features: f, Label: l}
	}
	return rows
}

func alternating(i int) int { return i % 2 }

func TestSplitExpandingWindow(t *testing.T) {
	folds, err := Split(200, 5)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(folds) != 5 {
		t.Fatalf("got %d folds, want 5", len(folds))
	}
	wantStarts := []int{35, 68, 101, 134, 167}
	for i, f := range folds {
		if f.Index != i+1 {
			t.Errorf("fold %d: index %d", i, f.Index)
		}
		if f.TestStart != wantStarts[i] || f.TestLen() != 33 {
			t.Errorf("fold %d: test [%d,%d), want start %d len 33", f.Index, f.TestStart, f.TestEnd, wantStarts[i])
		}
		if f.TrainStart != 0 || f.TrainEnd != f.TestStart {
			t.Errorf("fold %d: train [%d,%d) not expanding up to test", f.Index, f.TrainStart, f.TrainEnd)
		}
		if i > 0 && f.TrainEnd <= folds[i-1].TrainEnd {
			t.Errorf("fold %d: training block did not grow", f.Index)
		}
	}
	if folds[4].TestEnd != 200 {
		t.Errorf("last fold ends at %d, want 200", folds[4].TestEnd)
	}
}

func TestSplitRejectsDegenerateInput(t *testing.T) {
	if _, err := Split(5, 5); err == nil {
		t.Error("5 rows into 5 folds should fail")
	}
	if _, err := Split(100, 1); err == nil {
		t.Error("a single fold should fail")
	}
}

func TestRunFoldChronology(t *testing.T) {
	rows := makeRows(200, alternating)
	rep, err := Run("TEST", rows, DefaultConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Status != model.MLOK {
		t.Fatalf("status = %s, want OK (skipped %v)", rep.Status, rep.Skipped)
	}
	if len(rep.Folds) != 5 {
		t.Fatalf("got %d folds, want 5", len(rep.Folds))
	}
	for _, f := range rep.Folds {
		if !f.TrainRange.To.Before(f.TestRange.From) {
			t.Errorf("fold %d: train ends %s, test starts %s", f.FoldIndex, f.TrainRange.To, f.TestRange.From)
		}
	}

	// The last fold trains on every earlier test block.
	last := rep.Folds[4]
	for _, f := range rep.Folds[:4] {
		if f.TestRange.To.After(last.TrainRange.To) || f.TestRange.From.Before(last.TrainRange.From) {
			t.Errorf("fold %d test range outside fold 5 training range", f.FoldIndex)
		}
	}
	if !rep.AccuracyLogReg.OK || !rep.AccuracyTree.OK {
		t.Fatal("mean accuracies should be defined")
	}
	if rep.AccuracyTree.V < 0.9 {
		t.Errorf("tree accuracy %.3f on a label-carrying feature", rep.AccuracyTree.V)
	}
}

func TestRunDetectsLeakage(t *testing.T) {
	rows := makeRows(200, alternating)
	// Pull a training date past the first test block.
	rows[10].Date = rows[150].Date
	_, err := Run("TEST", rows, DefaultConfig())
	if !errors.Is(err, ErrLeakage) {
		t.Fatalf("err = %v, want ErrLeakage", err)
	}
}

func TestRunSkipsShortFolds(t *testing.T) {
	rows := makeRows(60, alternating)
	rep, err := Run("TEST", rows, DefaultConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// 60 rows / 6 blocks: fold 1 trains on 10 rows, below the minimum.
	if len(rep.Skipped) != 1 || rep.Skipped[0].Fold != 1 {
		t.Fatalf("skipped = %v, want fold 1 only", rep.Skipped)
	}
	if rep.Status != model.MLPartial || len(rep.Folds) != 4 {
		t.Errorf("status = %s folds = %d, want PARTIAL with 4", rep.Status, len(rep.Folds))
	}
}

func TestRunSkipsSingleClassFolds(t *testing.T) {
	rows := makeRows(200, func(i int) int {
		if i < 110 {
			return 0
		}
		return i % 2
	})
	rep, err := Run("TEST", rows, DefaultConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Skipped) != 3 {
		t.Fatalf("skipped %d folds, want 3", len(rep.Skipped))
	}
	if rep.Status != model.MLPartial || len(rep.Folds) != 2 {
		t.Errorf("status = %s folds = %d, want PARTIAL with 2", rep.Status, len(rep.Folds))
	}
}

func TestRunTooFewRows(t *testing.T) {
	rep, err := Run("TEST", makeRows(4, alternating), DefaultConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Status != model.MLInsufficientData {
		t.Errorf("status = %s, want INSUFFICIENT_DATA", rep.Status)
	}
	if rep.AccuracyLogReg.OK || rep.AccuracyTree.OK {
		t.Error("accuracies should be undefined without folds")
	}
}
