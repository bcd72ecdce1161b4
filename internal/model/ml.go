package model

import "time"

// FeatureNames is the fixed column order of every feature vector.
var FeatureNames = []string{
	"rsi14", "sma20", "sma50", "macd", "macd_signal",
	"volatility", "volume_avg", "close_lag_1", "close_lag_2", "close_lag_3",
}

// FeatureRow is one labelled sample. Label is 1 iff the next close is higher.
type FeatureRow struct {
	Date     time.Time
	Features []float64
	Label    int
}

// DateRange is an inclusive date interval.
type DateRange struct {
	From time.Time
	To   time.Time
}

// ClassifierScores holds the evaluation of one classifier on one test block.
type ClassifierScores struct {
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
	ROCAUC    Value // undefined when the test block has a single class
}

// FoldResult is the outcome of one forward-chaining fold.
type FoldResult struct {
	FoldIndex      int
	TrainRange     DateRange
	TestRange      DateRange
	TrainRows      int
	TestRows       int
	AccuracyLogReg float64
	AccuracyTree   float64
	LogReg         ClassifierScores
	Tree           ClassifierScores
}
