package validation

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"AlgoSentinel/internal/features"
	"AlgoSentinel/internal/ml"
	"AlgoSentinel/internal/model"
)

// Config controls fold layout and classifier training.
type Config struct {
	Folds              int
	MinTrainRows       int
	MinTestRows        int
	TreeMaxDepth       int
	TreeMinLeaf        int
	LogRegIterations   int
	LogRegLearningRate float64
	LogRegL2           float64
}

// DefaultConfig mirrors a 5-split time series CV with a depth-5 tree.
func DefaultConfig() Config {
	return Config{
		Folds:              5,
		MinTrainRows:       15,
		MinTestRows:        5,
		TreeMaxDepth:       5,
		TreeMinLeaf:        1,
		LogRegIterations:   1000,
		LogRegLearningRate: 0.1,
		LogRegL2:           0.01,
	}
}

// FoldDataError marks a fold that was skipped for lack of usable data.
type FoldDataError struct {
	Fold   int
	Reason string
}

func (e *FoldDataError) Error() string {
	return fmt.Sprintf("fold %d skipped: %s", e.Fold, e.Reason)
}

// Report aggregates all folds of one ticker.
type Report struct {
	Folds   []model.FoldResult
	Skipped []*FoldDataError
	Status  model.MLStatus

	AccuracyLogReg model.Value
	AccuracyTree   model.Value
	MeanLogReg     model.ClassifierScores
	MeanTree       model.ClassifierScores
}

// Run splits rows into forward-chaining folds and, per fold, fits a logistic
// model and a decision tree on the training block and scores both on the
// test block. Folds without enough rows or with a single training class are
// skipped; the ticker fails only on a chronology violation.
func Run(symbol string, rows []model.FeatureRow, cfg Config) (*Report, error) {
	rep := &Report{Status: model.MLInsufficientData}

	folds, err := Split(len(rows), cfg.Folds)
	if err != nil {
		log.Debug().Str("symbol", symbol).Int("rows", len(rows)).Err(err).Msg("validation skipped")
		return rep, nil
	}

	x, y := features.Matrix(rows)
	for _, f := range folds {
		if err := CheckChronology(rows, f); err != nil {
			return nil, err
		}
		if f.TrainLen() < cfg.MinTrainRows || f.TestLen() < cfg.MinTestRows {
			rep.Skipped = append(rep.Skipped, &FoldDataError{
				Fold:   f.Index,
				Reason: fmt.Sprintf("train=%d test=%d rows below minimum %d/%d", f.TrainLen(), f.TestLen(), cfg.MinTrainRows, cfg.MinTestRows),
			})
			continue
		}

		res, err := runFold(symbol, rows, x, y, f, cfg)
		if err != nil {
			var fde *FoldDataError
			if errors.As(err, &fde) {
				rep.Skipped = append(rep.Skipped, fde)
				continue
			}
			return nil, err
		}
		rep.Folds = append(rep.Folds, *res)
	}

	for _, s := range rep.Skipped {
		log.Debug().Str("symbol", symbol).Int("fold", s.Fold).Msg(s.Reason)
	}
	rep.aggregate()
	return rep, nil
}

func runFold(symbol string, rows []model.FeatureRow, x [][]float64, y []int, f Fold, cfg Config) (*model.FoldResult, error) {
	xTrain, yTrain := x[f.TrainStart:f.TrainEnd], y[f.TrainStart:f.TrainEnd]
	xTest, yTest := x[f.TestStart:f.TestEnd], y[f.TestStart:f.TestEnd]

	logreg := ml.NewLogisticRegression(cfg.LogRegIterations, cfg.LogRegLearningRate, cfg.LogRegL2)
	tree := ml.NewDecisionTree(cfg.TreeMaxDepth, cfg.TreeMinLeaf)
	for _, c := range []ml.Classifier{logreg, tree} {
		if err := c.Fit(xTrain, yTrain); err != nil {
			if errors.Is(err, ml.ErrSingleClass) {
				return nil, &FoldDataError{Fold: f.Index, Reason: "training block has a single class"}
			}
			return nil, fmt.Errorf("fold %d %s: %w", f.Index, c.Name(), err)
		}
	}

	lr := ml.Evaluate(logreg, xTest, yTest)
	tr := ml.Evaluate(tree, xTest, yTest)

	ev := log.Debug().Str("symbol", symbol).Int("fold", f.Index)
	for j, imp := range tree.FeatureImportances() {
		ev = ev.Float64(model.FeatureNames[j], imp)
	}
	ev.Msg("decision tree feature importances")

	if e := log.Debug(); e.Enabled() {
		e.Str("symbol", symbol).Int("fold", f.Index).Floats64("weights", logreg.Weights()).
			Msg("logistic regression coefficients")
	}

	return &model.FoldResult{
		FoldIndex:      f.Index,
		TrainRange:     model.DateRange{From: rows[f.TrainStart].Date, To: rows[f.TrainEnd-1].Date},
		TestRange:      model.DateRange{From: rows[f.TestStart].Date, To: rows[f.TestEnd-1].Date},
		TrainRows:      f.TrainLen(),
		TestRows:       f.TestLen(),
		AccuracyLogReg: lr.Accuracy,
		AccuracyTree:   tr.Accuracy,
		LogReg:         lr,
		Tree:           tr,
	}, nil
}

func (r *Report) aggregate() {
	if len(r.Folds) == 0 {
		r.Status = model.MLInsufficientData
		return
	}
	r.Status = model.MLOK
	if len(r.Skipped) > 0 {
		r.Status = model.MLPartial
	}

	lr := make([]model.ClassifierScores, len(r.Folds))
	tr := make([]model.ClassifierScores, len(r.Folds))
	for i, f := range r.Folds {
		lr[i], tr[i] = f.LogReg, f.Tree
	}
	r.MeanLogReg = meanScores(lr)
	r.MeanTree = meanScores(tr)
	r.AccuracyLogReg = model.Some(r.MeanLogReg.Accuracy)
	r.AccuracyTree = model.Some(r.MeanTree.Accuracy)
}

// meanScores averages every metric; ROC AUC is averaged over the folds where
// it is defined.
func meanScores(all []model.ClassifierScores) model.ClassifierScores {
	var m model.ClassifierScores
	aucSum, aucN := 0.0, 0
	for _, s := range all {
		m.Accuracy += s.Accuracy
		m.Precision += s.Precision
		m.Recall += s.Recall
		m.F1 += s.F1
		if s.ROCAUC.OK {
			aucSum += s.ROCAUC.V
			aucN++
		}
	}
	n := float64(len(all))
	m.Accuracy /= n
	m.Precision /= n
	m.Recall /= n
	m.F1 /= n
	if aucN > 0 {
		m.ROCAUC = model.Some(aucSum / float64(aucN))
	}
	return m
}
