package ml

import (
	"sort"

	"AlgoSentinel/internal/model"
)

// Evaluate scores a fitted classifier on a held-out block.
func Evaluate(c Classifier, x [][]float64, y []int) model.ClassifierScores {
	proba := make([]float64, len(x))
	for i, row := range x {
		proba[i] = c.PredictProba(row)
	}
	return Score(y, proba)
}

// Score computes accuracy, precision, recall, F1 and ROC AUC from true labels
// and predicted probabilities. Precision, recall and F1 are 0 when undefined.
func Score(y []int, proba []float64) model.ClassifierScores {
	var s model.ClassifierScores
	if len(y) == 0 {
		return s
	}
	var tp, fp, fn, correct int
	for i, label := range y {
		pred := 0
		if proba[i] >= 0.5 {
			pred = 1
		}
		if pred == label {
			correct++
		}
		switch {
		case pred == 1 && label == 1:
			tp++
		case pred == 1 && label == 0:
			fp++
		case pred == 0 && label == 1:
			fn++
		}
	}
	s.Accuracy = float64(correct) / float64(len(y))
	if tp+fp > 0 {
		s.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		s.Recall = float64(tp) / float64(tp+fn)
	}
	if s.Precision+s.Recall > 0 {
		s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
	}
	s.ROCAUC = rocAUC(y, proba)
	return s
}

// rocAUC is the Mann-Whitney U statistic normalized to [0, 1], with average
// ranks for tied scores.
func rocAUC(y []int, proba []float64) model.Value {
	idx := make([]int, len(y))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return proba[idx[a]] < proba[idx[b]] })

	ranks := make([]float64, len(y))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && proba[idx[j+1]] == proba[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}

	var pos, neg int
	rankSum := 0.0
	for i, label := range y {
		if label == 1 {
			pos++
			rankSum += ranks[i]
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return model.None()
	}
	u := rankSum - float64(pos*(pos+1))/2
	return model.Some(u / float64(pos*neg))
}
