package ml

import "sort"

// DecisionTree is a CART classifier using weighted Gini impurity with
// balanced class weights.
type DecisionTree struct {
	MaxDepth int
	MinLeaf  int

	root        *treeNode
	importances []float64
}

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	prob      float64 // weighted share of label 1 at this node
	leaf      bool
}

// NewDecisionTree returns a tree limited to maxDepth levels and at least
// minLeaf samples per leaf.
func NewDecisionTree(maxDepth, minLeaf int) *DecisionTree {
	if minLeaf < 1 {
		minLeaf = 1
	}
	return &DecisionTree{MaxDepth: maxDepth, MinLeaf: minLeaf}
}

func (t *DecisionTree) Name() string { return "tree" }

// Fit grows the tree.
func (t *DecisionTree) Fit(x [][]float64, y []int) error {
	if err := checkShape(x, y); err != nil {
		return err
	}
	cw, err := balancedWeights(y)
	if err != nil {
		return err
	}
	w := make([]float64, len(y))
	for i, label := range y {
		w[i] = cw[label]
	}
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	t.importances = make([]float64, len(x[0]))
	t.root = t.grow(x, y, w, idx, 0)

	total := 0.0
	for _, v := range t.importances {
		total += v
	}
	if total > 0 {
		for j := range t.importances {
			t.importances[j] /= total
		}
	}
	return nil
}

// PredictProba walks the tree to a leaf.
func (t *DecisionTree) PredictProba(x []float64) float64 {
	n := t.root
	if n == nil {
		return 0.5
	}
	for !n.leaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.prob
}

// FeatureImportances returns normalized weighted impurity decreases.
func (t *DecisionTree) FeatureImportances() []float64 {
	return append([]float64(nil), t.importances...)
}

func (t *DecisionTree) grow(x [][]float64, y []int, w []float64, idx []int, depth int) *treeNode {
	w0, w1 := classWeights(y, w, idx)
	node := &treeNode{prob: w1 / (w0 + w1), leaf: true}
	if depth >= t.MaxDepth || len(idx) < 2*t.MinLeaf || w0 == 0 || w1 == 0 {
		return node
	}

	parentImpurity := gini(w0, w1)
	bestGain := 0.0
	bestFeature, bestPos := -1, 0
	var bestThreshold float64
	var bestOrder []int

	for f := 0; f < len(x[idx[0]]); f++ {
		order := append([]int(nil), idx...)
		sort.SliceStable(order, func(a, b int) bool { return x[order[a]][f] < x[order[b]][f] })

		var l0, l1 float64
		for pos := 1; pos < len(order); pos++ {
			prev := order[pos-1]
			if y[prev] == 1 {
				l1 += w[prev]
			} else {
				l0 += w[prev]
			}
			if pos < t.MinLeaf || len(order)-pos < t.MinLeaf {
				continue
			}
			lo, hi := x[prev][f], x[order[pos]][f]
			if lo == hi {
				continue
			}
			r0, r1 := w0-l0, w1-l1
			lw, rw := l0+l1, r0+r1
			child := (lw*gini(l0, l1) + rw*gini(r0, r1)) / (lw + rw)
			if gain := parentImpurity - child; gain > bestGain+1e-12 {
				bestGain = gain
				bestFeature = f
				bestPos = pos
				bestThreshold = (lo + hi) / 2
				bestOrder = order
			}
		}
	}
	if bestFeature < 0 {
		return node
	}

	t.importances[bestFeature] += bestGain * (w0 + w1)
	node.leaf = false
	node.feature = bestFeature
	node.threshold = bestThreshold
	node.left = t.grow(x, y, w, bestOrder[:bestPos], depth+1)
	node.right = t.grow(x, y, w, bestOrder[bestPos:], depth+1)
	return node
}

func classWeights(y []int, w []float64, idx []int) (w0, w1 float64) {
	for _, i := range idx {
		if y[i] == 1 {
			w1 += w[i]
		} else {
			w0 += w[i]
		}
	}
	return w0, w1
}

func gini(w0, w1 float64) float64 {
	total := w0 + w1
	if total == 0 {
		return 0
	}
	p0, p1 := w0/total, w1/total
	return 1 - p0*p0 - p1*p1
}
