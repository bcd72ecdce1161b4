package ml

import "math"

// LogisticRegression is a balanced-class, L2-regularized logistic model
// trained by batch gradient descent on standardized features.
type LogisticRegression struct {
	Iterations   int
	LearningRate float64
	L2           float64

	scaler  StandardScaler
	weights []float64
	bias    float64
}

// NewLogisticRegression returns a model with the given training settings.
func NewLogisticRegression(iterations int, learningRate, l2 float64) *LogisticRegression {
	return &LogisticRegression{Iterations: iterations, LearningRate: learningRate, L2: l2}
}

func (m *LogisticRegression) Name() string { return "logreg" }

// Fit trains the model. The scaler is fitted on x only.
func (m *LogisticRegression) Fit(x [][]float64, y []int) error {
	if err := checkShape(x, y); err != nil {
		return err
	}
	cw, err := balancedWeights(y)
	if err != nil {
		return err
	}

	m.scaler.Fit(x)
	xs := m.scaler.TransformAll(x)
	width := len(xs[0])
	m.weights = make([]float64, width)
	m.bias = 0

	n := float64(len(xs))
	grad := make([]float64, width)
	for it := 0; it < m.Iterations; it++ {
		for j := range grad {
			grad[j] = 0
		}
		gradBias := 0.0
		for i, row := range xs {
			p := sigmoid(dot(m.weights, row) + m.bias)
			diff := cw[y[i]] * (p - float64(y[i]))
			for j, v := range row {
				grad[j] += diff * v
			}
			gradBias += diff
		}
		for j := range m.weights {
			m.weights[j] -= m.LearningRate * (grad[j]/n + m.L2*m.weights[j])
		}
		m.bias -= m.LearningRate * gradBias / n
	}
	return nil
}

// PredictProba returns P(label = 1) for a raw, unscaled row.
func (m *LogisticRegression) PredictProba(x []float64) float64 {
	if m.weights == nil {
		return 0.5
	}
	return sigmoid(dot(m.weights, m.scaler.Transform(x)) + m.bias)
}

// Weights returns the fitted coefficients in standardized feature space.
func (m *LogisticRegression) Weights() []float64 {
	return append([]float64(nil), m.weights...)
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
