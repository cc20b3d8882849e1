// Package model implements binary logistic regression trained with
// deterministic full-batch gradient descent, plus hold-out evaluation
// metrics. Weights start at zero and every update is a pure function of the
// inputs, so identical data and options always produce identical models.
package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Options are the gradient-descent hyperparameters.
type Options struct {
	LearningRate float64 `json:"learning_rate"`
	MaxEpochs    int     `json:"max_epochs"`
	Tolerance    float64 `json:"tolerance"`
	L2           float64 `json:"l2"`
}

// ConvergenceError reports an exhausted epoch budget. The caller must not
// persist anything from the failed fit.
type ConvergenceError struct {
	Epochs    int
	LastDelta float64
	Tolerance float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("model: no convergence after %d epochs (last loss delta %.3g, tolerance %.3g)",
		e.Epochs, e.LastDelta, e.Tolerance)
}

// LogisticRegression is a fitted binary classifier. Immutable after Fit.
type LogisticRegression struct {
	weights  []float64
	bias     float64
	features []string
	epochs   int
}

const probEps = 1e-15

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

// Fit trains on X (rows are samples) against binary labels y.
func Fit(X *mat.Dense, y []float64, features []string, opts Options) (*LogisticRegression, error) {
	rows, cols := X.Dims()
	if rows != len(y) {
		return nil, fmt.Errorf("model: %d feature rows but %d labels", rows, len(y))
	}
	if rows == 0 {
		return nil, fmt.Errorf("model: empty training set")
	}
	if len(features) != cols {
		return nil, fmt.Errorf("model: %d feature names for %d columns", len(features), cols)
	}

	w := mat.NewVecDense(cols, nil)
	bias := 0.0
	n := float64(rows)

	z := mat.NewVecDense(rows, nil)
	diff := mat.NewVecDense(rows, nil)
	grad := mat.NewVecDense(cols, nil)

	prevLoss := math.Inf(1)
	for epoch := 1; epoch <= opts.MaxEpochs; epoch++ {
		z.MulVec(X, w)
		loss := 0.0
		for i := 0; i < rows; i++ {
			p := sigmoid(z.AtVec(i) + bias)
			diff.SetVec(i, p-y[i])
			loss -= y[i]*math.Log(clampProb(p)) + (1-y[i])*math.Log(clampProb(1-p))
		}
		loss /= n
		if opts.L2 > 0 {
			loss += opts.L2 / (2 * n) * mat.Dot(w, w)
		}

		delta := math.Abs(prevLoss - loss)
		if delta < opts.Tolerance {
			return &LogisticRegression{
				weights:  vecSlice(w),
				bias:     bias,
				features: append([]string{}, features...),
				epochs:   epoch,
			}, nil
		}
		prevLoss = loss

		grad.MulVec(X.T(), diff)
		if opts.L2 > 0 {
			grad.AddScaledVec(grad, opts.L2, w)
		}
		w.AddScaledVec(w, -opts.LearningRate/n, grad)
		bias -= opts.LearningRate / n * mat.Sum(diff)
	}

	lastDelta := math.Abs(prevLoss - lossOf(X, y, w, bias, opts.L2))
	return nil, &ConvergenceError{Epochs: opts.MaxEpochs, LastDelta: lastDelta, Tolerance: opts.Tolerance}
}

func lossOf(X *mat.Dense, y []float64, w *mat.VecDense, bias, l2 float64) float64 {
	rows, _ := X.Dims()
	z := mat.NewVecDense(rows, nil)
	z.MulVec(X, w)
	loss := 0.0
	for i := 0; i < rows; i++ {
		p := sigmoid(z.AtVec(i) + bias)
		loss -= y[i]*math.Log(clampProb(p)) + (1-y[i])*math.Log(clampProb(1-p))
	}
	loss /= float64(rows)
	if l2 > 0 {
		loss += l2 / (2 * float64(rows)) * mat.Dot(w, w)
	}
	return loss
}

func clampProb(p float64) float64 {
	if p < probEps {
		return probEps
	}
	if p > 1-probEps {
		return 1 - probEps
	}
	return p
}

func vecSlice(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}

// PredictProba returns the positive-class probability per row.
func (m *LogisticRegression) PredictProba(X *mat.Dense) ([]float64, error) {
	rows, cols := X.Dims()
	if cols != len(m.weights) {
		return nil, fmt.Errorf("model: %d feature columns, fitted on %d", cols, len(m.weights))
	}
	w := mat.NewVecDense(len(m.weights), append([]float64{}, m.weights...))
	z := mat.NewVecDense(rows, nil)
	z.MulVec(X, w)
	out := make([]float64, rows)
	for i := range out {
		out[i] = sigmoid(z.AtVec(i) + m.bias)
	}
	return out, nil
}

// Predict thresholds PredictProba at 0.5.
func (m *LogisticRegression) Predict(X *mat.Dense) ([]int, error) {
	probs, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(probs))
	for i, p := range probs {
		if p >= 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

// Epochs reports how many epochs the fit ran before converging.
func (m *LogisticRegression) Epochs() int { return m.epochs }

// FeatureNames returns the feature order the model was fitted on.
func (m *LogisticRegression) FeatureNames() []string {
	return append([]string{}, m.features...)
}
