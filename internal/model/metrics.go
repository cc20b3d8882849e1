package model

import (
	"math"
	"sort"
)

// Metrics are hold-out evaluation results.
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	ROCAUC    float64 `json:"roc_auc"`
	LogLoss   float64 `json:"log_loss"`
}

// Evaluate scores predicted probabilities against binary labels, thresholding
// at 0.5 for the classification metrics.
func Evaluate(probs, y []float64) Metrics {
	var tp, fp, tn, fn float64
	logLoss := 0.0
	for i, p := range probs {
		logLoss -= y[i]*math.Log(clampProb(p)) + (1-y[i])*math.Log(clampProb(1-p))
		pred := 0.0
		if p >= 0.5 {
			pred = 1
		}
		switch {
		case pred == 1 && y[i] == 1:
			tp++
		case pred == 1 && y[i] == 0:
			fp++
		case pred == 0 && y[i] == 0:
			tn++
		default:
			fn++
		}
	}
	n := float64(len(probs))

	m := Metrics{
		Accuracy: (tp + tn) / n,
		LogLoss:  logLoss / n,
		ROCAUC:   rocAUC(probs, y),
	}
	if tp+fp > 0 {
		m.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		m.Recall = tp / (tp + fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

// rocAUC is the rank statistic form: the probability a random positive scores
// above a random negative, with tied scores counted half.
func rocAUC(probs, y []float64) float64 {
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return probs[idx[a]] < probs[idx[b]] })

	// average ranks over ties
	ranks := make([]float64, len(probs))
	for i := 0; i < len(idx); {
		j := i
		for j < len(idx) && probs[idx[j]] == probs[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2 // 1-based ranks i+1..j averaged
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}

	var pos, sumPos float64
	for i, label := range y {
		if label == 1 {
			pos++
			sumPos += ranks[i]
		}
	}
	neg := float64(len(y)) - pos
	if pos == 0 || neg == 0 {
		return 0.5
	}
	return (sumPos - pos*(pos+1)/2) / (pos * neg)
}
