// Package train runs one training pass end to end: split the validated
// table, fit the preprocessor and model on the train partition, score the
// hold-out partition, and publish everything under a single run id.
package train

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"churnpipe/internal/artifact"
	"churnpipe/internal/dataset"
	"churnpipe/internal/model"
	"churnpipe/internal/preprocess"
)

// RunMetrics extends the hold-out scores with run bookkeeping. Written once
// when the run completes, never updated.
type RunMetrics struct {
	model.Metrics
	TrainRows       int `json:"train_rows"`
	EvalRows        int `json:"eval_rows"`
	ConvergedEpochs int `json:"converged_epochs"`
}

// Params configures one run.
type Params struct {
	Spec       preprocess.Spec
	Ratio      float64
	Stratify   bool
	Seed       int64
	Options    model.Options
	ConfigHash string
	Store      *artifact.Store
	RunID      string // assigned if empty
}

// Result is a completed, published run.
type Result struct {
	RunID        string
	Preprocessor *preprocess.FittedPreprocessor
	Model        *model.LogisticRegression
	Metrics      RunMetrics
	ArtifactDir  string
}

// Run trains on tbl. Any failure before publish leaves the artifact root
// untouched; previously published runs are never modified.
func Run(ctx context.Context, tbl *dataset.Table, p Params) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target, ok := tbl.Column(p.Spec.Target)
	if !ok {
		return nil, fmt.Errorf("train: target column %q not in table", p.Spec.Target)
	}
	labels := make([]string, tbl.Rows())
	for i := range labels {
		if target.Missing[i] {
			return nil, fmt.Errorf("train: target column %q has a missing value at row %d", p.Spec.Target, i)
		}
		labels[i] = target.CategoryAt(i)
	}

	rng := rand.New(rand.NewSource(p.Seed))
	trainIdx, evalIdx, err := Split(labels, p.Ratio, p.Stratify, rng)
	if err != nil {
		return nil, err
	}
	trainTbl := tbl.Select(trainIdx)
	evalTbl := tbl.Select(evalIdx)

	fp, X, err := preprocess.FitTransform(trainTbl, p.Spec)
	if err != nil {
		return nil, err
	}
	y, err := fp.Labels(trainTbl)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := model.Fit(X.X, y, X.Names, p.Options)
	if err != nil {
		return nil, err
	}

	evalX, err := fp.Transform(evalTbl)
	if err != nil {
		return nil, err
	}
	evalY, err := fp.Labels(evalTbl)
	if err != nil {
		return nil, err
	}
	probs, err := m.PredictProba(evalX.X)
	if err != nil {
		return nil, err
	}

	metrics := RunMetrics{
		Metrics:         model.Evaluate(probs, evalY),
		TrainRows:       len(trainIdx),
		EvalRows:        len(evalIdx),
		ConvergedEpochs: m.Epochs(),
	}

	runID := p.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	dir, err := p.Store.Publish(artifact.PublishInput{
		RunID:        runID,
		ConfigHash:   p.ConfigHash,
		Preprocessor: fp,
		Model:        m,
		Metrics:      metrics,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		RunID:        runID,
		Preprocessor: fp,
		Model:        m,
		Metrics:      metrics,
		ArtifactDir:  dir,
	}, nil
}
