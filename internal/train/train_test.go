package train

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"churnpipe/internal/artifact"
	"churnpipe/internal/dataset"
	"churnpipe/internal/model"
	"churnpipe/internal/preprocess"
)

func runTable(t *testing.T) *dataset.Table {
	t.Helper()
	const n = 16
	signal := make([]float64, n)
	plan := make([]string, n)
	churn := make([]string, n)
	missing := make([]bool, n)
	for i := 0; i < n; i++ {
		if i < 8 {
			signal[i] = float64(i)
			churn[i] = "no"
		} else {
			signal[i] = float64(i) + 10
			churn[i] = "yes"
		}
		if i%2 == 0 {
			plan[i] = "basic"
		} else {
			plan[i] = "pro"
		}
	}
	tbl, err := dataset.NewTable([]dataset.Column{
		{Name: "signal", Kind: dataset.Numeric, Floats: signal, Missing: missing},
		{Name: "plan", Kind: dataset.Categorical, Strings: plan, Missing: make([]bool, n)},
		{Name: "churn", Kind: dataset.Categorical, Strings: churn, Missing: make([]bool, n)},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tbl
}

func runParams(root string) Params {
	return Params{
		Spec: preprocess.Spec{
			Scale:    []string{"signal"},
			OneHot:   []string{"plan"},
			Target:   "churn",
			Positive: "yes",
		},
		Ratio:      0.25,
		Stratify:   true,
		Seed:       69420,
		Options:    model.Options{LearningRate: 0.5, MaxEpochs: 20000, Tolerance: 1e-8, L2: 0.01},
		ConfigHash: "hash-1",
		Store:      artifact.NewStore(root),
	}
}

func TestRun_PublishesPairedArtifacts(t *testing.T) {
	root := t.TempDir()
	res, err := Run(context.Background(), runTable(t), runParams(root))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.RunID == "" {
		t.Fatal("want assigned run id")
	}
	if res.Metrics.TrainRows != 12 || res.Metrics.EvalRows != 4 {
		t.Fatalf("want 12/4 train/eval rows, got %d/%d", res.Metrics.TrainRows, res.Metrics.EvalRows)
	}
	if res.Metrics.Accuracy < 0.75 {
		t.Fatalf("want accuracy on separable data, got %v", res.Metrics.Accuracy)
	}
	if res.Metrics.ConvergedEpochs <= 1 {
		t.Fatalf("want converged epoch count, got %d", res.Metrics.ConvergedEpochs)
	}

	run, err := artifact.NewStore(root).Load(res.RunID)
	if err != nil {
		t.Fatalf("Load published run: %v", err)
	}
	var fp preprocess.FittedPreprocessor
	if err := json.Unmarshal(run.Preprocessor, &fp); err != nil {
		t.Fatalf("decode preprocessor: %v", err)
	}
	var m model.LogisticRegression
	if err := json.Unmarshal(run.Model, &m); err != nil {
		t.Fatalf("decode model: %v", err)
	}
	if run.Manifest.ConfigHash != "hash-1" {
		t.Fatalf("want config hash recorded, got %q", run.Manifest.ConfigHash)
	}
}

func TestRun_SameSeedReproducesPayloads(t *testing.T) {
	root := t.TempDir()
	p := runParams(root)
	p.RunID = "run-a"
	if _, err := Run(context.Background(), runTable(t), p); err != nil {
		t.Fatalf("Run a: %v", err)
	}
	p.RunID = "run-b"
	if _, err := Run(context.Background(), runTable(t), p); err != nil {
		t.Fatalf("Run b: %v", err)
	}

	store := artifact.NewStore(root)
	a, err := store.Load("run-a")
	if err != nil {
		t.Fatalf("Load run-a: %v", err)
	}
	b, err := store.Load("run-b")
	if err != nil {
		t.Fatalf("Load run-b: %v", err)
	}
	if string(a.Preprocessor) != string(b.Preprocessor) {
		t.Fatal("want byte-identical preprocessor payloads for identical inputs")
	}
	if string(a.Model) != string(b.Model) {
		t.Fatal("want byte-identical model payloads for identical inputs")
	}
}

func TestRun_ConvergenceFailurePublishesNothing(t *testing.T) {
	root := t.TempDir()
	p := runParams(root)
	p.Options.MaxEpochs = 2
	p.Options.Tolerance = 0

	_, err := Run(context.Background(), runTable(t), p)
	var cerr *model.ConvergenceError
	if !errors.As(err, &cerr) {
		t.Fatalf("want *ConvergenceError, got %v", err)
	}
	entries, err := os.ReadDir(root)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), ".") {
			t.Fatalf("want no published artifacts, found %s", e.Name())
		}
	}
}

func TestRun_MissingTargetColumnFails(t *testing.T) {
	p := runParams(t.TempDir())
	p.Spec.Target = "absent"
	if _, err := Run(context.Background(), runTable(t), p); err == nil {
		t.Fatal("expected error for missing target column")
	}
}
