package serve

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"churnpipe/internal/artifact"
	"churnpipe/internal/config"
	"churnpipe/internal/dataset"
	"churnpipe/internal/model"
	"churnpipe/internal/preprocess"
	"churnpipe/internal/schema"
	"churnpipe/internal/train"
)

const serveSchemaDoc = `schema_version: v1
columns:
  - name: signal
    type: float
    min: 0
  - name: plan
    type: string
  - name: churn
    type: string
    allowed: ["yes", "no"]
`

func trainInto(t *testing.T, root, runID string) *train.Result {
	t.Helper()
	const n = 16
	cols := []dataset.Column{
		{Name: "signal", Kind: dataset.Numeric, Floats: make([]float64, n), Missing: make([]bool, n)},
		{Name: "plan", Kind: dataset.Categorical, Strings: make([]string, n), Missing: make([]bool, n)},
		{Name: "churn", Kind: dataset.Categorical, Strings: make([]string, n), Missing: make([]bool, n)},
	}
	for i := 0; i < n; i++ {
		if i < 8 {
			cols[0].Floats[i] = float64(i)
			cols[2].Strings[i] = "no"
		} else {
			cols[0].Floats[i] = float64(i) + 10
			cols[2].Strings[i] = "yes"
		}
		cols[1].Strings[i] = "basic"
		if i%2 == 1 {
			cols[1].Strings[i] = "pro"
		}
	}
	tbl, err := dataset.NewTable(cols)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	res, err := train.Run(context.Background(), tbl, train.Params{
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
		ConfigHash: "serve-hash",
		Store:      artifact.NewStore(root),
		RunID:      runID,
	})
	if err != nil {
		t.Fatalf("train.Run: %v", err)
	}
	return res
}

func testServer(t *testing.T, root, selector string) *http.ServeMux {
	t.Helper()
	s, err := schema.Parse([]byte(serveSchemaDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg := &config.Config{
		Target: config.TargetCfg{Column: "churn", Positive: "yes"},
		Serve:  config.ServeCfg{Run: selector},
		Schema: s,
		Hash:   "serve-hash",
	}
	srv, err := NewServer(cfg, artifact.NewStore(root))
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	return mux
}

func postJSON(t *testing.T, mux *http.ServeMux, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestPredict_ReturnsProbabilitiesAndLabels(t *testing.T) {
	root := t.TempDir()
	trainInto(t, root, "run-1")
	mux := testServer(t, root, "run-1")

	rec := postJSON(t, mux, "/api/v1/predict",
		`{"records":[{"signal":2,"plan":"basic"},{"signal":25,"plan":"pro"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		RunID       string `json:"run_id"`
		Predictions []struct {
			Probability float64 `json:"churn_probability"`
			Label       string  `json:"label"`
		} `json:"predictions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RunID != "run-1" || len(resp.Predictions) != 2 {
		t.Fatalf("want 2 predictions for run-1, got %+v", resp)
	}
	if resp.Predictions[0].Label != "no" || resp.Predictions[1].Label != "yes" {
		t.Fatalf("want labels no/yes, got %+v", resp.Predictions)
	}
	for _, p := range resp.Predictions {
		if p.Probability < 0 || p.Probability > 1 {
			t.Fatalf("probability out of range: %v", p.Probability)
		}
	}
}

func TestPredict_UnknownCategoryStillPredicts(t *testing.T) {
	root := t.TempDir()
	trainInto(t, root, "run-1")
	mux := testServer(t, root, "run-1")

	rec := postJSON(t, mux, "/api/v1/predict",
		`{"records":[{"signal":3,"plan":"enterprise"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 for unseen category, got %d: %s", rec.Code, rec.Body)
	}
}

func TestPredict_SchemaViolationsReturn422WithFullList(t *testing.T) {
	root := t.TempDir()
	trainInto(t, root, "run-1")
	mux := testServer(t, root, "run-1")

	// signal below its minimum AND plan absent: both must be reported
	rec := postJSON(t, mux, "/api/v1/predict", `{"records":[{"signal":-5}]}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("want 422, got %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Violations []schema.Violation `json:"violations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	cols := map[string]bool{}
	for _, v := range resp.Violations {
		cols[v.Column] = true
	}
	if !cols["signal"] || !cols["plan"] {
		t.Fatalf("want violations for signal and plan, got %+v", resp.Violations)
	}
}

func TestPredict_EmptyRecordsRejected(t *testing.T) {
	root := t.TempDir()
	trainInto(t, root, "run-1")
	mux := testServer(t, root, "run-1")

	if rec := postJSON(t, mux, "/api/v1/predict", `{"records":[]}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400 for empty records, got %d", rec.Code)
	}
}

func TestReload_SwapsToLatestRun(t *testing.T) {
	root := t.TempDir()
	trainInto(t, root, "run-1")
	mux := testServer(t, root, "run-1")
	trainInto(t, root, "run-2")

	rec := postJSON(t, mux, "/api/v1/reload", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/current", nil)
	cur := httptest.NewRecorder()
	mux.ServeHTTP(cur, req)
	var resp struct {
		RunID string `json:"run_id"`
	}
	if err := json.Unmarshal(cur.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RunID != "run-2" {
		t.Fatalf("want current run-2 after reload, got %q", resp.RunID)
	}
}

func TestReload_UnknownRunIs404(t *testing.T) {
	root := t.TempDir()
	trainInto(t, root, "run-1")
	mux := testServer(t, root, "run-1")

	if rec := postJSON(t, mux, "/api/v1/reload", `{"run":"no-such-run"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d: %s", rec.Code, rec.Body)
	}
}

func TestHealthEndpoints(t *testing.T) {
	root := t.TempDir()
	trainInto(t, root, "run-1")
	mux := testServer(t, root, "run-1")

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: want 200, got %d", path, rec.Code)
		}
	}
}
