// Package serve exposes a published run over HTTP: prediction, run reload,
// and run introspection, plus the usual health probes.
package serve

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"churnpipe/internal/artifact"
	"churnpipe/internal/config"
	"churnpipe/internal/dataset"
	"churnpipe/internal/logging"
	"churnpipe/internal/schema"
	"churnpipe/internal/telemetry"
)

type Server struct {
	cfg    *config.Config
	store  *artifact.Store
	input  *schema.Schema // request schema: the table schema minus the target
	bundle atomic.Pointer[Bundle]
	log    *slog.Logger
}

// NewServer loads the configured run and prepares the request schema.
func NewServer(cfg *config.Config, store *artifact.Store) (*Server, error) {
	cols := make([]schema.Column, 0, len(cfg.Schema.Columns))
	for _, c := range cfg.Schema.Columns {
		if c.Name != cfg.Target.Column {
			cols = append(cols, c)
		}
	}
	input, err := schema.New(cols)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:   cfg,
		store: store,
		input: input,
		log:   logging.With("serve"),
	}
	b, err := LoadBundle(store, cfg.Serve.Run)
	if err != nil {
		return nil, err
	}
	s.bundle.Store(b)
	s.log.Info("run loaded", "run_id", b.RunID, "created_at", b.CreatedAt)
	return s, nil
}

// RegisterRoutes registers all REST API routes on the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", healthz)
	mux.HandleFunc("/readyz", s.readyz)

	mux.HandleFunc("POST /api/v1/predict", s.predict)
	mux.HandleFunc("POST /api/v1/reload", s.reload)
	mux.HandleFunc("GET /api/v1/runs/current", s.currentRun)
}

type predictRequest struct {
	Records []map[string]any `json:"records"`
}

type prediction struct {
	Probability float64 `json:"churn_probability"`
	Label       string  `json:"label"`
}

func (s *Server) predict(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}
	if len(req.Records) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no records given"})
		return
	}

	b := s.bundle.Load()
	raw := dataset.FromRecords(req.Records, s.input.Names())
	tbl, err := schema.Validate(raw, s.input)
	if err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			telemetry.ValidationFailures.Add(float64(len(verr.Violations)))
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":      "schema validation failed",
				"violations": verr.Violations,
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	m, err := b.Preprocessor.Transform(tbl)
	if err != nil {
		s.log.Error("transform failed", "run_id", b.RunID, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	probs, err := b.Model.PredictProba(m.X)
	if err != nil {
		s.log.Error("predict failed", "run_id", b.RunID, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	positive := b.Preprocessor.Positive()
	negative := negativeClass(b.Preprocessor.Classes(), positive)
	out := make([]prediction, len(probs))
	for i, p := range probs {
		out[i] = prediction{Probability: p, Label: negative}
		if p >= 0.5 {
			out[i].Label = positive
		}
	}

	telemetry.Predictions.Add(float64(len(out)))
	telemetry.PredictDuration.Observe(time.Since(started).Seconds())
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":      b.RunID,
		"predictions": out,
	})
}

func negativeClass(classes []string, positive string) string {
	for _, c := range classes {
		if c != positive {
			return c
		}
	}
	return ""
}

type reloadRequest struct {
	Run string `json:"run"`
}

func (s *Server) reload(w http.ResponseWriter, r *http.Request) {
	var req reloadRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // empty body means latest
	}
	selector := req.Run
	if selector == "" {
		selector = "latest"
	}

	b, err := LoadBundle(s.store, selector)
	if err != nil {
		telemetry.Reloads.WithLabelValues("error").Inc()
		s.log.Error("reload failed", "selector", selector, "err", err)
		status := http.StatusInternalServerError
		if errors.Is(err, fs.ErrNotExist) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	s.bundle.Store(b)
	telemetry.Reloads.WithLabelValues("ok").Inc()
	s.log.Info("run reloaded", "run_id", b.RunID)
	writeJSON(w, http.StatusOK, map[string]string{"run_id": b.RunID})
}

func (s *Server) currentRun(w http.ResponseWriter, r *http.Request) {
	b := s.bundle.Load()
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":      b.RunID,
		"config_hash": b.ConfigHash,
		"created_at":  b.CreatedAt,
		"metrics":     b.Metrics,
	})
}

func healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.bundle.Load() == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
