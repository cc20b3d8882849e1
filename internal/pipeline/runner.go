// Package pipeline sequences one training run: load, validate, train,
// publish, report. Compile wires the stages from config; Run executes them.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"churnpipe/internal/artifact"
	"churnpipe/internal/config"
	"churnpipe/internal/logging"
	"churnpipe/internal/model"
	"churnpipe/internal/preprocess"
	"churnpipe/internal/schema"
	"churnpipe/internal/telemetry"
	"churnpipe/internal/train"
	"churnpipe/loader"
	"churnpipe/tracking"
)

type Runner struct {
	cfg     *config.Config
	source  loader.Adapter
	tracker tracking.Publisher
	store   *artifact.Store
}

func NewRunner(cfg *config.Config) *Runner { return &Runner{cfg: cfg} }

func (r *Runner) SetSource(s loader.Adapter)      { r.source = s }
func (r *Runner) SetTracker(p tracking.Publisher) { r.tracker = p }
func (r *Runner) SetStore(s *artifact.Store)      { r.store = s }

// Config exposes the compiled configuration, e.g. for metrics exposition.
func (r *Runner) Config() *config.Config { return r.cfg }

// Run executes the pipeline once and returns the published result. A
// tracking failure is logged and counted but never fails the run.
func (r *Runner) Run(ctx context.Context) (*train.Result, error) {
	log := logging.With("pipeline")
	if r.source == nil || r.store == nil {
		return nil, errors.New("runner: not fully wired")
	}
	started := time.Now()

	res, err := r.run(ctx, log)
	telemetry.RunDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		telemetry.RunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	telemetry.RunsTotal.WithLabelValues("ok").Inc()

	log.Info("run complete",
		"run_id", res.RunID,
		"train_rows", res.Metrics.TrainRows,
		"eval_rows", res.Metrics.EvalRows,
		"accuracy", res.Metrics.Accuracy,
		"roc_auc", res.Metrics.ROCAUC,
		"epochs", res.Metrics.ConvergedEpochs,
		"duration", time.Since(started))

	r.report(res, log)
	return res, nil
}

func (r *Runner) run(ctx context.Context, log *slog.Logger) (*train.Result, error) {
	raw, err := r.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	log.Debug("dataset loaded", "rows", len(raw.Rows), "columns", len(raw.Header))

	tbl, err := schema.Validate(raw, r.cfg.Schema)
	if err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			telemetry.ValidationFailures.Add(float64(len(verr.Violations)))
		}
		return nil, err
	}
	if dropped := undeclared(raw.Header, r.cfg.Schema); len(dropped) > 0 {
		log.Debug("undeclared columns dropped", "columns", dropped)
	}
	telemetry.RowsValidated.Add(float64(tbl.Rows()))

	return train.Run(ctx, tbl, train.Params{
		Spec: preprocess.Spec{
			Scale:    r.cfg.Transform.Scale,
			OneHot:   r.cfg.Transform.OneHot,
			Ordinal:  r.cfg.Transform.Ordinal,
			Target:   r.cfg.Target.Column,
			Positive: r.cfg.Target.Positive,
		},
		Ratio:    r.cfg.Split.Ratio,
		Stratify: r.cfg.Split.Stratify,
		Seed:     r.cfg.Seed,
		Options: model.Options{
			LearningRate: r.cfg.Model.LearningRate,
			MaxEpochs:    r.cfg.Model.MaxEpochs,
			Tolerance:    r.cfg.Model.Tolerance,
			L2:           r.cfg.Model.L2,
		},
		ConfigHash: r.cfg.Hash,
		Store:      r.store,
	})
}

func undeclared(header []string, s *schema.Schema) []string {
	var out []string
	for _, name := range header {
		if _, ok := s.Column(name); !ok {
			out = append(out, name)
		}
	}
	return out
}

func (r *Runner) report(res *train.Result, log *slog.Logger) {
	if r.tracker == nil {
		return
	}
	err := r.tracker.Publish(tracking.Report{
		RunID:       res.RunID,
		ConfigHash:  r.cfg.Hash,
		ArtifactDir: res.ArtifactDir,
		Metrics:     res.Metrics,
	})
	if err != nil {
		telemetry.TrackingFailures.Inc()
		log.Warn("run report not delivered", "run_id", res.RunID, "err", err)
	}
}

// Close releases the tracking publisher, flushing any buffered reports.
func (r *Runner) Close() error {
	if r.tracker == nil {
		return nil
	}
	return r.tracker.Close()
}
