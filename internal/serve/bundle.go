package serve

import (
	"encoding/json"
	"fmt"
	"time"

	"churnpipe/internal/artifact"
	"churnpipe/internal/model"
	"churnpipe/internal/preprocess"
	"churnpipe/internal/train"
)

// Bundle is one loaded run, immutable once built. Requests snapshot the
// current bundle pointer and never touch shared mutable state.
type Bundle struct {
	RunID        string
	ConfigHash   string
	CreatedAt    time.Time
	Preprocessor *preprocess.FittedPreprocessor
	Model        *model.LogisticRegression
	Metrics      train.RunMetrics
}

// LoadBundle resolves the selector ("latest" or a run id), loads the run,
// and decodes its payloads. Pairing is enforced by the artifact store before
// anything is decoded.
func LoadBundle(store *artifact.Store, selector string) (*Bundle, error) {
	id, err := store.Resolve(selector)
	if err != nil {
		return nil, err
	}
	run, err := store.Load(id)
	if err != nil {
		return nil, err
	}

	b := &Bundle{
		RunID:        run.ID,
		ConfigHash:   run.Manifest.ConfigHash,
		CreatedAt:    run.Manifest.CreatedAt,
		Preprocessor: &preprocess.FittedPreprocessor{},
		Model:        &model.LogisticRegression{},
	}
	if err := json.Unmarshal(run.Preprocessor, b.Preprocessor); err != nil {
		return nil, fmt.Errorf("serve: decode preprocessor of run %s: %w", id, err)
	}
	if err := json.Unmarshal(run.Model, b.Model); err != nil {
		return nil, fmt.Errorf("serve: decode model of run %s: %w", id, err)
	}
	if err := json.Unmarshal(run.Metrics, &b.Metrics); err != nil {
		return nil, fmt.Errorf("serve: decode metrics of run %s: %w", id, err)
	}
	return b, nil
}
