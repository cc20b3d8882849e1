// Package artifact persists training runs as versioned directories. Every
// file is an envelope carrying the run id, so a preprocessor and model can
// only be loaded as the pair they were published as.
package artifact

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	KindPreprocessor = "preprocessor"
	KindModel        = "model"
	KindMetrics      = "metrics"
)

const (
	manifestFile     = "manifest.json"
	preprocessorFile = "preprocessor.json"
	modelFile        = "model.json"
	metricsFile      = "metrics.json"
	latestFile       = "latest"
)

// Envelope wraps one artifact payload with its run identity. Payload bytes
// are exactly what the producer marshaled; two runs over identical inputs
// differ only in run_id.
type Envelope struct {
	RunID   string          `json:"run_id"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Manifest records what a run published and how to verify it.
type Manifest struct {
	RunID      string            `json:"run_id"`
	CreatedAt  time.Time         `json:"created_at"`
	ConfigHash string            `json:"config_hash"`
	Files      map[string]string `json:"files"` // file name -> sha256 hex
}

// VersionMismatchError means the files under a run directory do not belong
// together. Loading stops; nothing partial is returned.
type VersionMismatchError struct {
	File   string
	Reason string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("artifact %s: %s", e.File, e.Reason)
}
