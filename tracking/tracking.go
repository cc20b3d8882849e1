// Package tracking publishes completed-run reports to external systems.
// Publishing is best effort: the training run never fails because a report
// could not be delivered.
package tracking

import (
	"fmt"

	"churnpipe/internal/train"
)

// Report is the record of one completed run.
type Report struct {
	RunID       string           `json:"run_id"`
	ConfigHash  string           `json:"config_hash"`
	ArtifactDir string           `json:"artifact_dir"`
	Metrics     train.RunMetrics `json:"metrics"`
}

// Publisher is the common behaviour every tracking driver exposes.
type Publisher interface {
	Configure(any) error // driver-specific config struct
	Publish(Report) error
	Close() error // idempotent
}

type factory = func() Publisher

var reg = map[string]factory{}

func Register(name string, f factory) { reg[name] = f }

func New(name string) (Publisher, error) {
	if f, ok := reg[name]; ok {
		return f(), nil
	}
	return nil, fmt.Errorf("unknown tracking publisher %q", name)
}
