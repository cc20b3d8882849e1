package pipeline

import (
	"fmt"

	"churnpipe/internal/artifact"
	"churnpipe/internal/config"
	"churnpipe/loader"
	"churnpipe/tracking"
	"churnpipe/tracking/kafka"
	"churnpipe/tracking/stdout"
)

// Compile loads the config at path and wires a ready-to-run pipeline: the
// loading strategy, the artifact store, and the tracking publisher.
func Compile(path string) (*Runner, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	src, err := loader.New(cfg.Data.Strategy)
	if err != nil {
		return nil, err
	}
	if err := src.Configure(cfg.Data.Options); err != nil {
		return nil, err
	}

	pub, err := tracking.New(cfg.Tracking.Publisher)
	if err != nil {
		return nil, err
	}
	switch cfg.Tracking.Publisher {
	case "kafka":
		err = pub.Configure(kafka.Config{
			Brokers: cfg.Tracking.Brokers,
			Topic:   cfg.Tracking.Topic,
			Acks:    1,
		})
	case "stdout":
		err = pub.Configure(stdout.Config{})
	default:
		err = fmt.Errorf("no config block for tracking publisher %q", cfg.Tracking.Publisher)
	}
	if err != nil {
		return nil, err
	}

	r := NewRunner(cfg)
	r.SetSource(src)
	r.SetTracker(pub)
	r.SetStore(artifact.NewStore(cfg.ArtifactRoot))
	return r, nil
}
