package loader

import (
	"context"
	"fmt"

	"churnpipe/internal/dataset"
)

// Adapter is the common behaviour every dataset loading strategy exposes.
type Adapter interface {
	Configure(options map[string]any) error
	Load(context.Context) (dataset.Raw, error)
}

// Factory builds an Adapter (e.g., csvdir, future object-store strategies).
type Factory func() Adapter

var registry = map[string]Factory{}

// Register is called from each strategy's init().
func Register(name string, f Factory) {
	registry[name] = f
}

// New returns a loading strategy by name ("csvdir", ...).
func New(name string) (Adapter, error) {
	if f, ok := registry[name]; ok {
		return f(), nil
	}
	return nil, fmt.Errorf("loader: unsupported strategy %q", name)
}

// Names lists the registered strategies, for config validation messages.
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	return out
}
