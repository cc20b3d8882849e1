package config

import (
	"fmt"
	"strings"
)

// Validate checks the whole config at once and reports every problem in a
// single error, so a misconfigured pipeline is fixed in one round trip.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Data.Strategy == "" {
		add("data.strategy is required")
	}
	if c.Split.Ratio <= 0 || c.Split.Ratio >= 1 {
		add("split.ratio must be in (0,1), got %v", c.Split.Ratio)
	}
	if c.Target.Column == "" {
		add("target.column is required")
	}
	if c.Target.Positive == "" {
		add("target.positive is required")
	}
	if c.Model.MaxEpochs <= 0 {
		add("model.max_epochs must be positive, got %d", c.Model.MaxEpochs)
	}
	if c.Model.LearningRate <= 0 {
		add("model.learning_rate must be positive, got %v", c.Model.LearningRate)
	}
	if c.Model.Tolerance < 0 {
		add("model.tolerance must not be negative, got %v", c.Model.Tolerance)
	}
	if c.Model.L2 < 0 {
		add("model.l2 must not be negative, got %v", c.Model.L2)
	}
	if c.ArtifactRoot == "" {
		add("artifact_root is required")
	}
	if c.Tracking.Publisher == "kafka" {
		if len(c.Tracking.Brokers) == 0 {
			add("tracking.brokers is required for the kafka publisher")
		}
		if c.Tracking.Topic == "" {
			add("tracking.topic is required for the kafka publisher")
		}
	}

	lists := []struct {
		name string
		cols []string
	}{
		{"transform.scale", c.Transform.Scale},
		{"transform.onehot", c.Transform.OneHot},
		{"transform.ordinal", c.Transform.Ordinal},
	}
	seen := map[string]string{}
	for _, l := range lists {
		for _, col := range l.cols {
			if prev, dup := seen[col]; dup {
				add("column %q listed in both %s and %s", col, prev, l.name)
				continue
			}
			seen[col] = l.name
			if col == c.Target.Column {
				add("target column %q must not appear in %s", col, l.name)
			}
		}
	}

	if c.Schema != nil {
		for _, l := range lists {
			for _, col := range l.cols {
				if _, ok := c.Schema.Column(col); !ok {
					add("%s references column %q not in the schema", l.name, col)
				}
			}
		}
		if c.Target.Column != "" {
			if _, ok := c.Schema.Column(c.Target.Column); !ok {
				add("target.column %q not in the schema", c.Target.Column)
			}
		}
		for _, col := range c.Transform.Scale {
			def, ok := c.Schema.Column(col)
			if ok && !def.Type.Numeric() {
				add("transform.scale column %q is not numeric (type %s)", col, def.Type)
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration (%d problems): %s",
		len(problems), strings.Join(problems, "; "))
}
