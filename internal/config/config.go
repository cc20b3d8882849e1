// Package config loads and validates the pipeline configuration. A config is
// a YAML file merged with environment overrides; the table schema lives in a
// separate YAML file referenced by (usually relative) path.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"churnpipe/internal/schema"
)

const SupportedSchema = "v1"

// EnvPrefix is the override namespace, e.g. CHURNPIPE__MODEL__MAX_EPOCHS=900.
const EnvPrefix = "CHURNPIPE__"

type DataCfg struct {
	Strategy string         `koanf:"strategy" json:"strategy"`
	Options  map[string]any `koanf:"options" json:"options"`
}

type SplitCfg struct {
	// Ratio is the held-out evaluation fraction.
	Ratio    float64 `koanf:"ratio" json:"ratio"`
	Stratify bool    `koanf:"stratify" json:"stratify"`
}

type TransformCfg struct {
	Scale   []string `koanf:"scale" json:"scale"`
	OneHot  []string `koanf:"onehot" json:"onehot"`
	Ordinal []string `koanf:"ordinal" json:"ordinal"`
}

type TargetCfg struct {
	Column   string `koanf:"column" json:"column"`
	Positive string `koanf:"positive" json:"positive"`
}

type ModelCfg struct {
	LearningRate float64 `koanf:"learning_rate" json:"learning_rate"`
	MaxEpochs    int     `koanf:"max_epochs" json:"max_epochs"`
	Tolerance    float64 `koanf:"tolerance" json:"tolerance"`
	L2           float64 `koanf:"l2" json:"l2"`
}

type TrackingCfg struct {
	Publisher string   `koanf:"publisher" json:"publisher"` // stdout | kafka
	Brokers   []string `koanf:"brokers" json:"brokers"`
	Topic     string   `koanf:"topic" json:"topic"`
}

type ServeCfg struct {
	Addr        string `koanf:"addr" json:"addr"`
	MetricsAddr string `koanf:"metrics_addr" json:"metrics_addr"`
	Run         string `koanf:"run" json:"run"` // run id or "latest"
}

type Config struct {
	SchemaVersion string       `koanf:"schema_version" json:"schema_version"`
	SchemaFile    string       `koanf:"schema_file" json:"schema_file"`
	Data          DataCfg      `koanf:"data" json:"data"`
	Split         SplitCfg     `koanf:"split" json:"split"`
	Transform     TransformCfg `koanf:"transform" json:"transform"`
	Target        TargetCfg    `koanf:"target" json:"target"`
	Model         ModelCfg     `koanf:"model" json:"model"`
	ArtifactRoot  string       `koanf:"artifact_root" json:"artifact_root"`
	Tracking      TrackingCfg  `koanf:"tracking" json:"tracking"`
	Serve         ServeCfg     `koanf:"serve" json:"serve"`
	Seed          int64        `koanf:"seed" json:"seed"`

	// Resolved at load time, not part of the declarative config.
	Schema *schema.Schema `koanf:"-" json:"-"`
	Hash   string         `koanf:"-" json:"-"`
}

// Load merges the YAML file with env-vars (prefix CHURNPIPE__, delimiter __),
// resolves and parses the referenced table schema, validates everything, and
// computes the run's config hash.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
		!errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	sv := k.String("schema_version")
	if sv != "" && sv != SupportedSchema {
		return nil, fmt.Errorf("pipeline schema_version %q not supported (want %q)", sv, SupportedSchema)
	}

	_ = k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil)

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	schemaPath := cfg.SchemaFile
	if schemaPath != "" && !filepath.IsAbs(schemaPath) {
		schemaPath = filepath.Join(filepath.Dir(path), schemaPath)
	}
	if schemaPath == "" {
		return nil, fmt.Errorf("config: schema_file is required")
	}
	s, err := schema.Load(schemaPath)
	if err != nil {
		return nil, err
	}
	cfg.Schema = s

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	schemaRaw, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, err
	}
	cfg.Hash = hash(cfg, schemaRaw)
	return cfg, nil
}

func applyDefaults(c *Config) {
	if c.SchemaVersion == "" {
		c.SchemaVersion = SupportedSchema
	}
	if c.Split.Ratio == 0 {
		c.Split.Ratio = 0.25
	}
	if c.Model.LearningRate == 0 {
		c.Model.LearningRate = 0.1
	}
	if c.Model.MaxEpochs == 0 {
		c.Model.MaxEpochs = 500
	}
	if c.Model.Tolerance == 0 {
		c.Model.Tolerance = 1e-6
	}
	if c.Tracking.Publisher == "" {
		c.Tracking.Publisher = "stdout"
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = ":8080"
	}
	if c.Serve.MetricsAddr == "" {
		c.Serve.MetricsAddr = ":9090"
	}
	if c.Serve.Run == "" {
		c.Serve.Run = "latest"
	}
}

// hash digests the declarative config plus the schema file bytes, so two runs
// with the same hash trained under identical settings.
func hash(c *Config, schemaRaw []byte) string {
	h := sha256.New()
	enc, _ := json.Marshal(c)
	h.Write(enc)
	h.Write(schemaRaw)
	return hex.EncodeToString(h.Sum(nil))
}
