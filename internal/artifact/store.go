package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store reads and writes run directories under one root.
type Store struct {
	root string
}

func NewStore(root string) *Store { return &Store{root: root} }

// PublishInput carries the documents of one finished run. Payload values
// must marshal deterministically.
type PublishInput struct {
	RunID        string
	ConfigHash   string
	Preprocessor any
	Model        any
	Metrics      any
}

// Publish stages the run into a hidden directory and renames it into place,
// then moves the latest pointer. A failure leaves no visible run directory.
func (s *Store) Publish(in PublishInput) (string, error) {
	if in.RunID == "" {
		return "", fmt.Errorf("artifact: empty run id")
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", err
	}
	stage := filepath.Join(s.root, ".stage-"+in.RunID)
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return "", err
	}
	defer os.RemoveAll(stage)

	files := map[string]string{}
	for name, doc := range map[string]struct {
		kind    string
		payload any
	}{
		preprocessorFile: {KindPreprocessor, in.Preprocessor},
		modelFile:        {KindModel, in.Model},
		metricsFile:      {KindMetrics, in.Metrics},
	} {
		raw, err := writeEnvelope(filepath.Join(stage, name), in.RunID, doc.kind, doc.payload)
		if err != nil {
			return "", err
		}
		files[name] = sha256Hex(raw)
	}

	manifest := Manifest{
		RunID:      in.RunID,
		CreatedAt:  time.Now().UTC(),
		ConfigHash: in.ConfigHash,
		Files:      files,
	}
	rawManifest, err := json.Marshal(manifest)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(stage, manifestFile), rawManifest, 0o644); err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, in.RunID)
	if err := os.Rename(stage, dir); err != nil {
		return "", err
	}
	if err := s.setLatest(in.RunID); err != nil {
		return "", err
	}
	return dir, nil
}

func writeEnvelope(path, runID, kind string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("artifact: marshal %s: %w", kind, err)
	}
	raw, err := json.Marshal(Envelope{RunID: runID, Kind: kind, Payload: body})
	if err != nil {
		return nil, err
	}
	return raw, os.WriteFile(path, raw, 0o644)
}

func (s *Store) setLatest(runID string) error {
	tmp := filepath.Join(s.root, ".latest.tmp")
	if err := os.WriteFile(tmp, []byte(runID+"\n"), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(s.root, latestFile))
}

// Resolve turns a run selector into a concrete run id. The selector "latest"
// follows the pointer file; anything else names a run directly.
func (s *Store) Resolve(selector string) (string, error) {
	if selector != "latest" {
		return selector, nil
	}
	raw, err := os.ReadFile(filepath.Join(s.root, latestFile))
	if err != nil {
		return "", fmt.Errorf("artifact: no published runs: %w", err)
	}
	id := strings.TrimSpace(string(raw))
	if id == "" {
		return "", fmt.Errorf("artifact: empty latest pointer")
	}
	return id, nil
}

// Run is one loaded, verified artifact set. Payloads stay raw so callers
// decode only what they need.
type Run struct {
	ID           string
	Manifest     Manifest
	Preprocessor json.RawMessage
	Model        json.RawMessage
	Metrics      json.RawMessage
}

// Load reads a run directory and verifies file hashes against the manifest,
// envelope kinds, and that every envelope carries the manifest's run id.
func (s *Store) Load(runID string) (*Run, error) {
	dir := filepath.Join(s.root, runID)
	rawManifest, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("artifact: run %s: %w", runID, err)
	}
	var manifest Manifest
	if err := json.Unmarshal(rawManifest, &manifest); err != nil {
		return nil, fmt.Errorf("artifact: run %s manifest: %w", runID, err)
	}
	if manifest.RunID != runID {
		return nil, &VersionMismatchError{File: manifestFile,
			Reason: fmt.Sprintf("manifest is for run %s, directory is %s", manifest.RunID, runID)}
	}

	run := &Run{ID: runID, Manifest: manifest}
	for name, target := range map[string]*json.RawMessage{
		preprocessorFile: &run.Preprocessor,
		modelFile:        &run.Model,
		metricsFile:      &run.Metrics,
	} {
		env, err := readEnvelope(dir, name, manifest)
		if err != nil {
			return nil, err
		}
		*target = env.Payload
	}
	return run, nil
}

func readEnvelope(dir, name string, manifest Manifest) (*Envelope, error) {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("artifact: %w", err)
	}
	if want, ok := manifest.Files[name]; !ok || want != sha256Hex(raw) {
		return nil, &VersionMismatchError{File: name,
			Reason: "content hash does not match the manifest"}
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("artifact: %s: %w", name, err)
	}
	wantKind := strings.TrimSuffix(name, ".json")
	if env.Kind != wantKind {
		return nil, &VersionMismatchError{File: name,
			Reason: fmt.Sprintf("envelope kind %q, want %q", env.Kind, wantKind)}
	}
	if env.RunID != manifest.RunID {
		return nil, &VersionMismatchError{File: name,
			Reason: fmt.Sprintf("envelope run %s does not match manifest run %s", env.RunID, manifest.RunID)}
	}
	return &env, nil
}

func sha256Hex(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
