package csvdir

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"churnpipe/loader"
)

func writeCSV(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoad_ConcatenatesFilesInNameOrder(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "b.csv", "id,tenure\nc3,5\n")
	writeCSV(t, dir, "a.csv", "id,tenure\nc1,1\nc2,2\n")

	a, err := loader.New("csvdir")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Configure(map[string]any{"path": dir}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	raw, err := a.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(raw.Rows) != 3 {
		t.Fatalf("want 3 rows, got %d", len(raw.Rows))
	}
	if raw.Rows[0][0] != "c1" || raw.Rows[2][0] != "c3" {
		t.Fatalf("want rows in a.csv,b.csv order, got %v", raw.Rows)
	}
}

func TestLoad_RejectsMismatchedHeaders(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "a.csv", "id,tenure\nc1,1\n")
	writeCSV(t, dir, "b.csv", "id,months\nc2,2\n")

	a := &Loader{}
	if err := a.Configure(map[string]any{"path": dir}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if _, err := a.Load(context.Background()); err == nil {
		t.Fatal("expected error for mismatched headers")
	}
}

func TestLoad_ErrorsWhenNothingMatches(t *testing.T) {
	a := &Loader{}
	if err := a.Configure(map[string]any{"path": t.TempDir()}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if _, err := a.Load(context.Background()); err == nil {
		t.Fatal("expected error for empty directory")
	}
}

func TestConfigure_RequiresPath(t *testing.T) {
	a := &Loader{}
	if err := a.Configure(map[string]any{}); err == nil {
		t.Fatal("expected error for missing path")
	}
}
