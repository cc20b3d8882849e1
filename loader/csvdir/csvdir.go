// Package csvdir loads a dataset from a directory of CSV files sharing one
// header. Files are read in name order so repeated loads see identical rows.
package csvdir

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"churnpipe/internal/dataset"
	"churnpipe/loader"
)

func init() {
	loader.Register("csvdir", func() loader.Adapter { return &Loader{} })
}

type Loader struct {
	dir  string
	glob string
}

func (l *Loader) Configure(options map[string]any) error {
	dir, _ := options["path"].(string)
	if dir == "" {
		return fmt.Errorf("csvdir: missing required option %q", "path")
	}
	l.dir = dir
	l.glob = "*.csv"
	if g, ok := options["glob"].(string); ok && g != "" {
		l.glob = g
	}
	return nil
}

func (l *Loader) Load(ctx context.Context) (dataset.Raw, error) {
	matches, err := filepath.Glob(filepath.Join(l.dir, l.glob))
	if err != nil {
		return dataset.Raw{}, fmt.Errorf("csvdir: bad glob %q: %w", l.glob, err)
	}
	if len(matches) == 0 {
		return dataset.Raw{}, fmt.Errorf("csvdir: no files matching %q under %s", l.glob, l.dir)
	}
	sort.Strings(matches)

	var raw dataset.Raw
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return dataset.Raw{}, err
		}
		header, rows, err := readCSV(path)
		if err != nil {
			return dataset.Raw{}, err
		}
		if raw.Header == nil {
			raw.Header = header
		} else if !sameHeader(raw.Header, header) {
			return dataset.Raw{}, fmt.Errorf("csvdir: header of %s differs from %s", path, matches[0])
		}
		raw.Rows = append(raw.Rows, rows...)
	}
	return raw, nil
}

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("csvdir: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("csvdir: parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("csvdir: %s has no header row", path)
	}
	return records[0], records[1:], nil
}

func sameHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
