// Package preprocess implements the fit/transform feature pipeline: standard
// scaling for numeric columns, one-hot and ordinal encoding for categorical
// columns with an explicit unknown bucket, imputation from fit-time
// statistics, and target binarization. A fitted preprocessor is immutable;
// Transform never modifies it or its input.
package preprocess

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"churnpipe/internal/dataset"
)

// Spec names the columns each transform applies to. Lists must be disjoint
// and must not contain the target.
type Spec struct {
	Scale    []string `json:"scale"`
	OneHot   []string `json:"onehot"`
	Ordinal  []string `json:"ordinal"`
	Target   string   `json:"target"`
	Positive string   `json:"positive"`
}

// TransformError is fatal to a run: the fitted state cannot represent the
// given cell.
type TransformError struct {
	Column string
	Row    int
	Reason string
}

func (e *TransformError) Error() string {
	switch {
	case e.Column == "":
		return fmt.Sprintf("transform: %s", e.Reason)
	case e.Row < 0:
		return fmt.Sprintf("transform %s: %s", e.Column, e.Reason)
	}
	return fmt.Sprintf("transform %s[row %d]: %s", e.Column, e.Row, e.Reason)
}

type numericStat struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
}

type categoryStat struct {
	Vocab   []string `json:"vocab"` // sorted, unknowns map past the end
	Mode    string   `json:"mode"`
	HasMode bool     `json:"has_mode"`
}

// FittedPreprocessor holds everything learned during Fit. All state is
// assigned once; accessors return copies.
type FittedPreprocessor struct {
	spec     Spec
	numeric  map[string]numericStat
	category map[string]categoryStat
	classes  []string // sorted target values, exactly two
	features []string // output feature names, fixed order
}

// UnknownBucket is the reserved one-hot column for categories never seen
// during fit.
const UnknownBucket = "__unknown"

// Fit learns scaling, vocabulary, imputation, and label statistics from tbl.
func Fit(tbl *dataset.Table, spec Spec) (*FittedPreprocessor, error) {
	p := &FittedPreprocessor{
		spec:     spec,
		numeric:  map[string]numericStat{},
		category: map[string]categoryStat{},
	}

	for _, name := range spec.Scale {
		col, ok := tbl.Column(name)
		if !ok {
			return nil, fmt.Errorf("fit: scale column %q not in table", name)
		}
		if col.Kind != dataset.Numeric {
			return nil, fmt.Errorf("fit: scale column %q is not numeric", name)
		}
		ns, err := fitNumeric(col)
		if err != nil {
			return nil, err
		}
		p.numeric[name] = ns
	}

	for _, name := range append(append([]string{}, spec.OneHot...), spec.Ordinal...) {
		col, ok := tbl.Column(name)
		if !ok {
			return nil, fmt.Errorf("fit: encoded column %q not in table", name)
		}
		p.category[name] = fitCategory(col)
	}

	classes, err := fitClasses(tbl, spec)
	if err != nil {
		return nil, err
	}
	p.classes = classes
	p.features = featureNames(spec, p.category)
	return p, nil
}

func fitNumeric(col dataset.Column) (numericStat, error) {
	var observed []float64
	for i, v := range col.Floats {
		if !col.Missing[i] {
			observed = append(observed, v)
		}
	}
	if len(observed) == 0 {
		return numericStat{}, fmt.Errorf("fit: column %q has no observed values", col.Name)
	}
	std := stat.PopStdDev(observed, nil)
	if std == 0 {
		std = 1
	}
	return numericStat{Mean: stat.Mean(observed, nil), Std: std, Median: medianOf(observed)}, nil
}

func fitCategory(col dataset.Column) categoryStat {
	counts := map[string]int{}
	for i := 0; i < len(col.Missing); i++ {
		if col.Missing[i] {
			continue
		}
		counts[col.CategoryAt(i)]++
	}
	vocab := make([]string, 0, len(counts))
	for v := range counts {
		vocab = append(vocab, v)
	}
	sort.Strings(vocab)

	cs := categoryStat{Vocab: vocab}
	for _, v := range vocab { // sorted walk keeps ties lexicographic
		if !cs.HasMode || counts[v] > counts[cs.Mode] {
			cs.Mode = v
			cs.HasMode = true
		}
	}
	return cs
}

func fitClasses(tbl *dataset.Table, spec Spec) ([]string, error) {
	col, ok := tbl.Column(spec.Target)
	if !ok {
		return nil, fmt.Errorf("fit: target column %q not in table", spec.Target)
	}
	distinct := map[string]bool{}
	for i := 0; i < len(col.Missing); i++ {
		if col.Missing[i] {
			return nil, fmt.Errorf("fit: target column %q has a missing value at row %d", spec.Target, i)
		}
		distinct[col.CategoryAt(i)] = true
	}
	classes := make([]string, 0, len(distinct))
	for v := range distinct {
		classes = append(classes, v)
	}
	sort.Strings(classes)
	if len(classes) != 2 {
		return nil, fmt.Errorf("fit: target column %q has %d classes, want 2 (%v)", spec.Target, len(classes), classes)
	}
	if !distinct[spec.Positive] {
		return nil, fmt.Errorf("fit: positive label %q not among target classes %v", spec.Positive, classes)
	}
	return classes, nil
}

// featureNames fixes the output order: scale columns first, then one-hot
// expansions (sorted vocab plus the unknown bucket), then ordinal columns.
func featureNames(spec Spec, category map[string]categoryStat) []string {
	var names []string
	names = append(names, spec.Scale...)
	for _, col := range spec.OneHot {
		for _, v := range category[col].Vocab {
			names = append(names, col+"="+v)
		}
		names = append(names, col+"="+UnknownBucket)
	}
	names = append(names, spec.Ordinal...)
	return names
}

// FeatureNames returns the ordered output feature names.
func (p *FittedPreprocessor) FeatureNames() []string {
	return append([]string{}, p.features...)
}

// Classes returns the two target values in sorted order.
func (p *FittedPreprocessor) Classes() []string {
	return append([]string{}, p.classes...)
}

// Positive returns the configured positive target label.
func (p *FittedPreprocessor) Positive() string { return p.spec.Positive }

// Target returns the target column name.
func (p *FittedPreprocessor) Target() string { return p.spec.Target }
