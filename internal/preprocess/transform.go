package preprocess

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"churnpipe/internal/dataset"
)

// FeatureMatrix is the dense design matrix plus its ordered column names.
type FeatureMatrix struct {
	X     *mat.Dense
	Names []string
}

func (m *FeatureMatrix) Rows() int { r, _ := m.X.Dims(); return r }
func (m *FeatureMatrix) Cols() int { _, c := m.X.Dims(); return c }

// Transform maps tbl into the fitted feature space. Categories unseen at fit
// time go to the unknown bucket (one-hot) or the index past the vocabulary
// (ordinal); they never fail. Missing cells are imputed from fit-time
// statistics only.
func (p *FittedPreprocessor) Transform(tbl *dataset.Table) (*FeatureMatrix, error) {
	rows := tbl.Rows()
	if rows == 0 {
		return nil, &TransformError{Row: -1, Reason: "empty table"}
	}
	X := mat.NewDense(rows, len(p.features), nil)
	j := 0

	for _, name := range p.spec.Scale {
		col, ok := tbl.Column(name)
		if !ok {
			return nil, &TransformError{Column: name, Row: -1, Reason: "column not present"}
		}
		st := p.numeric[name]
		for i := 0; i < rows; i++ {
			v := st.Median
			if !col.Missing[i] {
				v = col.Floats[i]
			}
			X.Set(i, j, (v-st.Mean)/st.Std)
		}
		j++
	}

	for _, name := range p.spec.OneHot {
		col, ok := tbl.Column(name)
		if !ok {
			return nil, &TransformError{Column: name, Row: -1, Reason: "column not present"}
		}
		st := p.category[name]
		width := len(st.Vocab) + 1
		for i := 0; i < rows; i++ {
			idx, err := p.categoryIndex(st, col, name, i)
			if err != nil {
				return nil, err
			}
			X.Set(i, j+idx, 1)
		}
		j += width
	}

	for _, name := range p.spec.Ordinal {
		col, ok := tbl.Column(name)
		if !ok {
			return nil, &TransformError{Column: name, Row: -1, Reason: "column not present"}
		}
		st := p.category[name]
		for i := 0; i < rows; i++ {
			idx, err := p.categoryIndex(st, col, name, i)
			if err != nil {
				return nil, err
			}
			X.Set(i, j, float64(idx))
		}
		j++
	}

	return &FeatureMatrix{X: X, Names: p.FeatureNames()}, nil
}

// categoryIndex resolves a cell to its vocabulary index, imputing the fit-time
// mode for missing cells and mapping unknown categories to len(vocab).
func (p *FittedPreprocessor) categoryIndex(st categoryStat, col dataset.Column, name string, row int) (int, error) {
	var cat string
	if col.Missing[row] {
		if !st.HasMode {
			return 0, &TransformError{Column: name, Row: row, Reason: "missing value and no imputation statistic learned"}
		}
		cat = st.Mode
	} else {
		cat = col.CategoryAt(row)
	}
	idx := sort.SearchStrings(st.Vocab, cat)
	if idx < len(st.Vocab) && st.Vocab[idx] == cat {
		return idx, nil
	}
	return len(st.Vocab), nil
}

// Labels binarizes the target column: 1 for the positive label, 0 otherwise.
// A value outside the fitted classes is an error, not a silent zero.
func (p *FittedPreprocessor) Labels(tbl *dataset.Table) ([]float64, error) {
	col, ok := tbl.Column(p.spec.Target)
	if !ok {
		return nil, &TransformError{Column: p.spec.Target, Row: -1, Reason: "column not present"}
	}
	known := map[string]bool{}
	for _, c := range p.classes {
		known[c] = true
	}
	y := make([]float64, tbl.Rows())
	for i := 0; i < tbl.Rows(); i++ {
		if col.Missing[i] {
			return nil, &TransformError{Column: p.spec.Target, Row: i, Reason: "missing target value"}
		}
		cat := col.CategoryAt(i)
		if !known[cat] {
			return nil, &TransformError{Column: p.spec.Target, Row: i, Reason: "label " + cat + " outside fitted classes"}
		}
		if cat == p.spec.Positive {
			y[i] = 1
		}
	}
	return y, nil
}

// FitTransform fits on tbl and immediately transforms it.
func FitTransform(tbl *dataset.Table, spec Spec) (*FittedPreprocessor, *FeatureMatrix, error) {
	p, err := Fit(tbl, spec)
	if err != nil {
		return nil, nil, err
	}
	m, err := p.Transform(tbl)
	if err != nil {
		return nil, nil, err
	}
	return p, m, nil
}
