package ml

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler centers numeric columns to zero mean and unit variance.
// Statistics are learned once from training data and reused for inference.
type StandardScaler struct {
	mean []float64
	std  []float64
}

// Fit learns per-column mean and standard deviation
func (s *StandardScaler) Fit(x [][]float64) error {
	if len(x) == 0 {
		return errors.New("cannot fit scaler on empty matrix")
	}

	cols := len(x[0])
	s.mean = make([]float64, cols)
	s.std = make([]float64, cols)

	col := make([]float64, len(x))
	for j := 0; j < cols; j++ {
		for i := range x {
			if len(x[i]) != cols {
				return fmt.Errorf("ragged matrix: row %d has %d columns, want %d", i, len(x[i]), cols)
			}
			col[i] = x[i][j]
		}
		s.mean[j] = stat.Mean(col, nil)
		s.std[j] = stat.StdDev(col, nil)
		// constant columns scale to zero offset instead of dividing by zero
		if s.std[j] == 0 || len(x) < 2 {
			s.std[j] = 1
		}
	}

	return nil
}

// Transform scales a matrix with the fitted statistics
func (s *StandardScaler) Transform(x [][]float64) ([][]float64, error) {
	if s.mean == nil {
		return nil, errors.New("scaler not fitted")
	}

	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != len(s.mean) {
			return nil, fmt.Errorf("row %d has %d columns, scaler fitted on %d", i, len(row), len(s.mean))
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.mean[j]) / s.std[j]
		}
		out[i] = scaled
	}

	return out, nil
}

// OneHotEncoder expands categorical columns into indicator columns. The
// category vocabulary is learned from training data; values unseen at fit
// time encode as all zeros.
type OneHotEncoder struct {
	categories [][]string
	index      []map[string]int
	offsets    []int
	width      int
}

// Fit learns the category vocabulary per column, sorted for determinism
func (e *OneHotEncoder) Fit(x [][]string) error {
	if len(x) == 0 {
		return errors.New("cannot fit encoder on empty matrix")
	}

	cols := len(x[0])
	e.categories = make([][]string, cols)
	e.index = make([]map[string]int, cols)
	e.offsets = make([]int, cols)
	e.width = 0

	for j := 0; j < cols; j++ {
		seen := map[string]bool{}
		for i := range x {
			if len(x[i]) != cols {
				return fmt.Errorf("ragged matrix: row %d has %d columns, want %d", i, len(x[i]), cols)
			}
			seen[x[i][j]] = true
		}

		cats := make([]string, 0, len(seen))
		for c := range seen {
			cats = append(cats, c)
		}
		sort.Strings(cats)

		e.categories[j] = cats
		e.index[j] = make(map[string]int, len(cats))
		for k, c := range cats {
			e.index[j][c] = k
		}
		e.offsets[j] = e.width
		e.width += len(cats)
	}

	return nil
}

// Width returns the number of output columns after encoding
func (e *OneHotEncoder) Width() int {
	return e.width
}

// Transform encodes a matrix with the fitted vocabulary
func (e *OneHotEncoder) Transform(x [][]string) ([][]float64, error) {
	if e.index == nil {
		return nil, errors.New("encoder not fitted")
	}

	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != len(e.index) {
			return nil, fmt.Errorf("row %d has %d columns, encoder fitted on %d", i, len(row), len(e.index))
		}
		encoded := make([]float64, e.width)
		for j, v := range row {
			if k, ok := e.index[j][v]; ok {
				encoded[e.offsets[j]+k] = 1
			}
		}
		out[i] = encoded
	}

	return out, nil
}

// Preprocessor combines scaling and encoding into one fit-once transform.
// Numeric columns come first in the output, encoded categoricals after.
type Preprocessor struct {
	scaler  StandardScaler
	encoder OneHotEncoder

	hasNumeric     bool
	hasCategorical bool
}

// Fit learns preprocessing state from the training split only
func (p *Preprocessor) Fit(numeric [][]float64, categorical [][]string) error {
	if len(numeric) == 0 && len(categorical) == 0 {
		return errors.New("nothing to fit on")
	}
	if len(numeric) > 0 && len(numeric[0]) > 0 {
		if err := p.scaler.Fit(numeric); err != nil {
			return err
		}
		p.hasNumeric = true
	}
	if len(categorical) > 0 && len(categorical[0]) > 0 {
		if err := p.encoder.Fit(categorical); err != nil {
			return err
		}
		p.hasCategorical = true
	}
	if !p.hasNumeric && !p.hasCategorical {
		return errors.New("no feature columns to fit on")
	}
	return nil
}

// Transform produces the design matrix for a set of rows
func (p *Preprocessor) Transform(numeric [][]float64, categorical [][]string) ([][]float64, error) {
	rows := len(numeric)
	if rows == 0 {
		rows = len(categorical)
	}
	if rows == 0 {
		return [][]float64{}, nil
	}

	var scaled [][]float64
	var encoded [][]float64
	var err error

	if p.hasNumeric {
		if scaled, err = p.scaler.Transform(numeric); err != nil {
			return nil, err
		}
	}
	if p.hasCategorical {
		if encoded, err = p.encoder.Transform(categorical); err != nil {
			return nil, err
		}
	}

	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		var row []float64
		if p.hasNumeric {
			row = append(row, scaled[i]...)
		}
		if p.hasCategorical {
			row = append(row, encoded[i]...)
		}
		out[i] = row
	}

	return out, nil
}
