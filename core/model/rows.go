package model

import (
	"github.com/YuminosukeSato/sefr/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DenseFromRows copies a row-major [][]float64 into a *mat.Dense.
//
// Every row must have the same length. An empty input, or rows that are all
// empty, returns a zero-value *mat.Dense whose Dims() is (0, 0); estimators
// treat that as "no training data".
func DenseFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return &mat.Dense{}, nil
	}

	nCols := len(rows[0])
	for _, row := range rows {
		if len(row) != nCols {
			return nil, errors.NewDimensionError("DenseFromRows", nCols, len(row), 1)
		}
	}
	if nCols == 0 {
		return &mat.Dense{}, nil
	}

	data := make([]float64, 0, len(rows)*nCols)
	for _, row := range rows {
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), nCols, data), nil
}
