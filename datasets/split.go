package datasets

import (
	"math/rand/v2"

	"github.com/YuminosukeSato/sefr/core/model"
	"github.com/YuminosukeSato/sefr/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Split is the result of TrainTestSplit.
type Split[L any] struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest []L
}

// TrainTestSplit shuffles the rows of X and y with a seeded PCG source and
// puts the first floor(n*testRatio) of them in the test set. The same seed
// always gives the same split.
func TrainTestSplit[L any](X mat.Matrix, y []L, testRatio float64, seed uint64) (*Split[L], error) {
	n, _ := X.Dims()
	if n != len(y) {
		return nil, errors.NewDimensionError("TrainTestSplit", n, len(y), 0)
	}
	if !(testRatio >= 0 && testRatio < 1) {
		return nil, errors.NewValidationError("test_ratio", "must be in [0, 1)", testRatio)
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(n)
	nTest := int(float64(n) * testRatio)

	var trainRows, testRows [][]float64
	s := &Split[L]{}
	for i, idx := range perm {
		row := mat.Row(nil, idx, X)
		if i < nTest {
			testRows = append(testRows, row)
			s.YTest = append(s.YTest, y[idx])
		} else {
			trainRows = append(trainRows, row)
			s.YTrain = append(s.YTrain, y[idx])
		}
	}

	var err error
	if s.XTrain, err = model.DenseFromRows(trainRows); err != nil {
		return nil, err
	}
	if s.XTest, err = model.DenseFromRows(testRows); err != nil {
		return nil, err
	}
	return s, nil
}
