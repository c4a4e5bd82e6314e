package linear

import (
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/YuminosukeSato/sefr/pkg/errors"
	"github.com/YuminosukeSato/sefr/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// captureWarnings collects warnings for the duration of the test.
func captureWarnings(t *testing.T) *[]error {
	t.Helper()
	var (
		mu       sync.Mutex
		warnings []error
	)
	errors.SetWarningHandler(func(w error) {
		mu.Lock()
		defer mu.Unlock()
		warnings = append(warnings, w)
	})
	t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })
	return &warnings
}

func squareData() (*mat.Dense, []int) {
	X := mat.NewDense(4, 2, []float64{
		1, 1,
		1, 0,
		0, 1,
		0, 0,
	})
	return X, []int{1, 1, 0, 0}
}

func randomNonNegative(rows, cols int, seed uint64) (*mat.Dense, []int) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.Float64() * 10
	}
	y := make([]int, rows)
	for i := range y {
		y[i] = rng.IntN(2)
	}
	return mat.NewDense(rows, cols, data), y
}

func TestSEFRFitSquare(t *testing.T) {
	X, y := squareData()
	clf := NewSEFR[int]()

	require.NoError(t, clf.Fit(X, y, PositiveLabel))
	assert.True(t, clf.IsFitted())
	assert.Equal(t, 2, clf.NFeatures())

	// feature 0 separates the classes, feature 1 carries no signal
	w := clf.Weights()
	require.Len(t, w, 2)
	assert.InDelta(t, 1.0, w[0], 1e-6)
	assert.Equal(t, 0.0, w[1])
	assert.InDelta(t, -0.5, clf.Intercept(), 1e-6)

	pos, err := clf.PredictVec(mat.NewVecDense(2, []float64{1, 1}))
	require.NoError(t, err)
	assert.True(t, pos)

	neg, err := clf.PredictVec(mat.NewVecDense(2, []float64{0, 0}))
	require.NoError(t, err)
	assert.False(t, neg)

	pred, err := clf.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false, false}, pred)

	label, ok := clf.PositiveLabel()
	assert.True(t, ok)
	assert.Equal(t, 1, label)

	acc, err := clf.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc)
}

func TestSEFRBoundaryIsPositive(t *testing.T) {
	X, y := squareData()
	clf := NewSEFR[int]()
	require.NoError(t, clf.Fit(X, y, 1))

	// 0.5*w0 + bias == 0 exactly, since bias == -w0/2
	x := mat.NewVecDense(2, []float64{0.5, 0.7})
	score, err := clf.PredictScoreVec(x)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)

	got, err := clf.PredictVec(x)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestSEFRDeterministic(t *testing.T) {
	X, y := randomNonNegative(200, 8, 1)

	a := NewSEFR[int]()
	b := NewSEFR[int]()
	require.NoError(t, a.Fit(X, y, 1))
	require.NoError(t, b.Fit(X, y, 1))
	assert.Equal(t, a.Weights(), b.Weights())
	assert.Equal(t, a.Intercept(), b.Intercept())

	require.NoError(t, a.Fit(X, y, 1))
	assert.Equal(t, b.Weights(), a.Weights())
	assert.Equal(t, b.Intercept(), a.Intercept())
}

func TestSEFRParallelMatchesSequential(t *testing.T) {
	X, y := randomNonNegative(500, 16, 2)

	seq := NewSEFR[int](WithNJobs(1))
	par := NewSEFR[int](WithNJobs(4), WithParallelThreshold(0))
	require.NoError(t, seq.Fit(X, y, 1))
	require.NoError(t, par.Fit(X, y, 1))

	assert.Equal(t, seq.Weights(), par.Weights())
	assert.Equal(t, seq.Intercept(), par.Intercept())

	seqScores, err := seq.PredictScore(X)
	require.NoError(t, err)
	parScores, err := par.PredictScore(X)
	require.NoError(t, err)
	assert.Equal(t, seqScores.RawVector().Data, parScores.RawVector().Data)
}

func TestSEFRWeightsBounded(t *testing.T) {
	for seed := uint64(0); seed < 5; seed++ {
		X, y := randomNonNegative(100, 10, seed)
		clf := NewSEFR[int]()
		require.NoError(t, clf.Fit(X, y, 1))
		for j, w := range clf.Weights() {
			assert.GreaterOrEqual(t, w, -1.0, "seed %d feature %d", seed, j)
			assert.LessOrEqual(t, w, 1.0, "seed %d feature %d", seed, j)
		}
	}
}

func TestSEFRBatchMatchesScalar(t *testing.T) {
	X, y := randomNonNegative(50, 6, 3)
	clf := NewSEFR[int](WithNJobs(4), WithParallelThreshold(0))
	require.NoError(t, clf.Fit(X, y, 1))

	scores, err := clf.PredictScore(X)
	require.NoError(t, err)
	pred, err := clf.Predict(X)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		row := mat.NewVecDense(6, mat.Row(nil, i, X))
		s, err := clf.PredictScoreVec(row)
		require.NoError(t, err)
		assert.Equal(t, s, scores.AtVec(i), "row %d", i)

		p, err := clf.PredictVec(row)
		require.NoError(t, err)
		assert.Equal(t, p, pred[i], "row %d", i)

		one, err := clf.Predict(mat.NewDense(1, 6, mat.Row(nil, i, X)))
		require.NoError(t, err)
		assert.Equal(t, p, one[0], "row %d", i)
	}
}

func TestSEFRErrors(t *testing.T) {
	X, y := squareData()

	t.Run("not fitted", func(t *testing.T) {
		clf := NewSEFR[int]()
		_, err := clf.PredictScoreVec(mat.NewVecDense(2, nil))
		var nf *errors.NotFittedError
		assert.True(t, errors.As(err, &nf))

		_, err = clf.Predict(X)
		assert.True(t, errors.As(err, &nf))

		assert.Nil(t, clf.Weights())
		_, ok := clf.PositiveLabel()
		assert.False(t, ok)
	})

	t.Run("label count mismatch", func(t *testing.T) {
		clf := NewSEFR[int]()
		err := clf.Fit(X, y[:3], 1)
		var dimErr *errors.DimensionError
		require.True(t, errors.As(err, &dimErr))
		assert.Equal(t, 0, dimErr.Axis)
		assert.False(t, clf.IsFitted())
	})

	t.Run("feature count mismatch", func(t *testing.T) {
		clf := NewSEFR[int]()
		require.NoError(t, clf.Fit(X, y, 1))

		_, err := clf.PredictScoreVec(mat.NewVecDense(3, nil))
		var dimErr *errors.DimensionError
		require.True(t, errors.As(err, &dimErr))
		assert.Equal(t, 2, dimErr.Expected)
		assert.Equal(t, 3, dimErr.Got)

		_, err = clf.Predict(mat.NewDense(1, 1, []float64{1}))
		assert.True(t, errors.As(err, &dimErr))
	})

	t.Run("invalid epsilon", func(t *testing.T) {
		for _, eps := range []float64{0, -1, math.NaN(), math.Inf(1)} {
			clf := NewSEFR[int](WithEpsilon(eps))
			err := clf.Fit(X, y, 1)
			var valErr *errors.ValidationError
			assert.True(t, errors.As(err, &valErr), "epsilon %v", eps)
		}
	})
}

func TestSEFRDegenerate(t *testing.T) {
	warnings := captureWarnings(t)

	t.Run("empty input is a no-op", func(t *testing.T) {
		clf := NewSEFR[int]()
		require.NoError(t, clf.Fit(&mat.Dense{}, nil, 1))
		assert.False(t, clf.IsFitted())
		assert.Nil(t, clf.Weights())

		_, err := clf.PredictVec(mat.NewVecDense(2, []float64{1, 1}))
		var nf *errors.NotFittedError
		assert.True(t, errors.As(err, &nf))
	})

	t.Run("empty input keeps previous model", func(t *testing.T) {
		X, y := squareData()
		clf := NewSEFR[int]()
		require.NoError(t, clf.Fit(X, y, 1))
		before := clf.Weights()

		require.NoError(t, clf.Fit(&mat.Dense{}, nil, 1))
		assert.Equal(t, before, clf.Weights())
	})

	t.Run("single class stays finite", func(t *testing.T) {
		X, _ := squareData()
		clf := NewSEFR[int]()
		require.NoError(t, clf.Fit(X, []int{1, 1, 1, 1}, 1))
		for _, w := range clf.Weights() {
			assert.False(t, math.IsNaN(w) || math.IsInf(w, 0))
		}
		assert.False(t, math.IsNaN(clf.Intercept()))
	})

	var degenerate *errors.DegenerateDataWarning
	found := false
	for _, w := range *warnings {
		if errors.As(w, &degenerate) {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSEFRNegativeFeatureWarning(t *testing.T) {
	warnings := captureWarnings(t)

	X := mat.NewDense(2, 2, []float64{1, -2, 0, 3})
	clf := NewSEFR[int]()
	require.NoError(t, clf.Fit(X, []int{1, 0}, 1))

	require.Len(t, *warnings, 1)
	var neg *errors.NegativeFeatureWarning
	require.True(t, errors.As((*warnings)[0], &neg))
	assert.Equal(t, 0, neg.Sample)
	assert.Equal(t, 1, neg.Feature)
	assert.Equal(t, -2.0, neg.Value)
}

func TestSEFRStringLabels(t *testing.T) {
	X, _ := squareData()
	y := []string{"spam", "spam", "ham", "ham"}

	clf := NewSEFR[string]()
	require.NoError(t, clf.Fit(X, y, "spam"))

	pred, err := clf.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false, false}, pred)
}

func TestSEFREmptyPredict(t *testing.T) {
	X, y := squareData()
	clf := NewSEFR[int]()
	require.NoError(t, clf.Fit(X, y, 1))

	scores, err := clf.PredictScore(&mat.Dense{})
	require.NoError(t, err)
	assert.Zero(t, scores.Len())

	pred, err := clf.Predict(&mat.Dense{})
	require.NoError(t, err)
	assert.Empty(t, pred)
}

func TestSEFRLogsFit(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	X, y := squareData()

	clf := NewSEFR[int](WithLogger(logger))
	require.NoError(t, clf.Fit(X, y, 1))

	assert.True(t, logger.ContainsMessage("SEFR fitted"))
	assert.True(t, logger.ContainsField(log.SamplesKey, float64(4)))
}

func TestSEFRGetParams(t *testing.T) {
	clf := NewSEFR[int](WithEpsilon(1e-5), WithNJobs(2))
	params := clf.GetParams()
	assert.Equal(t, 1e-5, params["epsilon"])
	assert.Equal(t, 2, params["n_jobs"])
	_, ok := params["positive_label"]
	assert.False(t, ok)
}

func TestSEFRConcurrentPredict(t *testing.T) {
	X, y := randomNonNegative(100, 4, 7)
	clf := NewSEFR[int]()
	require.NoError(t, clf.Fit(X, y, 1))
	want, err := clf.Predict(X)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := clf.Predict(X)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	// refitting on the same data installs an identical model
	require.NoError(t, clf.Fit(X, y, 1))
	wg.Wait()
}

// panicMatrix fails on every element read.
type panicMatrix struct{ r, c int }

func (m panicMatrix) Dims() (int, int)    { return m.r, m.c }
func (m panicMatrix) At(i, j int) float64 { panic("unreadable cell") }
func (m panicMatrix) T() mat.Matrix       { return mat.Transpose{Matrix: m} }

func TestSEFRRefitReplacesModel(t *testing.T) {
	X, y := squareData()
	clf := NewSEFR[int]()
	require.NoError(t, clf.Fit(X, y, 1))
	require.Len(t, clf.Weights(), 2)

	X3, y3 := threeClassData()
	require.NoError(t, clf.Fit(X3, y3, 2))
	assert.Len(t, clf.Weights(), 3)
	assert.Equal(t, 3, clf.NFeatures())
	label, ok := clf.PositiveLabel()
	require.True(t, ok)
	assert.Equal(t, 2, label)

	_, err := clf.PredictVec(mat.NewVecDense(2, []float64{1, 1}))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	positive, err := clf.PredictVec(mat.NewVecDense(3, []float64{0, 0, 1}))
	require.NoError(t, err)
	assert.True(t, positive)
}

func TestSEFRWorkerPanicBecomesError(t *testing.T) {
	y := []int{1, 0, 1, 0}
	for _, nJobs := range []int{1, 2} {
		clf := NewSEFR[int](WithNJobs(nJobs), WithParallelThreshold(0))
		err := clf.Fit(panicMatrix{r: 4, c: 2}, y, 1)
		var panicErr *errors.PanicError
		require.True(t, errors.As(err, &panicErr), "nJobs=%d: %v", nJobs, err)
		assert.Equal(t, "unreadable cell", panicErr.PanicValue)
		assert.False(t, clf.IsFitted())
	}

	X, labels := squareData()
	clf := NewSEFR[int](WithNJobs(2), WithParallelThreshold(0))
	require.NoError(t, clf.Fit(X, labels, 1))
	_, err := clf.Predict(panicMatrix{r: 4, c: 2})
	var panicErr *errors.PanicError
	assert.True(t, errors.As(err, &panicErr))
}

func TestSEFRWarnsOnNonFiniteBias(t *testing.T) {
	warnings := captureWarnings(t)

	// finite weights, but the raw score of the first row overflows
	X := mat.NewDense(2, 2, []float64{1e308, 1e308, 0, 0})
	clf := NewSEFR[int]()
	require.NoError(t, clf.Fit(X, []int{1, 0}, 1))
	for _, w := range clf.Weights() {
		assert.False(t, math.IsNaN(w) || math.IsInf(w, 0))
	}

	var instErr *errors.NumericalInstabilityError
	found := false
	for _, w := range *warnings {
		if errors.As(w, &instErr) && instErr.Operation == "SEFR.Fit bias" {
			found = true
		}
	}
	assert.True(t, found)
}
