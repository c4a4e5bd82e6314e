package datasets

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/YuminosukeSato/sefr/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const irisLike = `sepal,petal,species
5.1, 1.4, setosa
7.0, 4.7, versicolor
6.3, 6.0, virginica
`

func TestReadCSV(t *testing.T) {
	X, labels, err := ReadCSV(strings.NewReader(irisLike), CSVOptions{LabelColumn: -1, Header: true})
	require.NoError(t, err)

	r, c := X.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, []string{"setosa", "versicolor", "virginica"}, labels)
	assert.Equal(t, 4.7, X.At(1, 1))
}

func TestReadCSVLabelFirst(t *testing.T) {
	data := "1,0.5,0.25\n0,0.75,1\n"
	X, labels, err := ReadCSV(strings.NewReader(data), CSVOptions{LabelColumn: 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "0"}, labels)
	assert.True(t, mat.Equal(mat.NewDense(2, 2, []float64{0.5, 0.25, 0.75, 1}), X))

	ints, err := IntLabels(labels)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, ints)
}

func TestReadCSVErrors(t *testing.T) {
	t.Run("non-numeric feature", func(t *testing.T) {
		_, _, err := ReadCSV(strings.NewReader("a,b,c\n"), CSVOptions{LabelColumn: -1})
		var valueErr *errors.ValueError
		assert.True(t, errors.As(err, &valueErr))
	})

	t.Run("ragged records", func(t *testing.T) {
		_, _, err := ReadCSV(strings.NewReader("1,2,x\n1,y\n"), CSVOptions{LabelColumn: -1})
		assert.Error(t, err)
	})

	t.Run("label column out of range", func(t *testing.T) {
		_, _, err := ReadCSV(strings.NewReader("1,2\n"), CSVOptions{LabelColumn: 5})
		var valErr *errors.ValidationError
		assert.True(t, errors.As(err, &valErr))
	})

	t.Run("label column only", func(t *testing.T) {
		X, labels, err := ReadCSV(strings.NewReader("label\nred\nblue\n"), CSVOptions{LabelColumn: -1, Header: true})
		var valueErr *errors.ValueError
		require.True(t, errors.As(err, &valueErr))
		assert.Contains(t, err.Error(), "line 2")
		assert.Nil(t, X)
		assert.Nil(t, labels)
	})

	t.Run("non-integer label", func(t *testing.T) {
		_, err := IntLabels([]string{"1", "cat"})
		assert.Error(t, err)
	})
}

func TestReadCSVEmpty(t *testing.T) {
	X, labels, err := ReadCSV(strings.NewReader("a,b\n"), CSVOptions{LabelColumn: -1, Header: true})
	require.NoError(t, err)
	r, c := X.Dims()
	assert.Zero(t, r)
	assert.Zero(t, c)
	assert.Empty(t, labels)
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(irisLike), 0o600))

	X, labels, err := LoadCSV(path, CSVOptions{LabelColumn: -1, Header: true})
	require.NoError(t, err)
	r, _ := X.Dims()
	assert.Equal(t, 3, r)
	assert.Len(t, labels, 3)

	_, _, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), CSVOptions{})
	assert.Error(t, err)
}

func TestTrainTestSplit(t *testing.T) {
	n := 10
	data := make([]float64, n*2)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		data[2*i] = float64(i)
		data[2*i+1] = float64(i * 10)
		y[i] = i
	}
	X := mat.NewDense(n, 2, data)

	split, err := TrainTestSplit(X, y, 0.3, 42)
	require.NoError(t, err)

	rTrain, _ := split.XTrain.Dims()
	rTest, _ := split.XTest.Dims()
	assert.Equal(t, 7, rTrain)
	assert.Equal(t, 3, rTest)

	// rows stay paired with their labels
	for i, label := range split.YTrain {
		assert.Equal(t, float64(label), split.XTrain.At(i, 0))
	}
	for i, label := range split.YTest {
		assert.Equal(t, float64(label*10), split.XTest.At(i, 1))
	}

	all := slices.Concat(split.YTrain, split.YTest)
	slices.Sort(all)
	assert.Equal(t, y, all)

	again, err := TrainTestSplit(X, y, 0.3, 42)
	require.NoError(t, err)
	assert.Equal(t, split.YTest, again.YTest)
}

func TestTrainTestSplitErrors(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, 2})

	_, err := TrainTestSplit(X, []int{1}, 0.5, 1)
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	for _, ratio := range []float64{-0.1, 1, 1.5} {
		_, err := TrainTestSplit(X, []int{1, 2}, ratio, 1)
		var valErr *errors.ValidationError
		assert.True(t, errors.As(err, &valErr), "ratio %v", ratio)
	}

	split, err := TrainTestSplit(X, []int{1, 2}, 0, 1)
	require.NoError(t, err)
	r, _ := split.XTest.Dims()
	assert.Zero(t, r)
	assert.Empty(t, split.YTest)
}
