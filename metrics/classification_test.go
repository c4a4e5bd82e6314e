package metrics

import (
	"math"
	"strings"
	"testing"

	"github.com/YuminosukeSato/sefr/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []int
		yPred   []int
		want    float64
		wantErr bool
	}{
		{
			name:  "Perfect accuracy",
			yTrue: []int{0, 1, 2, 1, 0},
			yPred: []int{0, 1, 2, 1, 0},
			want:  1.0,
		},
		{
			name:  "80% accuracy",
			yTrue: []int{0, 1, 2, 1, 0},
			yPred: []int{0, 1, 1, 1, 0},
			want:  0.8,
		},
		{
			name:  "Zero accuracy",
			yTrue: []int{0, 0, 0},
			yPred: []int{1, 1, 1},
			want:  0.0,
		},
		{
			name:    "Empty vectors",
			yTrue:   []int{},
			yPred:   []int{},
			wantErr: true,
		},
		{
			name:    "Length mismatch",
			yTrue:   []int{0, 1},
			yPred:   []int{0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Accuracy(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("Accuracy() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Accuracy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccuracyDimensionError(t *testing.T) {
	_, err := Accuracy([]bool{true, false}, []bool{true})
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 2, dimErr.Expected)
	assert.Equal(t, 1, dimErr.Got)
}

func TestConfusionMatrix(t *testing.T) {
	yTrue := []string{"cat", "dog", "dog", "bird", "cat"}
	yPred := []string{"cat", "dog", "cat", "bird", "fish"}

	cm, labels, err := ConfusionMatrix(yTrue, yPred)
	require.NoError(t, err)
	assert.Equal(t, []string{"bird", "cat", "dog", "fish"}, labels)

	want := mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 1,
		0, 1, 1, 0,
		0, 0, 0, 0,
	})
	assert.True(t, mat.Equal(want, cm), "got %v", mat.Formatted(cm))
}

func TestClassificationReport(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })

	yTrue := []int{0, 0, 1, 1, 2}
	yPred := []int{0, 1, 1, 1, 0}

	report, err := ClassificationReport(yTrue, yPred)
	require.NoError(t, err)
	require.Len(t, report.Classes, 3)

	c0 := report.Classes[0]
	assert.Equal(t, 0, c0.Label)
	assert.InDelta(t, 0.5, c0.Precision, 1e-12)
	assert.InDelta(t, 0.5, c0.Recall, 1e-12)
	assert.InDelta(t, 0.5, c0.F1, 1e-12)
	assert.Equal(t, 2, c0.Support)

	c1 := report.Classes[1]
	assert.InDelta(t, 2.0/3.0, c1.Precision, 1e-12)
	assert.InDelta(t, 1.0, c1.Recall, 1e-12)
	assert.InDelta(t, 0.8, c1.F1, 1e-12)

	// label 2 is never predicted
	c2 := report.Classes[2]
	assert.Zero(t, c2.Precision)
	assert.Zero(t, c2.Recall)
	assert.Zero(t, c2.F1)
	assert.Equal(t, 1, c2.Support)
	require.Len(t, warnings, 1)
	var undefined *errors.UndefinedMetricWarning
	require.True(t, errors.As(warnings[0], &undefined))
	assert.Equal(t, "precision", undefined.Metric)

	assert.InDelta(t, 0.6, report.Accuracy, 1e-12)
	assert.Equal(t, 5, report.MacroAvg.Support)
	assert.InDelta(t, (0.5+2.0/3.0)/3, report.MacroAvg.Precision, 1e-12)

	out := report.String()
	assert.True(t, strings.Contains(out, "precision"))
	assert.True(t, strings.Contains(out, "macro avg"))
}

func TestClassificationReportEmpty(t *testing.T) {
	_, err := ClassificationReport([]int{}, []int{})
	var valueErr *errors.ValueError
	assert.True(t, errors.As(err, &valueErr))
}

func BenchmarkAccuracy(b *testing.B) {
	n := 10000
	yTrue := make([]int, n)
	yPred := make([]int, n)
	for i := 0; i < n; i++ {
		yTrue[i] = i % 3
		yPred[i] = (i / 2) % 3
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Accuracy(yTrue, yPred)
	}
}
