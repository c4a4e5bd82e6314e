// Package model defines the estimator interfaces and shared state handling
// used by every model in the module.
package model

import "gonum.org/v1/gonum/mat"

// Classifier is a fitted-then-queried supervised model over labels of type L.
type Classifier[L comparable] interface {
	// Fit trains the model on X (n_samples × n_features) and y (n_samples).
	Fit(X mat.Matrix, y []L) error

	// Predict returns one label per row of X, in row order.
	Predict(X mat.Matrix) ([]L, error)

	// Score returns the mean accuracy of Predict(X) against y.
	Score(X mat.Matrix, y []L) (float64, error)

	// Classes returns the labels seen during fitting, in sorted order.
	Classes() []L
}

// ScorePredictor exposes raw decision scores before thresholding.
type ScorePredictor interface {
	// PredictScoreVec returns the raw score of a single example.
	PredictScoreVec(x mat.Vector) (float64, error)

	// PredictScore returns one raw score per row of X.
	PredictScore(X mat.Matrix) (*mat.VecDense, error)
}

// LinearModel is a model with one weight per feature and a bias term.
type LinearModel interface {
	// Weights returns a copy of the learned per-feature weights.
	Weights() []float64
	// Intercept returns the learned bias.
	Intercept() float64
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}
