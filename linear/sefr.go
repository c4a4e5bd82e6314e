package linear

import (
	"math"
	"sync"
	"time"

	"github.com/YuminosukeSato/sefr/core/model"
	"github.com/YuminosukeSato/sefr/metrics"
	"github.com/YuminosukeSato/sefr/pkg/errors"
	"github.com/YuminosukeSato/sefr/pkg/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PositiveLabel is the conventional positive class for integer labels:
//
//	clf.Fit(X, y, linear.PositiveLabel)
const PositiveLabel = 1

var (
	_ model.ScorePredictor  = (*SEFR[int])(nil)
	_ model.LinearModel     = (*SEFR[int])(nil)
	_ model.ParameterGetter = (*SEFR[int])(nil)
)

// SEFR is a binary linear classifier trained in a single pass over the data.
//
// For each feature j, with avgPos and avgNeg the mean of feature j over the
// positive and negative examples,
//
//	w[j] = (avgPos - avgNeg) / (avgPos + avgNeg + epsilon)
//
// and the bias places the decision boundary between the mean raw scores of
// the two groups, weighted by the size of the opposite group:
//
//	bias = -(nNeg*avgPosScore + nPos*avgNegScore) / (nNeg + nPos)
//
// Features are expected to be non-negative; then every weight lies in [-1, 1].
// A SEFR is safe for concurrent use. Fit replaces the model atomically.
type SEFR[L comparable] struct {
	mu     sync.RWMutex
	state  *model.StateManager
	opts   options
	params *sefrParams[L] // nil until the first successful Fit
}

// sefrParams is the trained model. It is never mutated once built.
type sefrParams[L comparable] struct {
	weights  []float64
	bias     float64
	positive L
}

// score returns bias + dot(x, weights).
func (p *sefrParams[L]) score(x []float64) float64 {
	return p.bias + floats.Dot(x, p.weights)
}

// NewSEFR creates an untrained SEFR classifier.
func NewSEFR[L comparable](opts ...Option) *SEFR[L] {
	return &SEFR[L]{
		state: model.NewStateManager(),
		opts:  newOptions(opts),
	}
}

// Fit trains the classifier with positive as the positive class and every
// other label as the negative class.
//
// len(y) must equal the number of rows of X. If X has no rows or no columns,
// Fit leaves the model as it was and returns nil. A group with no members has
// mean zero, so the model stays finite when y holds a single label.
func (s *SEFR[L]) Fit(X mat.Matrix, y []L, positive L) (err error) {
	defer errors.Recover(&err, "SEFR.Fit")

	if !(s.opts.epsilon > 0) || math.IsInf(s.opts.epsilon, 0) {
		return errors.NewValidationError("epsilon", "must be positive and finite", s.opts.epsilon)
	}

	nSamples, nFeatures := X.Dims()
	if nSamples != len(y) {
		return errors.NewDimensionError("SEFR.Fit", nSamples, len(y), 0)
	}

	logger := s.opts.log().With(log.ModelNameKey, "SEFR")
	if nSamples == 0 || nFeatures == 0 {
		errors.Warn(errors.NewDegenerateDataWarning("SEFR.Fit", "no samples or no features, model left unchanged", nSamples, nFeatures))
		return nil
	}

	start := time.Now()
	params, nPos, nNeg, err := fitSEFR(X, y, positive, s.opts)
	if err != nil {
		return errors.Wrap(err, "SEFR.Fit")
	}

	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewDegenerateDataWarning("SEFR.Fit", "one class group is empty", nSamples, nFeatures))
	}
	if err := errors.CheckNumericalStability("SEFR.Fit weights", params.weights); err != nil {
		errors.Warn(err)
	} else if err := errors.CheckScalar("SEFR.Fit bias", params.bias); err != nil {
		errors.Warn(err)
	}

	s.mu.Lock()
	s.params = params
	s.state.MarkFitted(nFeatures, nSamples)
	s.mu.Unlock()

	logger.Debug("SEFR fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.PositivesKey, nPos,
		log.NegativesKey, nNeg,
		log.BiasKey, params.bias,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// fitSEFR computes weights and bias. X must have at least one row and column.
func fitSEFR[L comparable](X mat.Matrix, y []L, positive L, opts options) (*sefrParams[L], int, int, error) {
	nSamples, nFeatures := X.Dims()

	// Group membership as 0/1 weights for stat.Mean.
	posMask := make([]float64, nSamples)
	negMask := make([]float64, nSamples)
	nPos := 0
	for i, label := range y {
		if label == positive {
			posMask[i] = 1
			nPos++
		} else {
			negMask[i] = 1
		}
	}
	nNeg := nSamples - nPos

	weights := make([]float64, nFeatures)
	firstNegative := make([]int, nFeatures)
	err := opts.run(nFeatures, nSamples*nFeatures, func(start, end int) {
		col := make([]float64, nSamples)
		for j := start; j < end; j++ {
			mat.Col(col, j, X)
			firstNegative[j] = -1
			for i, v := range col {
				if v < 0 {
					firstNegative[j] = i
					break
				}
			}
			avgPos := groupMean(col, posMask, nPos)
			avgNeg := groupMean(col, negMask, nNeg)
			weights[j] = (avgPos - avgNeg) / (avgPos + avgNeg + opts.epsilon)
		}
	})
	if err != nil {
		return nil, 0, 0, err
	}
	for j, i := range firstNegative {
		if i >= 0 {
			errors.Warn(errors.NewNegativeFeatureWarning("SEFR.Fit", i, j, X.At(i, j)))
			break
		}
	}

	// Raw scores without the bias.
	scores := make([]float64, nSamples)
	err = opts.run(nSamples, nSamples*nFeatures, func(start, end int) {
		row := make([]float64, nFeatures)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			scores[i] = floats.Dot(row, weights)
		}
	})
	if err != nil {
		return nil, 0, 0, err
	}

	avgPosScore := groupMean(scores, posMask, nPos)
	avgNegScore := groupMean(scores, negMask, nNeg)
	fPos, fNeg := float64(nPos), float64(nNeg)
	bias := -(fNeg*avgPosScore + fPos*avgNegScore) / (fNeg + fPos)

	return &sefrParams[L]{weights: weights, bias: bias, positive: positive}, nPos, nNeg, nil
}

// groupMean is the mean of x over the rows selected by mask, or 0 for an
// empty group.
func groupMean(x, mask []float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return stat.Mean(x, mask)
}

func (s *SEFR[L]) snapshot() *sefrParams[L] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// trained returns the current parameters, or a NotFittedError for method.
func (s *SEFR[L]) trained(method string) (*sefrParams[L], error) {
	p := s.snapshot()
	if p == nil {
		return nil, errors.NewNotFittedError("SEFR", method)
	}
	return p, nil
}

// PredictScoreVec returns bias + dot(x, weights) for a single example.
func (s *SEFR[L]) PredictScoreVec(x mat.Vector) (float64, error) {
	p, err := s.trained("PredictScoreVec")
	if err != nil {
		return 0, err
	}
	if x.Len() != len(p.weights) {
		return 0, errors.NewDimensionError("SEFR.PredictScoreVec", len(p.weights), x.Len(), 1)
	}
	return p.score(vecData(x)), nil
}

// PredictVec reports whether x falls on the positive side of the decision
// boundary. A score of exactly zero is positive.
func (s *SEFR[L]) PredictVec(x mat.Vector) (bool, error) {
	score, err := s.PredictScoreVec(x)
	if err != nil {
		return false, err
	}
	return score >= 0, nil
}

// PredictScore returns the raw score of every row of X, in row order.
func (s *SEFR[L]) PredictScore(X mat.Matrix) (*mat.VecDense, error) {
	p, err := s.trained("PredictScore")
	if err != nil {
		return nil, err
	}
	scores, err := s.scoreRows(p, X, "SEFR.PredictScore")
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return &mat.VecDense{}, nil
	}
	return mat.NewVecDense(len(scores), scores), nil
}

// Predict classifies every row of X; true means the positive class.
func (s *SEFR[L]) Predict(X mat.Matrix) ([]bool, error) {
	p, err := s.trained("Predict")
	if err != nil {
		return nil, err
	}
	scores, err := s.scoreRows(p, X, "SEFR.Predict")
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(scores))
	for i, v := range scores {
		out[i] = v >= 0
	}
	return out, nil
}

func (s *SEFR[L]) scoreRows(p *sefrParams[L], X mat.Matrix, op string) (scores []float64, err error) {
	defer errors.Recover(&err, op)

	r, c := X.Dims()
	if r == 0 {
		return nil, nil
	}
	if c != len(p.weights) {
		return nil, errors.NewDimensionError(op, len(p.weights), c, 1)
	}

	scores = make([]float64, r)
	err = s.opts.run(r, r, func(start, end int) {
		row := make([]float64, c)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			scores[i] = p.score(row)
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	return scores, nil
}

// Score returns the accuracy of Predict(X) against y, where an example is
// positive when its label equals the label the model was fitted for.
func (s *SEFR[L]) Score(X mat.Matrix, y []L) (float64, error) {
	p, err := s.trained("Score")
	if err != nil {
		return 0, err
	}
	pred, err := s.Predict(X)
	if err != nil {
		return 0, err
	}
	truth := make([]bool, len(y))
	for i, label := range y {
		truth[i] = label == p.positive
	}
	return metrics.Accuracy(truth, pred)
}

// Weights returns a copy of the learned weights, or nil before Fit.
func (s *SEFR[L]) Weights() []float64 {
	p := s.snapshot()
	if p == nil {
		return nil
	}
	return append([]float64(nil), p.weights...)
}

// Intercept returns the learned bias, or 0 before Fit.
func (s *SEFR[L]) Intercept() float64 {
	p := s.snapshot()
	if p == nil {
		return 0
	}
	return p.bias
}

// PositiveLabel returns the label the model was fitted for. ok is false
// before Fit.
func (s *SEFR[L]) PositiveLabel() (label L, ok bool) {
	p := s.snapshot()
	if p == nil {
		return label, false
	}
	return p.positive, true
}

// detached returns a new SEFR sharing the current trained parameters. Fitting
// the copy does not affect s.
func (s *SEFR[L]) detached() *SEFR[L] {
	c := NewSEFR[L]()
	c.opts = s.opts
	if p := s.snapshot(); p != nil {
		c.params = p
		nFeatures, nSamples := s.state.GetDimensions()
		c.state.MarkFitted(nFeatures, nSamples)
	}
	return c
}

// IsFitted reports whether Fit has completed at least once.
func (s *SEFR[L]) IsFitted() bool {
	return s.state.IsFitted()
}

// NFeatures returns the number of features seen by the last Fit.
func (s *SEFR[L]) NFeatures() int {
	n, _ := s.state.GetDimensions()
	return n
}

// GetParams returns the estimator configuration.
func (s *SEFR[L]) GetParams() map[string]interface{} {
	params := s.opts.params()
	if label, ok := s.PositiveLabel(); ok {
		params["positive_label"] = label
	}
	return params
}

// vecData returns the elements of x as a slice, without copying when possible.
func vecData(x mat.Vector) []float64 {
	if v, ok := x.(*mat.VecDense); ok {
		raw := v.RawVector()
		if raw.Inc == 1 {
			return raw.Data[:raw.N]
		}
	}
	out := make([]float64, x.Len())
	for i := range out {
		out[i] = x.AtVec(i)
	}
	return out
}
