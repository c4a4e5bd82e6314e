package linear

import (
	"cmp"
	"context"
	"maps"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/YuminosukeSato/sefr/core/model"
	"github.com/YuminosukeSato/sefr/core/parallel"
	"github.com/YuminosukeSato/sefr/metrics"
	"github.com/YuminosukeSato/sefr/pkg/errors"
	"github.com/YuminosukeSato/sefr/pkg/log"
	"gonum.org/v1/gonum/mat"
)

var (
	_ model.Classifier[int]    = (*OneVsRest[int])(nil)
	_ model.Classifier[string] = (*OneVsRest[string])(nil)
	_ model.ParameterGetter    = (*OneVsRest[int])(nil)
)

// OneVsRest is a multiclass classifier built from one SEFR per label. The
// classifier for label k is trained with k as the positive class against all
// remaining examples, and prediction picks the label whose classifier gives
// the highest raw score. Ties go to the smallest label.
//
// A OneVsRest is safe for concurrent use.
type OneVsRest[L cmp.Ordered] struct {
	mu     sync.RWMutex
	state  *model.StateManager
	opts   options
	params *ovrParams[L]
}

// ovrParams keeps labels and classifiers index-aligned: classifiers[i] was
// fitted with labels[i] as the positive class.
type ovrParams[L cmp.Ordered] struct {
	labels      []L
	classifiers []*SEFR[L]
	nFeatures   int
}

// NewOneVsRest creates an untrained multiclass classifier. The options are
// passed on to every per-label SEFR.
func NewOneVsRest[L cmp.Ordered](opts ...Option) *OneVsRest[L] {
	return &OneVsRest[L]{
		state: model.NewStateManager(),
		opts:  newOptions(opts),
	}
}

// Fit trains one binary classifier per distinct label in y.
func (o *OneVsRest[L]) Fit(X mat.Matrix, y []L) error {
	return o.FitContext(context.Background(), X, y)
}

// FitContext is Fit with cancellation. The context is checked before each
// per-label fit and again before the new model is installed; a cancelled fit
// leaves the previous model in place.
func (o *OneVsRest[L]) FitContext(ctx context.Context, X mat.Matrix, y []L) (err error) {
	defer errors.Recover(&err, "OneVsRest.Fit")

	nSamples, nFeatures := X.Dims()
	if nSamples != len(y) {
		return errors.NewDimensionError("OneVsRest.Fit", nSamples, len(y), 0)
	}
	if nSamples == 0 || nFeatures == 0 {
		errors.Warn(errors.NewDegenerateDataWarning("OneVsRest.Fit", "no samples or no features, model left unchanged", nSamples, nFeatures))
		return nil
	}

	logger := o.opts.log().With(log.ModelNameKey, "OneVsRest")
	start := time.Now()

	set := make(map[L]struct{})
	for _, label := range y {
		set[label] = struct{}{}
	}
	labels := slices.Sorted(maps.Keys(set))

	classifiers := make([]*SEFR[L], len(labels))
	err = parallel.ForEach(len(labels), o.opts.workers(), func(i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		clf := NewSEFR[L](o.opts.asOptions()...)
		if err := clf.Fit(X, y, labels[i]); err != nil {
			return errors.Wrapf(err, "fit classifier for label %v", labels[i])
		}
		classifiers[i] = clf
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "OneVsRest.Fit")
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "OneVsRest.Fit")
	}

	o.mu.Lock()
	o.params = &ovrParams[L]{labels: labels, classifiers: classifiers, nFeatures: nFeatures}
	o.state.MarkFitted(nFeatures, nSamples)
	o.mu.Unlock()

	logger.Debug("OneVsRest fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.ClassesKey, len(labels),
		log.WorkersKey, o.opts.workers(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func (o *OneVsRest[L]) trained(method string) (*ovrParams[L], error) {
	o.mu.RLock()
	p := o.params
	o.mu.RUnlock()
	if p == nil {
		return nil, errors.NewNotFittedError("OneVsRest", method)
	}
	return p, nil
}

// PredictVec returns the label whose classifier scores x highest.
func (o *OneVsRest[L]) PredictVec(x mat.Vector) (L, error) {
	var zero L
	p, err := o.trained("PredictVec")
	if err != nil {
		return zero, err
	}
	if x.Len() != p.nFeatures {
		return zero, errors.NewDimensionError("OneVsRest.PredictVec", p.nFeatures, x.Len(), 1)
	}

	scores := make([]float64, len(p.classifiers))
	for i, clf := range p.classifiers {
		if scores[i], err = clf.PredictScoreVec(x); err != nil {
			return zero, err
		}
	}
	return p.labels[argmax(scores)], nil
}

// Predict returns the predicted label of every row of X, in row order.
func (o *OneVsRest[L]) Predict(X mat.Matrix) ([]L, error) {
	p, err := o.trained("Predict")
	if err != nil {
		return nil, err
	}
	scores, err := p.decision(X, "OneVsRest.Predict")
	if err != nil {
		return nil, err
	}

	out := make([]L, len(scores))
	for i, row := range scores {
		out[i] = p.labels[argmax(row)]
	}
	return out, nil
}

// DecisionFunction returns the raw score of every classifier for every row of
// X as an n_samples × n_classes matrix. Columns follow Classes().
func (o *OneVsRest[L]) DecisionFunction(X mat.Matrix) (*mat.Dense, error) {
	p, err := o.trained("DecisionFunction")
	if err != nil {
		return nil, err
	}
	scores, err := p.decision(X, "OneVsRest.DecisionFunction")
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return &mat.Dense{}, nil
	}

	out := mat.NewDense(len(scores), len(p.labels), nil)
	for i, row := range scores {
		out.SetRow(i, row)
	}
	return out, nil
}

// decision returns scores[row][label]. Each column comes from the same
// per-row computation PredictScoreVec uses.
func (p *ovrParams[L]) decision(X mat.Matrix, op string) ([][]float64, error) {
	r, c := X.Dims()
	if r == 0 {
		return nil, nil
	}
	if c != p.nFeatures {
		return nil, errors.NewDimensionError(op, p.nFeatures, c, 1)
	}

	scores := make([][]float64, r)
	for i := range scores {
		scores[i] = make([]float64, len(p.classifiers))
	}
	for k, clf := range p.classifiers {
		col, err := clf.PredictScore(X)
		if err != nil {
			return nil, err
		}
		for i := range scores {
			scores[i][k] = col.AtVec(i)
		}
	}
	return scores, nil
}

// argmax returns the index of the first strictly greatest score. When no
// score exceeds -Inf (all -Inf or NaN) it returns 0.
func argmax(scores []float64) int {
	best := 0
	bestScore := math.Inf(-1)
	for i, s := range scores {
		if s > bestScore {
			best = i
			bestScore = s
		}
	}
	return best
}

// Score returns the mean accuracy of Predict(X) against y.
func (o *OneVsRest[L]) Score(X mat.Matrix, y []L) (float64, error) {
	pred, err := o.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(y, pred)
}

// Classes returns the sorted labels seen by Fit, or nil before Fit.
func (o *OneVsRest[L]) Classes() []L {
	p, err := o.trained("Classes")
	if err != nil {
		return nil
	}
	return slices.Clone(p.labels)
}

// Estimators returns copies of the per-label classifiers in Classes() order.
// Refitting a returned classifier does not change o.
func (o *OneVsRest[L]) Estimators() []*SEFR[L] {
	p, err := o.trained("Estimators")
	if err != nil {
		return nil
	}
	out := make([]*SEFR[L], len(p.classifiers))
	for i, clf := range p.classifiers {
		out[i] = clf.detached()
	}
	return out
}

// IsFitted reports whether Fit has completed at least once.
func (o *OneVsRest[L]) IsFitted() bool {
	return o.state.IsFitted()
}

// NFeatures returns the number of features seen by the last Fit.
func (o *OneVsRest[L]) NFeatures() int {
	n, _ := o.state.GetDimensions()
	return n
}

func (o *OneVsRest[L]) GetParams() map[string]interface{} {
	params := o.opts.params()
	params["n_classes"] = len(o.Classes())
	return params
}
