package linear

import (
	"runtime"

	"github.com/YuminosukeSato/sefr/core/parallel"
	"github.com/YuminosukeSato/sefr/pkg/log"
)

// DefaultEpsilon guards the per-feature weight division when both class
// averages of a feature are zero.
const DefaultEpsilon = 1e-7

// Option configures a SEFR or OneVsRest estimator.
type Option func(*options)

type options struct {
	epsilon           float64
	parallelThreshold int
	nJobs             int
	logger            log.Logger
}

func defaultOptions() options {
	return options{
		epsilon:           DefaultEpsilon,
		parallelThreshold: parallel.DefaultThreshold,
		nJobs:             -1,
	}
}

func newOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithEpsilon sets the constant added to the weight denominator.
// It must be positive; Fit rejects other values.
func WithEpsilon(eps float64) Option {
	return func(o *options) {
		o.epsilon = eps
	}
}

// WithParallelThreshold sets the amount of work (cells for fitting, rows for
// prediction) at or below which computation stays on the calling goroutine.
func WithParallelThreshold(n int) Option {
	return func(o *options) {
		o.parallelThreshold = n
	}
}

// WithNJobs sets the number of parallel workers. -1 uses all CPU cores,
// 0 and 1 run sequentially.
func WithNJobs(n int) Option {
	return func(o *options) {
		o.nJobs = n
	}
}

// WithLogger sets the logger used for fit and predict diagnostics.
// Without it the estimator logs through log.GetLogger().
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func (o options) workers() int {
	switch {
	case o.nJobs < 0:
		return runtime.NumCPU()
	case o.nJobs == 0:
		return 1
	default:
		return o.nJobs
	}
}

// run splits [0, items) across workers when work exceeds the threshold. A
// panic in fn comes back as an error from whichever goroutine ran it.
func (o options) run(items, work int, fn func(start, end int)) error {
	return parallel.ParallelizeWithThreshold(items, work, o.parallelThreshold, o.workers(), fn)
}

func (o options) log() log.Logger {
	if o.logger != nil {
		return o.logger
	}
	return log.GetLogger()
}

func (o options) params() map[string]interface{} {
	return map[string]interface{}{
		"epsilon":            o.epsilon,
		"n_jobs":             o.nJobs,
		"parallel_threshold": o.parallelThreshold,
	}
}

func (o options) asOptions() []Option {
	return []Option{
		WithEpsilon(o.epsilon),
		WithParallelThreshold(o.parallelThreshold),
		WithNJobs(o.nJobs),
		WithLogger(o.logger),
	}
}
