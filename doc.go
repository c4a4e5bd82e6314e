// Package sefr is a Go implementation of SEFR, a binary linear classifier
// trained in a single pass over the data, together with a one-vs-rest
// wrapper for multiclass problems.
//
// SEFR has no iterative optimization. Each feature weight is the normalised
// difference between the feature's mean over positive and negative examples,
// and the bias sits between the mean scores of the two groups. Training and
// inference are linear in the size of the data, which makes the model a good
// fit for backend services and small devices.
//
// # Installation
//
//	go get github.com/YuminosukeSato/sefr
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/sefr/linear"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(4, 2, []float64{1, 1, 1, 0, 0, 1, 0, 0})
//	    y := []int{1, 1, 0, 0}
//
//	    clf := linear.NewSEFR[int]()
//	    if err := clf.Fit(X, y, linear.PositiveLabel); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    positive, err := clf.PredictVec(mat.NewVecDense(2, []float64{1, 1}))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(positive) // true
//	}
//
// Features are expected to be non-negative. Use preprocessing.MinMaxScaler
// when they are not.
//
// # Packages
//
//   - linear: SEFR and OneVsRest classifiers
//   - metrics: Accuracy, ConfusionMatrix, ClassificationReport
//   - preprocessing: MinMaxScaler and CheckNonNegative
//   - datasets: CSV loading and seeded train/test split
//   - core/model: Estimator interfaces and fitted-state handling
//   - core/parallel: Parallel processing utilities
//   - pkg/errors: Structured errors and warnings
//   - pkg/log: Structured logging (zerolog and log/slog backends)
//   - pkg/config: YAML configuration for the sefr command
//   - visualize: weight charts (gonum/plot)
//
// # Performance
//
// Per-feature weight computation and batched scoring are split across CPU
// cores once the amount of work exceeds a threshold (1000 by default), and
// OneVsRest fits its per-label classifiers concurrently. Every parallel path
// produces results bit-identical to the sequential one.
//
// # License
//
// sefr is released under the MIT License.
package sefr
