package main

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sefr/datasets"
	"github.com/YuminosukeSato/sefr/linear"
	"github.com/YuminosukeSato/sefr/metrics"
	"github.com/YuminosukeSato/sefr/pkg/config"
	"github.com/YuminosukeSato/sefr/pkg/errors"
	"github.com/YuminosukeSato/sefr/pkg/log"
	"github.com/YuminosukeSato/sefr/preprocessing"
	"github.com/YuminosukeSato/sefr/visualize"
)

type trainFlags struct {
	dataPath   string
	testPath   string
	configPath string
	positive   string
	logLevel   string
	plotPath   string
}

func newTrainCmd() *cobra.Command {
	var f trainFlags
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit a classifier and report held-out accuracy",
		Long: `Fit a classifier on --data and evaluate it on --test, or on a seeded
split of --data when no test file is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.dataPath, "data", "", "Training CSV file")
	cmd.Flags().StringVar(&f.testPath, "test", "", "Test CSV file (default: split --data)")
	cmd.Flags().StringVar(&f.configPath, "config", "", "YAML configuration file")
	cmd.Flags().StringVar(&f.positive, "positive", "", "Train a binary classifier for this label")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	cmd.Flags().StringVar(&f.plotPath, "plot", "", "Save a chart of the learned weights (.png, .svg, .pdf)")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func loadConfig(f trainFlags) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return nil, err
		}
	}
	if f.positive != "" {
		cfg.Model.PositiveLabel = f.positive
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	return cfg, cfg.Validate()
}

func setupLogging(cfg config.LogConfig, w io.Writer) error {
	if cfg.Format == "json" {
		return log.SetupZerolog(w, cfg.Level)
	}
	return log.SetupZerolog(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}, cfg.Level)
}

func runTrain(cmd *cobra.Command, f trainFlags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	if err := setupLogging(cfg.Log, cmd.ErrOrStderr()); err != nil {
		return err
	}
	logger := log.GetLogger().With(log.ComponentKey, "cli")

	csvOpts := datasets.CSVOptions{LabelColumn: cfg.Data.LabelColumn, Header: cfg.Data.Header}
	X, y, err := datasets.LoadCSV(f.dataPath, csvOpts)
	if err != nil {
		return err
	}

	var (
		XTrain, XTest mat.Matrix
		yTrain, yTest []string
	)
	if f.testPath != "" {
		XTrain, yTrain = X, y
		if XTest, yTest, err = datasets.LoadCSV(f.testPath, csvOpts); err != nil {
			return err
		}
	} else {
		split, err := datasets.TrainTestSplit(X, y, cfg.Data.TestRatio, cfg.Data.Seed)
		if err != nil {
			return err
		}
		XTrain, XTest, yTrain, yTest = split.XTrain, split.XTest, split.YTrain, split.YTest
	}
	if len(yTrain) == 0 || len(yTest) == 0 {
		return errors.NewModelError("train", "need at least one training and one test example", errors.ErrEmptyData)
	}

	if cfg.Data.Scale {
		scaler := preprocessing.NewMinMaxScalerDefault()
		scaler.Clip = true
		if XTrain, err = scaler.FitTransform(XTrain); err != nil {
			return err
		}
		if XTest, err = scaler.Transform(XTest); err != nil {
			return err
		}
	} else if err := preprocessing.CheckNonNegative(XTrain); err != nil {
		errors.Warn(err)
	}

	logger.Info("Training started",
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, len(yTrain),
	)
	start := time.Now()

	var res *result
	if pos := cfg.Model.PositiveLabel; pos != "" {
		res, err = trainBinary(cfg.Model, pos, XTrain, yTrain, XTest, yTest)
	} else {
		res, err = trainMulticlass(cfg.Model, XTrain, yTrain, XTest, yTest)
	}
	if err != nil {
		return err
	}

	report, err := metrics.ClassificationReport(res.truth, res.pred)
	if err != nil {
		return err
	}
	logger.Info("Evaluation finished",
		log.PhaseKey, log.PhaseTesting,
		log.AccuracyKey, report.Accuracy,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "train samples: %d, test samples: %d\n", len(yTrain), len(yTest))
	fmt.Fprintf(out, "accuracy: %.4f\n\n", report.Accuracy)
	fmt.Fprint(out, report.String())

	if f.plotPath != "" {
		if err := visualize.SaveWeightsChart(f.plotPath, "SEFR weights", res.weights, nil); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nweights chart written to %s\n", f.plotPath)
	}
	return nil
}

type result struct {
	truth, pred []string
	weights     []visualize.WeightSeries
}

func trainBinary(m config.ModelConfig, positive string, XTrain mat.Matrix, yTrain []string, XTest mat.Matrix, yTest []string) (*result, error) {
	clf := linear.NewSEFR[string](m.Options()...)
	if err := clf.Fit(XTrain, yTrain, positive); err != nil {
		return nil, err
	}
	isPos, err := clf.Predict(XTest)
	if err != nil {
		return nil, err
	}

	rest := "not " + positive
	truth := make([]string, len(yTest))
	pred := make([]string, len(yTest))
	for i := range yTest {
		truth[i], pred[i] = rest, rest
		if yTest[i] == positive {
			truth[i] = positive
		}
		if isPos[i] {
			pred[i] = positive
		}
	}
	return &result{
		truth:   truth,
		pred:    pred,
		weights: []visualize.WeightSeries{{Name: positive, Weights: clf.Weights()}},
	}, nil
}

func trainMulticlass(m config.ModelConfig, XTrain mat.Matrix, yTrain []string, XTest mat.Matrix, yTest []string) (*result, error) {
	clf := linear.NewOneVsRest[string](m.Options()...)
	if err := clf.Fit(XTrain, yTrain); err != nil {
		return nil, err
	}
	pred, err := clf.Predict(XTest)
	if err != nil {
		return nil, err
	}

	res := &result{truth: yTest, pred: pred}
	for i, est := range clf.Estimators() {
		res.weights = append(res.weights, visualize.WeightSeries{Name: clf.Classes()[i], Weights: est.Weights()})
	}
	return res, nil
}
