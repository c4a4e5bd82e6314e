package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type, e.g. "SEFR", "OneVsRest", "MinMaxScaler".
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"

	// ClassesKey records the number of distinct labels seen by a multiclass fit.
	ClassesKey = "data.classes"

	// PositivesKey and NegativesKey record the group sizes of a binary fit.
	PositivesKey = "data.positives"
	NegativesKey = "data.negatives"
)

// Performance and results.
const (
	DurationMsKey = "perf.duration_ms"
	AccuracyKey   = "metrics.accuracy"

	// BiasKey records the fitted decision bias.
	BiasKey = "model.bias"

	// WorkersKey records how many goroutines a parallel step used.
	WorkersKey = "infra.workers"
)

// Predictions.
const (
	PredsKey = "preds.count"

	// LabelKey records the label a binary estimator was fitted for.
	LabelKey = "preds.label"
)

// Error context.
const (
	ErrorCodeKey  = "error.code"
	ErrorTypeKey  = "error.type"
	SuggestionKey = "error.suggestion"
)

// Configuration.
const (
	EpsilonKey       = "hyperparams.epsilon"
	ConfigVersionKey = "config.version"
)

// Standard attribute values.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"

	PhaseTraining      = "training"
	PhaseTesting       = "testing"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
)
