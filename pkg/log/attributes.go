// Package log defines standard attribute keys for the salary prediction service.
//
// Keys follow a hierarchical naming convention ("model.name", "data.samples")
// so that log lines from training, inference and HTTP handling can be
// filtered on the same fields.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the estimator or transformer type.
	// Examples: "RandomForestRegressor", "StandardScaler", "LabelEncoder"
	ModelNameKey = "model.name"

	// EstimatorIDKey provides a unique identifier for a specific model instance.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "fit_transform", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is emitting the record.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of feature columns.
	FeaturesKey = "data.features"

	// TrainSamplesKey and TestSamplesKey record the sizes of the two halves of a split.
	TrainSamplesKey = "data.train_samples"
	TestSamplesKey  = "data.test_samples"

	// ColumnKey names a single column (for example the categorical column
	// that received an unseen value).
	ColumnKey = "data.column"

	// RecordIndexKey points at the offending record inside a batch.
	RecordIndexKey = "data.record_index"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// MSEKey, RMSEKey and MAEKey record regression errors on the held-out set.
	MSEKey  = "metrics.mse"
	RMSEKey = "metrics.rmse"
	MAEKey  = "metrics.mae"

	// R2ScoreKey records R² coefficient of determination for regression.
	R2ScoreKey = "metrics.r2_score"

	// TreesKey records the number of trees in a fitted ensemble.
	TreesKey = "model.n_estimators"
)

// Prediction and Output Context
const (
	// PredictionKey records a point salary estimate.
	PredictionKey = "preds.salary"

	// ConfidenceKey records the heuristic confidence of a prediction.
	ConfidenceKey = "preds.confidence"
)

// Error and Request Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// ErrorStageKey names the training stage a TrainingError came from
	// ("encode", "split", "scale", "fit", "evaluate").
	ErrorStageKey = "error.stage"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "error.stacktrace"

	// RequestIDKey carries the per-request identifier assigned by the HTTP layer.
	RequestIDKey = "http.request_id"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"

	ErrorNotTrained        = "NOT_TRAINED"
	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorTrainingFailed    = "TRAINING_FAILED"
)
