package log

// Model and operation context.
const (
	// ModelNameKey identifies the type of model, e.g. "SGDLinearRegression".
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed ("fit", "predict", "score").
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the lifecycle phase ("training", "validation", ...).
	PhaseKey = "ml.phase"

	// StateKey records the trainer state ("Training", "Diverged", ...).
	StateKey = "training.state"
)

// Data shape.
const (
	// SamplesKey indicates the number of rows in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of feature columns.
	FeaturesKey = "data.features"

	// BatchSizeKey indicates the size of minibatches.
	BatchSizeKey = "data.batch_size"

	// BatchesKey indicates the number of minibatches in one epoch.
	BatchesKey = "data.batches"

	// PathKey records the path of a data or model file.
	PathKey = "data.path"
)

// Metrics and progress.
const (
	DurationMsKey = "perf.duration_ms"
	LossKey       = "metrics.loss"
	R2ScoreKey    = "metrics.r2_score"
	MSEKey        = "metrics.mse"
	EpochKey      = "training.epoch"
	EpochsKey     = "training.epochs"
)

// Hyperparameters.
const (
	LearningRateKey  = "hyperparams.learning_rate"
	MaxIterationsKey = "hyperparams.max_iterations"
	ModeKey          = "hyperparams.mode"
	RandomSeedKey    = "config.random_seed"
	SplitRatioKey    = "config.split_ratio"
)

// Error context.
const (
	ErrorTypeKey  = "error.type"
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationScore     = "score"
	OperationLoad      = "load"
	OperationTransform = "transform"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhasePreprocessing = "preprocessing"
)
