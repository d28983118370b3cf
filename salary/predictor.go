package salary

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/salaryml/metrics"
	"github.com/YuminosukeSato/salaryml/model_selection"
	"github.com/YuminosukeSato/salaryml/pkg/errors"
	"github.com/YuminosukeSato/salaryml/pkg/log"
	"github.com/YuminosukeSato/salaryml/preprocessing"
	"github.com/YuminosukeSato/salaryml/sklearn/ensemble"
)

const (
	// RangeFraction is the half-width of the reported salary range.
	RangeFraction = 0.15

	// MinConfidence and MaxConfidence bound the heuristic confidence score.
	MinConfidence = 0.60
	MaxConfidence = 0.95
)

// Config holds the training hyperparameters.
type Config struct {
	NEstimators int
	MaxDepth    int
	Seed        uint64
	TestSize    float64
	NJobs       int
}

// DefaultConfig returns 100 trees of depth at most 10, seed 42 and a 20% hold-out.
func DefaultConfig() Config {
	return Config{
		NEstimators: 100,
		MaxDepth:    10,
		Seed:        42,
		TestSize:    0.2,
	}
}

// TrainingResult reports the hold-out metrics of a successful Train.
type TrainingResult struct {
	MSE          float64 `json:"mse"`
	RMSE         float64 `json:"rmse"`
	R2           float64 `json:"r2"`
	MAE          float64 `json:"mae"`
	TrainSamples int     `json:"train_samples"`
	TestSamples  int     `json:"test_samples"`
}

// SalaryRange is the interval reported around a point estimate.
type SalaryRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// PredictionResult is the output of Predict.
type PredictionResult struct {
	PredictedSalary float64            `json:"predicted_salary"`
	ConfidenceScore float64            `json:"confidence_score"`
	SalaryRange     SalaryRange        `json:"salary_range"`
	FactorsAnalysis map[string]float64 `json:"factors_analysis"`
	// UnseenCategories lists the categorical columns whose value was not
	// seen during training and was encoded as the sentinel.
	UnseenCategories []string `json:"unseen_categories,omitempty"`
}

// Status describes the predictor without failing when it is untrained.
type Status struct {
	IsTrained         bool            `json:"is_trained"`
	FeatureColumns    []string        `json:"feature_columns"`
	EncoderAttributes []string        `json:"available_encoders"`
	Metrics           *TrainingResult `json:"metrics,omitempty"`
	TrainedAt         time.Time       `json:"trained_at"`
}

// fittedState is everything produced by one successful Train. It is never
// mutated after it has been published.
type fittedState struct {
	encoder        *FeatureEncoder
	featureColumns []string
	scaler         *preprocessing.StandardScaler
	forest         *ensemble.RandomForestRegressor
	importances    []float64
	metrics        TrainingResult
	trainedAt      time.Time
}

// Predictor trains and serves the salary model. Predict and Status may be
// called concurrently with each other and with Train; only one Train runs
// at a time.
type Predictor struct {
	cfg    Config
	logger log.Logger

	trainMu sync.Mutex
	state   atomic.Pointer[fittedState]
}

// NewPredictor returns an untrained predictor.
func NewPredictor(cfg Config) *Predictor {
	return &Predictor{
		cfg:    cfg,
		logger: log.GetLoggerWithName("salary.predictor"),
	}
}

// WithLogger replaces the predictor's logger.
func (p *Predictor) WithLogger(l log.Logger) *Predictor {
	p.logger = l
	return p
}

// Train fits a new model on records.
func (p *Predictor) Train(records []Record) (*TrainingResult, error) {
	return p.TrainContext(context.Background(), records)
}

// TrainContext fits a new model on records and publishes it atomically.
// On any failure the previously published model stays in place.
func (p *Predictor) TrainContext(ctx context.Context, records []Record) (*TrainingResult, error) {
	if err := validateTrainingBatch(records); err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, errors.NewTrainingError("split", errors.Newf("need at least 2 records, got %d", len(records)))
	}

	p.trainMu.Lock()
	defer p.trainMu.Unlock()

	start := time.Now()
	var st *fittedState
	err := errors.SafeExecute("Predictor.Train", func() error {
		var err error
		st, err = p.fit(ctx, records)
		return err
	})
	if err != nil {
		var pe *errors.PanicError
		if errors.As(err, &pe) {
			err = errors.NewTrainingError("panic", err)
		}
		p.logger.Error("Training failed", err,
			log.OperationKey, log.OperationFit,
			log.SamplesKey, len(records),
		)
		return nil, err
	}

	p.state.Store(st)

	res := st.metrics
	p.logger.Info("Model trained",
		log.OperationKey, log.OperationFit,
		log.TrainSamplesKey, res.TrainSamples,
		log.TestSamplesKey, res.TestSamples,
		log.MSEKey, res.MSE,
		log.RMSEKey, res.RMSE,
		log.R2ScoreKey, res.R2,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return &res, nil
}

func (p *Predictor) fit(ctx context.Context, records []Record) (*fittedState, error) {
	X, enc, err := FitTransform(records)
	if err != nil {
		return nil, errors.NewTrainingError("encode", err)
	}

	y := mat.NewDense(len(records), 1, nil)
	for i := range records {
		y.Set(i, 0, *records[i].CurrentSalary)
	}

	XTrain, XTest, yTrain, yTest, err := model_selection.TrainTestSplit(X, y, p.cfg.TestSize, p.cfg.Seed)
	if err != nil {
		return nil, errors.NewTrainingError("split", err)
	}

	scaler := preprocessing.NewStandardScalerDefault()
	XTrainScaled, err := scaler.FitTransform(XTrain)
	if err != nil {
		return nil, errors.NewTrainingError("scale", err)
	}
	XTestScaled, err := scaler.Transform(XTest)
	if err != nil {
		return nil, errors.NewTrainingError("scale", err)
	}

	forest := ensemble.NewRandomForestRegressor().
		WithNEstimators(p.cfg.NEstimators).
		WithMaxDepth(p.cfg.MaxDepth).
		WithRandomState(p.cfg.Seed).
		WithNJobs(p.cfg.NJobs)
	if err := forest.FitContext(ctx, XTrainScaled, yTrain); err != nil {
		return nil, errors.NewTrainingError("fit", err)
	}

	yPred, err := forest.Predict(XTestScaled)
	if err != nil {
		return nil, errors.NewTrainingError("evaluate", err)
	}
	nTest, _ := yTest.Dims()
	report, err := metrics.Regression(
		mat.NewVecDense(nTest, mat.Col(nil, 0, yTest)),
		mat.NewVecDense(nTest, mat.Col(nil, 0, yPred)),
	)
	if err != nil {
		return nil, errors.NewTrainingError("evaluate", err)
	}

	importances, err := forest.FeatureImportances()
	if err != nil {
		return nil, errors.NewTrainingError("evaluate", err)
	}

	nTrain, _ := XTrain.Dims()
	return &fittedState{
		encoder:        enc,
		featureColumns: enc.Columns(),
		scaler:         scaler,
		forest:         forest,
		importances:    importances,
		metrics: TrainingResult{
			MSE:          report.MSE,
			RMSE:         report.RMSE,
			R2:           report.R2,
			MAE:          report.MAE,
			TrainSamples: nTrain,
			TestSamples:  nTest,
		},
		trainedAt: time.Now().UTC(),
	}, nil
}

// Predict estimates the salary of one employee.
func (p *Predictor) Predict(rec Record) (*PredictionResult, error) {
	st := p.state.Load()
	if st == nil {
		return nil, errors.NewNotTrainedError("predict")
	}
	if err := validateInferenceRecord(&rec); err != nil {
		return nil, err
	}

	X, unseen, err := st.encoder.Transform([]Record{rec})
	if err != nil {
		return nil, err
	}
	X = alignColumns(X, st.encoder.Columns(), st.featureColumns)

	scaled, err := st.scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	out, err := st.forest.Predict(scaled)
	if err != nil {
		return nil, err
	}
	estimate := out.At(0, 0)

	lo, hi := estimate*(1-RangeFraction), estimate*(1+RangeFraction)
	if lo > hi {
		lo, hi = hi, lo
	}

	factors := make(map[string]float64, len(st.featureColumns))
	for j, col := range st.featureColumns {
		if j < len(st.importances) {
			factors[strings.TrimSuffix(col, encodedSuffix)] = st.importances[j]
		}
	}

	if len(unseen) > 0 {
		p.logger.Debug("Prediction used unseen categories",
			log.OperationKey, log.OperationPredict,
			"columns", unseen,
		)
	}

	return &PredictionResult{
		PredictedSalary:  estimate,
		ConfidenceScore:  confidence(st.importances),
		SalaryRange:      SalaryRange{Min: lo, Max: hi},
		FactorsAnalysis:  factors,
		UnseenCategories: unseen,
	}, nil
}

// confidence is the mean feature importance clamped to [MinConfidence, MaxConfidence].
// It is a heuristic and not a calibrated probability.
func confidence(importances []float64) float64 {
	mean := errors.SafeDivide(floats.Sum(importances), float64(len(importances)))
	return errors.ClipValue(mean, MinConfidence, MaxConfidence)
}

// Status reports the current state. It never fails.
func (p *Predictor) Status() Status {
	st := p.state.Load()
	if st == nil {
		return Status{FeatureColumns: []string{}, EncoderAttributes: []string{}}
	}
	m := st.metrics
	return Status{
		IsTrained:         true,
		FeatureColumns:    append([]string(nil), st.featureColumns...),
		EncoderAttributes: st.encoder.EncodedAttributes(),
		Metrics:           &m,
		TrainedAt:         st.trainedAt,
	}
}

// IsTrained reports whether a model has been published.
func (p *Predictor) IsTrained() bool {
	return p.state.Load() != nil
}

// FeatureColumns returns the feature layout of the current model.
func (p *Predictor) FeatureColumns() ([]string, error) {
	st := p.state.Load()
	if st == nil {
		return nil, errors.NewNotTrainedError("feature_columns")
	}
	return append([]string(nil), st.featureColumns...), nil
}

// FeatureImportances returns the forest importances keyed by attribute name
// (the "_encoded" suffix removed).
func (p *Predictor) FeatureImportances() (map[string]float64, error) {
	st := p.state.Load()
	if st == nil {
		return nil, errors.NewNotTrainedError("feature_importances")
	}
	out := make(map[string]float64, len(st.featureColumns))
	for j, col := range st.featureColumns {
		out[strings.TrimSuffix(col, encodedSuffix)] = st.importances[j]
	}
	return out, nil
}
