// Package salaryml predicts employee salaries from HR attributes and
// recommends salary hikes, for backend services that need the model
// in-process rather than behind a Python runtime.
//
// Two implementations are provided:
//
//   - salary: a trainable pipeline. Categorical attributes are label encoded,
//     missing numerics take the training median, features are standardized
//     and a random forest regressor produces the estimate, a ±15% range and
//     a per-attribute importance breakdown.
//   - hike: a deterministic rule-based hike calculator weighting experience,
//     performance, attendance and certifications by department, capped at 25%.
//
// # Quick Start
//
//	p := salary.NewPredictor(salary.DefaultConfig())
//	res, err := p.Train(salary.GenerateSampleData(200, 42))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("R2 on the hold-out set: %.3f\n", res.R2)
//
//	pred, err := p.Predict(salary.Record{
//	    Department:        "Engineering",
//	    Designation:       "Senior",
//	    ExperienceYears:   6,
//	    PerformanceRating: 4.2,
//	    EducationLevel:    "Master",
//	    Certifications:    3,
//	    Location:          "Austin",
//	})
//
// A category never seen during training does not fail the prediction: it is
// encoded as preprocessing.UnseenCategory (-1) and reported through
// pkg/errors.Warn and PredictionResult.UnseenCategories.
//
// # Packages
//
//   - salary: records, feature encoding, Predictor (Train, Predict, Status)
//   - hike: rule-based hike calculator
//   - sklearn/tree, sklearn/ensemble: CART regression tree and random forest
//   - preprocessing: LabelEncoder, MedianImputer, StandardScaler
//   - model_selection: seeded train/test split
//   - metrics: MSE, RMSE, MAE, R²
//   - core/model: estimator interfaces and fitted-state tracking
//   - core/parallel: range splitting across goroutines
//   - pkg/errors, pkg/log: typed errors and structured logging
//   - config, server, cmd/salaryd: the HTTP service
//
// # Concurrency
//
// Predictor.Predict and Predictor.Status are safe to call concurrently with
// each other and with Train. A Train builds the complete fitted state before
// publishing it, so readers see either the old model or the new one, and a
// failed Train leaves the previous model in place.
package salaryml
