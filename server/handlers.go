package server

import (
	"math"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/YuminosukeSato/salaryml/config"
	"github.com/YuminosukeSato/salaryml/hike"
	"github.com/YuminosukeSato/salaryml/pkg/errors"
	"github.com/YuminosukeSato/salaryml/pkg/log"
	"github.com/YuminosukeSato/salaryml/salary"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "HRMS ML Service is running",
		"version":       Version,
		"model_trained": s.predictor.IsTrained(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "ml-service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req TrainRequest
	if !s.decode(w, r, &req) {
		return
	}

	records := make([]salary.Record, len(req.Employees))
	for i, e := range req.Employees {
		records[i] = e.Record()
	}

	res, err := s.train(r, records)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TrainResponse{Status: "success", Metrics: res})
}

func (s *Server) train(r *http.Request, records []salary.Record) (*salary.TrainingResult, error) {
	start := time.Now()
	res, err := s.predictor.TrainContext(r.Context(), records)
	var r2 float64
	if res != nil {
		r2 = res.R2
	}
	s.metrics.recordTraining(time.Since(start).Seconds(), r2, err)
	return res, err
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.predictor.Predict(req.EmployeeData.Record())
	if err != nil {
		s.metrics.recordPrediction(nil, err)
		s.fail(w, r, err)
		return
	}
	s.metrics.recordPrediction(res.UnseenCategories, nil)

	s.requestLogger(r).Info("Prediction served",
		log.OperationKey, log.OperationPredict,
		log.PredictionKey, res.PredictedSalary,
		log.ConfidenceKey, res.ConfidenceScore,
	)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse(s.predictor.Status()))
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	insights := baselineInsights()
	if imp, err := s.predictor.FeatureImportances(); err == nil {
		insights.ModelFactors = make(map[string]float64, len(imp))
		for col, v := range imp {
			insights.ModelFactors[col] = math.Round(v*1000) / 10
		}
	}
	writeJSON(w, http.StatusOK, insights)
}

func (s *Server) handleGenerateSample(w http.ResponseWriter, r *http.Request) {
	records := salary.GenerateSampleData(s.sampleSize, s.sampleSeed)

	res, err := s.train(r, records)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	n := min(5, len(records))
	sample := make([]EmployeeJSON, n)
	for i := range sample {
		sample[i] = employeeJSON(records[i])
	}
	writeJSON(w, http.StatusOK, SampleResponse{
		Message:        "Sample data generated and model trained",
		DataPoints:     len(records),
		TrainingResult: TrainResponse{Status: "success", Metrics: res},
		SampleRecords:  sample,
	})
}

func (s *Server) handleHike(w http.ResponseWriter, r *http.Request) {
	var in hike.Input
	if !s.decode(w, r, &in) {
		return
	}
	res := hike.Calculate(in)

	s.requestLogger(r).Info("Hike calculated",
		"department", in.Department,
		"hike_percentage", res.HikePercentage,
		"eligible", res.Eligible,
	)
	writeJSON(w, http.StatusOK, res)
}

// decode reads and validates a JSON body. On failure it writes a 400 (or
// 413) response and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errors.New("request body too large"))
			return false
		}
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "invalid JSON body"))
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Tag() == config.WholeNumberTag {
			return errors.Newf("%s must be a whole number", fe.Field())
		}
		if fe.Param() != "" {
			return errors.Newf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return errors.Newf("%s is %s", fe.Field(), fe.Tag())
	}
	return errors.Wrap(err, "invalid request")
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		notTrained *errors.NotTrainedError
		data       *errors.DataError
		encoding   *errors.EncodingError
		validation *errors.ValidationError
	)
	switch {
	case errors.As(err, &notTrained),
		errors.As(err, &data),
		errors.As(err, &encoding),
		errors.As(err, &validation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	l := s.requestLogger(r)
	if status >= http.StatusInternalServerError {
		l.Error("Request failed", err, "route", r.URL.Path, "status", status)
	} else {
		l.Warn("Request rejected", err, "route", r.URL.Path, "status", status)
	}
	writeError(w, status, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
