package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments of the service.
//
// Exposed:
//   - salaryml_http_requests_total{method,route,status}
//   - salaryml_http_request_duration_seconds{method,route}
//   - salaryml_train_duration_seconds
//   - salaryml_trainings_total{result}
//   - salaryml_predictions_total{result}
//   - salaryml_unseen_categories_total{column}
//   - salaryml_model_trained
//   - salaryml_model_r2
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	TrainDuration    prometheus.Histogram
	TrainingsTotal   *prometheus.CounterVec
	PredictionsTotal *prometheus.CounterVec
	UnseenTotal      *prometheus.CounterVec
	ModelTrained     prometheus.Gauge
	ModelR2          prometheus.Gauge
}

// NewMetrics registers all instruments on a fresh registry, together with
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "salaryml_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "salaryml_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		TrainDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "salaryml_train_duration_seconds",
			Help:    "Time spent training the salary model",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
		TrainingsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "salaryml_trainings_total",
			Help: "Training runs by result",
		}, []string{"result"}),
		PredictionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "salaryml_predictions_total",
			Help: "Predictions by result",
		}, []string{"result"}),
		UnseenTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "salaryml_unseen_categories_total",
			Help: "Categorical values at inference that were not seen during training",
		}, []string{"column"}),
		ModelTrained: f.NewGauge(prometheus.GaugeOpts{
			Name: "salaryml_model_trained",
			Help: "1 when a trained model is being served",
		}),
		ModelR2: f.NewGauge(prometheus.GaugeOpts{
			Name: "salaryml_model_r2",
			Help: "Hold-out R2 of the served model",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) recordTraining(seconds float64, r2 float64, err error) {
	m.TrainDuration.Observe(seconds)
	if err != nil {
		m.TrainingsTotal.WithLabelValues("failure").Inc()
		return
	}
	m.TrainingsTotal.WithLabelValues("success").Inc()
	m.ModelTrained.Set(1)
	m.ModelR2.Set(r2)
}

func (m *Metrics) recordPrediction(unseen []string, err error) {
	if err != nil {
		m.PredictionsTotal.WithLabelValues("failure").Inc()
		return
	}
	m.PredictionsTotal.WithLabelValues("success").Inc()
	for _, col := range unseen {
		m.UnseenTotal.WithLabelValues(col).Inc()
	}
}
