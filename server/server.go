// Package server exposes the salary predictor and the hike calculator over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/YuminosukeSato/salaryml/config"
	"github.com/YuminosukeSato/salaryml/pkg/log"
	"github.com/YuminosukeSato/salaryml/salary"
)

// Version is reported by GET /.
const Version = "1.0.0"

// Server wires the HTTP routes to one predictor.
type Server struct {
	predictor *salary.Predictor
	cfg       config.ServerConfig
	logger    log.Logger
	metrics   *Metrics
	validate  *validator.Validate

	sampleSize int
	sampleSeed uint64

	router chi.Router
	http   *http.Server
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics sets the metrics instruments.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithSampleData sets the size and seed used by POST /generate-sample-data.
func WithSampleData(n int, seed uint64) Option {
	return func(s *Server) {
		s.sampleSize = n
		s.sampleSeed = seed
	}
}

// New builds the server and its routes. The predictor is owned by the caller.
func New(p *salary.Predictor, cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		predictor:  p,
		cfg:        cfg,
		logger:     log.GetLoggerWithName("server"),
		validate:   config.Validator(),
		sampleSize: 200,
		sampleSeed: 42,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if p.IsTrained() {
		if st := p.Status(); st.Metrics != nil {
			s.metrics.ModelTrained.Set(1)
			s.metrics.ModelR2.Set(st.Metrics.R2)
		}
	}

	s.router = s.routes()
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         86400,
	}))
	r.Use(s.instrument)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			r.Use(httprate.Limit(
				s.cfg.RateLimit,
				s.cfg.RateLimitWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					writeError(w, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
				}),
			))
		}
		r.Post("/train", s.handleTrain)
		r.Post("/predict", s.handlePredict)
		r.Get("/model/status", s.handleStatus)
		r.Get("/analytics/salary-insights", s.handleInsights)
		r.Post("/generate-sample-data", s.handleGenerateSample)
		r.Post("/hike", s.handleHike)
	})

	return r
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server failed")
	}
	return nil
}

// Stop shuts the server down, waiting up to timeout for in-flight requests.
func (s *Server) Stop(timeout time.Duration) error {
	s.logger.Info("stopping HTTP server", "timeout", timeout.String())

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server shutdown failed")
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
