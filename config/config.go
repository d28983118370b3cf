// Package config loads salaryd settings from defaults, an optional YAML file
// and SALARYML_* environment variables, in that order of precedence.
package config

import (
	"math"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/YuminosukeSato/salaryml/salary"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "SALARYML_"

// PathEnvVar overrides the config file location.
const PathEnvVar = EnvPrefix + "CONFIG"

// DefaultPaths are searched in order when PathEnvVar is not set.
var DefaultPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/salaryml/config.yaml",
}

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Model     ModelConfig     `koanf:"model"`
	Bootstrap BootstrapConfig `koanf:"bootstrap"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	// RateLimit is the number of requests per RateLimitWindow per client IP.
	// 0 disables rate limiting.
	RateLimit       int           `koanf:"rate_limit" validate:"gte=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes" validate:"gt=0"`
}

// LogConfig selects the logging backend.
type LogConfig struct {
	Level   string `koanf:"level" validate:"oneof=debug info warn warning error"`
	Format  string `koanf:"format" validate:"oneof=json console"`
	Backend string `koanf:"backend" validate:"oneof=zerolog slog"`
}

// ModelConfig holds the forest hyperparameters.
type ModelConfig struct {
	NEstimators int     `koanf:"n_estimators" validate:"gte=1,lte=5000"`
	MaxDepth    int     `koanf:"max_depth" validate:"gte=0"`
	Seed        uint64  `koanf:"seed"`
	TestSize    float64 `koanf:"test_size" validate:"gt=0,lt=1"`
	NJobs       int     `koanf:"n_jobs" validate:"gte=0"`
}

// BootstrapConfig trains on generated sample data at startup when Enabled.
type BootstrapConfig struct {
	Enabled    bool   `koanf:"enabled"`
	SampleSize int    `koanf:"sample_size" validate:"gte=2"`
	Seed       uint64 `koanf:"seed"`
}

// Default returns the built-in configuration.
func Default() *Config {
	model := salary.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    2 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimit:       100,
			RateLimitWindow: time.Minute,
			MaxBodyBytes:    10 << 20,
		},
		Log: LogConfig{
			Level:   "info",
			Format:  "json",
			Backend: "zerolog",
		},
		Model: ModelConfig{
			NEstimators: model.NEstimators,
			MaxDepth:    model.MaxDepth,
			Seed:        model.Seed,
			TestSize:    model.TestSize,
		},
		Bootstrap: BootstrapConfig{
			SampleSize: 200,
			Seed:       42,
		},
	}
}

// PredictorConfig converts the model section into predictor settings.
func (m ModelConfig) PredictorConfig() salary.Config {
	return salary.Config{
		NEstimators: m.NEstimators,
		MaxDepth:    m.MaxDepth,
		Seed:        m.Seed,
		TestSize:    m.TestSize,
		NJobs:       m.NJobs,
	}
}

// Load reads the configuration from the first file found (see PathEnvVar
// and DefaultPaths) and the environment.
func Load() (*Config, error) {
	return LoadFile(findFile())
}

// LoadFile is Load with an explicit file path. An empty path skips the file layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, errors.Wrap(err, "load defaults")
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "load config file %s", path)
		}
	}

	// SALARYML_SERVER_READ_TIMEOUT -> server.read_timeout
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, "load environment")
	}

	if err := splitList(k, "server.cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + rest
}

// splitList turns a comma-separated string (from the environment) into a list.
func splitList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	parts := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return errors.Wrapf(k.Set(path, parts), "set %s", path)
}

func findFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// WholeNumberTag rejects floating-point fields with a fractional part,
// such as a certification count of 2.5.
const WholeNumberTag = "whole"

// Validator returns the shared validator instance. Besides the built-in
// tags it understands WholeNumberTag.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		if err := validate.RegisterValidation(WholeNumberTag, wholeNumber); err != nil {
			panic(err)
		}
	})
	return validate
}

func wholeNumber(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Float32, reflect.Float64:
		v := f.Float()
		return !math.IsInf(v, 0) && v == math.Trunc(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := Validator().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errors.Newf("invalid configuration: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return errors.Wrap(err, "invalid configuration")
	}
	return nil
}
