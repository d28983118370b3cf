// Command salaryd serves salary predictions and hike recommendations over HTTP.
//
// Configuration is read from config.yaml (or the file named by SALARYML_CONFIG)
// and SALARYML_* environment variables, e.g.
//
//	SALARYML_SERVER_ADDR=:8080 SALARYML_BOOTSTRAP_ENABLED=true salaryd
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YuminosukeSato/salaryml/config"
	"github.com/YuminosukeSato/salaryml/pkg/log"
	"github.com/YuminosukeSato/salaryml/salary"
	"github.com/YuminosukeSato/salaryml/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "salaryd: %+v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := log.SetupLogger(cfg.Log.Backend, cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	log.InstallWarningHook()
	logger := log.GetLoggerWithName("salaryd")

	predictor := salary.NewPredictor(cfg.Model.PredictorConfig())

	if cfg.Bootstrap.Enabled {
		start := time.Now()
		res, err := predictor.TrainContext(context.Background(),
			salary.GenerateSampleData(cfg.Bootstrap.SampleSize, cfg.Bootstrap.Seed))
		if err != nil {
			return err
		}
		logger.Info("Bootstrap model trained",
			log.SamplesKey, cfg.Bootstrap.SampleSize,
			log.R2ScoreKey, res.R2,
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
	}

	srv := server.New(predictor, cfg.Server,
		server.WithSampleData(cfg.Bootstrap.SampleSize, cfg.Bootstrap.Seed),
	)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return err
		}
		return nil
	}

	return srv.Stop(cfg.Server.ShutdownTimeout)
}
