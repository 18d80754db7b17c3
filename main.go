package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"basic-cleaning/artifacts"
	"basic-cleaning/config"
	"basic-cleaning/errs"
	"basic-cleaning/metrics"
	"basic-cleaning/services"
	"basic-cleaning/tracking"
	"basic-cleaning/utils"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one invocation and returns the process exit code. A usage error
// returns before any configuration, tracking or artifact I/O happens.
func run(argv []string, stdout, stderr io.Writer) int {
	args, err := config.ParseArgs(argv, stderr)
	if err != nil {
		utils.NewLoggerTo(stdout, stderr, utils.LevelInfo).Error("event=%s %v", errs.Tag(err), err)
		return errs.ExitCode(err)
	}

	cfg := config.Load()
	logger := utils.NewLoggerTo(stdout, stderr, utils.ParseLevel(cfg.LogLevel))

	logger.Info("=== Basic cleaning starting ===")
	logger.Info("Input: %s | Output: %s (%s) | Price range: [%v, %v]",
		args.InputArtifact, args.OutputArtifact, args.OutputType, args.MinPrice, args.MaxPrice)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sink, err := openSink(ctx, cfg, logger)
	if err != nil {
		logger.Error("event=tracking_unavailable %v", err)
		return 1
	}
	defer sink.Close()

	trackingRun, err := tracking.Start(ctx, sink, cfg.JobType, args.Values())
	if err != nil {
		logger.Error("event=tracking_unavailable %v", err)
		return 1
	}
	logger.Info("Run %s (%s) started", trackingRun.ID(), trackingRun.JobType())

	stages := metrics.NewStages()
	gateway := artifacts.NewGateway(artifacts.NewFileStore(cfg.ArtifactRoot), cfg.ArtifactCacheDir, logger, stages)
	step := services.NewStep(gateway, services.NewCleaner(logger, stages), logger, cfg.OutputFile)

	result, stepErr := step.Run(ctx, trackingRun, args)

	// The run is closed even when ctx was cancelled.
	finishCtx, cancelFinish := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelFinish()
	if err := trackingRun.Finish(finishCtx, stepErr); err != nil {
		logger.Error("event=tracking_unavailable %v", err)
		if stepErr == nil {
			return 1
		}
	}

	if cfg.MetricsTextfile != "" {
		if err := stages.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warn("[metrics] %v", err)
		}
	}

	if stepErr != nil {
		logger.Error("event=%s %v", errs.Tag(stepErr), stepErr)
		return errs.ExitCode(stepErr)
	}

	services.PrintSummary(stdout, result.Summary)
	logger.Info("Done. %s published from run %s", result.VersionID, trackingRun.ID())
	return 0
}

func openSink(ctx context.Context, cfg *config.Config, logger *utils.Logger) (tracking.Sink, error) {
	if cfg.TrackingDSN == "" {
		logger.Debug("[tracking] Writing run log to %s", cfg.TrackingLog)
		return tracking.NewFileSink(cfg.TrackingLog)
	}
	logger.Debug("[tracking] Using PostgreSQL run store")
	return tracking.OpenPostgres(ctx, cfg.TrackingDSN, &utils.RetryConfig{
		MaxAttempts: cfg.TrackingConnectRetries,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	})
}
