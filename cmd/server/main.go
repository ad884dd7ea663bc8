package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/CSC-UW/hypnogram/pkg/http"
	"github.com/CSC-UW/hypnogram/pkg/store"
	"github.com/CSC-UW/hypnogram/pkg/temporal"
)

func main() {
	var (
		httpAddr     = flag.String("http-addr", ":8080", "HTTP server address")
		temporalAddr = flag.String("temporal-addr", "localhost:7233", "Temporal server address")
		namespace    = flag.String("namespace", "default", "Temporal namespace")
		dbPath       = flag.String("db", "hypnogram.db", "SQLite database path")
		logLevel     = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		logFile      = flag.String("log-file", "", "Log file path (rotated; empty logs to stdout)")
	)
	flag.Parse()

	// Setup logger
	var logOutput io.Writer = os.Stdout
	if *logFile != "" {
		logOutput = &lumberjack.Logger{
			Filename:   *logFile,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	}

	var logHandler slog.Handler
	switch *logLevel {
	case "debug":
		logHandler = slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: slog.LevelDebug})
	case "warn":
		logHandler = slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: slog.LevelWarn})
	case "error":
		logHandler = slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: slog.LevelError})
	default:
		logHandler = slog.NewTextHandler(logOutput, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	logger.Info("Starting hypnogram service",
		"http_addr", *httpAddr,
		"temporal_addr", *temporalAddr,
		"namespace", *namespace,
		"db", *dbPath,
		"task_queue", temporal.TaskQueue,
	)

	// Create Temporal client
	temporalClient, err := client.Dial(client.Options{
		HostPort:  *temporalAddr,
		Namespace: *namespace,
	})
	if err != nil {
		logger.Error("Failed to create Temporal client", "error", err)
		os.Exit(1)
	}
	defer temporalClient.Close()

	// Open bout storage
	recordingStore, err := store.Open(*dbPath, logger)
	if err != nil {
		logger.Error("Failed to open store", "error", err, "db", *dbPath)
		os.Exit(1)
	}
	defer recordingStore.Close()

	recordings, err := recordingStore.Recordings(context.Background())
	if err != nil {
		logger.Error("Failed to list recordings", "error", err)
		os.Exit(1)
	}
	logger.Info("Recordings on file", "count", len(recordings))

	// Create activities
	activities := temporal.NewActivitiesImpl(logger, recordingStore)

	// Create and start Temporal worker
	w := worker.New(temporalClient, temporal.TaskQueue, worker.Options{})

	// Register workflows
	w.RegisterWorkflow(temporal.ImportWorkflow)
	w.RegisterWorkflow(temporal.AnalysisWorkflow)
	w.RegisterWorkflow(temporal.BatchAnalysisWorkflow)

	// Register activities under the names the workflows invoke them by.
	w.RegisterActivityWithOptions(activities.AppendBoutsActivity, activity.RegisterOptions{Name: temporal.AppendBoutsActivityName})
	w.RegisterActivityWithOptions(activities.LoadHypnogramActivity, activity.RegisterOptions{Name: temporal.LoadHypnogramActivityName})
	w.RegisterActivityWithOptions(activities.RunAnalysisActivity, activity.RegisterOptions{Name: temporal.RunAnalysisActivityName})
	w.RegisterActivityWithOptions(activities.SaveResultActivity, activity.RegisterOptions{Name: temporal.SaveResultActivityName})

	// Start worker in background
	go func() {
		logger.Info("Starting Temporal worker", "task_queue", temporal.TaskQueue)
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Error("Temporal worker failed", "error", err)
			os.Exit(1)
		}
	}()

	// Create and start HTTP server
	server := http.NewServer(logger, temporalClient, *httpAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start server in background
	go func() {
		if err := server.Start(ctx); err != nil {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.Info("Received shutdown signal, stopping services...")

	// Cancel context to stop HTTP server
	cancel()

	logger.Info("Hypnogram service stopped")
}
