package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/aronrissato/CarboPratos/internal/batch"
	"github.com/aronrissato/CarboPratos/internal/config"
	"github.com/aronrissato/CarboPratos/internal/detect"
	"github.com/aronrissato/CarboPratos/internal/plate"
	"github.com/aronrissato/CarboPratos/internal/server"
	"github.com/aronrissato/CarboPratos/internal/storage"
)

var (
	dir        = flag.String("dir", "", "Directory of plate images to analyze")
	serve      = flag.Bool("serve", false, "Run the HTTP API instead of a batch run")
	backendURL = flag.String("backend-url", "", "Recognition service URL (empty: rule-based classifier)")
	dbPath     = flag.String("db", "", "SQLite history database path (empty: disabled)")
	workers    = flag.Int("workers", 0, "Batch worker count (0: from environment)")
	outputDir  = flag.String("output", "", "Report output directory (empty: next to images)")
	version    = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("carbopratos version 1.0.0")
		os.Exit(0)
	}

	// Optional .env, then environment.
	_ = godotenv.Load()
	cfg := config.LoadConfig()

	if *backendURL != "" {
		cfg.Backend.BaseURL = *backendURL
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}
	if *workers > 0 {
		cfg.Batch.Workers = *workers
	}
	if *outputDir != "" {
		cfg.Batch.OutputDir = *outputDir
	}

	var logger *zap.Logger
	var err error
	if cfg.Logging.Format == "json" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	if err := cfg.ValidateConfig(logger); err != nil {
		logger.Fatal("Configuration validation failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var detector detect.Detector
	degraded := cfg.Backend.BaseURL == ""
	if degraded {
		detector = detect.NewRuleClassifier(logger)
	} else {
		client := detect.NewClient(cfg.Backend.BaseURL, detect.ClientConfig{
			Timeout:             cfg.Backend.Timeout,
			MaxRetries:          cfg.Backend.MaxRetries,
			RetryDelay:          cfg.Backend.RetryDelay,
			HealthCheckInterval: cfg.Backend.HealthCheckInterval,
		}, logger)
		if *serve {
			go client.StartHealthChecker(ctx)
		}
		detector = client
	}

	normalizer := detect.NewNormalizer(detector, degraded, logger)
	calculator := plate.NewCalculator(normalizer, logger)

	var store *storage.SQLiteStore
	if cfg.Storage.Path != "" {
		store, err = storage.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			logger.Fatal("Failed to open history database", zap.Error(err))
		}
		defer store.Close()
	}

	var resultStore batch.ResultStore
	if store != nil {
		resultStore = store
	}
	processor := batch.NewProcessor(calculator, resultStore, cfg.Batch.Workers, cfg.Batch.OutputDir, logger)

	if *serve {
		srv := server.NewServer(cfg, calculator, processor, store, logger)
		if err := srv.Run(ctx); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
		return
	}

	directory := *dir
	if directory == "" && flag.NArg() > 0 {
		directory = flag.Arg(0)
	}
	if directory == "" {
		fmt.Fprintln(os.Stderr, "Usage: carbopratos -dir <images> | carbopratos -serve")
		os.Exit(2)
	}
	if info, err := os.Stat(directory); err != nil || !info.IsDir() {
		fmt.Fprintf(os.Stderr, "ERROR: Directory not found: %s\n", directory)
		os.Exit(1)
	}

	fmt.Println("CarboPratos - Food Calorie Analyzer")
	fmt.Println("========================================")
	fmt.Printf("\nProcessing images in: %s\n", directory)

	results, summary, err := processor.ProcessDirectory(ctx, directory)
	if err != nil {
		logger.Fatal("Batch processing failed", zap.Error(err))
	}

	fmt.Print(batch.FormatSummary(summary, results))
}
