package main

import (
	"context"
	"log"

	"github.com/Freeeeeet/tutoring_scheduler/internal/app"
	"github.com/Freeeeeet/tutoring_scheduler/internal/config"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting tutoring scheduler",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.Storage),
		zap.String("http_addr", cfg.HTTPAddr),
	)

	ctx := context.Background()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}

	if err := application.Run(ctx); err != nil {
		logger.Fatal("Application stopped with error", zap.Error(err))
	}
}
