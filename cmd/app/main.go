package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/maheshmm7/DriveGaurdAI/internal/config"
	"github.com/maheshmm7/DriveGaurdAI/internal/pipeline"
	"github.com/maheshmm7/DriveGaurdAI/pkg/log"
)

func main() {
	envErr := godotenv.Load()
	logger := log.NewLogger()
	if envErr != nil {
		logger.Warnf("No .env file loaded: %v", envErr)
	}

	pipelineConfig, err := config.LoadPipelineConfig()
	if err != nil {
		logger.Fatalf("Invalid pipeline configuration: %v", err)
	}

	detector, err := pipeline.New(pipelineConfig, logger)
	if err != nil {
		logger.Fatalf("Failed to load drowsiness pipeline: %v", err)
	}

	fiberApp := config.NewFiber(logger)
	validator := config.NewValidator()

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithValidator(validator),
		config.WithEvaluator(detector.Evaluator),
		config.WithDatabase(),
		config.WithRedisServer(),
		config.WithS3Client(),
		config.WithMiddleware(),
		config.WithUtils(),
	)
	if err != nil {
		detector.Close()
		logger.Fatal(err)
	}

	server.RegisterHandler()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Run(); err != nil {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	logger.Info("Server started successfully")

	<-sigChan
	logger.Info("Shutting down server...")

	if err := server.Shutdown(10 * time.Second); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
	if err := detector.Close(); err != nil {
		logger.Errorf("Error releasing pipeline: %v", err)
	}

	logger.Info("Server stopped")
}
