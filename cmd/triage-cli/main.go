package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rescam/phish-triage/internal/config"
	"github.com/rescam/phish-triage/internal/core"
	"github.com/rescam/phish-triage/internal/di"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run classifies a single email read from a file or stdin and prints the
// parsed result as JSON.
func run(
	flags *di.CLIFlags,
	cfg *config.Config,
	logger *zap.Logger,
	classifier core.ClassifierClient,
) error {
	defer logger.Sync()

	// Read email from file or stdin
	var emailReader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", flags.InputFile))
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", flags.InputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	contentBytes, err := io.ReadAll(emailReader)
	if err != nil {
		logger.Fatal("Failed to read email content", zap.Error(err))
	}
	content := string(contentBytes)

	logger.Info("Classifying email",
		zap.String("provider", cfg.GetString("llm.provider")),
		zap.Int("content_length", len(content)))

	startTime := time.Now()
	raw, err := classifier.Classify(context.Background(), content, cfg.GetString("rag.context"))
	if err != nil {
		logger.Fatal("Failed to classify email", zap.Error(err))
	}
	duration := time.Since(startTime)

	result := core.ParseClassificationResult(raw)

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatal("Failed to encode result", zap.Error(err))
	}
	fmt.Println(string(output))
	logger.Info("Classification complete",
		zap.String("classification", result.Classification),
		zap.Float64("confidence", result.Confidence),
		zap.Duration("duration", duration))

	// Close any resources that need closing
	if closer, ok := classifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close classifier client", zap.Error(err))
		}
	}

	return nil
}
