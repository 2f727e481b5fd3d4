package di

import (
	"fmt"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/rescam/phish-triage/internal/adapters/httpserver"
	"github.com/rescam/phish-triage/internal/adapters/retrieval"
	"github.com/rescam/phish-triage/internal/config"
	"github.com/rescam/phish-triage/internal/core"
	"github.com/rescam/phish-triage/internal/factory"
	"github.com/rescam/phish-triage/internal/logging"
	"github.com/rescam/phish-triage/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewClassifierFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register classifier client
	if err := container.Provide(func(f *factory.ClassifierFactory) (core.ClassifierClient, error) {
		return f.CreateClassifier()
	}); err != nil {
		return nil, err
	}

	// Register document and blob stores
	if err := container.Provide(func(f *factory.StoreFactory) (core.DocumentStore, error) {
		return f.CreateDocumentStore()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.StoreFactory) (core.BlobStore, error) {
		return f.CreateBlobStore()
	}); err != nil {
		return nil, err
	}

	// Register retrieval context provider
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.ContextProvider {
		ragContext := cfg.GetString("rag.context")
		if ragContext != "" {
			logger.Info("Loaded retrieval context", zap.Int("length", len(ragContext)))
		}
		return retrieval.NewStaticProvider(ragContext)
	}); err != nil {
		return nil, err
	}

	// Register pipeline options
	if err := container.Provide(func(cfg *config.Config) (core.PipelineOptions, error) {
		timeout, err := cfg.GetDuration("pipeline.classify_timeout")
		if err != nil {
			return core.PipelineOptions{}, fmt.Errorf("invalid classify timeout: %w", err)
		}
		pipeline := cfg.GetPipeline()
		return core.PipelineOptions{
			Collection:      pipeline.Collection,
			StagingPrefix:   pipeline.StagingPrefix,
			ResultsPrefix:   pipeline.ResultsPrefix,
			ClassifyTimeout: timeout,
		}, nil
	}); err != nil {
		return nil, err
	}

	// Register triage service
	if err := container.Provide(core.NewTriageService); err != nil {
		return nil, err
	}

	// Register HTTP server
	if err := container.Provide(func(svc *core.TriageService, cfg *config.Config, logger *zap.Logger) *httpserver.Server {
		return httpserver.NewServer(svc, logger, cfg.GetString("server.listen_address"))
	}); err != nil {
		return nil, err
	}

	return container, nil
}
