package factory

import (
	"fmt"

	"github.com/rescam/phish-triage/internal/adapters/bedrock"
	"github.com/rescam/phish-triage/internal/adapters/gemini"
	"github.com/rescam/phish-triage/internal/adapters/openai"
	"github.com/rescam/phish-triage/internal/config"
	"github.com/rescam/phish-triage/internal/core"
	"github.com/rescam/phish-triage/internal/utils"
	"go.uber.org/zap"
)

// ClassifierFactory creates classifier clients
type ClassifierFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewClassifierFactory creates a new classifier factory
func NewClassifierFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *ClassifierFactory {
	return &ClassifierFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates a new classifier client based on the configuration
func (f *ClassifierFactory) CreateClassifier() (core.ClassifierClient, error) {
	llmConfig := f.cfg.GetLLM()

	switch llmConfig.Provider {
	case "gemini":
		factory := gemini.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClassifier()
	case "openai":
		factory := openai.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClassifier()
	case "bedrock":
		factory := bedrock.NewFactory(f.cfg, f.logger, f.textProcessor)
		return factory.CreateClassifier()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
}
