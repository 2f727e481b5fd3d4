package openai

import (
	"context"
	"fmt"

	"github.com/rescam/phish-triage/internal/core"
	"github.com/rescam/phish-triage/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClassifier is an implementation of the ClassifierClient interface
// using OpenAI
type OpenAIClassifier struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewOpenAIClassifier creates a new OpenAI classifier
func NewOpenAIClassifier(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *OpenAIClassifier {
	client := openai.NewClient(apiKey)

	return &OpenAIClassifier{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Classify sends the email and retrieved context to OpenAI and returns the
// raw model output.
func (c *OpenAIClassifier) Classify(ctx context.Context, emailContent, ragContext string) (string, error) {
	processed := c.textProcessor.ProcessText(emailContent, c.maxBodySize)
	prompt := core.BuildPrompt(processed, ragContext)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an email risk classifier. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	responseText := resp.Choices[0].Message.Content

	c.logger.Debug("OpenAI classification response",
		zap.String("model", c.modelName),
		zap.String("processing_id", resp.ID),
		zap.Int("response_size", len(responseText)))

	return responseText, nil
}
