package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/hat3ck/cryptosense/pkg/logger"
	"github.com/hat3ck/cryptosense/pkg/models"
)

// OpenAIProvider implements text generation via the OpenAI chat API
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates new OpenAI provider
func NewOpenAIProvider(apiKey, apiURL, model string, timeout time.Duration) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if apiURL != "" {
		cfg.BaseURL = apiURL
	}
	cfg.HTTPClient = &http.Client{
		Timeout: timeout,
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (o *OpenAIProvider) Name() string {
	return "openai"
}

func (o *OpenAIProvider) GenerateText(ctx context.Context, prompt string) (*models.Generation, error) {
	startTime := time.Now()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	logger.Debug("openai response received",
		zap.Duration("latency", time.Since(startTime)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return &models.Generation{
		Text:         resp.Choices[0].Message.Content,
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
	}, nil
}
