package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hat3ck/cryptosense/pkg/logger"
	"github.com/hat3ck/cryptosense/pkg/models"
)

const cohereAPIURL = "https://api.cohere.com/v2/chat"

// CohereProvider implements text generation via Cohere's chat API
type CohereProvider struct {
	apiKey string
	apiURL string
	model  string
	client *http.Client
}

// NewCohereProvider creates new Cohere provider
func NewCohereProvider(apiKey, apiURL, model string, timeout time.Duration) *CohereProvider {
	if apiURL == "" {
		apiURL = cohereAPIURL
	}
	return &CohereProvider{
		apiKey: apiKey,
		apiURL: apiURL,
		model:  model,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *CohereProvider) Name() string {
	return "cohere"
}

func (c *CohereProvider) GenerateText(ctx context.Context, prompt string) (*models.Generation, error) {
	reqBody := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.2,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	startTime := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	latency := time.Since(startTime)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Message struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"message"`
		Usage struct {
			BilledUnits struct {
				InputTokens  float64 `json:"input_tokens"`
				OutputTokens float64 `json:"output_tokens"`
			} `json:"billed_units"`
		} `json:"usage"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var sb strings.Builder
	for _, part := range result.Message.Content {
		if part.Type == "text" {
			sb.WriteString(part.Text)
		}
	}

	if sb.Len() == 0 {
		return nil, fmt.Errorf("no text content in response")
	}

	logger.Debug("cohere response received",
		zap.Duration("latency", latency),
		zap.Int("chars", sb.Len()),
	)

	return &models.Generation{
		Text:         sb.String(),
		InputTokens:  int64(result.Usage.BilledUnits.InputTokens),
		OutputTokens: int64(result.Usage.BilledUnits.OutputTokens),
	}, nil
}
