package narrative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
)

const (
	anthropicAPIURL       = "https://api.anthropic.com/v1/messages"
	anthropicDefaultModel = "claude-sonnet-4-6"
	anthropicAPIVersion   = "2023-06-01"
	anthropicKeyEnv       = "ANTHROPIC_API_KEY"
)

// AnthropicProvider implements Provider using the Anthropic Messages API.
type AnthropicProvider struct {
	apiKey string
	apiURL string
	client *http.Client
}

// NewAnthropic creates an Anthropic provider using the ANTHROPIC_API_KEY env var.
func NewAnthropic(client *http.Client) (*AnthropicProvider, error) {
	key := os.Getenv(anthropicKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("narrative: %s environment variable not set", anthropicKeyEnv)
	}
	if client == nil {
		client = &http.Client{}
	}
	return &AnthropicProvider{apiKey: key, apiURL: anthropicAPIURL, client: client}, nil
}

func (a *AnthropicProvider) Name() string { return "anthropic" }

func (a *AnthropicProvider) Generate(ctx context.Context, prompt string, s Settings) (string, error) {
	model := s.Model
	if model == "" {
		model = anthropicDefaultModel
	}
	maxTokens := s.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	header := http.Header{}
	header.Set("X-API-Key", a.apiKey)
	header.Set("Anthropic-Version", anthropicAPIVersion)
	data, err := postJSON(ctx, a.client, a.apiURL, anthropicRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: &s.Temperature,
		System:      systemPrompt,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
	}, header)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var result anthropicResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("anthropic: parse response: %w", err)
	}
	if result.StopReason == "max_tokens" {
		return "", errors.New("anthropic: response truncated at max_tokens")
	}
	for _, block := range result.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", errors.New("anthropic: no text content in response")
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature,omitempty"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
