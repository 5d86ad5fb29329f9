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
	openaiAPIURL       = "https://api.openai.com/v1/chat/completions"
	openaiDefaultModel = "gpt-4o"
	openaiKeyEnv       = "OPENAI_API_KEY"
)

// OpenAIProvider implements Provider using the OpenAI Chat Completions API.
type OpenAIProvider struct {
	apiKey string
	apiURL string
	client *http.Client
}

// NewOpenAI creates an OpenAI provider using the OPENAI_API_KEY env var.
func NewOpenAI(client *http.Client) (*OpenAIProvider, error) {
	key := os.Getenv(openaiKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("narrative: %s environment variable not set", openaiKeyEnv)
	}
	if client == nil {
		client = &http.Client{}
	}
	return &OpenAIProvider{apiKey: key, apiURL: openaiAPIURL, client: client}, nil
}

func (o *OpenAIProvider) Name() string { return "openai" }

func (o *OpenAIProvider) Generate(ctx context.Context, prompt string, s Settings) (string, error) {
	model := s.Model
	if model == "" {
		model = openaiDefaultModel
	}
	maxTokens := s.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+o.apiKey)
	data, err := postJSON(ctx, o.client, o.apiURL, openaiRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: s.Temperature,
		Seed:        s.Seed,
		Messages: []openaiMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &openaiResponseFormat{Type: "json_object"},
	}, header)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}

	var result openaiResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("openai: parse response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	if result.Choices[0].FinishReason == "length" {
		return "", errors.New("openai: response truncated at max_tokens")
	}
	return result.Choices[0].Message.Content, nil
}

type openaiRequest struct {
	Model          string                `json:"model"`
	MaxTokens      int                   `json:"max_tokens"`
	Temperature    float64               `json:"temperature"`
	Seed           *int                  `json:"seed,omitempty"`
	Messages       []openaiMessage       `json:"messages"`
	ResponseFormat *openaiResponseFormat `json:"response_format,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponseFormat struct {
	Type string `json:"type"`
}

type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
}

type openaiChoice struct {
	Message      openaiMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}
