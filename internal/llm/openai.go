package llm

import (
	"context"
	"errors"
	"net/http"
	"os"
)

const (
	openaiAPIURL       = "https://api.openai.com/v1/chat/completions"
	openaiDefaultModel = "gpt-4o"
	openaiKeyVar       = "OPENAI_API_KEY"
)

// OpenAIProvider implements Provider using the OpenAI Chat Completions API.
type OpenAIProvider struct {
	apiKey string
	apiURL string
	client *http.Client
}

// NewOpenAI creates an OpenAI provider using the OPENAI_API_KEY env var.
func NewOpenAI() (*OpenAIProvider, error) {
	key := os.Getenv(openaiKeyVar)
	if key == "" {
		return nil, &CredentialError{Provider: "openai", EnvVars: []string{openaiKeyVar}}
	}
	return &OpenAIProvider{apiKey: key, apiURL: openaiAPIURL, client: &http.Client{}}, nil
}

func (o *OpenAIProvider) Name() string { return "openai" }

// SetEndpoint overrides the chat completions URL.
func (o *OpenAIProvider) SetEndpoint(url string) { o.apiURL = url }

func (o *OpenAIProvider) Generate(ctx context.Context, prompt string, s Settings) (string, error) {
	model := s.Model
	if model == "" {
		model = openaiDefaultModel
	}
	maxTokens := s.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	reqBody := openaiRequest{
		Model:          model,
		MaxTokens:      maxTokens,
		Temperature:    s.Temperature,
		Seed:           s.Seed,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		ResponseFormat: &openaiResponseFormat{Type: "json_object"},
	}
	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}

	var result openaiResponse
	if err := postJSON(ctx, o.client, "openai", o.apiURL, headers, reqBody, &result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}
	choice := result.Choices[0]
	if choice.FinishReason == "length" {
		return "", errors.New("openai: response truncated (finish_reason=length)")
	}
	return choice.Message.Content, nil
}

type openaiRequest struct {
	Model          string                `json:"model"`
	MaxTokens      int                   `json:"max_tokens"`
	Temperature    float64               `json:"temperature"`
	Seed           *int                  `json:"seed,omitempty"`
	Messages       []chatMessage         `json:"messages"`
	ResponseFormat *openaiResponseFormat `json:"response_format,omitempty"`
}

type openaiResponseFormat struct {
	Type string `json:"type"`
}

type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
}

type openaiChoice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}
