package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
)

const (
	geminiAPIBase      = "https://generativelanguage.googleapis.com/v1beta/models"
	geminiDefaultModel = "gemini-pro"
)

var geminiKeyVars = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}

// GeminiProvider implements Provider using the Gemini generateContent API.
type GeminiProvider struct {
	apiKey  string
	apiBase string
	client  *http.Client
}

// NewGemini creates a Gemini provider using GEMINI_API_KEY, falling back to
// GOOGLE_API_KEY.
func NewGemini() (*GeminiProvider, error) {
	key := firstEnv(geminiKeyVars...)
	if key == "" {
		return nil, &CredentialError{Provider: "gemini", EnvVars: geminiKeyVars}
	}
	return &GeminiProvider{apiKey: key, apiBase: geminiAPIBase, client: &http.Client{}}, nil
}

func (g *GeminiProvider) Name() string { return "gemini" }

// SetEndpoint overrides the models base URL; the model and
// ":generateContent" are appended to it.
func (g *GeminiProvider) SetEndpoint(url string) { g.apiBase = url }

func (g *GeminiProvider) Generate(ctx context.Context, prompt string, s Settings) (string, error) {
	model := s.Model
	if model == "" {
		model = geminiDefaultModel
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: &geminiGenerationConfig{
			Temperature: &s.Temperature,
			Seed:        s.Seed,
		},
	}
	if s.MaxTokens > 0 {
		reqBody.GenerationConfig.MaxOutputTokens = s.MaxTokens
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s",
		strings.TrimSuffix(g.apiBase, "/"), url.PathEscape(model), url.QueryEscape(g.apiKey))

	var result geminiResponse
	if err := postJSON(ctx, g.client, "gemini", endpoint, nil, reqBody, &result); err != nil {
		return "", err
	}

	if result.Error != nil {
		return "", fmt.Errorf("gemini: API error: %s", result.Error.Message)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini: no candidates in response")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	Seed            *int     `json:"seed,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}
