package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoProvider is returned when no model flag selects a provider and no
// API key is present in the environment.
var ErrNoProvider = errors.New("no LLM provider configured: set GEMINI_API_KEY, ANTHROPIC_API_KEY or OPENAI_API_KEY")

type providerRule struct {
	prefix string
	strip  bool // "name:" forms drop the prefix from the model id
	build  func() (Provider, error)
}

var providerRules = []providerRule{
	{"gemini:", true, func() (Provider, error) { return NewGemini() }},
	{"gemini", false, func() (Provider, error) { return NewGemini() }},
	{"anthropic:", true, func() (Provider, error) { return NewAnthropic() }},
	{"claude", false, func() (Provider, error) { return NewAnthropic() }},
	{"openai:", true, func() (Provider, error) { return NewOpenAI() }},
	{"gpt", false, func() (Provider, error) { return NewOpenAI() }},
}

// ResolveProvider selects an LLM provider based on the model flag and
// available API keys. An empty flag auto-detects Gemini, Anthropic, then
// OpenAI from the environment.
func ResolveProvider(modelFlag string) (Provider, error) {
	if modelFlag != "" {
		lower := strings.ToLower(modelFlag)
		for _, r := range providerRules {
			if !strings.HasPrefix(lower, r.prefix) {
				continue
			}
			p, err := r.build()
			if err != nil {
				return nil, err
			}
			model := modelFlag
			if r.strip {
				model = modelFlag[len(r.prefix):]
			}
			return &modelOverride{Provider: p, model: model}, nil
		}
	}

	switch {
	case firstEnv(geminiKeyVars...) != "":
		return NewGemini()
	case os.Getenv(anthropicKeyVar) != "":
		return NewAnthropic()
	case os.Getenv(openaiKeyVar) != "":
		return NewOpenAI()
	}
	return nil, ErrNoProvider
}

// Endpointer is implemented by providers whose API URL can be overridden,
// for example to route requests through an internal gateway.
type Endpointer interface {
	SetEndpoint(url string)
}

// ResolveProviderAt is ResolveProvider with the API URL replaced by
// endpoint when it is non-empty.
func ResolveProviderAt(modelFlag, endpoint string) (Provider, error) {
	p, err := ResolveProvider(modelFlag)
	if err != nil {
		return nil, err
	}
	if endpoint != "" {
		e, ok := p.(Endpointer)
		if !ok {
			return nil, fmt.Errorf("%s: endpoint override not supported", p.Name())
		}
		e.SetEndpoint(endpoint)
	}
	return p, nil
}

// modelOverride wraps a provider to override the model in settings.
type modelOverride struct {
	Provider
	model string
}

func (m *modelOverride) SetEndpoint(url string) {
	if e, ok := m.Provider.(Endpointer); ok {
		e.SetEndpoint(url)
	}
}

func (m *modelOverride) Generate(ctx context.Context, prompt string, s Settings) (string, error) {
	s.Model = m.model
	return m.Provider.Generate(ctx, prompt, s)
}
