// Package llm defines the provider interface and the HTTP adapters for the
// external reasoning services used by the narrative classifier.
package llm

import "context"

// Settings configures the LLM request.
type Settings struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Seed        *int
}

// Provider generates text from a prompt using an LLM. Implementations make
// exactly one outbound request per Generate call.
type Provider interface {
	Generate(ctx context.Context, prompt string, settings Settings) (string, error)
	Name() string
}

// CredentialError reports that the environment variable holding a
// provider's API key is not set.
type CredentialError struct {
	Provider string
	EnvVars  []string
}

func (e *CredentialError) Error() string {
	if len(e.EnvVars) == 1 {
		return e.Provider + ": " + e.EnvVars[0] + " environment variable not set"
	}
	msg := e.Provider + ": none of"
	for _, v := range e.EnvVars {
		msg += " " + v
	}
	return msg + " set"
}
