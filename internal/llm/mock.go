package llm

import "context"

// MockProvider is a test double that returns a canned response and records
// the last prompt it was given.
type MockProvider struct {
	Response string
	Err      error

	Calls      int
	LastPrompt string
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Generate(_ context.Context, prompt string, _ Settings) (string, error) {
	m.Calls++
	m.LastPrompt = prompt
	return m.Response, m.Err
}
