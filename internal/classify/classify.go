// Package classify implements the LLM-backed narrative classifier. Whatever
// goes wrong on the way to the external service, Classify returns a
// well-formed Result; failures degrade to NEEDS_REVIEW, never to a merge.
package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dshills/mergescore/internal/llm"
	"github.com/dshills/mergescore/internal/prompt"
	"github.com/dshills/mergescore/internal/score"
	"github.com/dshills/mergescore/internal/signal"
)

// NoFix is the suggested_fix sentinel for "no remediation".
const NoFix = "N/A"

// Result is the narrative classifier's decision.
type Result struct {
	MCS          int          `json:"mcs"`
	Status       score.Status `json:"status"`
	Reasoning    string       `json:"reasoning"`
	SuggestedFix string       `json:"suggested_fix"`

	// fallback marks results produced by Fallback. A model may legitimately
	// answer with the same field values.
	fallback bool
}

// Fallback is the safe result reported when classification fails.
func Fallback(err error) Result {
	return Result{
		MCS:          0,
		Status:       score.StatusNeedsReview,
		Reasoning:    fmt.Sprintf("AI Analysis Failed: %v", err),
		SuggestedFix: NoFix,
		fallback:     true,
	}
}

// IsFallback reports whether r was produced by Fallback rather than
// decoded from a model response.
func (r Result) IsFallback() bool {
	return r.fallback
}

// Options configures a Classifier.
type Options struct {
	Settings llm.Settings
	// Endpoint, when set, replaces the provider's API URL.
	Endpoint string
	// Redact scrubs secrets from the signals before they leave the process.
	Redact bool
	Logger *slog.Logger
}

// Classifier asks an external reasoning service for a decision.
type Classifier struct {
	resolve func() (llm.Provider, error)
	opts    Options
}

// New returns a Classifier that resolves its provider from the model flag
// and environment credentials on each call. A missing credential surfaces
// as a fallback result, not as an error.
func New(model string, opts Options) *Classifier {
	return &Classifier{
		resolve: func() (llm.Provider, error) { return llm.ResolveProviderAt(model, opts.Endpoint) },
		opts:    opts,
	}
}

// NewWithProvider returns a Classifier bound to p.
func NewWithProvider(p llm.Provider, opts Options) *Classifier {
	return &Classifier{
		resolve: func() (llm.Provider, error) { return p, nil },
		opts:    opts,
	}
}

// Classify runs one request/response exchange for the bundle. It never
// returns an error.
func (c *Classifier) Classify(ctx context.Context, b *signal.Bundle) Result {
	res, err := c.run(ctx, b)
	if err != nil {
		c.logger().Warn("classify: falling back to NEEDS_REVIEW", "err", err)
		return Fallback(err)
	}
	return res
}

func (c *Classifier) run(ctx context.Context, b *signal.Bundle) (Result, error) {
	p, err := c.resolve()
	if err != nil {
		return Result{}, fmt.Errorf("resolve provider: %w", err)
	}
	if p == nil {
		return Result{}, errors.New("resolve provider: no provider")
	}

	built, err := prompt.Build(prompt.BuildOpts{Bundle: b, Redact: c.opts.Redact})
	if err != nil {
		return Result{}, err
	}
	if built.Redacted > 0 {
		c.logger().Info("classify: redacted secrets from signals", "count", built.Redacted)
	}

	c.logger().Info("classify: calling provider", "provider", p.Name(), "prompt_bytes", len(built.Text))
	raw, err := p.Generate(ctx, built.Text, c.opts.Settings)
	if err != nil {
		return Result{}, err
	}
	c.logger().Info("classify: received response", "bytes", len(raw))

	return Parse(raw)
}

func (c *Classifier) logger() *slog.Logger {
	if c.opts.Logger != nil {
		return c.opts.Logger
	}
	return slog.Default()
}
