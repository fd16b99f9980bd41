package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/mergescore/internal/llm"
	"github.com/dshills/mergescore/internal/schema"
	"github.com/dshills/mergescore/internal/score"
)

// ErrEmptyResponse is returned by Parse when nothing is left after the
// code fences are stripped.
var ErrEmptyResponse = errors.New("empty response")

// SchemaError lists the validation failures of a decoded response.
type SchemaError struct {
	Errors []schema.ValidationError
}

func (e *SchemaError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, v := range e.Errors {
		msgs[i] = v.Error()
	}
	return "response failed schema validation: " + strings.Join(msgs, "; ")
}

// Parse unwraps code fences from a model response, decodes the remaining
// text strictly as one JSON object and validates it. It is the only place
// a response becomes a Result.
func Parse(raw string) (Result, error) {
	text := llm.ExtractJSON(raw)
	if text == "" {
		return Result{}, ErrEmptyResponse
	}

	var c schema.Classification
	if err := json.Unmarshal([]byte(text), &c); err != nil {
		return Result{}, fmt.Errorf("parse response as JSON: %w", err)
	}

	if errs := schema.Validate(&c); len(errs) > 0 {
		return Result{}, &SchemaError{Errors: errs}
	}

	return Result{
		MCS:          int(*c.MCS),
		Status:       score.Status(*c.Status),
		Reasoning:    *c.Reasoning,
		SuggestedFix: *c.SuggestedFix,
	}, nil
}
