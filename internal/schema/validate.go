// Package schema validates scoring output against the MCS result schema.
package schema

import (
	"fmt"
	"math"

	"github.com/dshills/mergescore/internal/score"
)

// ValidationError describes a single schema violation.
type ValidationError struct {
	Path    string
	Message string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Classification is the wire shape of a narrative classifier response.
// Pointer fields distinguish a missing field from a zero value.
type Classification struct {
	MCS          *float64 `json:"mcs"`
	Status       *string  `json:"status"`
	Reasoning    *string  `json:"reasoning"`
	SuggestedFix *string  `json:"suggested_fix"`
}

// Validate checks a decoded classifier response for required fields, the
// MCS range and the status vocabulary.
func Validate(c *Classification) []ValidationError {
	var errs []ValidationError

	switch {
	case c.MCS == nil:
		errs = append(errs, ValidationError{"mcs", "required"})
	case math.IsNaN(*c.MCS) || *c.MCS != math.Trunc(*c.MCS):
		errs = append(errs, ValidationError{"mcs", fmt.Sprintf("must be an integer, got %v", *c.MCS)})
	case *c.MCS < 0 || *c.MCS > score.MaxScore:
		errs = append(errs, ValidationError{"mcs", fmt.Sprintf("must be in [0,%d], got %v", score.MaxScore, *c.MCS)})
	}

	switch {
	case c.Status == nil:
		errs = append(errs, ValidationError{"status", "required"})
	case !score.Status(*c.Status).Valid():
		errs = append(errs, ValidationError{"status", fmt.Sprintf("invalid status: %q", *c.Status)})
	}

	if c.Reasoning == nil {
		errs = append(errs, ValidationError{"reasoning", "required"})
	}

	switch {
	case c.SuggestedFix == nil:
		errs = append(errs, ValidationError{"suggested_fix", "required"})
	case *c.SuggestedFix == "":
		errs = append(errs, ValidationError{"suggested_fix", `must be a command or "N/A"`})
	}

	return errs
}

// ValidateScore checks the invariants of a heuristic result: MCS in range,
// status consistent with the thresholds and a non-empty breakdown.
func ValidateScore(r *score.Result) []ValidationError {
	var errs []ValidationError

	if r.MCS < 0 || r.MCS > score.MaxScore {
		errs = append(errs, ValidationError{"mcs", fmt.Sprintf("must be in [0,%d], got %d", score.MaxScore, r.MCS)})
	}
	if !r.Status.Valid() {
		errs = append(errs, ValidationError{"status", fmt.Sprintf("invalid status: %q", r.Status)})
	} else if want := score.StatusFor(r.MCS); r.Status != want {
		errs = append(errs, ValidationError{"status", fmt.Sprintf("status %s does not match computed %s", r.Status, want)})
	}
	if len(r.Breakdown) == 0 {
		errs = append(errs, ValidationError{"breakdown", "at least one entry required"})
	}
	for i, line := range r.Breakdown {
		if line == "" {
			errs = append(errs, ValidationError{fmt.Sprintf("breakdown[%d]", i), "empty entry"})
		}
	}

	return errs
}
