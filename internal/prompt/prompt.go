// Package prompt builds the narrative classifier prompt.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/mergescore/internal/redact"
	"github.com/dshills/mergescore/internal/score"
	"github.com/dshills/mergescore/internal/signal"
)

// BuildOpts configures prompt construction.
type BuildOpts struct {
	Bundle *signal.Bundle
	// Redact scrubs secrets from the serialized signals.
	Redact bool
}

// Built is an assembled prompt plus the number of redactions applied.
type Built struct {
	Text     string
	Redacted int
}

// Build assembles the classifier prompt. It fails only if the bundle cannot
// be serialized.
func Build(opts BuildOpts) (Built, error) {
	b := opts.Bundle
	if b == nil {
		b = &signal.Bundle{}
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return Built{}, fmt.Errorf("prompt.Build: serialize signals: %w", err)
	}
	signals := string(data)

	var redacted int
	if opts.Redact {
		signals, redacted = redact.Count(signals)
	}

	var sb strings.Builder

	// 1. Role
	sb.WriteString(`You are a merge-readiness reviewer for a CI/CD pipeline.
Analyze the following CI signals and decide whether the change is safe to merge, needs human review, or needs an automated fix.

`)

	// 2. Signals
	fmt.Fprintf(&sb, "<signals>\n%s\n</signals>\n\n", signals)

	// 3. Decision rules
	sb.WriteString("## Rules\n\n")
	fmt.Fprintf(&sb, "1. If there are critical failures (build broke, tests failed, critical security findings), the score must be below %d and status = %s.\n",
		score.ThresholdNeedsReview, score.StatusAutocorrect)
	fmt.Fprintf(&sb, "2. If checks pass but quality is low, the score must be between %d and %d and status = %s.\n",
		score.ThresholdNeedsReview, score.ThresholdMergeCandidate-1, score.StatusNeedsReview)
	fmt.Fprintf(&sb, "3. If everything looks good, the score must be %d or higher and status = %s.\n\n",
		score.ThresholdMergeCandidate, score.StatusMergeCandidate)

	// 4. Output schema
	sb.WriteString(outputSchema)

	return Built{Text: sb.String(), Redacted: redacted}, nil
}

const outputSchema = `## Output Format

Return ONLY a raw JSON object (no markdown formatting, no prose) with these fields:

{
  "mcs": integer (0-100),
  "status": "AUTOCORRECT" | "NEEDS_REVIEW" | "MERGE_CANDIDATE",
  "reasoning": string (concise explanation),
  "suggested_fix": string (a shell command that fixes the problem, or "N/A")
}
`
