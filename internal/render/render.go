// Package render produces Markdown output from scoring results.
package render

import (
	"fmt"
	"strings"

	"github.com/dshills/mergescore/internal/classify"
	"github.com/dshills/mergescore/internal/report"
	"github.com/dshills/mergescore/internal/score"
)

// Score renders a heuristic result as a Markdown report.
func Score(r score.Result) string {
	var b strings.Builder
	b.WriteString("# Merge Confidence\n\n")
	writeHeuristic(&b, r)
	return b.String()
}

// Classification renders a narrative result as a Markdown report.
func Classification(r classify.Result) string {
	var b strings.Builder
	b.WriteString("# Merge Confidence (Narrative)\n\n")
	writeNarrative(&b, r)
	return b.String()
}

// Report renders the evaluate envelope: both decisions, whether they
// agree and the input they were computed from.
func Report(r *report.Report) string {
	var b strings.Builder

	b.WriteString("# Merge Confidence Report\n\n")
	fmt.Fprintf(&b, "**Decision:** %s (%d / 100)\n", r.Heuristic.Status, r.Heuristic.MCS)
	if r.Agreement {
		b.WriteString("**Agreement:** narrative classifier agrees\n")
	} else {
		fmt.Fprintf(&b, "**Agreement:** narrative classifier says %s (%+d)\n", r.Narrative.Status, r.Delta())
	}
	fmt.Fprintf(&b, "**Run:** `%s`\n\n", r.RunID)

	b.WriteString("## Heuristic\n\n")
	writeHeuristic(&b, r.Heuristic)

	b.WriteString("## Narrative\n\n")
	writeNarrative(&b, r.Narrative)

	b.WriteString("## Input\n\n")
	fmt.Fprintf(&b, "- File: %s\n", r.Input.File)
	fmt.Fprintf(&b, "- Hash: `%s`\n", r.Input.Hash)
	if len(r.Input.ExtraSources) > 0 {
		fmt.Fprintf(&b, "- Extra sources: %s\n", strings.Join(r.Input.ExtraSources, ", "))
	}
	if r.Meta.Model != "" {
		fmt.Fprintf(&b, "- Model: %s (temperature %.2g)\n", r.Meta.Model, r.Meta.Temperature)
	}
	b.WriteString("\n")

	return b.String()
}

func writeHeuristic(b *strings.Builder, r score.Result) {
	fmt.Fprintf(b, "**Status:** %s\n", r.Status)
	fmt.Fprintf(b, "**MCS:** %d / 100\n\n", r.MCS)
	if len(r.Breakdown) > 0 {
		b.WriteString("| Rule |\n|---|\n")
		for _, line := range r.Breakdown {
			fmt.Fprintf(b, "| %s |\n", line)
		}
		b.WriteString("\n")
	}
}

func writeNarrative(b *strings.Builder, r classify.Result) {
	fmt.Fprintf(b, "**Status:** %s\n", r.Status)
	fmt.Fprintf(b, "**MCS:** %d / 100\n\n", r.MCS)
	if r.IsFallback() {
		b.WriteString("> Narrative classification unavailable; defaulted to NEEDS_REVIEW.\n\n")
	}
	if r.Reasoning != "" {
		fmt.Fprintf(b, "%s\n\n", r.Reasoning)
	}
	if r.SuggestedFix != "" && r.SuggestedFix != classify.NoFix {
		b.WriteString("**Suggested fix:**\n\n```sh\n")
		b.WriteString(r.SuggestedFix)
		b.WriteString("\n```\n\n")
	}
}
