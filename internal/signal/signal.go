// Package signal defines the CI/CD signal bundle consumed by both scoring paths.
package signal

import (
	"encoding/json"
	"math"
	"strings"
)

// Outcome is the normalized result of a pass/fail style upstream signal.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomePass
	OutcomeFail
)

func (o Outcome) String() string {
	switch o {
	case OutcomePass:
		return "pass"
	case OutcomeFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Upstream vocabulary recognized by the normalizers.
const (
	ReviewApprovable       = "approvable"
	ReviewChangesRequested = "changes_requested"

	BuildReady     = "ready"
	BuildSucceeded = "succeeded"
	BuildError     = "error"
	BuildFailed    = "failed"
)

// Bundle is one snapshot of per-source signals. Every field is optional;
// zero values are the documented defaults.
type Bundle struct {
	Review   ReviewSignal
	Build    BuildSignal
	Coverage CoverageSignal
	Shadow   ShadowSignal

	// Extra holds upstream documents that are not scored (security, quality,
	// performance ...). They are only forwarded to the narrative classifier.
	Extra map[string]json.RawMessage
}

// ReviewSignal is the code-review bot's verdict.
type ReviewSignal struct {
	Status string `json:"status,omitempty"`
}

// Outcome maps the review status onto Pass/Fail/Unknown.
func (r ReviewSignal) Outcome() Outcome {
	switch normalize(r.Status) {
	case ReviewApprovable:
		return OutcomePass
	case ReviewChangesRequested:
		return OutcomeFail
	default:
		return OutcomeUnknown
	}
}

// BuildSignal is the build platform's deployment status.
type BuildSignal struct {
	Status string `json:"status,omitempty"`
}

// Outcome maps the build status onto Pass/Fail/Unknown.
func (b BuildSignal) Outcome() Outcome {
	switch normalize(b.Status) {
	case BuildReady, BuildSucceeded:
		return OutcomePass
	case BuildError, BuildFailed:
		return OutcomeFail
	default:
		return OutcomeUnknown
	}
}

// CoverageSignal is the coverage tool's line coverage percentage.
type CoverageSignal struct {
	Percent float64 `json:"percent"`
}

// ShadowSignal is the shadow-analysis agent's finding count.
type ShadowSignal struct {
	CriticalIssues int `json:"critical_issues"`
}

// Normalize clamps numeric fields into their documented ranges:
// coverage into [0,100] (NaN becomes 0) and negative critical counts to 0.
func (b *Bundle) Normalize() {
	b.Coverage.Percent = ClampPercent(b.Coverage.Percent)
	if b.Shadow.CriticalIssues < 0 {
		b.Shadow.CriticalIssues = 0
	}
}

// ClampPercent restricts p to [0, 100].
func ClampPercent(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
