// Package score implements the deterministic Merge Confidence Score aggregator.
package score

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dshills/mergescore/internal/signal"
)

// Per-source weights. The positive maxima sum to MaxScore.
const (
	reviewApprovable = 40
	reviewUnknown    = 20

	buildPass    = 30
	buildUnknown = 10
	buildPenalty = 20

	coverageMax   = 20
	coverageScale = 0.2

	shadowClean = 10

	MaxScore = 100
)

// Result is the heuristic decision for one bundle.
type Result struct {
	MCS       int      `json:"mcs"`
	Breakdown []string `json:"breakdown"`
	Status    Status   `json:"status"`
}

// Score aggregates the bundle into an MCS, a breakdown and a status.
// Sources are always evaluated review, build, coverage, shadow. A failed
// build subtracts buildPenalty from the running total at that point; only
// the final total is clamped.
func Score(b *signal.Bundle) Result {
	var in signal.Bundle
	if b != nil {
		in = *b
	}
	in.Normalize()

	total := 0
	var breakdown []string
	add := func(source string, pts int, reason string) {
		total += pts
		breakdown = append(breakdown, fmt.Sprintf("%s: %+d (%s)", source, pts, reason))
	}

	switch in.Review.Outcome() {
	case signal.OutcomePass:
		add("Review", reviewApprovable, "Approvable")
	case signal.OutcomeFail:
		add("Review", 0, "Changes Requested")
	default:
		add("Review", reviewUnknown, "Neutral/Unknown")
	}

	switch in.Build.Outcome() {
	case signal.OutcomePass:
		add("Build", buildPass, "Build Succeeded")
	case signal.OutcomeFail:
		add("Build", 0, "Build Failed")
		add("Penalty", -buildPenalty, "Critical Build Failure")
	default:
		add("Build", buildUnknown, "Status: "+statusLabel(in.Build.Status))
	}

	pct := in.Coverage.Percent
	add("Coverage", CoveragePoints(pct), strconv.FormatFloat(pct, 'f', -1, 64)+"%")

	if n := in.Shadow.CriticalIssues; n == 0 {
		add("Shadow", shadowClean, "No Critical Issues")
	} else {
		add("Shadow", 0, fmt.Sprintf("%d Critical Issues", n))
	}

	mcs := Clamp(total)
	return Result{
		MCS:       mcs,
		Breakdown: breakdown,
		Status:    StatusFor(mcs),
	}
}

// CoveragePoints scales a coverage percentage linearly onto [0, coverageMax].
func CoveragePoints(pct float64) int {
	pts := int(math.Floor(signal.ClampPercent(pct) * coverageScale))
	if pts > coverageMax {
		return coverageMax
	}
	return pts
}

// Clamp restricts v to [0, MaxScore].
func Clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

func statusLabel(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
