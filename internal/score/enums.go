package score

import (
	"fmt"
	"strings"
)

// Status is the merge-readiness decision shared by both scoring paths.
type Status string

const (
	StatusMergeCandidate Status = "MERGE_CANDIDATE"
	StatusNeedsReview    Status = "NEEDS_REVIEW"
	StatusAutocorrect    Status = "AUTOCORRECT"
)

// Thresholds that map an MCS to a Status. Both bounds are inclusive.
const (
	ThresholdMergeCandidate = 80
	ThresholdNeedsReview    = 50
)

func (s Status) Valid() bool {
	switch s {
	case StatusMergeCandidate, StatusNeedsReview, StatusAutocorrect:
		return true
	}
	return false
}

// Level orders statuses by severity (higher = further from mergeable).
// Unknown statuses sort with AUTOCORRECT.
func (s Status) Level() int {
	switch s {
	case StatusMergeCandidate:
		return 0
	case StatusNeedsReview:
		return 1
	default:
		return 2
	}
}

// StatusFor derives the status from a clamped MCS.
func StatusFor(mcs int) Status {
	switch {
	case mcs >= ThresholdMergeCandidate:
		return StatusMergeCandidate
	case mcs >= ThresholdNeedsReview:
		return StatusNeedsReview
	default:
		return StatusAutocorrect
	}
}

// ParseStatus reads a status label case-insensitively; "-" and "_" are
// interchangeable, so "needs-review" parses as NEEDS_REVIEW.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "_"))
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q: want merge_candidate, needs_review or autocorrect", s)
	}
	return st, nil
}
