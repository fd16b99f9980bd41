// Package report defines the envelope emitted by "mergescore evaluate".
package report

import (
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dshills/mergescore/internal/classify"
	"github.com/dshills/mergescore/internal/score"
	"github.com/dshills/mergescore/internal/signal"
)

// Tool is the producer name recorded in every report.
const Tool = "mergescore"

// Report carries both decisions for one signal bundle.
type Report struct {
	RunID     string          `json:"run_id"`
	Tool      string          `json:"tool"`
	Version   string          `json:"version"`
	Input     Input           `json:"input"`
	Heuristic score.Result    `json:"heuristic"`
	Narrative classify.Result `json:"narrative"`
	// Agreement is true when the narrative classifier produced a real
	// decision with the same status as the heuristic.
	Agreement bool `json:"agreement"`
	Meta      Meta `json:"meta"`
}

// Input identifies the bundle that was scored.
type Input struct {
	File         string   `json:"file"`
	Hash         string   `json:"hash"`
	ExtraSources []string `json:"extra_sources,omitempty"`
}

// Meta records how the narrative decision was obtained.
type Meta struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Fallback    bool    `json:"fallback"`
}

// New assembles a report with a fresh run id.
func New(version string, doc *signal.Document, h score.Result, n classify.Result, meta Meta) *Report {
	r := &Report{
		RunID:     uuid.NewString(),
		Tool:      Tool,
		Version:   version,
		Heuristic: h,
		Narrative: n,
		Agreement: Agree(h, n),
		Meta:      meta,
	}
	r.Meta.Fallback = n.IsFallback()
	if doc != nil {
		r.Input = Input{File: filepath.Base(doc.Path), Hash: doc.Hash}
		if doc.Bundle != nil && len(doc.Bundle.Extra) > 0 {
			r.Input.ExtraSources = doc.Bundle.ExtraKeys()
		}
	}
	return r
}

// Agree reports whether the two paths reached the same status. A fallback
// narrative result never agrees.
func Agree(h score.Result, n classify.Result) bool {
	return !n.IsFallback() && h.Status == n.Status
}

// Delta is the narrative MCS minus the heuristic MCS.
func (r *Report) Delta() int {
	return r.Narrative.MCS - r.Heuristic.MCS
}
