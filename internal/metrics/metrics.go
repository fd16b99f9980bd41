// Package metrics exports scoring decisions as Prometheus gauges in the
// text exposition format, for pickup by a node_exporter textfile collector.
package metrics

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/dshills/mergescore/internal/classify"
	"github.com/dshills/mergescore/internal/report"
	"github.com/dshills/mergescore/internal/score"
)

// Metric names.
const (
	NameMCS       = "mergescore_mcs"
	NameStatus    = "mergescore_status"
	NameFallback  = "mergescore_narrative_fallback"
	NameAgreement = "mergescore_agreement"
)

// Source label values.
const (
	SourceHeuristic = "heuristic"
	SourceNarrative = "narrative"
)

var statuses = []score.Status{score.StatusMergeCandidate, score.StatusNeedsReview, score.StatusAutocorrect}

// Sample is one run's decisions. Nil fields are omitted from the output.
type Sample struct {
	Heuristic *score.Result
	Narrative *classify.Result
	Agreement *bool
}

// FromReport collects every decision in an evaluate report.
func FromReport(r *report.Report) Sample {
	agree := r.Agreement
	return Sample{Heuristic: &r.Heuristic, Narrative: &r.Narrative, Agreement: &agree}
}

// Families converts s into metric families in a stable order.
func Families(s Sample) []*dto.MetricFamily {
	mcs := family(NameMCS, "Merge Confidence Score (0-100) by scoring path.")
	status := family(NameStatus, "1 for the current merge-readiness status of each scoring path, 0 otherwise.")

	add := func(source string, v int, st score.Status) {
		mcs.Metric = append(mcs.Metric, gauge(float64(v), "source", source))
		for _, s := range statuses {
			val := 0.0
			if s == st {
				val = 1
			}
			status.Metric = append(status.Metric, gauge(val, "source", source, "status", string(s)))
		}
	}
	if s.Heuristic != nil {
		add(SourceHeuristic, s.Heuristic.MCS, s.Heuristic.Status)
	}
	if s.Narrative != nil {
		add(SourceNarrative, s.Narrative.MCS, s.Narrative.Status)
	}

	var out []*dto.MetricFamily
	if len(mcs.Metric) > 0 {
		out = append(out, mcs, status)
	}
	if s.Narrative != nil {
		f := family(NameFallback, "1 when the narrative classifier fell back to its safe default.")
		f.Metric = append(f.Metric, gauge(boolValue(s.Narrative.IsFallback())))
		out = append(out, f)
	}
	if s.Agreement != nil {
		f := family(NameAgreement, "1 when both scoring paths reached the same status.")
		f.Metric = append(f.Metric, gauge(boolValue(*s.Agreement)))
		out = append(out, f)
	}
	return out
}

// Write encodes s to w in the Prometheus text format.
func Write(w io.Writer, s Sample) error {
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range Families(s) {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("metrics.Write: %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteFile writes s to path. The file is written under a temporary name
// and renamed so a collector never reads a partial file.
func WriteFile(path string, s Sample) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("metrics.WriteFile: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, s); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("metrics.WriteFile: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("metrics.WriteFile: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("metrics.WriteFile: %w", err)
	}
	return nil
}

func family(name, help string) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
}

// gauge builds a gauge sample; labels are name/value pairs.
func gauge(v float64, labels ...string) *dto.Metric {
	m := &dto.Metric{Gauge: &dto.Gauge{Value: proto.Float64(v)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{
			Name:  proto.String(labels[i]),
			Value: proto.String(labels[i+1]),
		})
	}
	return m
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
