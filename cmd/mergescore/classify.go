package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/mergescore/internal/metrics"
	"github.com/dshills/mergescore/internal/render"
)

func newClassifyCmd() *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "classify <bundle-file>",
		Short: "Ask an LLM for a narrative merge-readiness decision",
		Long: `Send the signal bundle to an LLM and report its decision.

Any failure (no API key, transport error, malformed response) yields
NEEDS_REVIEW with mcs 0 and suggested_fix "N/A"; the command still
exits 0 unless --fail-on is met.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, args[0], f)
		},
	}
	addOutputFlags(cmd, f)
	addModelFlags(cmd, f)
	return cmd
}

func runClassify(cmd *cobra.Command, path string, f *runFlags) error {
	env, err := setup(cmd, f)
	if err != nil {
		return err
	}
	doc, err := env.loadBundle(path)
	if err != nil {
		return err
	}

	res := env.narrative(cmd.Context(), doc.Bundle)
	env.log.Info("narrative decision", "mcs", res.MCS, "status", res.Status, "fallback", res.IsFallback())

	if err := env.emit(f.out, res, render.Classification(res)); err != nil {
		return err
	}
	if err := env.writeFix(res); err != nil {
		return err
	}
	if err := env.writeMetrics(metrics.Sample{Narrative: &res}); err != nil {
		return err
	}
	return checkFailOn(res.Status, env.cfg.FailOn)
}
