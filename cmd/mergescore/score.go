package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/mergescore/internal/metrics"
	"github.com/dshills/mergescore/internal/render"
	"github.com/dshills/mergescore/internal/schema"
	"github.com/dshills/mergescore/internal/score"
	"github.com/dshills/mergescore/internal/signal"
)

func newScoreCmd() *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "score <bundle-file>",
		Short: "Compute the deterministic Merge Confidence Score",
		Long: `Compute the heuristic Merge Confidence Score for a signal bundle.

The bundle is a JSON object keyed by source: review (or coderabbit),
build (or vercel), coverage (or codecov) and shadow (or shadow_agent).
Use "-" to read it from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, args[0], f)
		},
	}
	addOutputFlags(cmd, f)
	return cmd
}

func runScore(cmd *cobra.Command, path string, f *runFlags) error {
	env, err := setup(cmd, f)
	if err != nil {
		return err
	}
	doc, err := env.loadBundle(path)
	if err != nil {
		return err
	}

	res, err := heuristic(env, doc.Bundle)
	if err != nil {
		return err
	}

	if err := env.emit(f.out, res, render.Score(res)); err != nil {
		return err
	}
	if err := env.writeMetrics(metrics.Sample{Heuristic: &res}); err != nil {
		return err
	}
	return checkFailOn(res.Status, env.cfg.FailOn)
}

// heuristic scores the bundle and checks the result's invariants.
func heuristic(env *runEnv, b *signal.Bundle) (score.Result, error) {
	res := score.Score(b)
	if errs := schema.ValidateScore(&res); len(errs) > 0 {
		return res, fmt.Errorf("heuristic result failed validation: %v", errs)
	}
	env.log.Info("heuristic score", "mcs", res.MCS, "status", res.Status)
	return res, nil
}
