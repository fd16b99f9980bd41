package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/mergescore/internal/classify"
	"github.com/dshills/mergescore/internal/metrics"
	"github.com/dshills/mergescore/internal/render"
	"github.com/dshills/mergescore/internal/report"
	"github.com/dshills/mergescore/internal/score"
)

func newEvaluateCmd() *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "evaluate <bundle-file>",
		Short: "Run the heuristic and narrative paths and report both",
		Long: `Score the bundle with the deterministic heuristic and the LLM classifier
concurrently and emit one report with both decisions.

The heuristic status is authoritative: --fail-on is checked against it,
and the narrative status is reported for comparison only.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, args[0], f)
		},
	}
	addOutputFlags(cmd, f)
	addModelFlags(cmd, f)
	return cmd
}

func runEvaluate(cmd *cobra.Command, path string, f *runFlags) error {
	env, err := setup(cmd, f)
	if err != nil {
		return err
	}
	doc, err := env.loadBundle(path)
	if err != nil {
		return err
	}

	var (
		h score.Result
		n classify.Result
	)
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		var err error
		h, err = heuristic(env, doc.Bundle)
		return err
	})
	g.Go(func() error {
		n = env.narrative(ctx, doc.Bundle)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	rep := report.New(version, doc, h, n, report.Meta{
		Model:       modelLabel(env.cfg.Model),
		Temperature: env.cfg.Temperature,
	})
	env.log.Info("evaluation complete",
		"run_id", rep.RunID,
		"heuristic", h.Status,
		"narrative", n.Status,
		"agreement", rep.Agreement)

	if err := env.emit(f.out, rep, render.Report(rep)); err != nil {
		return err
	}
	if err := env.writeFix(n); err != nil {
		return err
	}
	if err := env.writeMetrics(metrics.FromReport(rep)); err != nil {
		return err
	}
	return checkFailOn(h.Status, env.cfg.FailOn)
}

func modelLabel(model string) string {
	if model == "" {
		return "(auto)"
	}
	return model
}
