package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/mergescore/internal/classify"
	"github.com/dshills/mergescore/internal/config"
	"github.com/dshills/mergescore/internal/fix"
	"github.com/dshills/mergescore/internal/llm"
	"github.com/dshills/mergescore/internal/metrics"
	"github.com/dshills/mergescore/internal/score"
	"github.com/dshills/mergescore/internal/signal"
)

// Exit codes.
const (
	exitFailOn = 2
	exitInput  = 3
	exitOutput = 5
)

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

type runFlags struct {
	configPath string
	format     string
	out        string
	failOn     string
	verbose    bool
	metricsOut string

	model       string
	endpoint    string
	temperature float64
	maxTokens   int
	seed        int
	timeout     time.Duration
	redact      bool
	fixOut      string
}

func addOutputFlags(cmd *cobra.Command, f *runFlags) {
	flags := cmd.Flags()
	flags.StringVar(&f.configPath, "config", "", "YAML config file")
	flags.StringVar(&f.format, "format", "json", "Output format: json or md")
	flags.StringVar(&f.out, "out", "", "Output file path (default: stdout)")
	flags.StringVar(&f.failOn, "fail-on", "", "Exit 2 if status is at or past: merge_candidate, needs_review or autocorrect")
	flags.BoolVar(&f.verbose, "verbose", false, "Log processing steps to stderr")
	flags.StringVar(&f.metricsOut, "metrics-out", "", "Write Prometheus text-format gauges to this file")
}

func addModelFlags(cmd *cobra.Command, f *runFlags) {
	flags := cmd.Flags()
	flags.StringVar(&f.model, "model", "", "Model ID (e.g., gemini-pro, claude-sonnet-4-6, gpt-4o)")
	flags.StringVar(&f.endpoint, "endpoint", "", "Override the provider API URL")
	flags.Float64Var(&f.temperature, "temperature", 0.2, "Model temperature")
	flags.IntVar(&f.maxTokens, "max-tokens", 1024, "Max response tokens")
	flags.IntVar(&f.seed, "seed", 0, "Random seed (if supported)")
	flags.DurationVar(&f.timeout, "timeout", 60*time.Second, "Timeout for the classifier request")
	flags.BoolVar(&f.redact, "redact", true, "Redact secrets before sending signals to the model")
	flags.StringVar(&f.fixOut, "fix-out", "", "Write the suggested fix to this shell script")
}

// runEnv is the resolved state of one invocation.
type runEnv struct {
	cfg    *config.Config
	log    *slog.Logger
	stdout io.Writer
}

// setup loads the config file, applies the flags that were set explicitly
// and builds the logger.
func setup(cmd *cobra.Command, f *runFlags) (*runEnv, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, exitError(exitInput, "%v", err)
	}
	applyFlags(cmd, f, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, exitError(exitInput, "invalid flags: %v", err)
	}
	return &runEnv{
		cfg:    cfg,
		log:    newLogger(cmd.ErrOrStderr(), f.verbose),
		stdout: cmd.OutOrStdout(),
	}, nil
}

func applyFlags(cmd *cobra.Command, f *runFlags, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("format") {
		cfg.Format = f.format
	}
	if changed("fail-on") {
		cfg.FailOn = f.failOn
	}
	if changed("metrics-out") {
		cfg.MetricsOut = f.metricsOut
	}
	if changed("model") {
		cfg.Model = f.model
	}
	if changed("endpoint") {
		cfg.Endpoint = f.endpoint
	}
	if changed("temperature") {
		cfg.Temperature = f.temperature
	}
	if changed("max-tokens") {
		cfg.MaxTokens = f.maxTokens
	}
	if changed("seed") {
		seed := f.seed
		cfg.Seed = &seed
	}
	if changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if changed("redact") {
		cfg.Redact = f.redact
	}
	if changed("fix-out") {
		cfg.FixOut = f.fixOut
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (e *runEnv) loadBundle(path string) (*signal.Document, error) {
	e.log.Info("loading signals", "path", path)
	doc, err := signal.Load(path)
	if err != nil {
		return nil, exitError(exitInput, "failed to load signals: %v", err)
	}
	e.log.Info("signals loaded", "hash", doc.Hash, "extra_sources", len(doc.Bundle.Extra))
	return doc, nil
}

// narrative runs the classifier under the configured timeout.
func (e *runEnv) narrative(ctx context.Context, b *signal.Bundle) classify.Result {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	c := classify.New(e.cfg.Model, classify.Options{
		Settings: llm.Settings{
			Model:       e.cfg.Model,
			Temperature: e.cfg.Temperature,
			MaxTokens:   e.cfg.MaxTokens,
			Seed:        e.cfg.Seed,
		},
		Endpoint: e.cfg.Endpoint,
		Redact:   e.cfg.Redact,
		Logger:   e.log,
	})
	return c.Classify(ctx, b)
}

// emit writes v as JSON or md as Markdown, depending on the format.
func (e *runEnv) emit(out string, v any, md string) error {
	var output string
	switch e.cfg.Format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return exitError(exitOutput, "failed to marshal output: %v", err)
		}
		output = string(data) + "\n"
	case "md":
		output = md
	default:
		return exitError(exitInput, "unknown format: %s", e.cfg.Format)
	}

	if out != "" {
		e.log.Info("writing output", "path", out)
		if err := os.WriteFile(out, []byte(output), 0o644); err != nil {
			return exitError(exitOutput, "failed to write output: %v", err)
		}
		return nil
	}
	if _, err := io.WriteString(e.stdout, output); err != nil {
		return exitError(exitOutput, "failed to write output: %v", err)
	}
	return nil
}

func (e *runEnv) writeMetrics(s metrics.Sample) error {
	if e.cfg.MetricsOut == "" {
		return nil
	}
	e.log.Info("writing metrics", "path", e.cfg.MetricsOut)
	if err := metrics.WriteFile(e.cfg.MetricsOut, s); err != nil {
		return exitError(exitOutput, "failed to write metrics: %v", err)
	}
	return nil
}

func (e *runEnv) writeFix(r classify.Result) error {
	if e.cfg.FixOut == "" {
		return nil
	}
	written, err := fix.WriteScript(r.SuggestedFix, e.cfg.FixOut)
	if err != nil {
		return exitError(exitOutput, "failed to write fix script: %v", err)
	}
	if written {
		e.log.Info("wrote fix script", "path", e.cfg.FixOut)
	}
	return nil
}

// checkFailOn returns an exit-2 error when status is at or past the
// threshold named by failOn. An empty threshold never fails.
func checkFailOn(status score.Status, failOn string) error {
	if failOn == "" {
		return nil
	}
	threshold, err := score.ParseStatus(failOn)
	if err != nil {
		return exitError(exitInput, "--fail-on: %v", err)
	}
	if status.Level() >= threshold.Level() {
		return exitError(exitFailOn, "status %s meets fail threshold %s", status, threshold)
	}
	return nil
}
