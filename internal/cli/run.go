package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/slider/internal/cache"
	"github.com/roach88/slider/internal/config"
	"github.com/roach88/slider/internal/deck"
	"github.com/roach88/slider/internal/metrics"
	"github.com/roach88/slider/internal/pipeline"
	"github.com/roach88/slider/internal/slides"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	PresentationID string
	Credentials    string
	TokenFile      string
	Promote        bool
	Concurrency    int
	RetainFailed   bool
	RepairMissing  bool
	MetricsFile    string

	// Service and Exporter replace the remote client (for testing).
	// Both must be set together.
	Service  pipeline.Service
	Exporter pipeline.ExporterFunc

	// IDs overrides the copy name generator (for testing).
	IDs pipeline.IDGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Number the presentation and refresh the PNG store",
		Long: `Number every slide of the presentation, write the numbers into the
speaker notes, and export changed slides as PNG files.

Export happens from a temporary copy of the presentation with layout
decoration removed and backgrounds made transparent. The copy is deleted
afterwards. Fresh renders go to <store-dir>/new; with --promote they are
moved into <store-dir>/current once the status registry is saved.

Example:
  slider run --presentation-id 1AbC... --store-dir ./slides --credentials credentials.json
  SLIDER_PRESENTATION_ID=1AbC... slider run --config slider.yaml --promote`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSlider(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.PresentationID, "presentation-id", "p", "", "presentation to process")
	cmd.Flags().StringVar(&opts.Credentials, "credentials", "", "OAuth client or service-account JSON file")
	cmd.Flags().StringVar(&opts.TokenFile, "token-file", "", "previously obtained OAuth token (JSON)")
	cmd.Flags().BoolVar(&opts.Promote, "promote", false, "move new renders into current/ after the run")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", config.DefaultConcurrency, "parallel page exports")
	cmd.Flags().BoolVar(&opts.RetainFailed, "retain-failed", false, "keep prior registry entries for failed exports so they are retried")
	cmd.Flags().BoolVar(&opts.RepairMissing, "repair-missing", false, "re-export unchanged slides whose PNG is missing")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")

	return cmd
}

func runSlider(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd, opts.RootOptions, changed(cmd, map[string]func() any{
		"presentation-id": func() any { return opts.PresentationID },
		"credentials":     func() any { return opts.Credentials },
		"token-file":      func() any { return opts.TokenFile },
		"promote":         func() any { return opts.Promote },
		"concurrency":     func() any { return opts.Concurrency },
		"retain-failed":   func() any { return opts.RetainFailed },
		"repair-missing":  func() any { return opts.RepairMissing },
		"metrics-file":    func() any { return opts.MetricsFile },
	}))
	if err != nil {
		return err
	}
	if cfg.Presentation.ID == "" {
		return withCode(ErrCodeInvalidConfig, NewExitError(ExitCommandError,
			"no presentation: pass --presentation-id or set presentation.id"))
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := opts.logger()

	svc, exporter := opts.Service, opts.Exporter
	if svc == nil {
		ts, err := slides.TokenSource(ctx, slides.AuthConfig{
			AccessToken:     cfg.Auth.AccessToken,
			TokenFile:       cfg.Auth.TokenFile,
			CredentialsFile: cfg.Auth.CredentialsFile,
		})
		if err != nil {
			return withCode(ErrCodeInvalidConfig, WrapExitError(ExitCommandError, "failed to set up credentials", err))
		}
		client := slides.New(ctx, ts, slides.Options{
			Endpoints: slides.Endpoints{
				Slides: cfg.Endpoints.Slides,
				Drive:  cfg.Endpoints.Drive,
				Export: cfg.Endpoints.Export,
			},
			Timeout:         cfg.Fetch.Timeout,
			RatePerSecond:   cfg.Fetch.RatePerSecond,
			Burst:           cfg.Fetch.Burst,
			BreakerFailures: cfg.Fetch.BreakerFailures,
			Logger:          log,
		})
		svc, exporter = client, client.Exporter
	}

	popts := []pipeline.Option{pipeline.WithLogger(log)}
	if opts.IDs != nil {
		popts = append(popts, pipeline.WithIDGenerator(opts.IDs))
	}
	if cfg.Metrics.File != "" {
		popts = append(popts, pipeline.WithMetrics(metrics.New()))
	}

	runner := pipeline.New(svc, exporter, pipeline.Config{
		StoreDir:      cfg.Store.Dir,
		Registry:      cfg.Store.Registry,
		Concurrency:   cfg.Fetch.Concurrency,
		RepairMissing: cfg.Fetch.RepairMissing,
		RetainFailed:  cfg.Fetch.RetainFailed,
		Promote:       cfg.Store.Promote,
		MetricsFile:   cfg.Metrics.File,
	}, popts...)

	rep, err := runner.Run(ctx, cfg.Presentation.ID)
	if err != nil {
		return runError(err)
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	return outputRun(formatter, rep)
}

// runError classifies a failed run.
func runError(err error) error {
	var status *slides.StatusError
	switch {
	case deck.IsConfigurationError(err):
		return WrapExitError(ExitCommandError, "presentation cannot be processed", err)
	case errors.Is(err, context.Canceled):
		return WrapExitError(ExitFailure, "run interrupted", err)
	case errors.As(err, &status):
		return withCode(ErrCodeRemote, WrapExitError(ExitFailure, "run failed", err))
	default:
		return WrapExitError(ExitFailure, "run failed", err)
	}
}

// RunSummary is the JSON form of a finished run.
type RunSummary struct {
	*pipeline.Report
	Fetched  []string         `json:"fetched"`
	Moved    []string         `json:"moved"`
	Missing  []string         `json:"missing"`
	Evicted  []string         `json:"evicted"`
	Failures []FailureSummary `json:"failures"`
	Counts   map[string]int   `json:"counts"`
}

// FailureSummary is one artifact that could not be written.
type FailureSummary struct {
	ID    string `json:"id"`
	Op    string `json:"op"`
	Path  string `json:"path"`
	Error string `json:"error"`
}

func summarize(rep *pipeline.Report) RunSummary {
	s := RunSummary{Report: rep, Counts: make(map[string]int)}
	if rep.Result == nil {
		return s
	}
	res := rep.Result
	s.Fetched, s.Moved, s.Missing, s.Evicted = res.Fetched, res.Moved, res.Missing, res.Evicted
	for _, f := range res.Failed {
		s.Failures = append(s.Failures, FailureSummary{ID: f.ID, Op: string(f.Op), Path: f.Path, Error: f.Err.Error()})
	}
	for action, n := range cache.Summary(res.Decisions) {
		s.Counts[string(action)] = n
	}
	return s
}

func outputRun(f *OutputFormatter, rep *pipeline.Report) error {
	s := summarize(rep)
	if f.Format == "json" {
		return f.Success(s)
	}

	fmt.Fprintf(f.Writer, "✓ %s (%q): %d slide(s)\n", rep.Presentation, rep.Title, rep.Records)
	fmt.Fprintf(f.Writer, "  fetched %d, moved %d, kept %d, missing %d, failed %d, evicted %d\n",
		len(s.Fetched), len(s.Moved), s.Counts[string(cache.Keep)], len(s.Missing), len(s.Failures), len(s.Evicted))
	for _, a := range rep.Anomalies {
		fmt.Fprintf(f.Writer, "  warning: %s\n", a)
	}
	for _, fail := range s.Failures {
		fmt.Fprintf(f.Writer, "  failed: %s %s (%s): %s\n", fail.Op, fail.ID, fail.Path, fail.Error)
	}
	if len(rep.Promoted) > 0 {
		fmt.Fprintf(f.Writer, "  promoted %d artifact(s)\n", len(rep.Promoted))
	}
	if len(rep.Dropped) > 0 {
		fmt.Fprintf(f.Writer, "  dropped %d stale artifact(s) from new/\n", len(rep.Dropped))
	}
	f.VerboseLog("copy %s deleted: %t", rep.CopyID, rep.CopyDeleted)
	return nil
}
