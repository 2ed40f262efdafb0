package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/slider/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Config   string // path to a YAML config file
	StoreDir string
	Registry string

	// Logger is set up from Verbose before any command runs.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the slider CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slider",
		Short: "Number presentation slides and keep a PNG export in sync",
		Long: `slider assigns stable sequence numbers to the slides of a presentation,
writes them into the speaker notes, and maintains a local directory of
PNG renders named by number. Only slides whose content changed since the
previous run are exported again.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			opts.Logger = newLogger(cmd.ErrOrStderr(), opts.Verbose)
			slog.SetDefault(opts.Logger)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.StoreDir, "store-dir", "", "store directory holding current/, new/ and the status registry")
	cmd.PersistentFlags().StringVar(&opts.Registry, "registry", "", "status registry backend (yaml|sqlite)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewEvictCommand(opts))
	cmd.AddCommand(NewPromoteCommand(opts))

	return cmd
}

// Execute runs the CLI with args and returns the process exit code.
// Errors are reported on stderr, or as a JSON error response on stdout
// when --format=json.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	f := &OutputFormatter{Format: "text", Writer: stderr, Verbose: opts.Verbose}
	if opts.Format == "json" {
		f = &OutputFormatter{Format: "json", Writer: stdout}
	}
	_ = f.Error(errorCode(err), err.Error(), nil)
	return GetExitCode(err)
}

// newLogger builds the text logger used by every command: debug level
// with --verbose, info otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// logger returns the configured logger, or slog.Default when a command is
// executed on its own.
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// loadConfig reads the config file and environment, then applies the
// global flags and extra, which maps config keys to values of flags the
// caller saw set.
func loadConfig(cmd *cobra.Command, opts *RootOptions, extra map[string]any) (*config.Config, error) {
	overrides := make(map[string]any)
	if cmd.Flags().Changed("store-dir") {
		overrides["store.dir"] = opts.StoreDir
	}
	if cmd.Flags().Changed("registry") {
		overrides["store.registry"] = opts.Registry
	}
	maps.Copy(overrides, extra)

	cfg, err := config.Load(opts.Config, overrides)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

// changed collects the values of set flags under their config keys.
func changed(cmd *cobra.Command, keys map[string]func() any) map[string]any {
	out := make(map[string]any)
	for flag, value := range keys {
		if cmd.Flags().Changed(flag) {
			out[flagKey[flag]] = value()
		}
	}
	return out
}

// flagKey maps command flags to config keys.
var flagKey = map[string]string{
	"presentation-id": "presentation.id",
	"credentials":     "auth.credentials_file",
	"token-file":      "auth.token_file",
	"promote":         "store.promote",
	"concurrency":     "fetch.concurrency",
	"retain-failed":   "fetch.retain_failed",
	"repair-missing":  "fetch.repair_missing",
	"metrics-file":    "metrics.file",
}
