package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/slider/internal/cache"
)

// NewPromoteCommand creates the promote command.
func NewPromoteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "promote",
		Short: "Move fresh renders from new/ into current/",
		Long: `Move every render in <store-dir>/new whose number is recorded in the
status registry into <store-dir>/current. Renders in new/ whose number is
no longer in use are deleted instead.

Refuses to run against an empty registry, which would delete every render.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPromote(rootOpts, cmd)
		},
	}
}

func runPromote(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd, opts, nil)
	if err != nil {
		return err
	}
	reg, err := readRegistry(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if len(reg) == 0 {
		return withCode(ErrCodeStore, NewExitError(ExitCommandError,
			fmt.Sprintf("registry in %s is empty: run slider first", cfg.Store.Dir)))
	}

	moved, dropped, err := cache.Promote(cache.Tiers{Root: cfg.Store.Dir}, reg.Numbers())
	for _, name := range dropped {
		opts.logger().Info("dropped stale artifact", "path", name)
	}
	if err != nil {
		return withCode(ErrCodeStore, WrapExitError(ExitFailure, "promote failed", err))
	}
	return outputNames(opts, cmd, "Promoted", moved)
}

// outputNames prints the files a store command touched.
func outputNames(opts *RootOptions, cmd *cobra.Command, verb string, names []string) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if formatter.Format == "json" {
		if names == nil {
			names = []string{}
		}
		return formatter.Success(names)
	}
	fmt.Fprintf(formatter.Writer, "%s %d file(s)\n", verb, len(names))
	for _, name := range names {
		fmt.Fprintf(formatter.Writer, "  %s\n", name)
	}
	return nil
}
