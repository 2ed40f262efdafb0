package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/slider/internal/cache"
)

// NewEvictCommand creates the evict command.
func NewEvictCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "evict",
		Short: "Delete renders in current/ whose number is no longer in use",
		Long: `Delete every file in <store-dir>/current whose leading number is not
recorded in the status registry. Files not named like a render are left
alone.

Refuses to run against an empty registry, which would delete every render.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvict(rootOpts, cmd)
		},
	}
}

func runEvict(opts *RootOptions, cmd *cobra.Command) error {
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

	dir := cache.Tiers{Root: cfg.Store.Dir}.Current()
	evicted, err := cache.Evict(dir, reg.Numbers())
	if err != nil {
		return withCode(ErrCodeStore, WrapExitError(ExitFailure, "eviction failed", err))
	}
	for _, name := range evicted {
		opts.logger().Info("evicted stale artifact", "path", name)
	}

	return outputNames(opts, cmd, "Evicted", evicted)
}
