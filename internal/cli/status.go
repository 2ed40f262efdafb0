package cli

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/slider/internal/cache"
	"github.com/roach88/slider/internal/registry"
)

// StatusEntry is one registry entry in output order.
type StatusEntry struct {
	ID     string `json:"id"`
	Number int64  `json:"number"`
	Hash   string `json:"hash"`
}

// StatusResult is the registry as printed by the status command.
type StatusResult struct {
	Entries []StatusEntry `json:"entries"`

	// Runs counts saved runs when the backend keeps a history.
	Runs int `json:"runs,omitempty"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Print the status registry of the last run",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(rootOpts, cmd)
		},
	}
}

func runStatus(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd, opts, nil)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	result := StatusResult{Entries: []StatusEntry{}}
	err = withRegistry(cfg, func(store registry.Store) error {
		reg, err := store.Load(ctx)
		if err != nil {
			return withCode(ErrCodeStore, WrapExitError(ExitFailure, "failed to load registry", err))
		}
		for id, e := range reg {
			result.Entries = append(result.Entries, StatusEntry{ID: id, Number: e.Number, Hash: e.Hash})
		}
		if h, ok := store.(registry.History); ok {
			if result.Runs, err = h.Runs(ctx); err != nil {
				return withCode(ErrCodeStore, WrapExitError(ExitFailure, "failed to read run history", err))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	slices.SortFunc(result.Entries, func(a, b StatusEntry) int {
		return cmp.Or(cmp.Compare(a.Number, b.Number), cmp.Compare(a.ID, b.ID))
	})

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	if len(result.Entries) == 0 {
		fmt.Fprintf(formatter.Writer, "No registry in %s\n", cfg.Store.Dir)
		return nil
	}
	for _, e := range result.Entries {
		hash := e.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		fmt.Fprintf(formatter.Writer, "%s  %-24s %s\n", cache.Name(e.Number, ""), e.ID, hash)
	}
	if result.Runs > 0 {
		fmt.Fprintf(formatter.Writer, "\n%d run(s) recorded\n", result.Runs)
	}
	return nil
}
