package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/slider/internal/cache"
	"github.com/roach88/slider/internal/deck"
	"github.com/roach88/slider/internal/numbering"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	RepairMissing bool
}

// PlanResult is what a run would do with a presentation.
type PlanResult struct {
	Presentation string              `json:"presentation"`
	Title        string              `json:"title"`
	Decisions    []cache.Decision    `json:"decisions"`
	Anomalies    []numbering.Anomaly `json:"anomalies,omitempty"`
	Summary      map[string]int      `json:"summary"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <presentation.json>",
		Short: "Show what a run would do, offline",
		Long: `Number a presentation read from a JSON file (as returned by the
presentations.get API call) and compare it with the status registry and
the current/ and new/ directories of the store.

Nothing is fetched, written or deleted.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.RepairMissing, "repair-missing", false, "plan re-exports for unchanged slides whose PNG is missing")

	return cmd
}

func runPlan(opts *PlanOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(cmd, opts.RootOptions, changed(cmd, map[string]func() any{
		"repair-missing": func() any { return opts.RepairMissing },
	}))
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return withCode(ErrCodeInvalidConfig, WrapExitError(ExitCommandError, "failed to read presentation", err))
	}
	pres, seq, err := deck.Load(data)
	if err != nil {
		return WrapExitError(ExitCommandError, path, err)
	}
	formatter.VerboseLog("Loaded %d slide(s) from %s", seq.Len(), path)

	numbering.Assign(seq)

	prior, err := readRegistry(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	tiers := cache.Tiers{Root: cfg.Store.Dir}
	var inv cache.Inventory
	if inv.Current, err = cache.List(tiers.Current()); err != nil {
		return withCode(ErrCodeStore, WrapExitError(ExitFailure, "failed to list current artifacts", err))
	}
	if inv.New, err = cache.List(tiers.New()); err != nil {
		return withCode(ErrCodeStore, WrapExitError(ExitFailure, "failed to list new artifacts", err))
	}
	formatter.VerboseLog("Registry has %d entr(ies), current/ has %d file(s), new/ has %d file(s)",
		len(prior), len(inv.Current), len(inv.New))

	result := PlanResult{
		Presentation: pres.ID,
		Title:        pres.Title,
		Decisions:    cache.Plan(seq, prior, inv, cache.PlanOptions{RepairMissing: cfg.Fetch.RepairMissing}),
		Anomalies:    numbering.Check(seq),
		Summary:      make(map[string]int),
	}
	for action, n := range cache.Summary(result.Decisions) {
		result.Summary[string(action)] = n
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "Plan for %s (%q): %d slide(s)\n\n", result.Presentation, result.Title, len(result.Decisions))
	for _, d := range result.Decisions {
		line := fmt.Sprintf("  %-7s %-24s %s", d.Action, d.ID, d.Name)
		switch d.Action {
		case cache.Move:
			line += " <- " + d.Tier + "/" + d.Source
		case cache.Keep:
			line += " (" + d.Tier + "/)"
		case cache.Fetch:
			line += " (" + d.Reason + ")"
		case cache.Missing:
			line += " (no artifact)"
		}
		fmt.Fprintln(formatter.Writer, line)
	}
	for _, a := range result.Anomalies {
		fmt.Fprintf(formatter.Writer, "  warning: %s\n", a)
	}
	fmt.Fprintf(formatter.Writer, "\nkeep %d, move %d, fetch %d, missing %d\n",
		result.Summary[string(cache.Keep)], result.Summary[string(cache.Move)],
		result.Summary[string(cache.Fetch)], result.Summary[string(cache.Missing)])
	return nil
}
