package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"timesheet-ai/internal/config"
	"timesheet-ai/internal/timesheet"
)

func newGapsCmd(root *rootOptions) *cobra.Command {
	opts := &inputOptions{}

	cmd := &cobra.Command{
		Use:   "gaps FILE",
		Short: "Show uncovered time of the work day",
		Long: `List the stretches between --work-start and --work-end that no entry
covers, with the filler activity --fill-gaps would insert for each.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			setupLogging(cmd, cfg, root)

			table, settings, err := opts.load(cmd, args[0], cfg.Settings)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			gaps := timesheet.FindGaps(table, settings.WorkStart, settings.WorkEnd)
			if len(gaps) == 0 {
				_, _ = fmt.Fprintf(out, "No gaps between %s and %s\n", settings.WorkStart, settings.WorkEnd)
				return nil
			}

			total := 0
			for i, g := range gaps {
				total += g.Minutes
				_, _ = fmt.Fprintf(out, "%s-%s  %4d min  %s\n", g.Start, g.End, g.Minutes, timesheet.SuggestActivity(g.Minutes, i))
			}
			_, _ = fmt.Fprintf(out, "%d %s, %d min uncovered\n", len(gaps), pluralize("gap", len(gaps)), total)
			return nil
		},
	}

	opts.register(cmd, false)
	return cmd
}
