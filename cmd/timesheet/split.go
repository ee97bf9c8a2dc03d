package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"timesheet-ai/internal/config"
	"timesheet-ai/internal/timesheet"
)

func newSplitCmd(root *rootOptions) *cobra.Command {
	opts := &inputOptions{}

	cmd := &cobra.Command{
		Use:   "split FILE",
		Short: "Split long entries locally",
		Long: `Split every entry longer than --max-minutes into equal parts, dividing
its description by words. No model is contacted. Use --fill-gaps to also
add filler entries for uncovered time of the work day.`,
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

			result := timesheet.SplitTable(table, settings)
			if settings.FillGaps {
				result = timesheet.FillGaps(result, settings)
			}

			if err := writeTable(cmd, opts.output, result, true); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%d %s in, %d out (%d min before, %d min after)\n",
				table.Len(), pluralize("row", table.Len()), result.Len(),
				table.TotalMinutes(), result.TotalMinutes())
			return nil
		},
	}

	opts.register(cmd, true)
	return cmd
}
