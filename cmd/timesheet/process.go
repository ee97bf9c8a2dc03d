package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"timesheet-ai/internal/app"
	"timesheet-ai/internal/batch"
	"timesheet-ai/internal/config"
	"timesheet-ai/internal/llm"
	"timesheet-ai/internal/service"
)

func newProcessCmd(root *rootOptions) *cobra.Command {
	opts := &inputOptions{}
	var offline bool

	cmd := &cobra.Command{
		Use:   "process FILE",
		Short: "Rewrite a timesheet with the language model",
		Long: `Split long entries, then send the table to the configured language model
in chunks of ten rows to rewrite the descriptions as concrete activities.

When the model cannot be reached or returns unusable output the locally
split table is written instead and the reason is printed. With --offline,
or LLM_PROVIDER=offline, no model is used and work-day gaps are filled
locally when --fill-gaps is on.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if offline {
				cfg.LLMProvider = llm.ProviderOffline
			}
			setupLogging(cmd, cfg, root)

			table, settings, err := opts.load(cmd, args[0], cfg.Settings)
			if err != nil {
				return err
			}

			backend, err := app.NewBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = backend.Close()
			}()

			stderr := cmd.ErrOrStderr()
			report, err := backend.Processor.Process(cmd.Context(), table, settings, func(p batch.Progress) {
				printProgress(stderr, p)
			})
			if err != nil {
				return err
			}

			if err := writeTable(cmd, opts.output, report.Table, true); err != nil {
				return err
			}
			printReport(stderr, report)
			return nil
		},
	}

	opts.register(cmd, true)
	cmd.Flags().BoolVar(&offline, "offline", false, "Do not contact a model, split and fill gaps locally")
	return cmd
}

func printProgress(w io.Writer, p batch.Progress) {
	if p.Error != "" {
		_, _ = fmt.Fprintf(w, "chunk %d/%d: %d/%d rows (failed: %s)\n", p.Chunk, p.Chunks, p.RowsProcessed, p.RowsTotal, p.Error)
		return
	}
	_, _ = fmt.Fprintf(w, "chunk %d/%d: %d/%d rows\n", p.Chunk, p.Chunks, p.RowsProcessed, p.RowsTotal)
}

func printReport(w io.Writer, report service.Report) {
	s := report.Stats
	_, _ = fmt.Fprintf(w, "%s: %d %s in, %d out (%d split, %d generated, %d dropped)\n",
		report.Mode, s.InputRows, pluralize("row", s.InputRows), s.OutputRows,
		s.SplitRows, s.GeneratedRows, s.DroppedRows)
	_, _ = fmt.Fprintf(w, "minutes: %d before, %d after\n", s.MinutesBefore, s.MinutesAfter)
	if s.FailedChunks > 0 {
		_, _ = fmt.Fprintf(w, "%d %s failed and kept their split rows\n", s.FailedChunks, pluralize("chunk", s.FailedChunks))
	}
	if report.FellBack {
		_, _ = fmt.Fprintf(w, "model unavailable, wrote the locally split table: %s\n", report.Error)
	}
}
