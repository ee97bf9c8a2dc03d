package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"timesheet-ai/internal/app"
	"timesheet-ai/internal/config"
)

const pingPrompt = "Reply with the single word OK."

func newPingCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the model and activity memory connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			setupLogging(cmd, cfg, root)

			backend, err := app.NewBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = backend.Close()
			}()

			out := cmd.OutOrStdout()
			if backend.Client == nil {
				_, _ = fmt.Fprintln(out, "model: offline mode, no model configured")
			} else {
				reply, err := backend.Client.Chat(cmd.Context(), pingPrompt)
				if err != nil {
					return fmt.Errorf("model %s at %s: %w", cfg.LLMModelName, cfg.LLMBaseURL, err)
				}
				_, _ = fmt.Fprintf(out, "model: %s replied %q\n", cfg.LLMModelName, strings.TrimSpace(reply))
			}

			if backend.Store == nil {
				_, _ = fmt.Fprintln(out, "memory: disabled")
				return nil
			}
			info, err := backend.Store.GetCollectionInfo(cmd.Context(), cfg.QdrantCollection)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "memory: %s has %d activities (%s, %d dimensions)\n",
				cfg.QdrantCollection, info.PointsCount, info.Status, info.VectorSize)
			return nil
		},
	}
}
