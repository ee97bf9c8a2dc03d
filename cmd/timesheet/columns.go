package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"timesheet-ai/internal/timesheet"
)

func newColumnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "columns FILE",
		Short: "List the columns of a file",
		Long: `List the source columns of a file together with a sample value, to help
write a --map flag or a profile.

The target fields are: ` + strings.Join(timesheet.SchemaFields, ", ") + `.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, err := readSheet(cmd, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, column := range sheet.Header {
				sample := ""
				if len(sheet.Rows) > 0 && i < len(sheet.Rows[0]) {
					sample = sheet.Rows[0][i]
				}
				_, _ = fmt.Fprintf(out, "%2d  %-24s %s\n", i+1, column, sample)
			}
			_, _ = fmt.Fprintf(out, "%d %s\n", len(sheet.Rows), pluralize("row", len(sheet.Rows)))
			return nil
		},
	}
}
