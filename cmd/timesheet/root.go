package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"timesheet-ai/internal/config"
	"timesheet-ai/internal/tabular"
	"timesheet-ai/internal/timesheet"
)

type rootOptions struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "timesheet",
		Short: "Split and normalize timesheet exports",
		Long: `Split long timesheet entries into short activities and fill the gaps
of the work day, locally or with the help of a language model.

Input files may be CSV or XLSX, optionally compressed with gzip (.gz) or
zstd (.zst). Use "-" to read CSV from standard input.

Configuration is read from the environment and from a .env file; see
LLM_PROVIDER, LLM_BASE_URL, LLM_MODEL and the processing defaults such as
MAX_CHUNK_MINUTES and WORK_START.

Examples:
  timesheet columns export.xlsx
  timesheet split export.csv --map description=Popis,time_start=Od,time_end=Do
  timesheet process export.csv --profile ~/.timesheet/acme.toml -o out.csv.gz
  timesheet gaps export.csv --profile acme.toml --work-start 08:00`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging on stderr")

	cmd.AddCommand(
		newColumnsCmd(),
		newSplitCmd(opts),
		newProcessCmd(opts),
		newGapsCmd(opts),
		newPingCmd(opts),
	)
	return cmd
}

// setupLogging sends structured logs to the command's stderr so they never
// mix with CSV written to stdout.
func setupLogging(cmd *cobra.Command, cfg *config.Config, opts *rootOptions) {
	level := cfg.LogLevel
	if opts.verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), handlerOpts)
	} else {
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
}

// inputOptions are the flags shared by every command that maps a file.
type inputOptions struct {
	mapping  string
	profile  string
	output   string
	settings settingsFlags
}

func (o *inputOptions) register(cmd *cobra.Command, withOutput bool) {
	cmd.Flags().StringVarP(&o.mapping, "map", "m", "", "Column mapping as field=Column pairs, e.g. description=Popis,time_start=Od")
	cmd.Flags().StringVarP(&o.profile, "profile", "p", "", "TOML profile with a [mapping] and [settings] section")
	if withOutput {
		cmd.Flags().StringVarP(&o.output, "output", "o", "", "Write CSV to this file instead of stdout (.gz and .zst compress)")
	}
	o.settings.register(cmd.Flags())
}

// load reads path and maps it onto the timesheet schema. Settings are
// layered: environment defaults, then the profile, then explicit flags.
// Mapping pairs from --map override the profile's pairs.
func (o *inputOptions) load(cmd *cobra.Command, path string, defaults timesheet.Settings) (timesheet.Table, timesheet.Settings, error) {
	settings := defaults
	mapping := timesheet.Mapping{}

	if o.profile != "" {
		profile, err := config.LoadProfile(o.profile, defaults)
		if err != nil {
			return timesheet.Table{}, settings, err
		}
		settings = profile.Settings
		for field, column := range profile.Mapping {
			mapping[field] = column
		}
	}
	if o.mapping != "" {
		m, err := timesheet.ParseMapping(o.mapping)
		if err != nil {
			return timesheet.Table{}, settings, err
		}
		for field, column := range m {
			mapping[field] = column
		}
	}

	o.settings.apply(cmd.Flags(), &settings)
	if err := settings.Validate(); err != nil {
		return timesheet.Table{}, settings, err
	}

	sheet, err := readSheet(cmd, path)
	if err != nil {
		return timesheet.Table{}, settings, err
	}
	if len(mapping) == 0 {
		return timesheet.Table{}, settings, fmt.Errorf("no column mapping: use --map or --profile (columns: %s)", strings.Join(sheet.Header, ", "))
	}

	table, err := timesheet.ApplyMapping(sheet.Header, sheet.Rows, mapping)
	if err != nil {
		return timesheet.Table{}, settings, fmt.Errorf("invalid mapping: %w", err)
	}
	slog.Debug("Table loaded", "path", path, "rows", table.Len(), "columns", table.Columns)
	return table, settings, nil
}

// readSheet reads a file, or CSV from stdin when path is "-".
func readSheet(cmd *cobra.Command, path string) (*tabular.Sheet, error) {
	if path == "-" {
		return tabular.Read("stdin.csv", cmd.InOrStdin())
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheet, err := tabular.Read(filepath.Base(path), f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sheet, nil
}

// writeTable writes the table to the --output file, or stdout when unset.
func writeTable(cmd *cobra.Command, output string, table timesheet.Table, withFlags bool) error {
	if output == "" || output == "-" {
		return tabular.WriteTable(cmd.OutOrStdout(), table, withFlags)
	}

	w, err := tabular.Create(output)
	if err != nil {
		return err
	}
	if err := tabular.WriteTable(w, table, withFlags); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rows to %s\n", table.Len(), output)
	return nil
}

// settingsFlags override processing settings only when given explicitly.
type settingsFlags struct {
	maxChunkMinutes int
	minWordsSplit   int
	ignoreMeetings  bool
	fillGaps        bool
	workStart       string
	workEnd         string
	creativity      float64
}

func (s *settingsFlags) register(fs *pflag.FlagSet) {
	d := timesheet.DefaultSettings()
	fs.IntVar(&s.maxChunkMinutes, "max-minutes", d.MaxChunkMinutes, "Longest activity after splitting, in minutes")
	fs.IntVar(&s.minWordsSplit, "min-words", d.MinWordsSplit, "Descriptions with fewer words are never split")
	fs.BoolVar(&s.ignoreMeetings, "ignore-meetings", d.IgnoreMeetings, "Keep meetings as one entry")
	fs.BoolVar(&s.fillGaps, "fill-gaps", d.FillGaps, "Fill uncovered time of the work day")
	fs.StringVar(&s.workStart, "work-start", d.WorkStart, "Start of the work day (HH:MM)")
	fs.StringVar(&s.workEnd, "work-end", d.WorkEnd, "End of the work day (HH:MM)")
	fs.Float64Var(&s.creativity, "creativity", d.Creativity, "Model temperature between 0 and 1")
}

func (s *settingsFlags) apply(fs *pflag.FlagSet, settings *timesheet.Settings) {
	if fs.Changed("max-minutes") {
		settings.MaxChunkMinutes = s.maxChunkMinutes
	}
	if fs.Changed("min-words") {
		settings.MinWordsSplit = s.minWordsSplit
	}
	if fs.Changed("ignore-meetings") {
		settings.IgnoreMeetings = s.ignoreMeetings
	}
	if fs.Changed("fill-gaps") {
		settings.FillGaps = s.fillGaps
	}
	if fs.Changed("work-start") {
		settings.WorkStart = s.workStart
	}
	if fs.Changed("work-end") {
		settings.WorkEnd = s.workEnd
	}
	if fs.Changed("creativity") {
		settings.Creativity = s.creativity
	}
}

func pluralize(word string, count int) string {
	if count == 1 {
		return word
	}
	return word + "s"
}
