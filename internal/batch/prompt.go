package batch

import (
	"fmt"
	"strings"

	"timesheet-ai/internal/llm"
	"timesheet-ai/internal/tabular"
	"timesheet-ai/internal/timesheet"
)

const maxHints = 5

const systemPrompt = `You edit timesheets. You receive a block of time-tracking rows as CSV and return the edited block as CSV.

Respond with a single CSV table only, inside one ` + "```csv" + ` code block. No explanation.
Keep every input column in the same order, including the flag columns is_generated, is_split and original_entry (values true or false).
Keep existing rows, their order and their flags. Never change the time of an existing row unless you split it.`

// BuildMessages returns the chat messages for one chunk.
func BuildMessages(chunk Chunk, settings timesheet.Settings, hints []string) ([]llm.Message, error) {
	user, err := BuildPrompt(chunk, settings, hints)
	if err != nil {
		return nil, err
	}
	return []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: user},
	}, nil
}

// BuildPrompt renders the instruction for one chunk: the run settings, the
// chunk's time envelope, the rules and the rows as CSV.
func BuildPrompt(chunk Chunk, settings timesheet.Settings, hints []string) (string, error) {
	data, err := tabular.FormatTable(chunk.Table, true)
	if err != nil {
		return "", fmt.Errorf("failed to serialize chunk %d: %w", chunk.Index, err)
	}

	var b strings.Builder

	b.WriteString("## Settings\n")
	fmt.Fprintf(&b, "- Maximum block length: %d minutes\n", settings.MaxChunkMinutes)
	fmt.Fprintf(&b, "- Minimum words to split: %d\n", settings.MinWordsSplit)
	fmt.Fprintf(&b, "- Ignore meetings: %t\n", settings.IgnoreMeetings)
	fmt.Fprintf(&b, "- Fill gaps: %t\n", settings.FillGaps)
	fmt.Fprintf(&b, "- Work day: %s-%s\n", settings.WorkStart, settings.WorkEnd)

	b.WriteString("\n## Time range\n")
	if chunk.Envelope.Valid {
		fmt.Fprintf(&b, "Earliest time: %s\nLatest time: %s\n",
			timesheet.FormatClock(chunk.Envelope.Min), timesheet.FormatClock(chunk.Envelope.Max))
	} else {
		b.WriteString("Unknown. Do not add rows before the first or after the last row.\n")
	}
	if len(chunk.TimeColumns) > 0 {
		fmt.Fprintf(&b, "Time columns: %s\n", strings.Join(chunk.TimeColumns, ", "))
	}

	b.WriteString("\n## Rules\n")
	if chunk.Envelope.Valid {
		fmt.Fprintf(&b, "1. Never return a row with a time before %s or after %s.\n",
			timesheet.FormatClock(chunk.Envelope.Min), timesheet.FormatClock(chunk.Envelope.Max))
	} else {
		b.WriteString("1. Never return a row outside the time range of the input rows.\n")
	}
	if settings.FillGaps {
		b.WriteString("2. Where there is unrecorded time between two rows, add a new row covering it with a plausible activity for the same project and task. Set is_generated=true on it.\n")
	} else {
		b.WriteString("2. Do not add new rows.\n")
	}
	fmt.Fprintf(&b, "3. A row whose description has more than %d words and lasts longer than %d minutes must be split into consecutive rows of at most %d minutes, dividing the description between them. Set is_split=true on each part and original_entry=true on the first part only.\n",
		settings.MinWordsSplit, settings.MaxChunkMinutes, settings.MaxChunkMinutes)
	if settings.IgnoreMeetings {
		fmt.Fprintf(&b, "4. Never split a row whose description contains the word %q.\n", timesheet.MeetingKeyword)
	} else {
		b.WriteString("4. Meetings are split like any other row.\n")
	}
	b.WriteString("5. Return the same CSV columns as the input. Rows already marked is_split=true were split before and keep their flags.\n")

	if len(hints) > 0 {
		b.WriteString("\n## Past activities\n")
		b.WriteString("Prefer wording similar to these earlier entries when inventing activities:\n")
		for _, h := range hints[:min(len(hints), maxHints)] {
			fmt.Fprintf(&b, "- %s\n", h)
		}
	}

	b.WriteString("\n## Rows\n```csv\n")
	b.WriteString(data)
	b.WriteString("```\n")

	return b.String(), nil
}
