package batch

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_completer.go -package=mocks timesheet-ai/internal/batch Completer
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_hint_provider.go -package=mocks timesheet-ai/internal/batch HintProvider

import (
	"context"
	"fmt"
	"strings"

	"timesheet-ai/internal/contextutil"
	"timesheet-ai/internal/llm"
	"timesheet-ai/internal/timesheet"
)

// Completer sends a conversation to a language model and returns its reply.
// Implementations bound each call with their own timeout.
type Completer interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
}

// HintProvider returns descriptions of past activities similar to text.
type HintProvider interface {
	Similar(ctx context.Context, text string, k int) ([]string, error)
}

// Progress is reported after every chunk.
type Progress struct {
	Chunk         int    `json:"chunk"`
	Chunks        int    `json:"chunks"`
	RowsProcessed int    `json:"rows_processed"`
	RowsTotal     int    `json:"rows_total"`
	Error         string `json:"error,omitempty"`
}

// ChunkResult records what happened to one chunk.
type ChunkResult struct {
	Index    int      `json:"index"`
	Offset   int      `json:"offset"`
	Rows     int      `json:"rows"`
	Envelope Envelope `json:"envelope"`
	Prompt   string   `json:"prompt"`
	Response string   `json:"response"`
	// Error is set when the chunk could not be completed; its original rows
	// were kept.
	Error   string `json:"error,omitempty"`
	Kept    int    `json:"kept"`
	Dropped int    `json:"dropped"`
}

// Result is the outcome of a batch run. Table is always usable: on a
// whole-batch failure it is the input table and FellBack is set.
type Result struct {
	Table    timesheet.Table `json:"table"`
	Chunks   []ChunkResult   `json:"chunks"`
	FellBack bool            `json:"fell_back"`
	Error    string          `json:"error,omitempty"`
	Dropped  int             `json:"dropped"`
}

// Orchestrator runs a table through the language model chunk by chunk.
type Orchestrator struct {
	completer Completer
	hints     HintProvider
	model     string
	// ChunkSize is the number of rows per request.
	ChunkSize int
}

// NewOrchestrator creates an orchestrator. hints may be nil; model may be
// empty to use the completer's default.
func NewOrchestrator(completer Completer, hints HintProvider, model string) *Orchestrator {
	return &Orchestrator{
		completer: completer,
		hints:     hints,
		model:     model,
		ChunkSize: DefaultChunkSize,
	}
}

// Run processes the table sequentially. A chunk whose request fails keeps
// its original rows and records the error. A reply that cannot be read as a
// table aborts the run and the input table is returned unchanged. Rows
// returned outside their chunk's time envelope are dropped. Chunks not sent
// before ctx is cancelled keep their original rows.
func (o *Orchestrator) Run(ctx context.Context, table timesheet.Table, settings timesheet.Settings, progress func(Progress)) Result {
	logger := contextutil.LoggerFromContext(ctx)

	chunks := Partition(table, o.ChunkSize)
	logger.InfoContext(ctx, "batch run started", "rows", table.Len(), "chunks", len(chunks), "model", o.model)

	result := Result{
		Chunks: make([]ChunkResult, 0, len(chunks)),
	}
	entries := make([]timesheet.Entry, 0, table.Len())

	fallback := func(err error) Result {
		logger.WarnContext(ctx, "batch run fell back to input table", "error", err)
		result.Table = table
		result.FellBack = true
		result.Error = err.Error()
		result.Dropped = 0
		return result
	}

	params := llm.ChatParams{
		Model:       o.model,
		Temperature: float32(settings.Creativity),
	}

	for _, chunk := range chunks {
		cr := ChunkResult{
			Index:    chunk.Index,
			Offset:   chunk.Offset,
			Rows:     chunk.Table.Len(),
			Envelope: chunk.Envelope,
		}

		if err := ctx.Err(); err != nil {
			cr.Error = err.Error()
			entries = append(entries, chunk.Table.Clone().Entries...)
			cr.Kept = chunk.Table.Len()
			result.Chunks = append(result.Chunks, cr)
			report(progress, chunk, len(chunks), table.Len(), cr.Error)
			continue
		}

		messages, err := BuildMessages(chunk, settings, o.lookupHints(ctx, chunk))
		if err != nil {
			return fallback(err)
		}
		cr.Prompt = messages[len(messages)-1].Content

		reply, err := o.completer.ChatWithMessages(ctx, messages, params)
		if err != nil {
			logger.ErrorContext(ctx, "chunk completion failed", "chunk", chunk.Index, "error", err)
			cr.Error = fmt.Sprintf("chunk %d: %v", chunk.Index+1, err)
			entries = append(entries, chunk.Table.Clone().Entries...)
			cr.Kept = chunk.Table.Len()
			result.Chunks = append(result.Chunks, cr)
			report(progress, chunk, len(chunks), table.Len(), cr.Error)
			continue
		}
		cr.Response = reply

		parsed, err := ParseResponse(reply, table.Columns)
		if err != nil {
			result.Chunks = append(result.Chunks, cr)
			return fallback(fmt.Errorf("chunk %d: %w", chunk.Index+1, err))
		}

		restoreFlags(parsed.Entries, chunk.Table)
		kept, dropped := filterEnvelope(parsed.Entries, chunk)
		entries = append(entries, kept...)
		cr.Kept = len(kept)
		cr.Dropped = dropped
		result.Dropped += dropped
		result.Chunks = append(result.Chunks, cr)

		logger.InfoContext(ctx, "chunk processed",
			"chunk", chunk.Index,
			"rows_in", chunk.Table.Len(),
			"rows_out", len(kept),
			"dropped", dropped,
		)
		report(progress, chunk, len(chunks), table.Len(), "")
	}

	result.Table = timesheet.Table{
		Columns: table.Columns,
		Entries: entries,
	}

	logger.InfoContext(ctx, "batch run completed", "rows_in", table.Len(), "rows_out", len(entries), "dropped", result.Dropped)
	return result
}

func (o *Orchestrator) lookupHints(ctx context.Context, chunk Chunk) []string {
	if o.hints == nil {
		return nil
	}

	var descriptions []string
	for _, e := range chunk.Table.Entries {
		if d := strings.TrimSpace(e.Description()); d != "" {
			descriptions = append(descriptions, d)
		}
	}
	if len(descriptions) == 0 {
		return nil
	}

	hints, err := o.hints.Similar(ctx, strings.Join(descriptions, "\n"), maxHints)
	if err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "activity hints unavailable", "chunk", chunk.Index, "error", err)
		return nil
	}
	return hints
}

// restoreFlags carries the flags of input rows over to returned rows with
// the same description and times. Models often reset or omit the flag
// columns of rows they did not touch.
func restoreFlags(entries []timesheet.Entry, input timesheet.Table) {
	type key struct{ description, start, end string }
	keyOf := func(e timesheet.Entry) key {
		return key{
			description: strings.TrimSpace(e.Description()),
			start:       timesheet.NormalizeClock(e.Get(timesheet.FieldStart)),
			end:         timesheet.NormalizeClock(e.Get(timesheet.FieldEnd)),
		}
	}

	byKey := make(map[key]timesheet.Entry, input.Len())
	for _, e := range input.Entries {
		byKey[keyOf(e)] = e
	}
	for i := range entries {
		in, ok := byKey[keyOf(entries[i])]
		if !ok {
			continue
		}
		entries[i].IsSplit = entries[i].IsSplit || in.IsSplit
		entries[i].OriginalEntry = entries[i].OriginalEntry || in.OriginalEntry
		entries[i].IsGenerated = entries[i].IsGenerated || in.IsGenerated
	}
}

// filterEnvelope drops entries whose value in any time column parses to a
// clock time outside the chunk envelope. Unreadable values are kept.
func filterEnvelope(entries []timesheet.Entry, chunk Chunk) ([]timesheet.Entry, int) {
	if !chunk.Envelope.Valid || len(chunk.TimeColumns) == 0 {
		return entries, 0
	}

	kept := make([]timesheet.Entry, 0, len(entries))
	dropped := 0
	for _, e := range entries {
		inside := true
		for _, c := range chunk.TimeColumns {
			m, ok := parseTime(e.Get(c))
			if ok && !chunk.Envelope.Contains(m) {
				inside = false
				break
			}
		}
		if !inside {
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	return kept, dropped
}

func report(progress func(Progress), chunk Chunk, chunks, total int, errMsg string) {
	if progress == nil {
		return
	}
	progress(Progress{
		Chunk:         chunk.Index + 1,
		Chunks:        chunks,
		RowsProcessed: chunk.Offset + chunk.Table.Len(),
		RowsTotal:     total,
		Error:         errMsg,
	})
}
