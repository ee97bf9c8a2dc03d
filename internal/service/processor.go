package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_orchestrator.go -package=mocks timesheet-ai/internal/service Orchestrator
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_activity_memory.go -package=mocks timesheet-ai/internal/service ActivityMemory

import (
	"context"

	"timesheet-ai/internal/batch"
	"timesheet-ai/internal/contextutil"
	"timesheet-ai/internal/timesheet"
)

// Orchestrator runs a table through a language model.
// This interface is defined from the service layer's perspective (consumer-first).
type Orchestrator interface {
	Run(ctx context.Context, table timesheet.Table, settings timesheet.Settings, progress func(batch.Progress)) batch.Result
}

// ActivityMemory remembers the descriptions of processed entries.
type ActivityMemory interface {
	Remember(ctx context.Context, table timesheet.Table) (int, error)
}

// Processing modes.
const (
	ModeAI      = "ai"
	ModeOffline = "offline"
)

// Stats summarizes what a run changed.
type Stats struct {
	InputRows     int `json:"input_rows"`
	OutputRows    int `json:"output_rows"`
	SplitRows     int `json:"split_rows"`
	GeneratedRows int `json:"generated_rows"`
	DroppedRows   int `json:"dropped_rows"`
	FailedChunks  int `json:"failed_chunks"`
	MinutesBefore int `json:"minutes_before"`
	MinutesAfter  int `json:"minutes_after"`
}

// Report is the outcome of processing one table.
type Report struct {
	Mode     string              `json:"mode"`
	Table    timesheet.Table     `json:"table"`
	Stats    Stats               `json:"stats"`
	Chunks   []batch.ChunkResult `json:"chunks,omitempty"`
	FellBack bool                `json:"fell_back"`
	Error    string              `json:"error,omitempty"`
}

// Processor splits long entries locally and then either runs the table
// through the orchestrator or, without one, fills work-day gaps offline.
type Processor struct {
	orchestrator Orchestrator
	memory       ActivityMemory
}

// NewProcessor creates a processor. A nil orchestrator selects offline mode;
// memory may be nil.
func NewProcessor(orchestrator Orchestrator, memory ActivityMemory) *Processor {
	return &Processor{
		orchestrator: orchestrator,
		memory:       memory,
	}
}

// Mode reports which backend the processor uses.
func (p *Processor) Mode() string {
	if p.orchestrator == nil {
		return ModeOffline
	}
	return ModeAI
}

// Process validates the settings and the table shape, then runs the table.
// Model failures never fail the call: they are recorded on the report and
// the affected rows keep their local result.
func (p *Processor) Process(ctx context.Context, table timesheet.Table, settings timesheet.Settings, progress func(batch.Progress)) (Report, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if err := settings.Validate(); err != nil {
		logger.WarnContext(ctx, "invalid settings", "error", err)
		return Report{}, asValidation(err)
	}
	for _, field := range timesheet.RequiredFields {
		if !table.HasColumn(field) {
			return Report{}, &ValidationError{Field: field, Message: "column is required"}
		}
	}

	split := timesheet.SplitTable(table, settings)
	report := Report{Mode: p.Mode()}

	if p.orchestrator != nil {
		res := p.orchestrator.Run(ctx, split, settings, progress)
		report.Table = res.Table
		report.Chunks = res.Chunks
		report.FellBack = res.FellBack
		report.Error = res.Error
		report.Stats.DroppedRows = res.Dropped
		for _, c := range res.Chunks {
			if c.Error != "" {
				report.Stats.FailedChunks++
			}
		}
	} else {
		report.Table = split
		if settings.FillGaps {
			report.Table = timesheet.FillGaps(split, settings)
		}
		if progress != nil {
			progress(batch.Progress{Chunk: 1, Chunks: 1, RowsProcessed: table.Len(), RowsTotal: table.Len()})
		}
	}

	report.Stats.InputRows = table.Len()
	report.Stats.OutputRows = report.Table.Len()
	report.Stats.MinutesBefore = table.TotalMinutes()
	report.Stats.MinutesAfter = report.Table.TotalMinutes()
	for _, e := range report.Table.Entries {
		if e.IsSplit {
			report.Stats.SplitRows++
		}
		if e.IsGenerated {
			report.Stats.GeneratedRows++
		}
	}

	logger.InfoContext(ctx, "table processed",
		"mode", report.Mode,
		"input_rows", report.Stats.InputRows,
		"output_rows", report.Stats.OutputRows,
		"split_rows", report.Stats.SplitRows,
		"generated_rows", report.Stats.GeneratedRows,
		"dropped_rows", report.Stats.DroppedRows,
		"fell_back", report.FellBack,
	)

	if p.memory != nil && !report.FellBack {
		if _, err := p.memory.Remember(ctx, report.Table); err != nil {
			logger.WarnContext(ctx, "failed to update activity memory", "error", err)
		}
	}

	return report, nil
}
