package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_session_service.go -package=mocks -mock_names=SessionService=MockSessionService timesheet-ai/internal/service SessionService

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"timesheet-ai/internal/batch"
	"timesheet-ai/internal/contextutil"
	"timesheet-ai/internal/storage"
	"timesheet-ai/internal/tabular"
	"timesheet-ai/internal/timesheet"
)

// previewRows is the number of raw rows returned with a session summary.
const previewRows = 5

// SessionSummary describes an upload and how far it has been processed.
type SessionSummary struct {
	ID        string              `json:"id"`
	Filename  string              `json:"filename"`
	Status    string              `json:"status"`
	Columns   []string            `json:"columns"`
	Rows      int                 `json:"rows"`
	Preview   [][]string          `json:"preview"`
	Mapping   timesheet.Mapping   `json:"mapping,omitempty"`
	Settings  *timesheet.Settings `json:"settings,omitempty"`
	Stats     *Stats              `json:"stats,omitempty"`
	FellBack  bool                `json:"fell_back,omitempty"`
	Error     string              `json:"error,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// ChunkLog is the prompt and reply of one chunk of the latest run.
type ChunkLog struct {
	Index    int    `json:"index"`
	Offset   int    `json:"offset"`
	Rows     int    `json:"rows"`
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
	Kept     int    `json:"kept"`
	Dropped  int    `json:"dropped"`
}

// SessionService drives an upload through mapping, processing and export.
type SessionService interface {
	// Create reads an uploaded file and stores it as a new session.
	Create(ctx context.Context, filename string, r io.Reader) (*SessionSummary, error)
	// Get returns the summary of a session.
	Get(ctx context.Context, id string) (*SessionSummary, error)
	// SetMapping validates a column mapping and stores the mapped table.
	SetMapping(ctx context.Context, id string, mapping timesheet.Mapping) (*SessionSummary, error)
	// Process runs the mapped table and stores the result and chunk logs.
	Process(ctx context.Context, id string, settings timesheet.Settings, progress func(batch.Progress)) (*Report, error)
	// Chunks returns the chunk logs of the latest run.
	Chunks(ctx context.Context, id string) ([]ChunkLog, error)
	// Export writes the processed table as CSV and returns a download name.
	Export(ctx context.Context, id string, w io.Writer) (string, error)
	// Cleanup removes sessions idle for longer than maxAge.
	Cleanup(ctx context.Context, maxAge time.Duration) (int64, error)
}

// sessionService implements SessionService.
type sessionService struct {
	sessions  storage.SessionStore
	chunkLogs storage.ChunkLogStore
	processor *Processor
	logger    *slog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(sessions storage.SessionStore, chunkLogs storage.ChunkLogStore, processor *Processor) SessionService {
	return &sessionService{
		sessions:  sessions,
		chunkLogs: chunkLogs,
		processor: processor,
		logger:    slog.Default(),
	}
}

func (s *sessionService) Create(ctx context.Context, filename string, r io.Reader) (*SessionSummary, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(filename) == "" {
		return nil, &ValidationError{Field: "file", Message: "file name is required"}
	}

	sheet, err := tabular.Read(filename, r)
	if err != nil {
		logger.WarnContext(ctx, "failed to read upload", "filename", filename, "error", err)
		return nil, err
	}

	data, err := json.Marshal(sheet)
	if err != nil {
		return nil, WrapError(err, "failed to encode sheet")
	}

	rec := &storage.SessionRecord{
		Filename: filepath.Base(filename),
		Sheet:    string(data),
	}
	if err := s.sessions.Create(ctx, rec); err != nil {
		logger.ErrorContext(ctx, "failed to create session", "error", err)
		return nil, WrapError(err, "failed to create session")
	}

	logger.InfoContext(ctx, "session created", "session_id", rec.ID, "columns", len(sheet.Header), "rows", len(sheet.Rows))
	return summarize(rec, sheet)
}

func (s *sessionService) Get(ctx context.Context, id string) (*SessionSummary, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	sheet, err := decodeSheet(rec)
	if err != nil {
		return nil, err
	}
	return summarize(rec, sheet)
}

func (s *sessionService) SetMapping(ctx context.Context, id string, mapping timesheet.Mapping) (*SessionSummary, error) {
	logger := contextutil.LoggerFromContext(ctx)

	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	sheet, err := decodeSheet(rec)
	if err != nil {
		return nil, err
	}

	table, err := timesheet.ApplyMapping(sheet.Header, sheet.Rows, mapping)
	if err != nil {
		logger.WarnContext(ctx, "invalid mapping", "session_id", id, "error", err)
		return nil, asValidation(err)
	}

	mappingJSON, err := json.Marshal(mapping)
	if err != nil {
		return nil, WrapError(err, "failed to encode mapping")
	}
	tableJSON, err := json.Marshal(table)
	if err != nil {
		return nil, WrapError(err, "failed to encode table")
	}

	rec.Mapping = string(mappingJSON)
	rec.Table = string(tableJSON)
	rec.Status = storage.StatusMapped
	// a new mapping invalidates the previous run
	rec.Result = ""
	rec.Settings = ""
	if err := s.sessions.Update(ctx, rec); err != nil {
		return nil, s.storeError(err, "failed to store mapping")
	}

	logger.InfoContext(ctx, "mapping stored", "session_id", id, "columns", len(table.Columns), "rows", table.Len())
	return summarize(rec, sheet)
}

func (s *sessionService) Process(ctx context.Context, id string, settings timesheet.Settings, progress func(batch.Progress)) (*Report, error) {
	logger := contextutil.LoggerFromContext(ctx)

	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Table == "" {
		return nil, fmt.Errorf("%w: column mapping has not been set", ErrNotReady)
	}

	var table timesheet.Table
	if err := json.Unmarshal([]byte(rec.Table), &table); err != nil {
		return nil, WrapError(err, "failed to decode mapped table")
	}

	report, err := s.processor.Process(ctx, table, settings, progress)
	if err != nil {
		return nil, err
	}

	logs := make([]storage.ChunkLogRecord, 0, len(report.Chunks))
	for _, c := range report.Chunks {
		logs = append(logs, storage.ChunkLogRecord{
			SessionID:  rec.ID,
			ChunkIndex: c.Index,
			RowOffset:  c.Offset,
			Rows:       c.Rows,
			Prompt:     c.Prompt,
			Response:   c.Response,
			Error:      c.Error,
			Kept:       c.Kept,
			Dropped:    c.Dropped,
		})
	}

	// chunk prompts and replies live in the chunk logs only
	stored := report
	stored.Chunks = nil
	resultJSON, err := json.Marshal(stored)
	if err != nil {
		return nil, WrapError(err, "failed to encode result")
	}
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return nil, WrapError(err, "failed to encode settings")
	}

	rec.Result = string(resultJSON)
	rec.Settings = string(settingsJSON)
	rec.Status = storage.StatusProcessed
	if err := s.sessions.Update(ctx, rec); err != nil {
		return nil, s.storeError(err, "failed to store result")
	}
	if err := s.chunkLogs.Replace(ctx, rec.ID, logs); err != nil {
		logger.ErrorContext(ctx, "failed to store chunk logs", "session_id", id, "error", err)
		return nil, WrapError(err, "failed to store chunk logs")
	}

	return &report, nil
}

func (s *sessionService) Chunks(ctx context.Context, id string) ([]ChunkLog, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}

	records, err := s.chunkLogs.ListBySession(ctx, id)
	if err != nil {
		return nil, WrapError(err, "failed to list chunk logs")
	}

	logs := make([]ChunkLog, 0, len(records))
	for _, r := range records {
		logs = append(logs, ChunkLog{
			Index:    r.ChunkIndex,
			Offset:   r.RowOffset,
			Rows:     r.Rows,
			Prompt:   r.Prompt,
			Response: r.Response,
			Error:    r.Error,
			Kept:     r.Kept,
			Dropped:  r.Dropped,
		})
	}
	return logs, nil
}

func (s *sessionService) Export(ctx context.Context, id string, w io.Writer) (string, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	if rec.Result == "" {
		return "", fmt.Errorf("%w: session has not been processed", ErrNotReady)
	}

	var report Report
	if err := json.Unmarshal([]byte(rec.Result), &report); err != nil {
		return "", WrapError(err, "failed to decode result")
	}
	if err := tabular.WriteTable(w, report.Table, true); err != nil {
		return "", WrapError(err, "failed to write table")
	}
	return ExportName(rec.Filename), nil
}

func (s *sessionService) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	n, err := s.sessions.DeleteOlderThan(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, WrapError(err, "failed to delete expired sessions")
	}
	if n > 0 {
		contextutil.LoggerFromContext(ctx).InfoContext(ctx, "expired sessions removed", "count", n)
	}
	return n, nil
}

// ExportName derives the download name of a processed upload.
func ExportName(filename string) string {
	base := filepath.Base(filename)
	for _, ext := range []string{".gz", ".zst"} {
		base = strings.TrimSuffix(base, ext)
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		base = "timesheet"
	}
	return base + "_processed.csv"
}

func (s *sessionService) load(ctx context.Context, id string) (*storage.SessionRecord, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &ValidationError{Field: "id", Message: "cannot be empty"}
	}
	rec, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, s.storeError(err, "failed to load session")
	}
	return rec, nil
}

func (s *sessionService) storeError(err error, msg string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	s.logger.Error(msg, "error", err)
	return WrapError(err, msg)
}

func decodeSheet(rec *storage.SessionRecord) (*tabular.Sheet, error) {
	var sheet tabular.Sheet
	if err := json.Unmarshal([]byte(rec.Sheet), &sheet); err != nil {
		return nil, WrapError(err, "failed to decode sheet")
	}
	return &sheet, nil
}

func summarize(rec *storage.SessionRecord, sheet *tabular.Sheet) (*SessionSummary, error) {
	sum := &SessionSummary{
		ID:        rec.ID,
		Filename:  rec.Filename,
		Status:    rec.Status,
		Columns:   sheet.Header,
		Rows:      len(sheet.Rows),
		Preview:   sheet.Rows[:min(previewRows, len(sheet.Rows))],
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}

	if rec.Mapping != "" {
		if err := json.Unmarshal([]byte(rec.Mapping), &sum.Mapping); err != nil {
			return nil, WrapError(err, "failed to decode mapping")
		}
	}
	if rec.Settings != "" {
		var settings timesheet.Settings
		if err := json.Unmarshal([]byte(rec.Settings), &settings); err != nil {
			return nil, WrapError(err, "failed to decode settings")
		}
		sum.Settings = &settings
	}
	if rec.Result != "" {
		var report Report
		if err := json.Unmarshal([]byte(rec.Result), &report); err != nil {
			return nil, WrapError(err, "failed to decode result")
		}
		sum.Stats = &report.Stats
		sum.FellBack = report.FellBack
		sum.Error = report.Error
	}
	return sum, nil
}
