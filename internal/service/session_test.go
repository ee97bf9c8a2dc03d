package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"timesheet-ai/internal/batch"
	"timesheet-ai/internal/service"
	"timesheet-ai/internal/service/mocks"
	"timesheet-ai/internal/storage"
	storagemocks "timesheet-ai/internal/storage/mocks"
	"timesheet-ai/internal/tabular"
	"timesheet-ai/internal/timesheet"

	"go.uber.org/mock/gomock"
)

const sheetJSON = `{"header":["Popis","Od","Do"],"rows":[["Implemented the export endpoint and wrote tests for every edge case found","9:00","10:00"],["Standup","10:30","11:00"]]}`

func mappedRecord(t *testing.T) *storage.SessionRecord {
	t.Helper()
	table, err := json.Marshal(dayTable())
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	return &storage.SessionRecord{
		ID:       "s1",
		Filename: "march.csv",
		Status:   storage.StatusMapped,
		Sheet:    sheetJSON,
		Mapping:  `{"description":"Popis","time_end":"Do","time_start":"Od"}`,
		Table:    string(table),
	}
}

func TestSessionService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sessions := storagemocks.NewMockSessionStore(ctrl)
	svc := service.NewSessionService(sessions, storagemocks.NewMockChunkLogStore(ctrl), service.NewProcessor(nil, nil))

	tests := []struct {
		name      string
		filename  string
		body      string
		mockSetup func()
		wantErr   error
		wantRows  int
	}{
		{
			name:     "csv upload",
			filename: "uploads/march.csv",
			body:     "Popis;Od;Do\nWrote report;09:00;10:00\nReview;10:00;10:30\n",
			mockSetup: func() {
				sessions.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, rec *storage.SessionRecord) error {
						if rec.Filename != "march.csv" {
							t.Errorf("Create() filename = %q, want march.csv", rec.Filename)
						}
						rec.ID = "s1"
						rec.Status = storage.StatusUploaded
						return nil
					})
			},
			wantRows: 2,
		},
		{
			name:      "unsupported format",
			filename:  "march.pdf",
			body:      "%PDF-1.4",
			mockSetup: func() {},
			wantErr:   tabular.ErrUnsupportedFormat,
		},
		{
			name:      "header only",
			filename:  "march.csv",
			body:      "Popis,Od,Do\n",
			mockSetup: func() {},
			wantErr:   tabular.ErrEmpty,
		},
		{
			name:      "missing file name",
			filename:  " ",
			body:      "a,b\n1,2\n",
			mockSetup: func() {},
			wantErr:   service.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			got, err := svc.Create(testContext(), tt.filename, strings.NewReader(tt.body))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() unexpected error: %v", err)
			}
			if got.ID != "s1" || got.Rows != tt.wantRows || len(got.Columns) != 3 {
				t.Errorf("Create() = %+v", got)
			}
			if len(got.Preview) != tt.wantRows {
				t.Errorf("Create() preview = %d rows, want %d", len(got.Preview), tt.wantRows)
			}
		})
	}
}

func TestSessionService_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sessions := storagemocks.NewMockSessionStore(ctrl)
	svc := service.NewSessionService(sessions, storagemocks.NewMockChunkLogStore(ctrl), service.NewProcessor(nil, nil))

	rec := mappedRecord(t)
	rec.Status = storage.StatusProcessed
	rec.Settings = `{"max_chunk_minutes":30,"min_words_split":10,"work_start":"08:00","work_end":"16:00","creativity":0.5}`
	rec.Result = `{"mode":"ai","table":{"columns":[],"entries":[]},"stats":{"input_rows":2,"output_rows":3,"generated_rows":1},"fell_back":true,"error":"malformed response"}`

	sessions.EXPECT().Get(gomock.Any(), "s1").Return(rec, nil)
	sessions.EXPECT().Get(gomock.Any(), "missing").Return(nil, storage.ErrNotFound)

	got, err := svc.Get(testContext(), "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Mapping[timesheet.FieldStart] != "Od" {
		t.Errorf("Get() mapping = %v", got.Mapping)
	}
	if got.Settings == nil || got.Settings.MaxChunkMinutes != 30 {
		t.Errorf("Get() settings = %+v", got.Settings)
	}
	if got.Stats == nil || got.Stats.GeneratedRows != 1 || !got.FellBack || got.Error == "" {
		t.Errorf("Get() result fields = %+v", got)
	}

	if _, err := svc.Get(testContext(), "missing"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Get(testContext(), ""); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("Get(\"\") error = %v, want ErrInvalidInput", err)
	}
}

func TestSessionService_SetMapping(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sessions := storagemocks.NewMockSessionStore(ctrl)
	svc := service.NewSessionService(sessions, storagemocks.NewMockChunkLogStore(ctrl), service.NewProcessor(nil, nil))

	tests := []struct {
		name      string
		mapping   timesheet.Mapping
		wantField string
	}{
		{
			name: "valid mapping",
			mapping: timesheet.Mapping{
				timesheet.FieldDescription: "Popis",
				timesheet.FieldStart:       "Od",
				timesheet.FieldEnd:         "Do",
			},
		},
		{
			name: "end not mapped",
			mapping: timesheet.Mapping{
				timesheet.FieldDescription: "Popis",
				timesheet.FieldStart:       "Od",
			},
			wantField: timesheet.FieldEnd,
		},
		{
			name: "unknown column",
			mapping: timesheet.Mapping{
				timesheet.FieldDescription: "Popis",
				timesheet.FieldStart:       "Od",
				timesheet.FieldEnd:         "Konec",
			},
			wantField: timesheet.FieldEnd,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions.EXPECT().
				Get(gomock.Any(), "s1").
				Return(&storage.SessionRecord{ID: "s1", Filename: "march.csv", Status: storage.StatusUploaded, Sheet: sheetJSON}, nil)

			if tt.wantField == "" {
				sessions.EXPECT().
					Update(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, rec *storage.SessionRecord) error {
						if rec.Status != storage.StatusMapped {
							t.Errorf("Update() status = %q, want %q", rec.Status, storage.StatusMapped)
						}
						var table timesheet.Table
						if err := json.Unmarshal([]byte(rec.Table), &table); err != nil {
							t.Fatalf("stored table is not JSON: %v", err)
						}
						if table.Len() != 2 || table.Entries[0].Get(timesheet.FieldStart) != "09:00" {
							t.Errorf("stored table = %+v", table)
						}
						return nil
					})
			}

			got, err := svc.SetMapping(testContext(), "s1", tt.mapping)
			if tt.wantField != "" {
				var validationErr *service.ValidationError
				if !errors.As(err, &validationErr) || validationErr.Field != tt.wantField {
					t.Errorf("SetMapping() error = %v, want validation error on %s", err, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetMapping() error = %v", err)
			}
			if got.Status != storage.StatusMapped || got.Mapping[timesheet.FieldEnd] != "Do" {
				t.Errorf("SetMapping() = %+v", got)
			}
		})
	}
}

func TestSessionService_Process(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sessions := storagemocks.NewMockSessionStore(ctrl)
	chunkLogs := storagemocks.NewMockChunkLogStore(ctrl)
	orch := mocks.NewMockOrchestrator(ctrl)
	svc := service.NewSessionService(sessions, chunkLogs, service.NewProcessor(orch, nil))

	sessions.EXPECT().Get(gomock.Any(), "s1").Return(mappedRecord(t), nil)
	orch.EXPECT().
		Run(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, table timesheet.Table, _ timesheet.Settings, progress func(batch.Progress)) batch.Result {
			progress(batch.Progress{Chunk: 1, Chunks: 1, RowsProcessed: table.Len(), RowsTotal: table.Len()})
			return batch.Result{
				Table: table,
				Chunks: []batch.ChunkResult{
					{Index: 0, Offset: 0, Rows: 5, Prompt: "## Rows", Response: "```csv\n```", Kept: 5},
				},
			}
		})
	sessions.EXPECT().
		Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rec *storage.SessionRecord) error {
			if rec.Status != storage.StatusProcessed {
				t.Errorf("Update() status = %q", rec.Status)
			}
			if strings.Contains(rec.Result, "## Rows") {
				t.Error("stored result should not carry chunk prompts")
			}
			if !strings.Contains(rec.Settings, `"max_chunk_minutes":15`) {
				t.Errorf("stored settings = %s", rec.Settings)
			}
			return nil
		})
	chunkLogs.EXPECT().
		Replace(gomock.Any(), "s1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, logs []storage.ChunkLogRecord) error {
			if len(logs) != 1 || logs[0].SessionID != "s1" || logs[0].Prompt != "## Rows" {
				t.Errorf("Replace() logs = %+v", logs)
			}
			return nil
		})

	events := 0
	report, err := svc.Process(testContext(), "s1", timesheet.DefaultSettings(), func(batch.Progress) { events++ })
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if report.Table.Len() != 5 || len(report.Chunks) != 1 {
		t.Errorf("Process() = %d rows, %d chunks", report.Table.Len(), len(report.Chunks))
	}
	if events != 1 {
		t.Errorf("progress events = %d, want 1", events)
	}
}

func TestSessionService_Process_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sessions := storagemocks.NewMockSessionStore(ctrl)
	svc := service.NewSessionService(sessions, storagemocks.NewMockChunkLogStore(ctrl), service.NewProcessor(nil, nil))

	tests := []struct {
		name      string
		mockSetup func()
		settings  func(s *timesheet.Settings)
		wantErr   error
	}{
		{
			name: "not mapped",
			mockSetup: func() {
				sessions.EXPECT().Get(gomock.Any(), "s1").
					Return(&storage.SessionRecord{ID: "s1", Status: storage.StatusUploaded, Sheet: sheetJSON}, nil)
			},
			settings: func(s *timesheet.Settings) {},
			wantErr:  service.ErrNotReady,
		},
		{
			name: "invalid settings",
			mockSetup: func() {
				sessions.EXPECT().Get(gomock.Any(), "s1").Return(mappedRecord(t), nil)
			},
			settings: func(s *timesheet.Settings) { s.Creativity = 3 },
			wantErr:  service.ErrInvalidInput,
		},
		{
			name: "unknown session",
			mockSetup: func() {
				sessions.EXPECT().Get(gomock.Any(), "s1").Return(nil, storage.ErrNotFound)
			},
			settings: func(s *timesheet.Settings) {},
			wantErr:  service.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			settings := timesheet.DefaultSettings()
			tt.settings(&settings)

			if _, err := svc.Process(testContext(), "s1", settings, nil); !errors.Is(err, tt.wantErr) {
				t.Errorf("Process() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSessionService_Chunks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sessions := storagemocks.NewMockSessionStore(ctrl)
	chunkLogs := storagemocks.NewMockChunkLogStore(ctrl)
	svc := service.NewSessionService(sessions, chunkLogs, service.NewProcessor(nil, nil))

	sessions.EXPECT().Get(gomock.Any(), "s1").Return(mappedRecord(t), nil)
	chunkLogs.EXPECT().ListBySession(gomock.Any(), "s1").Return([]storage.ChunkLogRecord{
		{SessionID: "s1", ChunkIndex: 0, RowOffset: 0, Rows: 10, Prompt: "p", Response: "r", Kept: 9, Dropped: 1},
		{SessionID: "s1", ChunkIndex: 1, RowOffset: 10, Rows: 3, Prompt: "p", Error: "chunk 2: timeout", Kept: 3},
	}, nil)

	got, err := svc.Chunks(testContext(), "s1")
	if err != nil {
		t.Fatalf("Chunks() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Chunks() = %d logs, want 2", len(got))
	}
	if got[1].Offset != 10 || got[1].Error != "chunk 2: timeout" || got[0].Dropped != 1 {
		t.Errorf("Chunks() = %+v", got)
	}
}

func TestSessionService_Export(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sessions := storagemocks.NewMockSessionStore(ctrl)
	svc := service.NewSessionService(sessions, storagemocks.NewMockChunkLogStore(ctrl), service.NewProcessor(nil, nil))

	table := dayTable()
	table.Entries[1].IsGenerated = true
	result, err := json.Marshal(service.Report{Mode: service.ModeOffline, Table: table})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	processed := mappedRecord(t)
	processed.Filename = "march.xlsx.gz"
	processed.Status = storage.StatusProcessed
	processed.Result = string(result)

	sessions.EXPECT().Get(gomock.Any(), "done").Return(processed, nil)
	sessions.EXPECT().Get(gomock.Any(), "s1").Return(mappedRecord(t), nil)

	var buf bytes.Buffer
	name, err := svc.Export(testContext(), "done", &buf)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if name != "march_processed.csv" {
		t.Errorf("Export() name = %q, want march_processed.csv", name)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Export() wrote %d lines, want 3", len(lines))
	}
	if lines[0] != "description,time_start,time_end,is_generated,is_split,original_entry" {
		t.Errorf("Export() header = %q", lines[0])
	}
	if lines[2] != "Standup,10:30,11:00,true,false,false" {
		t.Errorf("Export() row = %q", lines[2])
	}

	if _, err := svc.Export(testContext(), "s1", &buf); !errors.Is(err, service.ErrNotReady) {
		t.Errorf("Export() before processing error = %v, want ErrNotReady", err)
	}
}

func TestSessionService_Cleanup(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sessions := storagemocks.NewMockSessionStore(ctrl)
	svc := service.NewSessionService(sessions, storagemocks.NewMockChunkLogStore(ctrl), service.NewProcessor(nil, nil))

	before := time.Now()
	sessions.EXPECT().
		DeleteOlderThan(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cutoff time.Time) (int64, error) {
			if d := cutoff.Sub(before.Add(-time.Hour)); d < 0 || d > time.Minute {
				t.Errorf("DeleteOlderThan() cutoff = %v, want about an hour before %v", cutoff, before)
			}
			return 3, nil
		})

	n, err := svc.Cleanup(testContext(), time.Hour)
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Cleanup() = %d, want 3", n)
	}
}

func TestExportName(t *testing.T) {
	tests := map[string]string{
		"march.csv":          "march_processed.csv",
		"march.xlsx.zst":     "march_processed.csv",
		"/tmp/up/april.xlsx": "april_processed.csv",
		"":                   "timesheet_processed.csv",
	}
	for in, want := range tests {
		if got := service.ExportName(in); got != want {
			t.Errorf("ExportName(%q) = %q, want %q", in, got, want)
		}
	}
}
