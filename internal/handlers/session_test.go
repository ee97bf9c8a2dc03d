package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"timesheet-ai/internal/batch"
	"timesheet-ai/internal/service"
	"timesheet-ai/internal/service/mocks"
	"timesheet-ai/internal/tabular"
	"timesheet-ai/internal/timesheet"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestRouter(h *SessionHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/sessions", h.Create)
	r.Get("/api/sessions/{id}", h.Get)
	r.Put("/api/sessions/{id}/mapping", h.SetMapping)
	r.Post("/api/sessions/{id}/process", h.Process)
	r.Get("/api/sessions/{id}/chunks", h.Chunks)
	r.Get("/api/sessions/{id}/download", h.Download)
	return r
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := io.WriteString(fw, content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("multipart Close() error = %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestSessionHandler_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSessions := mocks.NewMockSessionService(ctrl)
	router := newTestRouter(NewSessionHandler(mockSessions, timesheet.DefaultSettings()))

	tests := []struct {
		name           string
		field          string
		filename       string
		mockSetup      func()
		expectedStatus int
	}{
		{
			name:     "upload accepted",
			field:    "file",
			filename: "march.csv",
			mockSetup: func() {
				mockSessions.EXPECT().
					Create(gomock.Any(), "march.csv", gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, r io.Reader) (*service.SessionSummary, error) {
						data, _ := io.ReadAll(r)
						if !strings.HasPrefix(string(data), "Popis,Od,Do") {
							t.Errorf("Create() got body %q", data)
						}
						return &service.SessionSummary{ID: "s1", Columns: []string{"Popis", "Od", "Do"}, Rows: 1}, nil
					})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing file field",
			field:          "upload",
			filename:       "march.csv",
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:     "unsupported format",
			field:    "file",
			filename: "march.pdf",
			mockSetup: func() {
				mockSessions.EXPECT().
					Create(gomock.Any(), "march.pdf", gomock.Any()).
					Return(nil, fmt.Errorf("%w: .pdf", tabular.ErrUnsupportedFormat))
			},
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:     "file too large",
			field:    "file",
			filename: "march.csv.gz",
			mockSetup: func() {
				mockSessions.EXPECT().
					Create(gomock.Any(), "march.csv.gz", gomock.Any()).
					Return(nil, fmt.Errorf("%w: limit is 10 MB after decompression", tabular.ErrTooLarge))
			},
			expectedStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:     "empty file",
			field:    "file",
			filename: "march.csv",
			mockSetup: func() {
				mockSessions.EXPECT().
					Create(gomock.Any(), "march.csv", gomock.Any()).
					Return(nil, tabular.ErrEmpty)
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			body, contentType := multipartBody(t, tt.field, tt.filename, "Popis,Od,Do\nReview,09:00,10:00\n")
			req := httptest.NewRequest(http.MethodPost, "/api/sessions", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Create() status = %v, want %v (body %s)", w.Code, tt.expectedStatus, w.Body.String())
			}
		})
	}
}

func TestSessionHandler_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSessions := mocks.NewMockSessionService(ctrl)
	router := newTestRouter(NewSessionHandler(mockSessions, timesheet.DefaultSettings()))

	mockSessions.EXPECT().Get(gomock.Any(), "s1").Return(&service.SessionSummary{ID: "s1", Status: "mapped", Rows: 4}, nil)
	mockSessions.EXPECT().Get(gomock.Any(), "nope").Return(nil, service.ErrNotFound)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/s1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Get() status = %v, want 200", w.Code)
	}
	var got service.SessionSummary
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID != "s1" || got.Rows != 4 {
		t.Errorf("Get() = %+v", got)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Get(nope) status = %v, want 404", w.Code)
	}
}

func TestSessionHandler_SetMapping(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSessions := mocks.NewMockSessionService(ctrl)
	router := newTestRouter(NewSessionHandler(mockSessions, timesheet.DefaultSettings()))

	tests := []struct {
		name           string
		body           string
		mockSetup      func()
		expectedStatus int
	}{
		{
			name: "valid mapping",
			body: `{"description":"Popis","time_start":"Od","time_end":"Do"}`,
			mockSetup: func() {
				mockSessions.EXPECT().
					SetMapping(gomock.Any(), "s1", timesheet.Mapping{"description": "Popis", "time_start": "Od", "time_end": "Do"}).
					Return(&service.SessionSummary{ID: "s1", Status: "mapped"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "validation error",
			body: `{"description":"Popis"}`,
			mockSetup: func() {
				mockSessions.EXPECT().
					SetMapping(gomock.Any(), "s1", gomock.Any()).
					Return(nil, &service.ValidationError{Field: "time_start", Message: "must be mapped"})
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			body:           `{"description":`,
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			req := httptest.NewRequest(http.MethodPut, "/api/sessions/s1/mapping", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("SetMapping() status = %v, want %v", w.Code, tt.expectedStatus)
			}
		})
	}
}

func TestSessionHandler_Process(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSessions := mocks.NewMockSessionService(ctrl)
	defaults := timesheet.DefaultSettings()
	router := newTestRouter(NewSessionHandler(mockSessions, defaults))

	report := &service.Report{
		Mode:  service.ModeAI,
		Stats: service.Stats{InputRows: 12, OutputRows: 13, DroppedRows: 1, FailedChunks: 1},
		Chunks: []batch.ChunkResult{
			{Index: 0, Rows: 10, Prompt: "secret prompt", Kept: 9, Dropped: 1},
			{Index: 1, Offset: 10, Rows: 3, Error: "chunk 2: timeout", Kept: 3},
		},
	}

	tests := []struct {
		name           string
		body           string
		mockSetup      func()
		expectedStatus int
	}{
		{
			name: "body overrides defaults",
			body: `{"max_chunk_minutes":30,"fill_gaps":false}`,
			mockSetup: func() {
				want := defaults
				want.MaxChunkMinutes = 30
				want.FillGaps = false
				mockSessions.EXPECT().Process(gomock.Any(), "s1", want, gomock.Nil()).Return(report, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "empty body uses defaults",
			body: "",
			mockSetup: func() {
				mockSessions.EXPECT().Process(gomock.Any(), "s1", defaults, gomock.Nil()).Return(report, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "not mapped yet",
			body: "{}",
			mockSetup: func() {
				mockSessions.EXPECT().
					Process(gomock.Any(), "s1", gomock.Any(), gomock.Any()).
					Return(nil, fmt.Errorf("%w: column mapping has not been set", service.ErrNotReady))
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "invalid JSON",
			body:           "[1,2",
			mockSetup:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			req := httptest.NewRequest(http.MethodPost, "/api/sessions/s1/process", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("Process() status = %v, want %v (body %s)", w.Code, tt.expectedStatus, w.Body.String())
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var resp ProcessResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.SessionID != "s1" || resp.Stats.FailedChunks != 1 || len(resp.Chunks) != 2 {
				t.Errorf("Process() = %+v", resp)
			}
			if resp.Chunks[1].Error != "chunk 2: timeout" {
				t.Errorf("Process() chunk error = %q", resp.Chunks[1].Error)
			}
		})
	}
}

func TestSessionHandler_Process_Stream(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSessions := mocks.NewMockSessionService(ctrl)
	router := newTestRouter(NewSessionHandler(mockSessions, timesheet.DefaultSettings()))

	tests := []struct {
		name       string
		mockSetup  func()
		wantEvents []string
		wantDone   bool
	}{
		{
			name: "progress then result",
			mockSetup: func() {
				mockSessions.EXPECT().
					Process(gomock.Any(), "s1", gomock.Any(), gomock.Not(gomock.Nil())).
					DoAndReturn(func(_ context.Context, _ string, _ timesheet.Settings, progress func(batch.Progress)) (*service.Report, error) {
						progress(batch.Progress{Chunk: 1, Chunks: 2, RowsProcessed: 10, RowsTotal: 13})
						progress(batch.Progress{Chunk: 2, Chunks: 2, RowsProcessed: 13, RowsTotal: 13, Error: "chunk 2: timeout"})
						return &service.Report{Mode: service.ModeAI}, nil
					})
			},
			wantEvents: []string{"progress", "progress", "result"},
			wantDone:   true,
		},
		{
			name: "service error",
			mockSetup: func() {
				mockSessions.EXPECT().
					Process(gomock.Any(), "s1", gomock.Any(), gomock.Any()).
					Return(nil, service.ErrNotFound)
			},
			wantEvents: []string{"error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			req := httptest.NewRequest(http.MethodPost, "/api/sessions/s1/process?stream=true", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
				t.Errorf("Content-Type = %q, want text/event-stream", ct)
			}

			var events []string
			done := false
			for _, line := range strings.Split(w.Body.String(), "\n") {
				data, ok := strings.CutPrefix(line, "data: ")
				if !ok {
					continue
				}
				if data == "[DONE]" {
					done = true
					continue
				}
				var ev StreamEvent
				if err := json.Unmarshal([]byte(data), &ev); err != nil {
					t.Fatalf("event %q is not JSON: %v", data, err)
				}
				events = append(events, ev.Type)
			}

			if strings.Join(events, ",") != strings.Join(tt.wantEvents, ",") {
				t.Errorf("events = %v, want %v", events, tt.wantEvents)
			}
			if done != tt.wantDone {
				t.Errorf("done = %v, want %v", done, tt.wantDone)
			}
		})
	}
}

func TestSessionHandler_Chunks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSessions := mocks.NewMockSessionService(ctrl)
	router := newTestRouter(NewSessionHandler(mockSessions, timesheet.DefaultSettings()))

	mockSessions.EXPECT().Chunks(gomock.Any(), "s1").Return([]service.ChunkLog{
		{Index: 0, Rows: 10, Prompt: "p", Response: "```csv\n...\n```"},
	}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/s1/chunks", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Chunks() status = %v, want 200", w.Code)
	}
	var got []service.ChunkLog
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 1 || got[0].Response == "" {
		t.Errorf("Chunks() = %+v", got)
	}
}

func TestSessionHandler_Download(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSessions := mocks.NewMockSessionService(ctrl)
	router := newTestRouter(NewSessionHandler(mockSessions, timesheet.DefaultSettings()))

	tests := []struct {
		name           string
		mockSetup      func()
		expectedStatus int
		wantBody       string
	}{
		{
			name: "processed session",
			mockSetup: func() {
				mockSessions.EXPECT().
					Export(gomock.Any(), "s1", gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, w io.Writer) (string, error) {
						_, err := io.WriteString(w, "description,time_start,time_end\n")
						return "march_processed.csv", err
					})
			},
			expectedStatus: http.StatusOK,
			wantBody:       "description,time_start,time_end\n",
		},
		{
			name: "not processed",
			mockSetup: func() {
				mockSessions.EXPECT().
					Export(gomock.Any(), "s1", gomock.Any()).
					Return("", fmt.Errorf("%w: session has not been processed", service.ErrNotReady))
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "storage failure",
			mockSetup: func() {
				mockSessions.EXPECT().
					Export(gomock.Any(), "s1", gomock.Any()).
					Return("", errors.New("disk I/O error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/s1/download", nil))

			if w.Code != tt.expectedStatus {
				t.Fatalf("Download() status = %v, want %v", w.Code, tt.expectedStatus)
			}
			if tt.wantBody == "" {
				return
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("Download() body = %q, want %q", w.Body.String(), tt.wantBody)
			}
			if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="march_processed.csv"` {
				t.Errorf("Content-Disposition = %q", cd)
			}
		})
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &service.ValidationError{Field: "f", Message: "m"}, http.StatusBadRequest},
		{"invalid input", service.ErrInvalidInput, http.StatusBadRequest},
		{"parse", fmt.Errorf("%w: bare quote", tabular.ErrParse), http.StatusBadRequest},
		{"too large", tabular.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{"unsupported", tabular.ErrUnsupportedFormat, http.StatusUnsupportedMediaType},
		{"not found", service.ErrNotFound, http.StatusNotFound},
		{"not ready", service.ErrNotReady, http.StatusConflict},
		{"external", service.WrapError(service.ErrExternalService, "llm"), http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, _ := errorStatus(tt.err, "default"); got != tt.want {
				t.Errorf("errorStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}
