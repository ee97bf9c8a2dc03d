package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timesheet-ai/internal/batch"
	"timesheet-ai/internal/contextutil"
	"timesheet-ai/internal/service"
	"timesheet-ai/internal/tabular"
	"timesheet-ai/internal/timesheet"
)

// multipartOverhead leaves room for the form framing around the file.
const multipartOverhead = 1 << 20

// SessionHandler handles HTTP requests for timesheet sessions.
type SessionHandler struct {
	sessions service.SessionService
	defaults timesheet.Settings
}

// NewSessionHandler creates a new SessionHandler. defaults seed the settings
// of a process request; fields present in the request body override them.
func NewSessionHandler(sessions service.SessionService, defaults timesheet.Settings) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		defaults: defaults,
	}
}

// ChunkSummary is the outcome of one chunk without its prompt and reply.
type ChunkSummary struct {
	Index   int    `json:"index"`
	Offset  int    `json:"offset"`
	Rows    int    `json:"rows"`
	Error   string `json:"error,omitempty"`
	Kept    int    `json:"kept"`
	Dropped int    `json:"dropped"`
}

// ProcessResponse represents the HTTP response payload of a processing run.
type ProcessResponse struct {
	SessionID string         `json:"session_id"`
	Mode      string         `json:"mode"`
	Stats     service.Stats  `json:"stats"`
	FellBack  bool           `json:"fell_back"`
	Error     string         `json:"error,omitempty"`
	Chunks    []ChunkSummary `json:"chunks"`
}

// StreamEvent is one Server-Sent Event of a streamed run.
type StreamEvent struct {
	Type     string           `json:"type"`
	Progress *batch.Progress  `json:"progress,omitempty"`
	Result   *ProcessResponse `json:"result,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Create handles POST /api/sessions with a multipart "file" field.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, tabular.MaxUploadBytes+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			handleServiceError(w, ctx, fmt.Errorf("%w: limit is %d MB", tabular.ErrTooLarge, tabular.MaxUploadBytes>>20), "")
			return
		}
		logger.WarnContext(ctx, "missing upload", "error", err)
		writeError(w, http.StatusBadRequest, "Form field \"file\" is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	summary, err := h.sessions.Create(ctx, header.Filename, file)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to create session")
		return
	}

	writeJSON(w, ctx, http.StatusCreated, summary)
}

// Get handles GET /api/sessions/{id}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := h.sessions.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to load session")
		return
	}

	writeJSON(w, ctx, http.StatusOK, summary)
}

// SetMapping handles PUT /api/sessions/{id}/mapping. The body maps target
// fields to source columns.
func (h *SessionHandler) SetMapping(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var mapping timesheet.Mapping
	if err := json.NewDecoder(r.Body).Decode(&mapping); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	summary, err := h.sessions.SetMapping(ctx, chi.URLParam(r, "id"), mapping)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to store mapping")
		return
	}

	writeJSON(w, ctx, http.StatusOK, summary)
}

// Process handles POST /api/sessions/{id}/process. With ?stream=true the
// progress of every chunk is streamed as Server-Sent Events.
func (h *SessionHandler) Process(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)
	id := chi.URLParam(r, "id")

	settings := h.defaults
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil && !errors.Is(err, io.EOF) {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if r.URL.Query().Get("stream") == "true" {
		h.streamProcess(w, r, id, settings)
		return
	}

	report, err := h.sessions.Process(ctx, id, settings, nil)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to process session")
		return
	}

	writeJSON(w, ctx, http.StatusOK, processResponse(id, report))
}

// streamProcess runs a session and writes progress using Server-Sent Events.
func (h *SessionHandler) streamProcess(w http.ResponseWriter, r *http.Request, id string, settings timesheet.Settings) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.ErrorContext(ctx, "streaming not supported by response writer")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	send := func(ev StreamEvent) {
		data, err := json.Marshal(ev)
		if err != nil {
			logger.ErrorContext(ctx, "failed to encode event", "error", err)
			return
		}
		_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	report, err := h.sessions.Process(ctx, id, settings, func(p batch.Progress) {
		send(StreamEvent{Type: "progress", Progress: &p})
	})
	if err != nil {
		status, msg := errorStatus(err, "Failed to process session")
		logger.ErrorContext(ctx, "error streaming process", "status", status, "error", err)
		send(StreamEvent{Type: "error", Error: msg})
		return
	}

	send(StreamEvent{Type: "result", Result: processResponse(id, report)})
	_, _ = fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// Chunks handles GET /api/sessions/{id}/chunks.
func (h *SessionHandler) Chunks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	logs, err := h.sessions.Chunks(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to load chunk logs")
		return
	}

	writeJSON(w, ctx, http.StatusOK, logs)
}

// Download handles GET /api/sessions/{id}/download and returns the processed
// table as CSV.
func (h *SessionHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var buf bytes.Buffer
	name, err := h.sessions.Export(ctx, chi.URLParam(r, "id"), &buf)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to export session")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to write download", "error", err)
	}
}

func processResponse(id string, report *service.Report) *ProcessResponse {
	resp := &ProcessResponse{
		SessionID: id,
		Mode:      report.Mode,
		Stats:     report.Stats,
		FellBack:  report.FellBack,
		Error:     report.Error,
		Chunks:    make([]ChunkSummary, 0, len(report.Chunks)),
	}
	for _, c := range report.Chunks {
		resp.Chunks = append(resp.Chunks, ChunkSummary{
			Index:   c.Index,
			Offset:  c.Offset,
			Rows:    c.Rows,
			Error:   c.Error,
			Kept:    c.Kept,
			Dropped: c.Dropped,
		})
	}
	return resp
}
