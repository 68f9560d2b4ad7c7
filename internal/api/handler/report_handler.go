package handler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"go-segment-report/internal/dashboard"
	"go-segment-report/internal/model"
	"go-segment-report/internal/pipeline"
	"go-segment-report/internal/store"
	"go-segment-report/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

// IncomeParam is the query parameter selecting the income category.
const IncomeParam = "renda"

// SessionLoader builds a fresh report session from the configured sources.
type SessionLoader func(ctx context.Context) (*pipeline.Session, error)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// ReportHandler serves the report over HTTP.
type ReportHandler struct {
	session atomic.Pointer[pipeline.Session]
	loader  SessionLoader
	store   *store.Store
	output  *utils.OutputManager
}

// NewReportHandler creates a handler around an already built session. The
// store may be nil, which disables the relational export and run history.
func NewReportHandler(session *pipeline.Session, loader SessionLoader, st *store.Store, output *utils.OutputManager) *ReportHandler {
	h := &ReportHandler{loader: loader, store: st, output: output}
	h.session.Store(session)
	return h
}

// Session returns the session currently served.
func (h *ReportHandler) Session() *pipeline.Session {
	return h.session.Load()
}

func (h *ReportHandler) income(r *http.Request) string {
	if v := r.URL.Query().Get(IncomeParam); v != "" {
		return v
	}
	return h.Session().DefaultIncomeCategory()
}

// Dashboard renders the HTML report page
// @Summary Dashboard page
// @Description Render the interactive report page for the selected income category
// @Tags dashboard
// @Produce html
// @Param renda query string false "Income category"
// @Success 200 {string} string "HTML page"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router / [get]
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	report, err := h.Session().Report(r.Context(), h.income(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := dashboard.RenderPage(&buf, report); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// UsageChart renders the usage bar chart
// @Summary Usage chart
// @Description Render the product and service usage rates of an income category as a PNG bar chart
// @Tags dashboard
// @Produce png
// @Param renda query string false "Income category"
// @Success 200 {file} binary "PNG image"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /chart/usage.png [get]
func (h *ReportHandler) UsageChart(w http.ResponseWriter, r *http.Request) {
	sec, err := h.Session().Section(r.Context(), pipeline.SectionUsage, h.income(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := dashboard.WriteUsageChart(&buf, sec.Metrics); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

// ListCategories returns the selectable income categories
// @Summary List income categories
// @Description Distinct income categories of the segment, in first-seen order
// @Tags report
// @Produce json
// @Success 200 {object} map[string]interface{} "Income categories"
// @Router /categories [get]
func (h *ReportHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	s := h.Session()
	render.JSON(w, r, map[string]interface{}{
		"categories": s.IncomeCategories(),
		"default":    s.DefaultIncomeCategory(),
		"count":      len(s.IncomeCategories()),
	})
}

// GetReport returns every report section
// @Summary Get report
// @Description Compute every report section for the selected income category
// @Tags report
// @Produce json
// @Param renda query string false "Income category"
// @Success 200 {object} model.Report "Report"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /report [get]
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.Session().Report(r.Context(), h.income(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// GetSection returns one report section
// @Summary Get section
// @Description Compute one report section for the selected income category
// @Tags report
// @Produce json
// @Param name path string true "Section name"
// @Param renda query string false "Income category"
// @Success 200 {object} model.Section "Section"
// @Failure 404 {object} ErrorResponse "Unknown section"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /sections/{name} [get]
func (h *ReportHandler) GetSection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sec, err := h.Session().Section(r.Context(), name, h.income(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, sec)
}

// GetSession returns how the current session was built
// @Summary Get session
// @Description Stage and source metrics of the session currently served
// @Tags session
// @Produce json
// @Success 200 {object} map[string]interface{} "Session status"
// @Router /session [get]
func (h *ReportHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s := h.Session()
	render.JSON(w, r, map[string]interface{}{
		"status":          s.Status(),
		"segment":         s.Spec.Segment,
		"loaded_at":       s.LoadedAt,
		"cached_sections": s.CachedSections(),
	})
}

// ReloadSession reloads every source into a new session
// @Summary Reload session
// @Description Load the sources again; memoized sections of the previous session are dropped
// @Tags session
// @Produce json
// @Success 200 {object} map[string]interface{} "Session reloaded"
// @Failure 500 {object} ErrorResponse "Load failed"
// @Failure 501 {object} ErrorResponse "Reload not configured"
// @Router /session/reload [post]
func (h *ReportHandler) ReloadSession(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		writeStatus(w, r, http.StatusNotImplemented, errors.New("session reload is not configured"))
		return
	}
	s, err := h.loader(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	previous := h.session.Swap(s)
	slog.Info("🔁 Session reloaded", "previous", previous.ID, "session_id", s.ID)
	render.JSON(w, r, map[string]interface{}{
		"message":     "Session reloaded",
		"session_id":  s.ID,
		"previous_id": previous.ID,
		"loaded_at":   s.LoadedAt,
	})
}

// ExportReport writes the report to a file
// @Summary Export report
// @Description Export every section of the report as CSV, JSON or XLSX
// @Tags export
// @Produce json
// @Param format query string false "csv, json or xlsx" default(csv)
// @Param renda query string false "Income category"
// @Success 200 {object} map[string]interface{} "Export result"
// @Failure 400 {object} ErrorResponse "Unknown format"
// @Failure 500 {object} ErrorResponse "Export failed"
// @Router /export [post]
func (h *ReportHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatCSV
	}
	format, err := pipeline.ParseFormat(format)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s := h.Session()
	income := h.income(r)
	run := model.Run{ID: uuid.New().String(), SessionID: s.ID, Kind: "report", Format: format, IncomeCategory: income}
	h.startRun(r.Context(), run)

	report, err := s.Report(r.Context(), income)
	if err != nil {
		h.finishRun(r.Context(), run.ID, "", 0, err)
		writeError(w, r, err)
		return
	}
	em := pipeline.NewExportManager(run.ID, h.output)
	result, err := em.ExportReport(r.Context(), report, format)
	h.finishRun(r.Context(), run.ID, result.Path, result.RecordCount, err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"run_id":       run.ID,
		"result":       result,
		"download_url": h.output.GetDownloadURL(run.ID, result.Path),
	})
}

// ExportDatabase copies the source tables into SQLite
// @Summary Export source tables
// @Description Replace the risk-band and credit-operation tables in the SQLite store
// @Tags export
// @Produce json
// @Success 200 {object} map[string]interface{} "Export result"
// @Failure 500 {object} ErrorResponse "Export failed"
// @Failure 503 {object} ErrorResponse "Store disabled"
// @Router /export/db [post]
func (h *ReportHandler) ExportDatabase(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeStatus(w, r, http.StatusServiceUnavailable, errors.New("relational store is disabled"))
		return
	}
	s := h.Session()
	run := model.Run{ID: uuid.New().String(), SessionID: s.ID, Kind: "database", Format: "sqlite"}
	h.startRun(r.Context(), run)

	em := pipeline.NewExportManager(run.ID, h.output)
	result, err := em.ExportSources(r.Context(), h.store, s.Spec, s.Sources)
	h.finishRun(r.Context(), run.ID, result.Path, result.RecordCount, err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"run_id": run.ID,
		"result": result,
	})
}

// ListRuns returns the export run history
// @Summary List runs
// @Description Every recorded export run, newest first
// @Tags export
// @Produce json
// @Success 200 {array} model.Run "Runs"
// @Failure 503 {object} ErrorResponse "Store disabled"
// @Router /runs [get]
func (h *ReportHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeStatus(w, r, http.StatusServiceUnavailable, errors.New("relational store is disabled"))
		return
	}
	runs, err := h.store.ListRuns(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, runs)
}

// GetRun returns one export run with its errors
// @Summary Get run
// @Description Details and errors of one export run
// @Tags export
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} model.Run "Run"
// @Failure 404 {object} ErrorResponse "Run not found"
// @Router /runs/{id} [get]
func (h *ReportHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeStatus(w, r, http.StatusServiceUnavailable, errors.New("relational store is disabled"))
		return
	}
	run, err := h.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, run)
}

// DownloadFile serves an exported file
// @Summary Download export
// @Description Download a file written by an export run
// @Tags export
// @Produce octet-stream
// @Param run path string true "Run ID"
// @Param file path string true "File name"
// @Success 200 {file} binary "Exported file"
// @Failure 404 {object} ErrorResponse "File not found"
// @Router /download/{run}/{file} [get]
func (h *ReportHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run")
	fileName := chi.URLParam(r, "file")
	path, err := h.output.ResolveFile(runID, fileName)
	if err != nil {
		writeStatus(w, r, http.StatusNotFound, errors.New("file not found"))
		return
	}
	w.Header().Set("Content-Type", h.output.ContentType(fileName))
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	http.ServeFile(w, r, path)
}

// ------------------- Run History -------------------

func (h *ReportHandler) startRun(ctx context.Context, run model.Run) {
	if h.store == nil {
		return
	}
	if err := h.store.SaveRun(ctx, run); err != nil {
		slog.Warn("failed to record run", "run_id", run.ID, "error", err)
	}
}

func (h *ReportHandler) finishRun(ctx context.Context, runID, output string, records int, runErr error) {
	if h.store == nil {
		return
	}
	status := "completed"
	if runErr != nil {
		status = "failed"
		if err := h.store.SaveRunError(ctx, runID, runErr); err != nil {
			slog.Warn("failed to record run error", "run_id", runID, "error", err)
		}
	}
	if err := h.store.UpdateRunStatus(ctx, runID, status, output, records); err != nil {
		slog.Warn("failed to update run", "run_id", runID, "error", err)
	}
}

// ------------------- Errors -------------------

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrUnknownSection), errors.Is(err, store.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeStatus(w, r, statusFor(err), err)
}

func writeStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: err.Error(), Status: status})
}
