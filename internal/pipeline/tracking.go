package pipeline

import (
	"log/slog"
	"sync"
	"time"

	"go-segment-report/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sourceLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "segment_report_source_load_seconds",
		Help:    "Time spent loading each input source.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	sourceRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "segment_report_source_rows",
		Help: "Rows loaded from each input source in the current session.",
	}, []string{"source"})

	sectionComputations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "segment_report_section_computations_total",
		Help: "Report sections computed, by section and outcome.",
	}, []string{"section", "outcome"})

	sectionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "segment_report_section_seconds",
		Help:    "Time spent computing each report section.",
		Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
	}, []string{"section"})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "segment_report_cache_lookups_total",
		Help: "Section memo lookups, by result.",
	}, []string{"result"})
)

// SessionTracker records stage and source metrics while a session is built.
type SessionTracker struct {
	mu     sync.RWMutex
	status model.SessionStatus
}

// NewSessionTracker creates a tracker for the given session.
func NewSessionTracker(sessionID string) *SessionTracker {
	return &SessionTracker{
		status: model.SessionStatus{
			SessionID:     sessionID,
			StartTime:     time.Now(),
			Status:        "initializing",
			StageMetrics:  make(map[string]model.StageMetrics),
			SourceMetrics: make(map[string]model.SourceMetrics),
		},
	}
}

// StartStage marks the beginning of a stage.
func (st *SessionTracker) StartStage(stage string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.status.Status = stage
	st.status.StageMetrics[stage] = model.StageMetrics{
		StageName: stage,
		StartTime: time.Now(),
		Status:    "running",
	}
	slog.Debug("stage started", "session_id", st.status.SessionID, "stage", stage)
}

// EndStage marks the end of a stage.
func (st *SessionTracker) EndStage(stage string, recordsProcessed int64, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	m := st.status.StageMetrics[stage]
	m.StageName = stage
	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.RecordsProcessed = recordsProcessed
	m.Status = "completed"
	if err != nil {
		m.Status = "failed"
	}
	st.status.StageMetrics[stage] = m

	slog.Debug("stage finished",
		"session_id", st.status.SessionID,
		"stage", stage,
		"status", m.Status,
		"duration_ms", m.Duration.Milliseconds(),
		"records", recordsProcessed)
}

// RecordSource stores metrics for one loaded source.
func (st *SessionTracker) RecordSource(src model.Source, t *model.Table, elapsed time.Duration, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	m := model.SourceMetrics{
		Source:        src.Name,
		Path:          src.Path,
		IngestionTime: elapsed,
	}
	if t != nil {
		m.Rows = t.Rows()
		m.Columns = len(t.ColumnNames())
		sourceRows.WithLabelValues(src.Name).Set(float64(t.Rows()))
	}
	if err != nil {
		m.LastError = err.Error()
	}
	st.status.SourceMetrics[src.Name] = m
	sourceLoadDuration.WithLabelValues(src.Name).Observe(elapsed.Seconds())
}

// Complete marks the session as ready.
func (st *SessionTracker) Complete(segmentRows int) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.status.Status = "ready"
	st.status.SegmentRows = segmentRows
	st.status.EndTime = time.Now()
}

// Fail marks the session as failed.
func (st *SessionTracker) Fail() {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.status.Status = "failed"
	st.status.EndTime = time.Now()
}

// Status returns a copy of the current session status.
func (st *SessionTracker) Status() model.SessionStatus {
	st.mu.RLock()
	defer st.mu.RUnlock()

	out := st.status
	out.StageMetrics = make(map[string]model.StageMetrics, len(st.status.StageMetrics))
	for k, v := range st.status.StageMetrics {
		out.StageMetrics[k] = v
	}
	out.SourceMetrics = make(map[string]model.SourceMetrics, len(st.status.SourceMetrics))
	for k, v := range st.status.SourceMetrics {
		out.SourceMetrics[k] = v
	}
	return out
}

// observeSection records one section computation.
func observeSection(section string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	sectionComputations.WithLabelValues(section, outcome).Inc()
	sectionDuration.WithLabelValues(section).Observe(elapsed.Seconds())
}
