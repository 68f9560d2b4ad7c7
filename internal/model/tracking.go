package model

import "time"

// StageMetrics represents metrics for a specific session stage
type StageMetrics struct {
	StageName        string        `json:"stage_name"`
	StartTime        time.Time     `json:"start_time"`
	EndTime          time.Time     `json:"end_time"`
	Duration         time.Duration `json:"duration"`
	RecordsProcessed int64         `json:"records_processed"`
	Status           string        `json:"status"` // "running", "completed", "failed"
}

// SourceMetrics represents metrics for a specific data source
type SourceMetrics struct {
	Source        string        `json:"source"`
	Path          string        `json:"path"`
	Rows          int           `json:"rows"`
	Columns       int           `json:"columns"`
	IngestionTime time.Duration `json:"ingestion_time"`
	LastError     string        `json:"last_error,omitempty"`
}

// SessionStatus records how a report session was built.
type SessionStatus struct {
	SessionID     string                   `json:"session_id"`
	StartTime     time.Time                `json:"start_time"`
	EndTime       time.Time                `json:"end_time"`
	Status        string                   `json:"status"`
	SegmentRows   int                      `json:"segment_rows"`
	StageMetrics  map[string]StageMetrics  `json:"stage_metrics"`
	SourceMetrics map[string]SourceMetrics `json:"source_metrics"`
}

// Run is one recorded export run.
type Run struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	Kind           string    `json:"kind"` // "report", "database"
	Format         string    `json:"format,omitempty"`
	IncomeCategory string    `json:"income_category,omitempty"`
	Status         string    `json:"status"` // "pending", "completed", "failed"
	Output         string    `json:"output,omitempty"`
	RecordCount    int       `json:"record_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Errors         []string  `json:"errors,omitempty"`
}
