package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go-segment-report/internal/model"

	"github.com/google/uuid"
)

// Session is the explicit context every report section is computed from. It
// is built once by load-and-filter and never mutated afterwards, so it can be
// shared by concurrent requests. Reloading data means building a new Session.
type Session struct {
	ID       string
	Spec     model.ReportSpec
	Sources  *LoadedSources
	Segment  *model.Table
	LoadedAt time.Time

	incomeCategories []string
	tracker          *SessionTracker
	cache            *SectionCache
}

// SessionOption customizes session construction.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	cacheSize  int
	fetchRetry RetryConfig
}

func newSessionConfig(opts []SessionOption) sessionConfig {
	cfg := sessionConfig{cacheSize: DefaultCacheSize, fetchRetry: DefaultFetchRetry}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithCacheSize bounds the section memo of the session.
func WithCacheSize(n int) SessionOption {
	return func(c *sessionConfig) { c.cacheSize = n }
}

// WithFetchRetry sets the retry policy for sources given as http(s) URLs.
func WithFetchRetry(retry RetryConfig) SessionOption {
	return func(c *sessionConfig) { c.fetchRetry = retry }
}

// ------------------- Session Builder -------------------

// NewSession loads every source, validates the customer table and filters
// it to the configured segment.
func NewSession(ctx context.Context, spec model.ReportSpec, opts ...SessionOption) (*Session, error) {
	start := time.Now()
	sessionID := uuid.New().String()
	tracker := NewSessionTracker(sessionID)
	slog.Info("🚀 Building report session", "session_id", sessionID)

	tracker.StartStage("ingestion")
	sources, err := StartIngestion(ctx, spec, tracker, newSessionConfig(opts).fetchRetry)
	if err != nil {
		tracker.EndStage("ingestion", 0, err)
		tracker.Fail()
		return nil, err
	}
	tracker.EndStage("ingestion", int64(sources.Customers.Rows()), nil)

	s, err := newSession(sessionID, spec, sources, tracker, opts...)
	if err != nil {
		return nil, err
	}

	slog.Info("🏁 Report session ready",
		"session_id", sessionID,
		"customers", sources.Customers.Rows(),
		"segment_rows", s.Segment.Rows(),
		"duration", time.Since(start))
	return s, nil
}

// NewSessionFromSources builds a session over already loaded tables.
func NewSessionFromSources(spec model.ReportSpec, sources *LoadedSources, opts ...SessionOption) (*Session, error) {
	sessionID := uuid.New().String()
	return newSession(sessionID, spec, sources, NewSessionTracker(sessionID), opts...)
}

func newSession(sessionID string, spec model.ReportSpec, sources *LoadedSources, tracker *SessionTracker, opts ...SessionOption) (*Session, error) {
	cfg := newSessionConfig(opts)
	if sources == nil || sources.Customers == nil {
		tracker.Fail()
		return nil, fmt.Errorf("%w: no customer table", model.ErrMalformedSource)
	}

	tracker.StartStage("validation")
	if err := ValidateSpec(sources.Customers, spec); err != nil {
		tracker.EndStage("validation", 0, err)
		tracker.Fail()
		return nil, err
	}
	tracker.EndStage("validation", int64(sources.Customers.Rows()), nil)

	tracker.StartStage("segmentation")
	segment, err := FilterEquals(sources.Customers, spec.Segment.Column, spec.Segment.Value)
	if err != nil {
		tracker.EndStage("segmentation", 0, err)
		tracker.Fail()
		return nil, err
	}
	categories, err := DistinctValues(segment, spec.Columns.Income)
	if err != nil {
		tracker.EndStage("segmentation", 0, err)
		tracker.Fail()
		return nil, err
	}
	tracker.EndStage("segmentation", int64(segment.Rows()), nil)
	if segment.Rows() == 0 {
		slog.Warn("segment is empty; every metric will be undefined",
			"column", spec.Segment.Column, "value", spec.Segment.Value)
	}

	cache, err := NewSectionCache(cfg.cacheSize)
	if err != nil {
		tracker.Fail()
		return nil, err
	}
	tracker.Complete(segment.Rows())

	return &Session{
		ID:               sessionID,
		Spec:             spec,
		Sources:          sources,
		Segment:          segment,
		LoadedAt:         time.Now(),
		incomeCategories: categories,
		tracker:          tracker,
		cache:            cache,
	}, nil
}

// IncomeCategories returns the selectable income categories of the segment
// in first-seen order.
func (s *Session) IncomeCategories() []string {
	out := make([]string, len(s.incomeCategories))
	copy(out, s.incomeCategories)
	return out
}

// DefaultIncomeCategory returns the category selected when the user has not
// chosen one yet.
func (s *Session) DefaultIncomeCategory() string {
	if len(s.incomeCategories) == 0 {
		return ""
	}
	return s.incomeCategories[0]
}

// Status reports how the session was built.
func (s *Session) Status() model.SessionStatus {
	return s.tracker.Status()
}

// CachedSections returns the number of memoized sections.
func (s *Session) CachedSections() int {
	return s.cache.Len()
}
