package model

import "time"

// Section is one derived table of the report, handed to the presentation
// layer. Exactly one of Metrics, Grouped, Proportions or Recommendations is
// populated, depending on the section.
type Section struct {
	Name            string        `json:"name"`
	Title           string        `json:"title"`
	IncomeCategory  string        `json:"income_category,omitempty"`
	Metrics         []Metric      `json:"metrics,omitempty"`
	Grouped         *GroupedTable `json:"grouped,omitempty"`
	Proportions     []Proportion  `json:"proportions,omitempty"`
	Recommendations []string      `json:"recommendations,omitempty"`
}

// Report is the full set of sections for one income-category selection.
type Report struct {
	SessionID        string    `json:"session_id"`
	Segment          Segment   `json:"segment"`
	SegmentRows      int       `json:"segment_rows"`
	IncomeCategory   string    `json:"income_category"`
	IncomeCategories []string  `json:"income_categories"`
	Sections         []Section `json:"sections"`
	GeneratedAt      time.Time `json:"generated_at"`
}

// Section returns the named section, or nil.
func (r *Report) Section(name string) *Section {
	for i := range r.Sections {
		if r.Sections[i].Name == name {
			return &r.Sections[i]
		}
	}
	return nil
}
