package model

import "time"

// RunStatus represents the outcome of a load run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run records one load of a cleaned dataset into the store.
type Run struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	Status      RunStatus  `json:"status"`
	Records     int        `json:"records"`
	Trends      int        `json:"trends"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Quality holds data-quality counts from one reconstruction pass.
type Quality struct {
	RowsRead       int            `json:"rows_read" yaml:"rows_read"`
	Records        int            `json:"records" yaml:"records"`
	Headers        int            `json:"headers" yaml:"headers"`
	Decoration     int            `json:"decoration" yaml:"decoration"`
	MalformedGroup int            `json:"malformed_group" yaml:"malformed_group"`
	Orphans        int            `json:"orphans" yaml:"orphans"`
	YearDefects    int            `json:"year_defects" yaml:"year_defects"`
	BeforeMinYear  int            `json:"before_min_year" yaml:"before_min_year"`
	Duplicates     int            `json:"duplicates" yaml:"duplicates"`
	MissingNumeric map[string]int `json:"missing_numeric,omitempty" yaml:"missing_numeric,omitempty"`
}

// DropReason classifies why a source row produced no record.
type DropReason string

// Drop describes one source row that was left out of the output.
type Drop struct {
	Line   int        `json:"line" yaml:"line"`
	Reason DropReason `json:"reason" yaml:"reason"`
	Value  string     `json:"value,omitempty" yaml:"value,omitempty"`
}
