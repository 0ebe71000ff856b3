package domain

import "time"

// LogRecord is one ingested log line as returned by the analysis backend.
// Every field is optional; a missing field is its zero value.
type LogRecord struct {
	Message    string `json:"message,omitempty"`
	Level      string `json:"level,omitempty"`
	Service    string `json:"service,omitempty"`
	Route      string `json:"route,omitempty"`
	StatusCode *int   `json:"status_code,omitempty"`
	Priority   string `json:"priority,omitempty"` // may be assigned by the backend parser
	Reason     string `json:"reason,omitempty"`
}

// ClassificationResult is the model annotation for the LogRecord at the same index.
type ClassificationResult struct {
	Category string `json:"category,omitempty"`
	Priority string `json:"priority,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Dataset is the canonical pair of logs and results currently held by the dashboard.
// Results is kept the same length as Logs once ingested.
type Dataset struct {
	ID       string                 `json:"id"`
	Source   string                 `json:"source"`
	LoadedAt time.Time              `json:"loaded_at"`
	Logs     []LogRecord            `json:"logs"`
	Results  []ClassificationResult `json:"results"`
	Warnings []string               `json:"warnings,omitempty"`
}

// Len returns the number of log records.
func (d Dataset) Len() int {
	return len(d.Logs)
}

// ResultAt returns the result for index i, or an empty result if none exists.
func (d Dataset) ResultAt(i int) ClassificationResult {
	if i < 0 || i >= len(d.Results) {
		return ClassificationResult{}
	}
	return d.Results[i]
}

// DatasetEvent is broadcast to dashboard clients whenever the dataset is replaced.
type DatasetEvent struct {
	DatasetID string    `json:"dataset_id"`
	Source    string    `json:"source"`
	Total     int       `json:"total"`
	Warnings  int       `json:"warnings"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// AnalysisRun is the archived summary of one ingested dataset.
type AnalysisRun struct {
	ID             string         `json:"run_id"`
	Source         string         `json:"source"`
	LoadedAt       time.Time      `json:"loaded_at"`
	Total          int            `json:"total"`
	PriorityCounts map[string]int `json:"priority_counts"`
	CategoryCounts map[string]int `json:"category_counts"`
	Warnings       []string       `json:"warnings"`
}
