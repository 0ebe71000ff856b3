package domain

import (
	"encoding/json"
	"time"
)

// FileKind selects one of the backend's file listings.
type FileKind string

const (
	FileKindData     FileKind = "data"
	FileKindRaw      FileKind = "raw"
	FileKindTraining FileKind = "training"
	FileKindAnalysis FileKind = "analysis"
)

// Valid reports whether k names a known listing.
func (k FileKind) Valid() bool {
	switch k {
	case FileKindData, FileKindRaw, FileKindTraining, FileKindAnalysis:
		return true
	}
	return false
}

// FileInfo describes one file in a backend listing.
type FileInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// SizeKB is the size rounded to whole kilobytes for display.
func (f FileInfo) SizeKB() int64 {
	return (f.Size + 512) / 1024
}

// BackendHealth is the backend's /health answer.
type BackendHealth struct {
	OK     bool            `json:"ok"`
	Time   string          `json:"time,omitempty"`
	Models map[string]bool `json:"models,omitempty"`
}

// AnalysisPayload is the logs/results body returned by predict-style calls.
type AnalysisPayload struct {
	Logs       []LogRecord            `json:"logs"`
	Results    []ClassificationResult `json:"results"`
	Warnings   []string               `json:"warnings,omitempty"`
	ReportFile string                 `json:"report_file,omitempty"`
}

// AnalysisReport is a saved analysis run fetched by name.
type AnalysisReport struct {
	Name      string          `json:"name"`
	Source    string          `json:"source,omitempty"`
	CreatedAt string          `json:"created_at,omitempty"`
	Payload   AnalysisPayload `json:"payload"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

// ClassMetrics holds per-class scores of a training report. Nil means not reported.
type ClassMetrics struct {
	Precision *float64 `json:"precision,omitempty"`
	Recall    *float64 `json:"recall,omitempty"`
	F1        *float64 `json:"f1_score,omitempty"`
	Support   string   `json:"support,omitempty"`
}

// TrainingEntry is one row of a training report section: either class metrics or a scalar.
type TrainingEntry struct {
	Name    string        `json:"name"`
	Metrics *ClassMetrics `json:"metrics,omitempty"`
	Value   string        `json:"value,omitempty"`
}

// TrainingSection is one of the category, priority or reason reports.
type TrainingSection struct {
	Key     string          `json:"key"`
	Label   string          `json:"label"`
	Present bool            `json:"present"`
	Entries []TrainingEntry `json:"entries"`
}

// TrainingReport is a decoded training report, sections in fixed order.
type TrainingReport struct {
	Name     string            `json:"name"`
	Sections []TrainingSection `json:"sections"`
	Raw      json.RawMessage   `json:"raw,omitempty"`
}

// TrainingOutcome is the answer to a training run.
type TrainingOutcome struct {
	ReportFile string         `json:"report_file"`
	Report     TrainingReport `json:"report"`
	Duration   time.Duration  `json:"duration_ns"`
}

// SplitResult is the answer to a split-file call.
type SplitResult struct {
	Count    int        `json:"count"`
	Parts    []FileInfo `json:"parts"`
	MaxMB    float64    `json:"max_mb"`
	Warnings []string   `json:"warnings,omitempty"`
}

// AtomizeResult is the answer to an atomize-file call.
type AtomizeResult struct {
	Count   int    `json:"count"`
	OutPath string `json:"out_path"`
}
