package pipeline

import (
	"strings"

	"github.com/V4T54L/log-lens/internal/domain"
)

// Criteria are the viewer's filters. Empty fields are inactive.
type Criteria struct {
	Level    string `json:"level"`
	Priority string `json:"priority"`
	Search   string `json:"search"`
}

// Normalize trims the search term; level and priority are compared case-insensitively as given.
func (c Criteria) Normalize() Criteria {
	c.Search = strings.TrimSpace(c.Search)
	return c
}

// IsZero reports whether no criterion is active.
func (c Criteria) IsZero() bool {
	n := c.Normalize()
	return n.Level == "" && n.Priority == "" && n.Search == ""
}

// Match reports whether a log/result pair passes every active criterion.
func (c Criteria) Match(log domain.LogRecord, result domain.ClassificationResult) bool {
	c = c.Normalize()
	if c.Level != "" && !strings.EqualFold(log.Level, c.Level) {
		return false
	}
	if c.Priority != "" && !strings.EqualFold(result.Priority, c.Priority) {
		return false
	}
	if c.Search != "" {
		hay := strings.ToLower(log.Message + " " + log.Reason + " " + log.Route)
		if !strings.Contains(hay, strings.ToLower(c.Search)) {
			return false
		}
	}
	return true
}

// Filter returns the pairs that match c, in their original relative order.
// A missing result for an index is treated as an empty result.
func Filter(logs []domain.LogRecord, results []domain.ClassificationResult, c Criteria) ([]domain.LogRecord, []domain.ClassificationResult) {
	outLogs := make([]domain.LogRecord, 0, len(logs))
	outResults := make([]domain.ClassificationResult, 0, len(logs))
	for i, log := range logs {
		result := resultAt(results, i)
		if !c.Match(log, result) {
			continue
		}
		outLogs = append(outLogs, log)
		outResults = append(outResults, result)
	}
	return outLogs, outResults
}

// AlignResults pads results with empty records up to len(logs) and drops
// trailing results that have no log. It returns the aligned copy and the
// number of dropped results.
func AlignResults(logs []domain.LogRecord, results []domain.ClassificationResult) ([]domain.ClassificationResult, int) {
	aligned := make([]domain.ClassificationResult, len(logs))
	copy(aligned, results)
	dropped := 0
	if len(results) > len(logs) {
		dropped = len(results) - len(logs)
	}
	return aligned, dropped
}

func resultAt(results []domain.ClassificationResult, i int) domain.ClassificationResult {
	if i < len(results) {
		return results[i]
	}
	return domain.ClassificationResult{}
}
