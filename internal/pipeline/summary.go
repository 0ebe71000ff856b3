package pipeline

import "github.com/V4T54L/log-lens/internal/domain"

// Summary aggregates classification results by priority and category.
// Empty values count toward Total but get no entry.
type Summary struct {
	Total      int          `json:"total"`
	ByPriority []CountEntry `json:"by_priority"`
	ByCategory []CountEntry `json:"by_category"`
}

// Summarize counts results by priority and category, each ordered by count descending.
func Summarize(results []domain.ClassificationResult) Summary {
	byPriority := newCounter()
	byCategory := newCounter()
	for _, r := range results {
		byPriority.add(r.Priority)
		byCategory.add(r.Category)
	}
	total := len(results)
	return Summary{
		Total:      total,
		ByPriority: byPriority.entries(total, 0),
		ByCategory: byCategory.entries(total, 0),
	}
}

// Counts flattens entries into a plain map.
func Counts(entries []CountEntry) map[string]int {
	m := make(map[string]int, len(entries))
	for _, e := range entries {
		m[e.Key] = e.Count
	}
	return m
}
