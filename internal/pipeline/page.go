package pipeline

import (
	"cmp"
	"slices"
	"strings"

	"github.com/V4T54L/log-lens/internal/domain"
)

// PageSize is the fixed number of records per page.
const PageSize = 50

// GroupMode selects how rows are ordered before slicing a page.
type GroupMode string

const (
	GroupNone     GroupMode = "none"
	GroupPriority GroupMode = "priority"
)

// ParseGroupMode maps user input to a GroupMode; anything unknown is GroupNone.
func ParseGroupMode(s string) GroupMode {
	if strings.EqualFold(strings.TrimSpace(s), string(GroupPriority)) {
		return GroupPriority
	}
	return GroupNone
}

// RowKind tells record rows apart from group markers.
type RowKind string

const (
	RowRecord RowKind = "record"
	RowGroup  RowKind = "group"
)

// unknownGroup labels runs of rows without a priority.
const unknownGroup = "unknown"

// Row is either a record (Position, Log, Result) or a group marker (Group, Count)
// closing the run of same-priority records above it.
type Row struct {
	Kind     RowKind                      `json:"kind"`
	Position int                          `json:"position,omitempty"` // 1-based index in the filtered set
	Log      *domain.LogRecord            `json:"log,omitempty"`
	Result   *domain.ClassificationResult `json:"result,omitempty"`
	Group    string                       `json:"group,omitempty"`
	Count    int                          `json:"count,omitempty"`
}

// Page is one rendered window over the filtered set.
type Page struct {
	Number     int   `json:"number"`
	TotalPages int   `json:"total_pages"`
	Size       int   `json:"size"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
	Rows       []Row `json:"rows"`
}

// TotalPages is max(1, ceil(n/PageSize)).
func TotalPages(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + PageSize - 1) / PageSize
}

// ClampPage forces page into [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

var priorityRanks = map[string]int{
	"critical": 0,
	"high":     1,
	"medium":   2,
	"low":      3,
	"unknown":  4,
	"":         5,
}

// PriorityRank orders priorities critical, high, medium, low, unknown, empty;
// unrecognized values rank after all of them.
func PriorityRank(priority string) int {
	if rank, ok := priorityRanks[strings.ToLower(priority)]; ok {
		return rank
	}
	return len(priorityRanks)
}

// Paginate slices the filtered pair into the requested page. In GroupPriority
// mode the whole set is stable-sorted by PriorityRank first, and a group marker
// follows each run of equal priority within the page.
func Paginate(logs []domain.LogRecord, results []domain.ClassificationResult, page int, mode GroupMode) Page {
	n := len(logs)
	totalPages := TotalPages(n)
	page = ClampPage(page, totalPages)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if mode == GroupPriority {
		slices.SortStableFunc(order, func(a, b int) int {
			return cmp.Compare(PriorityRank(resultAt(results, a).Priority), PriorityRank(resultAt(results, b).Priority))
		})
	}

	start := min((page-1)*PageSize, n)
	end := min(start+PageSize, n)
	window := order[start:end]

	p := Page{
		Number:     page,
		TotalPages: totalPages,
		Size:       PageSize,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		Rows:       make([]Row, 0, len(window)),
	}

	var (
		runLabel string
		runCount int
	)
	for _, idx := range window {
		log := logs[idx]
		result := resultAt(results, idx)
		if mode == GroupPriority {
			label := result.Priority
			if label == "" {
				label = unknownGroup
			}
			if runCount > 0 && label != runLabel {
				p.Rows = append(p.Rows, Row{Kind: RowGroup, Group: runLabel, Count: runCount})
				runCount = 0
			}
			runLabel = label
			runCount++
		}
		p.Rows = append(p.Rows, Row{Kind: RowRecord, Position: idx + 1, Log: &log, Result: &result})
	}
	if mode == GroupPriority && runCount > 0 {
		p.Rows = append(p.Rows, Row{Kind: RowGroup, Group: runLabel, Count: runCount})
	}
	return p
}
