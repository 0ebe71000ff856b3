package pipeline

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/V4T54L/log-lens/internal/domain"
)

func newTestSession() *Session {
	return NewSession(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func datasetOf(n int, priority func(i int) string) domain.Dataset {
	logs, results := makeRecords(n, priority)
	return domain.Dataset{ID: "ds-1", Source: "data/app.log", LoadedAt: time.Now(), Logs: logs, Results: results}
}

func TestSession_EmptyView(t *testing.T) {
	s := newTestSession()
	v := s.View()

	if v.Total != 0 || v.Filtered != 0 || v.Summary.Total != 0 {
		t.Errorf("unexpected counts %+v", v)
	}
	if len(v.Stats) != 11 {
		t.Errorf("expected 11 stats tables, got %d", len(v.Stats))
	}
	if v.Page.Number != 1 || v.Page.TotalPages != 1 {
		t.Errorf("unexpected page %d/%d", v.Page.Number, v.Page.TotalPages)
	}
	if v.LoadedAt != nil {
		t.Error("expected no load time before ingestion")
	}
}

func TestSession_IngestAlignsAndResetsPage(t *testing.T) {
	s := newTestSession()
	s.Ingest(datasetOf(120, func(int) string { return "low" }))
	s.GoToPage(3)

	ds := datasetOf(3, func(int) string { return "high" })
	ds.Results = append(ds.Results, domain.ClassificationResult{Priority: "extra"}, domain.ClassificationResult{})
	v := s.Ingest(ds)

	if v.Page.Number != 1 {
		t.Errorf("expected page reset to 1, got %d", v.Page.Number)
	}
	if v.Total != 3 || len(s.Dataset().Results) != 3 {
		t.Errorf("expected results aligned to 3 logs, got total=%d results=%d", v.Total, len(s.Dataset().Results))
	}
	if got := Counts(v.Summary.ByPriority); got["extra"] != 0 {
		t.Error("surplus result leaked into the summary")
	}

	short := datasetOf(2, func(int) string { return "low" })
	short.Results = short.Results[:1]
	v = s.Ingest(short)
	if v.Summary.Total != 2 || len(v.Summary.ByPriority) != 1 || v.Summary.ByPriority[0].Count != 1 {
		t.Errorf("expected one empty padded result, got %+v", v.Summary)
	}
}

func TestSession_IngestReappliesCriteria(t *testing.T) {
	s := newTestSession()
	s.ApplyFilters(Criteria{Priority: "high"}, GroupNone, false)

	v := s.Ingest(datasetOf(10, func(i int) string {
		if i%2 == 0 {
			return "high"
		}
		return "low"
	}))

	if v.Total != 10 || v.Filtered != 5 {
		t.Errorf("expected 5 of 10 filtered, got %d of %d", v.Filtered, v.Total)
	}
	if v.Criteria.Priority != "high" {
		t.Errorf("criteria not kept across ingestion: %+v", v.Criteria)
	}
}

func TestSession_IngestDoesNotAliasInput(t *testing.T) {
	s := newTestSession()
	ds := datasetOf(2, func(int) string { return "low" })
	s.Ingest(ds)

	ds.Logs[0].Message = "mutated"
	ds.Results[0].Priority = "critical"

	got := s.Dataset()
	if got.Logs[0].Message == "mutated" || got.Results[0].Priority == "critical" {
		t.Error("session dataset shares memory with the caller")
	}
}

func TestSession_ApplyFilters(t *testing.T) {
	s := newTestSession()
	s.Ingest(datasetOf(200, func(i int) string {
		if i < 150 {
			return "low"
		}
		return "critical"
	}))
	s.GoToPage(3)

	t.Run("preserves page when asked", func(t *testing.T) {
		v := s.ApplyFilters(Criteria{}, GroupPriority, true)
		if v.Page.Number != 3 {
			t.Errorf("expected page 3, got %d", v.Page.Number)
		}
		if v.Group != GroupPriority {
			t.Errorf("expected priority grouping, got %s", v.Group)
		}
	})

	t.Run("clamps preserved page to new range", func(t *testing.T) {
		v := s.ApplyFilters(Criteria{Priority: "critical"}, GroupNone, true)
		if v.Filtered != 50 || v.Page.Number != 1 || v.Page.TotalPages != 1 {
			t.Errorf("unexpected view: filtered=%d page=%d/%d", v.Filtered, v.Page.Number, v.Page.TotalPages)
		}
	})

	t.Run("resets page otherwise", func(t *testing.T) {
		s.ApplyFilters(Criteria{}, GroupNone, false)
		s.GoToPage(4)
		v := s.ApplyFilters(Criteria{Search: "  msg  "}, GroupNone, false)
		if v.Page.Number != 1 {
			t.Errorf("expected page 1, got %d", v.Page.Number)
		}
		if v.Criteria.Search != "msg" {
			t.Errorf("expected trimmed search, got %q", v.Criteria.Search)
		}
	})

	t.Run("summary follows the filtered set", func(t *testing.T) {
		v := s.ApplyFilters(Criteria{Priority: "low"}, GroupNone, false)
		if v.Summary.Total != 150 || v.Total != 200 {
			t.Errorf("summary total %d, dataset total %d", v.Summary.Total, v.Total)
		}
	})
}

func TestSession_PageNavigation(t *testing.T) {
	s := newTestSession()
	s.Ingest(datasetOf(120, func(int) string { return "low" }))

	if v := s.PrevPage(); v.Page.Number != 1 {
		t.Errorf("prev on first page: got %d", v.Page.Number)
	}
	if v := s.NextPage(); v.Page.Number != 2 {
		t.Errorf("next: got %d", v.Page.Number)
	}
	s.NextPage()
	if v := s.NextPage(); v.Page.Number != 3 {
		t.Errorf("next on last page: got %d", v.Page.Number)
	}
	if v := s.GoToPage(-1); v.Page.Number != 1 {
		t.Errorf("goto below range: got %d", v.Page.Number)
	}
	if v := s.GoToPage(42); v.Page.Number != 3 {
		t.Errorf("goto above range: got %d", v.Page.Number)
	}
}

func TestSession_ConcurrentAccess(t *testing.T) {
	s := newTestSession()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := range 20 {
				switch (i + j) % 4 {
				case 0:
					s.Ingest(datasetOf(60, func(int) string { return "medium" }))
				case 1:
					s.ApplyFilters(Criteria{Level: "INFO"}, GroupPriority, true)
				case 2:
					s.NextPage()
				default:
					v := s.View()
					if v.Page.Number < 1 || v.Page.Number > v.Page.TotalPages {
						t.Errorf("page %d out of range 1..%d", v.Page.Number, v.Page.TotalPages)
					}
				}
			}
		}(i)
	}
	wg.Wait()
}
