package pipeline

import (
	"reflect"
	"testing"

	"github.com/V4T54L/log-lens/internal/domain"
)

func sampleLogs() ([]domain.LogRecord, []domain.ClassificationResult) {
	logs := []domain.LogRecord{
		{Message: "Disk space low", Level: "WARNING", Route: "/disk"},
		{Message: "Request failed: Timeout", Level: "ERROR", Route: "/api/orders"},
		{Message: "user logged in", Level: "INFO", Route: "/login"},
		{Message: "payment declined", Level: "error", Route: "/api/pay", Reason: "Card expired"},
		{Message: "healthcheck ok", Level: "INFO", Route: "/health"},
	}
	results := []domain.ClassificationResult{
		{Category: "infra", Priority: "medium"},
		{Category: "api", Priority: "high"},
		{Category: "auth", Priority: "low"},
		{Category: "payments", Priority: "High"},
		{Category: "infra", Priority: "low"},
	}
	return logs, results
}

func TestFilter(t *testing.T) {
	logs, results := sampleLogs()

	testCases := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{"no criteria", Criteria{}, []string{"Disk space low", "Request failed: Timeout", "user logged in", "payment declined", "healthcheck ok"}},
		{"level is case-insensitive", Criteria{Level: "ERROR"}, []string{"Request failed: Timeout", "payment declined"}},
		{"priority is case-insensitive", Criteria{Priority: "high"}, []string{"Request failed: Timeout", "payment declined"}},
		{"search in message", Criteria{Search: "DISK"}, []string{"Disk space low"}},
		{"search in reason", Criteria{Search: "expired"}, []string{"payment declined"}},
		{"search in route", Criteria{Search: "/api"}, []string{"Request failed: Timeout", "payment declined"}},
		{"search is trimmed", Criteria{Search: "  healthcheck  "}, []string{"healthcheck ok"}},
		{"criteria are combined", Criteria{Level: "info", Priority: "low", Search: "login"}, []string{"user logged in"}},
		{"nothing matches", Criteria{Level: "DEBUG"}, []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gotLogs, gotResults := Filter(logs, results, tc.criteria)
			if len(gotLogs) != len(gotResults) {
				t.Fatalf("filtered pair out of step: %d logs, %d results", len(gotLogs), len(gotResults))
			}
			got := make([]string, 0, len(gotLogs))
			for _, l := range gotLogs {
				got = append(got, l.Message)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFilter_Idempotent(t *testing.T) {
	logs, results := sampleLogs()
	c := Criteria{Priority: "HIGH", Search: "a"}

	onceLogs, onceResults := Filter(logs, results, c)
	twiceLogs, twiceResults := Filter(onceLogs, onceResults, c)

	if !reflect.DeepEqual(onceLogs, twiceLogs) || !reflect.DeepEqual(onceResults, twiceResults) {
		t.Errorf("filter is not idempotent: once=%v twice=%v", onceLogs, twiceLogs)
	}
}

func TestFilter_PreservesOrderAndPairing(t *testing.T) {
	logs, results := sampleLogs()
	gotLogs, gotResults := Filter(logs, results, Criteria{Level: "info"})

	if len(gotLogs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(gotLogs))
	}
	if gotLogs[0].Route != "/login" || gotLogs[1].Route != "/health" {
		t.Errorf("relative order not preserved: %v", gotLogs)
	}
	if gotResults[0].Category != "auth" || gotResults[1].Category != "infra" {
		t.Errorf("results not paired with their logs: %v", gotResults)
	}
}

func TestFilter_MissingResultsTreatedAsEmpty(t *testing.T) {
	logs := []domain.LogRecord{{Message: "a"}, {Message: "b"}}
	results := []domain.ClassificationResult{{Priority: "low"}}

	gotLogs, gotResults := Filter(logs, results, Criteria{})
	if len(gotLogs) != 2 || len(gotResults) != 2 {
		t.Fatalf("expected 2 pairs, got %d/%d", len(gotLogs), len(gotResults))
	}
	if gotResults[1] != (domain.ClassificationResult{}) {
		t.Errorf("expected empty result for unmatched log, got %+v", gotResults[1])
	}

	gotLogs, _ = Filter(logs, results, Criteria{Priority: "low"})
	if len(gotLogs) != 1 || gotLogs[0].Message != "a" {
		t.Errorf("unexpected priority filter result: %v", gotLogs)
	}
}

func TestAlignResults(t *testing.T) {
	logs := []domain.LogRecord{{Message: "a"}, {Message: "b"}}

	t.Run("pads short results", func(t *testing.T) {
		aligned, dropped := AlignResults(logs, []domain.ClassificationResult{{Priority: "high"}})
		if len(aligned) != 2 || dropped != 0 {
			t.Fatalf("got len=%d dropped=%d", len(aligned), dropped)
		}
		if aligned[0].Priority != "high" || aligned[1] != (domain.ClassificationResult{}) {
			t.Errorf("unexpected alignment: %+v", aligned)
		}
	})

	t.Run("drops surplus results", func(t *testing.T) {
		aligned, dropped := AlignResults(logs, make([]domain.ClassificationResult, 5))
		if len(aligned) != 2 || dropped != 3 {
			t.Errorf("got len=%d dropped=%d", len(aligned), dropped)
		}
	})

	t.Run("does not alias input", func(t *testing.T) {
		in := []domain.ClassificationResult{{Priority: "low"}, {Priority: "low"}}
		aligned, _ := AlignResults(logs, in)
		aligned[0].Priority = "critical"
		if in[0].Priority != "low" {
			t.Error("AlignResults mutated its input")
		}
	})
}
