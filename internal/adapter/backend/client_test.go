package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/V4T54L/log-lens/internal/adapter/metrics"
	"github.com/V4T54L/log-lens/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *prometheus.Registry) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	reg := prometheus.NewRegistry()
	m := metrics.NewDashboardMetrics(reg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	timeouts := Timeouts{Default: time.Second, Long: time.Second, Train: time.Second}
	return NewClient(srv.URL, timeouts, 0, 1, m, logger), reg
}

// counterValue sums a counter family's samples whose labels include all of want.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			matched := 0
			for _, lp := range metric.GetLabel() {
				if v, ok := want[lp.GetName()]; ok && v == lp.GetValue() {
					matched++
				}
			}
			if matched == len(want) {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	return total
}

func TestClient_PredictFile(t *testing.T) {
	var gotBody map[string]any
	client, reg := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predict-file" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"logs": [
				{"message": "boom", "level": "ERROR", "status_code": 500, "route": "/a"},
				{"message": 42, "level": null, "status_code": "404"},
				{"message": "x", "status_code": "n/a"},
				{"message": "y", "status_code": 200.5},
				"not an object"
			],
			"results": [{"category": "api", "priority": "high", "reason": "Timeout"}],
			"warnings": ["line 7: invalid json"],
			"report_file": "analysis_20240105T102231Z.json"
		}`)
	})

	payload, err := client.PredictFile(context.Background(), "app.jsonl")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotBody["file_path"] != "app.jsonl" {
		t.Errorf("unexpected request body %v", gotBody)
	}
	if len(payload.Logs) != 5 || len(payload.Results) != 1 {
		t.Fatalf("got %d logs, %d results", len(payload.Logs), len(payload.Results))
	}

	first := payload.Logs[0]
	if first.Message != "boom" || first.StatusCode == nil || *first.StatusCode != 500 {
		t.Errorf("unexpected first log %+v", first)
	}
	second := payload.Logs[1]
	if second.Message != "42" || second.Level != "" || second.StatusCode == nil || *second.StatusCode != 404 {
		t.Errorf("unexpected lenient decoding %+v", second)
	}
	if payload.Logs[2].StatusCode != nil || payload.Logs[3].StatusCode != nil {
		t.Error("expected non-integer status codes to be absent")
	}
	if payload.Logs[4] != (domain.LogRecord{}) {
		t.Errorf("expected empty record for non-object item, got %+v", payload.Logs[4])
	}
	if payload.Results[0].Reason != "Timeout" {
		t.Errorf("unexpected result %+v", payload.Results[0])
	}
	if len(payload.Warnings) != 1 || payload.ReportFile != "analysis_20240105T102231Z.json" {
		t.Errorf("unexpected warnings/report file: %v %q", payload.Warnings, payload.ReportFile)
	}
	if got := counterValue(t, reg, "log_lens_backend_requests_total", map[string]string{"endpoint": "predict_file", "outcome": "ok"}); got != 1 {
		t.Errorf("expected 1 ok request recorded, got %v", got)
	}
}

func TestClient_PredictFile_MissingArrays(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"logs": "oops"}`)
	})

	payload, err := client.PredictFile(context.Background(), "app.jsonl")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if payload.Logs == nil || payload.Results == nil || len(payload.Logs) != 0 || len(payload.Results) != 0 {
		t.Errorf("expected empty non-nil arrays, got %+v", payload)
	}
}

func TestClient_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "backend error body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"error": "file not found or not allowed"}`)
			},
			check: func(t *testing.T, err error) {
				var be *domain.BackendError
				if !errors.As(err, &be) {
					t.Fatalf("expected BackendError, got %v", err)
				}
				if be.StatusCode != http.StatusBadRequest || be.Message != "file not found or not allowed" {
					t.Errorf("unexpected backend error %+v", be)
				}
			},
		},
		{
			name: "non-json error body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			check: func(t *testing.T, err error) {
				var be *domain.BackendError
				if !errors.As(err, &be) || be.Message != "Internal Server Error" {
					t.Errorf("expected status text message, got %v", err)
				}
			},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			check: func(t *testing.T, err error) {
				if !errors.Is(err, domain.ErrBackendTimeout) {
					t.Errorf("expected ErrBackendTimeout, got %v", err)
				}
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"logs": [`)
			},
			check: func(t *testing.T, err error) {
				if err == nil {
					t.Fatal("expected a parse error")
				}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, tc.handler)
			client.timeouts.Default = 100 * time.Millisecond
			_, err := client.AnalysisReport(context.Background(), "analysis_1.json")
			tc.check(t, err)
		})
	}
}

func TestClient_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	client := NewClient(addr, Timeouts{Default: time.Second}, 0, 1, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := client.Health(context.Background())
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Errorf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestClient_ListFiles(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/training-files" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"files": [{"name": "training_2.json", "path": "training_2.json", "size": 2048}, {"name": "b.json", "size": 10}]}`)
	})

	files, err := client.ListFiles(context.Background(), domain.FileKindTraining)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(files) != 2 || files[0].Size != 2048 || files[0].SizeKB() != 2 {
		t.Errorf("unexpected files %+v", files)
	}
	if files[1].Path != "b.json" {
		t.Errorf("expected path to default to name, got %q", files[1].Path)
	}

	if _, err := client.ListFiles(context.Background(), domain.FileKind("bogus")); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestClient_Train(t *testing.T) {
	var gotBody map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, `{
			"ok": true,
			"report_file": "training_20240105.json",
			"result": {
				"priority_report": {
					"high": {"precision": 0.9, "recall": 0.8, "f1-score": 0.847, "support": 12.0},
					"low": {"precision": 1, "support": 3},
					"accuracy": 0.875
				},
				"category_report": null
			}
		}`)
	})

	outcome, err := client.Train(context.Background(), "logs_train.jsonl")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotBody["data_path"] != "data/logs_train.jsonl" {
		t.Errorf("expected data/ prefix, got %v", gotBody["data_path"])
	}
	if outcome.ReportFile != "training_20240105.json" || outcome.Report.Name != outcome.ReportFile {
		t.Errorf("unexpected outcome %+v", outcome)
	}

	sections := outcome.Report.Sections
	if len(sections) != 3 || sections[0].Key != "category_report" || sections[1].Key != "priority_report" {
		t.Fatalf("unexpected sections %+v", sections)
	}
	if sections[0].Present || sections[2].Present {
		t.Error("expected null and missing sections to be absent")
	}
	entries := sections[1].Entries
	if len(entries) != 3 || entries[0].Name != "high" || entries[1].Name != "low" || entries[2].Name != "accuracy" {
		t.Fatalf("expected backend key order, got %+v", entries)
	}
	if entries[0].Metrics.Support != "12" || *entries[0].Metrics.F1 != 0.847 {
		t.Errorf("unexpected metrics %+v", entries[0].Metrics)
	}
	if entries[1].Metrics.Recall != nil {
		t.Error("expected missing recall to be nil")
	}
	if entries[2].Metrics != nil || entries[2].Value != "0.875" {
		t.Errorf("expected scalar entry, got %+v", entries[2])
	}
}

func TestClient_SplitFile(t *testing.T) {
	var gotBody map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = io.WriteString(w, `{"count": 3, "parts": [{"name": "a_part001.jsonl", "path": "a_part001.jsonl", "size": 100}], "max_mb": 4}`)
	})

	res, err := client.SplitFile(context.Background(), "a.jsonl", 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotBody["max_mb"] != float64(4) {
		t.Errorf("expected default max_mb 4, got %v", gotBody["max_mb"])
	}
	if res.Count != 3 || len(res.Parts) != 1 || res.MaxMB != 4 {
		t.Errorf("unexpected result %+v", res)
	}

	if _, err := client.SplitFile(context.Background(), "a.jsonl", -1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestClient_AtomizeFile_RequiresPaths(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called")
	})
	if _, err := client.AtomizeFile(context.Background(), "raw.log", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
