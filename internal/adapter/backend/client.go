package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/V4T54L/log-lens/internal/adapter/metrics"
	"github.com/V4T54L/log-lens/internal/domain"
	"github.com/google/uuid"
	"github.com/valyala/fastjson"
	"golang.org/x/time/rate"
)

const (
	maxResponseBytes = 512 << 20
	defaultSplitMB   = 4
	trainDataPrefix  = "data/"
)

// Timeouts are the per-call deadlines for backend requests.
type Timeouts struct {
	Default time.Duration // listings, reports, health, atomize
	Long    time.Duration // predict-file, split-file
	Train   time.Duration
}

// Client implements domain.AnalysisBackend over the backend's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeouts   Timeouts
	metrics    *metrics.DashboardMetrics
	logger     *slog.Logger
	parsers    fastjson.ParserPool
}

// NewClient creates a backend client. A non-positive rps disables client-side rate limiting.
// The metrics argument may be nil.
func NewClient(baseURL string, timeouts Timeouts, rps float64, burst int, m *metrics.DashboardMetrics, logger *slog.Logger) *Client {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(limit, burst),
		timeouts:   timeouts,
		metrics:    m,
		logger:     logger.With("component", "backend_client"),
	}
}

var fileListPaths = map[domain.FileKind]string{
	domain.FileKindData:     "/data-files",
	domain.FileKindRaw:      "/raw-files",
	domain.FileKindTraining: "/training-files",
	domain.FileKindAnalysis: "/analysis-files",
}

// Health queries the backend's readiness and model availability.
func (c *Client) Health(ctx context.Context) (*domain.BackendHealth, error) {
	var health *domain.BackendHealth
	err := c.call(ctx, "health", http.MethodGet, "/health", nil, nil, c.timeouts.Default, func(v *fastjson.Value) error {
		health = decodeHealth(v)
		return nil
	})
	return health, err
}

// ListFiles returns one of the backend's file listings.
func (c *Client) ListFiles(ctx context.Context, kind domain.FileKind) ([]domain.FileInfo, error) {
	path, ok := fileListPaths[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown file kind %q", domain.ErrInvalidInput, kind)
	}
	var files []domain.FileInfo
	err := c.call(ctx, "list_files", http.MethodGet, path, nil, nil, c.timeouts.Default, func(v *fastjson.Value) error {
		files = decodeFiles(v.Get("files"))
		return nil
	})
	return files, err
}

// PredictFile parses and classifies a data file on the backend.
func (c *Client) PredictFile(ctx context.Context, path string) (*domain.AnalysisPayload, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: file path is required", domain.ErrInvalidInput)
	}
	body := map[string]any{"file_path": path}
	var payload *domain.AnalysisPayload
	err := c.call(ctx, "predict_file", http.MethodPost, "/predict-file", nil, body, c.timeouts.Long, func(v *fastjson.Value) error {
		p := decodePayload(v)
		payload = &p
		return nil
	})
	return payload, err
}

// AnalysisReport fetches a saved analysis report by file name.
func (c *Client) AnalysisReport(ctx context.Context, name string) (*domain.AnalysisReport, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: report name is required", domain.ErrInvalidInput)
	}
	var report *domain.AnalysisReport
	err := c.call(ctx, "analysis_report", http.MethodGet, "/analysis-report", url.Values{"name": {name}}, nil, c.timeouts.Default, func(v *fastjson.Value) error {
		report = decodeAnalysisReport(v, name)
		return nil
	})
	return report, err
}

// TrainingReport fetches a saved training report by file name.
func (c *Client) TrainingReport(ctx context.Context, name string) (*domain.TrainingReport, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: report name is required", domain.ErrInvalidInput)
	}
	var report *domain.TrainingReport
	err := c.call(ctx, "training_report", http.MethodGet, "/training-report", url.Values{"name": {name}}, nil, c.timeouts.Default, func(v *fastjson.Value) error {
		r := decodeTrainingReport(v.Get("report"))
		r.Name = text(v.Get("name"))
		if r.Name == "" {
			r.Name = name
		}
		report = &r
		return nil
	})
	return report, err
}

// Train retrains the models from a data file. An empty dataFile lets the backend pick its default.
func (c *Client) Train(ctx context.Context, dataFile string) (*domain.TrainingOutcome, error) {
	body := map[string]any{}
	if dataFile = strings.TrimSpace(dataFile); dataFile != "" {
		body["data_path"] = trainDataPrefix + dataFile
	}
	start := time.Now()
	var outcome *domain.TrainingOutcome
	err := c.call(ctx, "train", http.MethodPost, "/train", nil, body, c.timeouts.Train, func(v *fastjson.Value) error {
		report := v.Get("result")
		if report == nil || report.Type() == fastjson.TypeNull {
			report = v
		}
		o := domain.TrainingOutcome{
			ReportFile: text(v.Get("report_file")),
			Report:     decodeTrainingReport(report),
			Duration:   time.Since(start),
		}
		o.Report.Name = o.ReportFile
		outcome = &o
		return nil
	})
	return outcome, err
}

// SplitFile splits a data file into parts of at most maxMB megabytes. Zero means the default of 4.
func (c *Client) SplitFile(ctx context.Context, path string, maxMB float64) (*domain.SplitResult, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: file path is required", domain.ErrInvalidInput)
	}
	if maxMB == 0 {
		maxMB = defaultSplitMB
	}
	if maxMB < 0 {
		return nil, fmt.Errorf("%w: max_mb must be > 0", domain.ErrInvalidInput)
	}
	body := map[string]any{"file_path": path, "max_mb": maxMB}
	var result *domain.SplitResult
	err := c.call(ctx, "split_file", http.MethodPost, "/split-file", nil, body, c.timeouts.Long, func(v *fastjson.Value) error {
		result = &domain.SplitResult{
			Count:    v.GetInt("count"),
			Parts:    decodeFiles(v.Get("parts")),
			MaxMB:    v.GetFloat64("max_mb"),
			Warnings: textList(v.Get("warnings")),
		}
		return nil
	})
	return result, err
}

// AtomizeFile converts a raw text or HTML log into a JSONL file at outPath.
func (c *Client) AtomizeFile(ctx context.Context, path, outPath string) (*domain.AtomizeResult, error) {
	if strings.TrimSpace(path) == "" || strings.TrimSpace(outPath) == "" {
		return nil, fmt.Errorf("%w: file path and output path are required", domain.ErrInvalidInput)
	}
	body := map[string]any{"file_path": path, "out_path": outPath}
	var result *domain.AtomizeResult
	err := c.call(ctx, "atomize_file", http.MethodPost, "/atomize-file", nil, body, c.timeouts.Default, func(v *fastjson.Value) error {
		result = &domain.AtomizeResult{
			Count:   v.GetInt("count"),
			OutPath: text(v.Get("out_path")),
		}
		if result.OutPath == "" {
			result.OutPath = outPath
		}
		return nil
	})
	return result, err
}

// call performs one request and hands the parsed body to decode. The parsed
// value is only valid inside decode.
func (c *Client) call(ctx context.Context, endpoint, method, path string, query url.Values, body any, timeout time.Duration, decode func(v *fastjson.Value) error) error {
	start := time.Now()
	raw, err := c.do(ctx, method, path, query, body, timeout)
	c.observe(endpoint, start, err)
	if err != nil {
		return err
	}

	p := c.parsers.Get()
	defer c.parsers.Put(p)

	v, err := p.ParseBytes(raw)
	if err != nil {
		return fmt.Errorf("failed to parse %s response: %w", endpoint, err)
	}
	if v.Type() != fastjson.TypeObject {
		return fmt.Errorf("unexpected %s response: %s", endpoint, v.Type())
	}
	return decode(v)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, c.classify(ctx, err)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classify(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.classify(ctx, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &domain.BackendError{StatusCode: resp.StatusCode, Message: c.errorMessage(raw, resp.StatusCode)}
	}
	return raw, nil
}

// classify maps transport failures onto the domain's backend errors.
func (c *Client) classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", domain.ErrBackendTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	case strings.Contains(err.Error(), "would exceed context deadline"):
		// rate.Limiter refuses up front when the wait cannot finish in time.
		return fmt.Errorf("%w: %v", domain.ErrBackendTimeout, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
}

// errorMessage extracts the backend's {"error": "..."} body, falling back to the status text.
func (c *Client) errorMessage(raw []byte, status int) string {
	p := c.parsers.Get()
	defer c.parsers.Put(p)

	if v, err := p.ParseBytes(raw); err == nil {
		if msg := text(v.Get("error")); msg != "" {
			return msg
		}
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" && len(msg) <= 200 {
		return msg
	}
	return http.StatusText(status)
}

func (c *Client) observe(endpoint string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrBackendTimeout):
		outcome = "timeout"
	case errors.Is(err, domain.ErrBackendUnavailable):
		outcome = "unavailable"
	default:
		outcome = "error"
	}
	if err != nil {
		c.logger.Warn("backend request failed", "endpoint", endpoint, "outcome", outcome, "error", err)
	}
	if c.metrics == nil {
		return
	}
	c.metrics.BackendRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	c.metrics.BackendRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
