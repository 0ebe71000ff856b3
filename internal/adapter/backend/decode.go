package backend

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/V4T54L/log-lens/internal/domain"
	"github.com/valyala/fastjson"
)

// trainingSections are the report keys rendered for a training run, in display order.
var trainingSections = []struct {
	key   string
	label string
}{
	{"category_report", "Category"},
	{"priority_report", "Priority"},
	{"reason_report", "Reason"},
}

// text renders any JSON value as display text: strings as-is, numbers in
// their shortest form, null or missing as "".
func text(v *fastjson.Value) string {
	if v == nil {
		return ""
	}
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNull:
		return ""
	case fastjson.TypeNumber:
		return strconv.FormatFloat(v.GetFloat64(), 'f', -1, 64)
	case fastjson.TypeTrue:
		return "true"
	case fastjson.TypeFalse:
		return "false"
	default:
		return v.String()
	}
}

func textList(v *fastjson.Value) []string {
	if v == nil || v.Type() != fastjson.TypeArray {
		return nil
	}
	items := v.GetArray()
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, text(item))
	}
	return out
}

// statusCode accepts integral numbers and numeric strings within the int32
// range; anything else is absent.
func statusCode(v *fastjson.Value) *int {
	if v == nil {
		return nil
	}
	var n int64
	switch v.Type() {
	case fastjson.TypeNumber:
		f := v.GetFloat64()
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
			return nil
		}
		n = int64(f)
	case fastjson.TypeString:
		parsed, err := strconv.ParseInt(strings.TrimSpace(string(v.GetStringBytes())), 10, 32)
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	code := int(n)
	return &code
}

func optionalFloat(v *fastjson.Value) *float64 {
	if v == nil || v.Type() != fastjson.TypeNumber {
		return nil
	}
	f := v.GetFloat64()
	return &f
}

func decodeLog(v *fastjson.Value) domain.LogRecord {
	return domain.LogRecord{
		Message:    text(v.Get("message")),
		Level:      text(v.Get("level")),
		Service:    text(v.Get("service")),
		Route:      text(v.Get("route")),
		StatusCode: statusCode(v.Get("status_code")),
		Priority:   text(v.Get("priority")),
		Reason:     text(v.Get("reason")),
	}
}

func decodeResult(v *fastjson.Value) domain.ClassificationResult {
	return domain.ClassificationResult{
		Category: text(v.Get("category")),
		Priority: text(v.Get("priority")),
		Reason:   text(v.Get("reason")),
	}
}

// decodePayload reads {logs?, results?, warnings?, report_file?}. Missing or
// mistyped arrays decode as empty; non-object items decode as empty records.
func decodePayload(v *fastjson.Value) domain.AnalysisPayload {
	payload := domain.AnalysisPayload{
		Logs:       []domain.LogRecord{},
		Results:    []domain.ClassificationResult{},
		Warnings:   textList(v.Get("warnings")),
		ReportFile: text(v.Get("report_file")),
	}
	if logs := v.Get("logs"); logs != nil && logs.Type() == fastjson.TypeArray {
		for _, item := range logs.GetArray() {
			payload.Logs = append(payload.Logs, decodeLog(item))
		}
	}
	if results := v.Get("results"); results != nil && results.Type() == fastjson.TypeArray {
		for _, item := range results.GetArray() {
			payload.Results = append(payload.Results, decodeResult(item))
		}
	}
	return payload
}

func decodeFiles(v *fastjson.Value) []domain.FileInfo {
	files := []domain.FileInfo{}
	if v == nil || v.Type() != fastjson.TypeArray {
		return files
	}
	for _, item := range v.GetArray() {
		f := domain.FileInfo{
			Name: text(item.Get("name")),
			Path: text(item.Get("path")),
			Size: int64(item.GetFloat64("size")),
		}
		if f.Path == "" {
			f.Path = f.Name
		}
		files = append(files, f)
	}
	return files
}

func decodeHealth(v *fastjson.Value) *domain.BackendHealth {
	health := &domain.BackendHealth{
		OK:     v.GetBool("ok"),
		Time:   text(v.Get("time")),
		Models: map[string]bool{},
	}
	if models := v.GetObject("models"); models != nil {
		models.Visit(func(key []byte, m *fastjson.Value) {
			health.Models[string(key)] = m.Type() == fastjson.TypeTrue
		})
	}
	return health
}

// decodeAnalysisReport reads {name, report: {created_at, source, logs, results, warnings?}}.
func decodeAnalysisReport(v *fastjson.Value, requested string) *domain.AnalysisReport {
	report := &domain.AnalysisReport{Name: text(v.Get("name"))}
	if report.Name == "" {
		report.Name = requested
	}
	body := v.Get("report")
	if body == nil || body.Type() != fastjson.TypeObject {
		report.Payload = decodePayload(emptyObject)
		return report
	}
	report.Source = text(body.Get("source"))
	report.CreatedAt = text(body.Get("created_at"))
	report.Payload = decodePayload(body)
	report.Raw = json.RawMessage(body.MarshalTo(nil))
	return report
}

var emptyObject = fastjson.MustParse(`{}`)

// decodeTrainingReport keeps the backend's key order within each section.
func decodeTrainingReport(v *fastjson.Value) domain.TrainingReport {
	report := domain.TrainingReport{Sections: make([]domain.TrainingSection, 0, len(trainingSections))}
	if v != nil && v.Type() != fastjson.TypeNull {
		report.Raw = json.RawMessage(v.MarshalTo(nil))
	}
	for _, s := range trainingSections {
		section := domain.TrainingSection{Key: s.key, Label: s.label, Entries: []domain.TrainingEntry{}}
		var body *fastjson.Value
		if v != nil {
			body = v.Get(s.key)
		}
		section.Present = body != nil && body.Type() != fastjson.TypeNull
		if section.Present && body.Type() == fastjson.TypeObject {
			body.GetObject().Visit(func(key []byte, item *fastjson.Value) {
				section.Entries = append(section.Entries, decodeTrainingEntry(string(key), item))
			})
		}
		report.Sections = append(report.Sections, section)
	}
	return report
}

func decodeTrainingEntry(name string, v *fastjson.Value) domain.TrainingEntry {
	entry := domain.TrainingEntry{Name: name}
	if v.Type() != fastjson.TypeObject {
		entry.Value = text(v)
		return entry
	}
	entry.Metrics = &domain.ClassMetrics{
		Precision: optionalFloat(v.Get("precision")),
		Recall:    optionalFloat(v.Get("recall")),
		F1:        optionalFloat(v.Get("f1-score")),
		Support:   text(v.Get("support")),
	}
	return entry
}
