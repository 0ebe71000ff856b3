package pii

import (
	"log/slog"
	"strings"

	"github.com/V4T54L/log-lens/internal/domain"
)

const RedactedPlaceholder = "[REDACTED]"

// Redactable record fields.
const (
	FieldMessage = "message"
	FieldService = "service"
	FieldRoute   = "route"
	FieldReason  = "reason"
)

// Redactor masks sensitive log record fields before records leave the process.
type Redactor struct {
	fieldsToRedact map[string]struct{}
	logger         *slog.Logger
}

// NewRedactor creates a new Redactor for the given record fields. Unknown names are ignored with a warning.
func NewRedactor(fields []string, logger *slog.Logger) *Redactor {
	fieldSet := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		field = strings.ToLower(strings.TrimSpace(field))
		switch field {
		case "":
			continue
		case FieldMessage, FieldService, FieldRoute, FieldReason:
			fieldSet[field] = struct{}{}
		default:
			logger.Warn("ignoring unknown redaction field", "field", field)
		}
	}
	return &Redactor{
		fieldsToRedact: fieldSet,
		logger:         logger,
	}
}

// Enabled reports whether any field is configured.
func (r *Redactor) Enabled() bool {
	return r != nil && len(r.fieldsToRedact) > 0
}

// RedactDataset returns a copy of ds with the configured fields masked, plus the
// number of records that changed. The input dataset is never modified.
func (r *Redactor) RedactDataset(ds domain.Dataset) (domain.Dataset, int) {
	if !r.Enabled() || len(ds.Logs) == 0 {
		return ds, 0
	}

	out := ds
	out.Logs = make([]domain.LogRecord, len(ds.Logs))
	redacted := 0
	for i, rec := range ds.Logs {
		if r.redact(&rec) {
			redacted++
		}
		out.Logs[i] = rec
	}
	if redacted > 0 {
		r.logger.Debug("redacted log records", "dataset_id", ds.ID, "records", redacted)
	}
	return out, redacted
}

func (r *Redactor) redact(rec *domain.LogRecord) bool {
	changed := false
	mask := func(field string, value *string) {
		if _, ok := r.fieldsToRedact[field]; ok && *value != "" {
			*value = RedactedPlaceholder
			changed = true
		}
	}
	mask(FieldMessage, &rec.Message)
	mask(FieldService, &rec.Service)
	mask(FieldRoute, &rec.Route)
	mask(FieldReason, &rec.Reason)
	return changed
}
