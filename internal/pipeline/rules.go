package pipeline

import (
	"regexp"
	"strings"

	"github.com/V4T54L/log-lens/internal/domain"
)

// Rule maps a pattern to a label. Rules are evaluated in order; the first match wins.
type Rule struct {
	Pattern *regexp.Regexp
	Label   string
}

// ReasonRules is matched against the lowercased message when no explicit reason is set.
var ReasonRules = []Rule{
	{regexp.MustCompile(`missing authorization header`), "Missing Authorization Header"},
	{regexp.MustCompile(`noauthorizationerror`), "NoAuthorizationError"},
	{regexp.MustCompile(`forbidden`), "Forbidden"},
	{regexp.MustCompile(`unauthorized`), "Unauthorized"},
	{regexp.MustCompile(`nameerror`), "NameError"},
	{regexp.MustCompile(`typeerror`), "TypeError"},
	{regexp.MustCompile(`valueerror`), "ValueError"},
	{regexp.MustCompile(`keyerror`), "KeyError"},
	{regexp.MustCompile(`indexerror`), "IndexError"},
	{regexp.MustCompile(`attributeerror`), "AttributeError"},
	{regexp.MustCompile(`validationerror`), "ValidationError"},
	{regexp.MustCompile(`jsondecodeerror`), "JSONDecodeError"},
	{regexp.MustCompile(`runtimeerror`), "RuntimeError"},
	{regexp.MustCompile(`timeout|timeouterror`), "Timeout"},
	{regexp.MustCompile(`connection refused`), "Connection Refused"},
	{regexp.MustCompile(`connectionerror`), "ConnectionError"},
	{regexp.MustCompile(`bad gateway`), "Bad Gateway"},
	{regexp.MustCompile(`internal server error`), "Internal Server Error"},
	{regexp.MustCompile(`fataler startfehler`), "FATALER STARTFEHLER"},
	{regexp.MustCompile(`startfehler`), "Startfehler"},
	{regexp.MustCompile(`disk space low`), "Disk space low"},
	{regexp.MustCompile(`rate limit exceeded`), "Rate limit exceeded"},
}

// apiCallsFailing is a German backend notice used verbatim as a reason label.
const apiCallsFailing = "API-Aufrufe werden fehlschlagen"

const maxMessageKeyLen = 120

var (
	exceptionPattern = regexp.MustCompile(`(?i)(\b[A-Za-z_]+(?:Error|Exception)\b|\bFatal\b|\bFATALER STARTFEHLER\b)`)
	criticalPattern  = regexp.MustCompile(`(?i)fatal|fataler startfehler|startfehler`)
	timestampPrefix  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3}\s*-?\s*`)
	exclamations     = regexp.MustCompile(`!+`)
)

// MatchRule returns the label of the first rule matching text, or "".
func MatchRule(rules []Rule, text string) string {
	for _, r := range rules {
		if r.Pattern.MatchString(text) {
			return r.Label
		}
	}
	return ""
}

// ExplicitReason is the classifier's reason, falling back to the log's own.
func ExplicitReason(log domain.LogRecord, result domain.ClassificationResult) string {
	if result.Reason != "" {
		return result.Reason
	}
	return log.Reason
}

// EffectivePriority is the classifier's priority, falling back to the log's own.
func EffectivePriority(log domain.LogRecord, result domain.ClassificationResult) string {
	if result.Priority != "" {
		return result.Priority
	}
	return log.Priority
}

// ExceptionKey is the explicit reason, or the first exception-like token of the message.
func ExceptionKey(log domain.LogRecord, result domain.ClassificationResult) string {
	if reason := ExplicitReason(log, result); reason != "" {
		return reason
	}
	return exceptionPattern.FindString(log.Message)
}

// ReasonKey is the explicit reason, else the first matching reason rule,
// else the API notice, else the message text before its first colon.
func ReasonKey(log domain.LogRecord, result domain.ClassificationResult) string {
	if reason := ExplicitReason(log, result); reason != "" {
		return reason
	}
	message := log.Message
	if message == "" {
		return ""
	}
	if label := MatchRule(ReasonRules, strings.ToLower(message)); label != "" {
		return label
	}
	if strings.Contains(message, apiCallsFailing) {
		return apiCallsFailing
	}
	head, _, _ := strings.Cut(message, ":")
	return head
}

// IsError reports whether the level is ERROR/CRITICAL or the effective priority is high/critical.
func IsError(log domain.LogRecord, result domain.ClassificationResult) bool {
	switch strings.ToUpper(log.Level) {
	case "ERROR", "CRITICAL":
		return true
	}
	switch strings.ToLower(EffectivePriority(log, result)) {
	case "high", "critical":
		return true
	}
	return false
}

// IsCritical reports whether the level is CRITICAL or the message mentions a fatal condition.
func IsCritical(log domain.LogRecord) bool {
	return strings.ToUpper(log.Level) == "CRITICAL" || criticalPattern.MatchString(log.Message)
}

// SanitizeMessageKey strips a leading "YYYY-MM-DD HH:MM:SS,mmm -" timestamp and all
// exclamation marks, trims whitespace and truncates to 120 characters.
func SanitizeMessageKey(message string) string {
	if message == "" {
		return ""
	}
	key := timestampPrefix.ReplaceAllString(message, "")
	key = exclamations.ReplaceAllString(key, "")
	key = strings.TrimSpace(key)
	if runes := []rune(key); len(runes) > maxMessageKeyLen {
		key = string(runes[:maxMessageKeyLen])
	}
	return key
}
