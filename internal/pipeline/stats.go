package pipeline

import (
	"strconv"

	"github.com/V4T54L/log-lens/internal/domain"
)

// TopN caps the number of entries per statistics table.
const TopN = 10

// Statistics table titles, in output order.
const (
	TitleLevels        = "Levels"
	TitlePriorities    = "Priorities"
	TitleCategories    = "Categories"
	TitleReasons       = "Top Reasons"
	TitleErrorRoutes   = "Top Error-Routes"
	TitleRoutes        = "Top Routes"
	TitleExceptions    = "Top Exceptions"
	TitleServices      = "Top Services"
	TitleMessages      = "Top Messages"
	TitleErrorMessages = "Top Error-Messages"
	TitleCriticalFatal = "Top Critical/Fatal"
	TitleStatus        = "Top Status"
	TitleMissingStatus = "Missing Status"
)

const missingStatusKey = "missing"

// StatsTable is a named top-N table. Percentages are relative to the number of logs.
type StatsTable struct {
	Title   string       `json:"title"`
	Entries []CountEntry `json:"entries"`
}

type statsCounters struct {
	levels           *counter
	priorities       *counter
	categories       *counter
	reasons          *counter
	errorRoutes      *counter
	routes           *counter
	exceptions       *counter
	services         *counter
	statuses         *counter
	messages         *counter
	errorMessages    *counter
	criticalMessages *counter
	missingStatus    int
}

func newStatsCounters() *statsCounters {
	return &statsCounters{
		levels:           newCounter(),
		priorities:       newCounter(),
		categories:       newCounter(),
		reasons:          newCounter(),
		errorRoutes:      newCounter(),
		routes:           newCounter(),
		exceptions:       newCounter(),
		services:         newCounter(),
		statuses:         newCounter(),
		messages:         newCounter(),
		errorMessages:    newCounter(),
		criticalMessages: newCounter(),
	}
}

func (s *statsCounters) observe(log domain.LogRecord, result domain.ClassificationResult) {
	isError := IsError(log, result)

	s.routes.add(log.Route)
	if isError {
		s.errorRoutes.add(log.Route)
	}
	s.exceptions.add(ExceptionKey(log, result))
	s.reasons.add(ReasonKey(log, result))

	if log.StatusCode != nil {
		s.statuses.add(strconv.Itoa(*log.StatusCode))
	} else {
		s.missingStatus++
	}

	s.levels.add(log.Level)
	s.priorities.add(EffectivePriority(log, result))
	s.categories.add(result.Category)
	s.services.add(log.Service)

	if key := SanitizeMessageKey(log.Message); key != "" {
		s.messages.add(key)
		if isError {
			s.errorMessages.add(key)
		}
		if IsCritical(log) {
			s.criticalMessages.add(key)
		}
	}
}

// ComputeStats derives the statistics tables for aligned logs and results.
// The eleven core tables are always present; Top Status appears only when a
// status code was seen and Missing Status only when some record lacked one.
func ComputeStats(logs []domain.LogRecord, results []domain.ClassificationResult) []StatsTable {
	s := newStatsCounters()
	for i, log := range logs {
		s.observe(log, resultAt(results, i))
	}

	total := len(logs)
	tables := []StatsTable{
		{Title: TitleLevels, Entries: s.levels.entries(total, TopN)},
		{Title: TitlePriorities, Entries: s.priorities.entries(total, TopN)},
		{Title: TitleCategories, Entries: s.categories.entries(total, TopN)},
		{Title: TitleReasons, Entries: s.reasons.entries(total, TopN)},
		{Title: TitleErrorRoutes, Entries: s.errorRoutes.entries(total, TopN)},
		{Title: TitleRoutes, Entries: s.routes.entries(total, TopN)},
		{Title: TitleExceptions, Entries: s.exceptions.entries(total, TopN)},
		{Title: TitleServices, Entries: s.services.entries(total, TopN)},
		{Title: TitleMessages, Entries: s.messages.entries(total, TopN)},
		{Title: TitleErrorMessages, Entries: s.errorMessages.entries(total, TopN)},
		{Title: TitleCriticalFatal, Entries: s.criticalMessages.entries(total, TopN)},
	}
	if s.statuses.len() > 0 {
		tables = append(tables, StatsTable{Title: TitleStatus, Entries: s.statuses.entries(total, TopN)})
	}
	if s.missingStatus > 0 {
		tables = append(tables, StatsTable{
			Title: TitleMissingStatus,
			Entries: []CountEntry{{
				Key:     missingStatusKey,
				Count:   s.missingStatus,
				Percent: FormatPercent(s.missingStatus, total),
			}},
		})
	}
	return tables
}
