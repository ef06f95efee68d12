package playlog

import (
	"strings"
	"time"
)

var clockLayouts = []string{
	"3:04 PM",
	"3:04PM",
	"15:04",
	"15:04:05",
	"3 PM",
}

// ParseClock parses a station wall-clock string (12h or 24h) into minutes
// since midnight. ok is false for empty or unparseable input.
func ParseClock(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	normalized := strings.ToUpper(value)
	normalized = strings.ReplaceAll(normalized, "A.M.", "AM")
	normalized = strings.ReplaceAll(normalized, "P.M.", "PM")
	for _, layout := range clockLayouts {
		if parsed, err := time.Parse(layout, normalized); err == nil {
			return parsed.Hour()*60 + parsed.Minute(), true
		}
	}
	return 0, false
}

var dateLayouts = []string{
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"01/02/2006",
}

var yearlessLayouts = []string{
	"January 2",
	"Jan 2",
	"01/02",
}

// ParsePlayedDate parses a station-reported calendar day. Year-less forms
// take the reference year; if that would land in the future relative to ref,
// the previous year is used (a late-December scrape reading early-January
// pages, or vice versa).
func ParsePlayedDate(value string, ref time.Time) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, ref.Location()), true
		}
	}
	for _, layout := range yearlessLayouts {
		parsed, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		day := time.Date(ref.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, ref.Location())
		if day.After(DayOf(ref)) {
			day = day.AddDate(-1, 0, 0)
		}
		return day, true
	}
	return time.Time{}, false
}

// FormatClock renders minutes-since-midnight in the archive's 12h display
// form ("9:15 AM").
func FormatClock(minutes int) string {
	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(minutes) * time.Minute).Format("3:04 PM")
}
