package playlog

import (
	"time"
)

// Entry is one scraped play event. Identity is not unique: the same play may
// recur across scraper runs, so callers dedup on Key plus calendar day.
type Entry struct {
	Artist string
	Title  string
	Album  string
	Show   string
	Host   string
	// PlayedDate is the station-reported calendar day, possibly year-less
	// (e.g. "August 30"). Empty when the page omits it.
	PlayedDate string
	// PlayedTime is the station-reported wall clock, 12h or 24h
	// (e.g. "3:05 PM"). Empty when the page omits it.
	PlayedTime string
	// CapturedAt is the scrape timestamp and is always present.
	CapturedAt time.Time
}

// Status classifies the outcome of matching one entry.
type Status string

const (
	StatusFound         Status = "found"
	StatusNotFound      Status = "not_found"
	StatusLowConfidence Status = "low_confidence"
	StatusUnknown       Status = "unknown"
)

var statusLabels = map[Status]string{
	StatusFound:         "✅ Found",
	StatusNotFound:      "❌ Not Found",
	StatusLowConfidence: "⚠️ Low Confidence",
	StatusUnknown:       "❓ Unknown",
}

// Label returns the fixed status cell text used in daily record files.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return statusLabels[StatusUnknown]
}

// StatusFromLabel reverses Label. Unrecognized labels report ok=false.
func StatusFromLabel(label string) (Status, bool) {
	for status, l := range statusLabels {
		if l == label {
			return status, true
		}
	}
	return StatusUnknown, false
}

// Outcome is an entry plus its recorded match result. Outcomes are appended
// to a daily record exactly once per normalized (artist, title) key per day
// and never mutated afterwards.
type Outcome struct {
	Entry      Entry
	Status     Status
	Confidence float64
	TrackID    string
	TrackURL   string
	Genres     []string
	RecordedAt time.Time
}

// ResolveDay picks the calendar day an outcome belongs to: the entry's
// played date when parseable, else the capture day. ref anchors year
// inference for year-less dates.
func (o Outcome) ResolveDay(ref time.Time) time.Time {
	return o.Entry.ResolveDay(ref)
}

// ResolveDay picks the calendar day for the entry. See Outcome.ResolveDay.
func (e Entry) ResolveDay(ref time.Time) time.Time {
	if day, ok := ParsePlayedDate(e.PlayedDate, ref); ok {
		return day
	}
	return DayOf(e.CapturedAt)
}

// SortKey computes the timestamp entries are ordered by: the absolute played
// moment when day and clock both resolve, else the clock projected onto the
// capture day, else the capture time itself.
func (e Entry) SortKey(ref time.Time) time.Time {
	minutes, clockOK := ParseClock(e.PlayedTime)
	if day, ok := ParsePlayedDate(e.PlayedDate, ref); ok && clockOK {
		return day.Add(time.Duration(minutes) * time.Minute)
	}
	if clockOK {
		return DayOf(e.CapturedAt).Add(time.Duration(minutes) * time.Minute)
	}
	return e.CapturedAt
}

// DayOf truncates a timestamp to local midnight.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
