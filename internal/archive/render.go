package archive

import (
	"fmt"
	"strings"
	"time"

	"airlog/internal/playlog"
)

const (
	tableHeader    = "| Time | Artist | Title | Album | Genres | Show | Host | Status | Confidence | Link |"
	tableSeparator = "|:-----|:-------|:------|:------|:-------|:-----|:-----|:-------|:-----------|:-----|"
	emptyCell      = "-"
)

func renderTemplate(day time.Time, sourceURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# WWOZ Playlist - %s\n\n", day.Format("January 2, 2006"))
	if sourceURL != "" {
		fmt.Fprintf(&b, "Source: %s\n\n", sourceURL)
	}
	b.WriteString(tableHeader + "\n")
	b.WriteString(tableSeparator + "\n")
	return b.String()
}

func renderRow(o playlog.Outcome) string {
	cells := []string{
		displayTime(o.Entry),
		escapeCell(o.Entry.Artist),
		escapeCell(o.Entry.Title),
		cellOrDash(o.Entry.Album),
		cellOrDash(strings.Join(o.Genres, ", ")),
		cellOrDash(o.Entry.Show),
		cellOrDash(o.Entry.Host),
		o.Status.Label(),
		confidenceCell(o),
		linkCell(o.TrackURL),
	}
	return "| " + strings.Join(cells, " | ") + " |"
}

// displayTime prefers the station-reported clock, normalized to 12h form so
// rows sort consistently; a missing clock falls back to the capture time.
func displayTime(e playlog.Entry) string {
	if minutes, ok := playlog.ParseClock(e.PlayedTime); ok {
		return playlog.FormatClock(minutes)
	}
	if e.PlayedTime != "" {
		return escapeCell(e.PlayedTime)
	}
	return e.CapturedAt.Format("3:04 PM")
}

func confidenceCell(o playlog.Outcome) string {
	switch o.Status {
	case playlog.StatusFound, playlog.StatusLowConfidence:
		return fmt.Sprintf("%.1f%%", o.Confidence)
	default:
		return emptyCell
	}
}

func linkCell(url string) string {
	if url == "" {
		return emptyCell
	}
	return fmt.Sprintf("[Spotify](%s)", url)
}

func cellOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return emptyCell
	}
	return escapeCell(value)
}

var cellEscaper = strings.NewReplacer("|", "\\|", "\n", " ", "\r", " ")

func escapeCell(value string) string {
	return strings.TrimSpace(cellEscaper.Replace(value))
}
