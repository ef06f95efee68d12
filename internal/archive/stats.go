package archive

import (
	"fmt"
	"os"
	"strings"
	"time"

	"airlog/internal/logging"
	"airlog/internal/playlog"
	"airlog/internal/services"
)

const (
	statsOpen  = "<!-- airlog:stats -->"
	statsClose = "<!-- /airlog:stats -->"
)

type dayStats struct {
	total         int
	found         int
	notFound      int
	lowConfidence int
	repeats       int
}

// FinalizeDailyStats recounts a day's rows and writes the statistics block.
// Exactly one block exists afterwards; running it again without intervening
// rows leaves the file byte-identical.
func (s *Store) FinalizeDailyStats(day time.Time) error {
	path := s.FilePath(day)
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return services.Wrap(services.ErrTransient, "archive", "finalize stats", path, err)
	}
	doc := string(content)

	stats := countRows(tableRows(doc))
	updated := placeStatsBlock(doc, renderStatsBlock(stats))
	if updated == doc {
		return nil
	}
	if err := writeFile(path, updated); err != nil {
		return err
	}
	s.logger.Debug("daily stats finalized",
		logging.String("path", path),
		logging.Int("total", stats.total),
		logging.Int("found", stats.found))
	return nil
}

func countRows(rows []row) dayStats {
	var stats dayStats
	keys := make(map[string]int)
	for _, r := range rows {
		stats.total++
		status, _ := playlog.StatusFromLabel(r.cells[colStatus])
		switch status {
		case playlog.StatusFound:
			stats.found++
		case playlog.StatusNotFound:
			stats.notFound++
		case playlog.StatusLowConfidence:
			stats.lowConfidence++
		}
		keys[playlog.Key(r.cells[colArtist], r.cells[colTitle])]++
	}
	for _, n := range keys {
		if n > 1 {
			stats.repeats++
		}
	}
	return stats
}

func renderStatsBlock(stats dayStats) []string {
	return []string{
		statsOpen,
		"## Daily Statistics",
		"",
		fmt.Sprintf("- Total plays: %d", stats.total),
		fmt.Sprintf("- Found: %d", stats.found),
		fmt.Sprintf("- Not found: %d", stats.notFound),
		fmt.Sprintf("- Low confidence: %d", stats.lowConfidence),
		fmt.Sprintf("- Repeat plays: %d", stats.repeats),
		statsClose,
	}
}

// placeStatsBlock replaces the existing marker-delimited block, inserts one
// above the row table when absent, or appends at end of file as a last
// resort.
func placeStatsBlock(doc string, block []string) string {
	lines := strings.Split(doc, "\n")

	open, shut := -1, -1
	for i, line := range lines {
		switch strings.TrimSpace(line) {
		case statsOpen:
			if open < 0 {
				open = i
			}
		case statsClose:
			shut = i
		}
	}
	if open >= 0 && shut > open {
		out := make([]string, 0, len(lines))
		out = append(out, lines[:open]...)
		out = append(out, block...)
		out = append(out, lines[shut+1:]...)
		return strings.Join(out, "\n")
	}

	if header, _, _, ok := tableBounds(lines); ok {
		out := make([]string, 0, len(lines)+len(block)+1)
		out = append(out, lines[:header]...)
		out = append(out, block...)
		out = append(out, "")
		out = append(out, lines[header:]...)
		return strings.Join(out, "\n")
	}

	trimmed := strings.TrimRight(doc, "\n")
	return trimmed + "\n\n" + strings.Join(block, "\n") + "\n"
}
