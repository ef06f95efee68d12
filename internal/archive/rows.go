package archive

import (
	"strings"

	"airlog/internal/playlog"
)

const (
	colTime = iota
	colArtist
	colTitle
	colAlbum
	colGenres
	colShow
	colHost
	colStatus
	colConfidence
	colLink
	columnCount
)

// Rows without a parseable clock sort after every real time of day.
const unparsedMinutes = 1 << 20

type row struct {
	line  string
	cells []string
}

// isSeparatorRow reports whether every cell is an alignment marker
// (dashes with optional leading or trailing colons). Both the ":----"
// style written here and the "----" style found in externally created
// files qualify.
func isSeparatorRow(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	for _, cell := range cells {
		cell = strings.TrimSuffix(strings.TrimPrefix(cell, ":"), ":")
		if cell == "" || strings.Trim(cell, "-") != "" {
			return false
		}
	}
	return true
}

// tableBounds locates the row table within the file's lines: the header line
// index, the index of the first data row (past the separator), and the end
// of the row block (exclusive).
func tableBounds(lines []string) (header, start, end int, ok bool) {
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "| Time |") {
			header = i
			start = i + 1
			if start < len(lines) {
				if cells, ok := splitRow(lines[start]); ok && isSeparatorRow(cells) {
					start++
				}
			}
			end = start
			for end < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[end]), "|") {
				end++
			}
			return header, start, end, true
		}
	}
	return 0, 0, 0, false
}

// splitRow breaks a table line into trimmed cell values, honoring escaped
// pipes inside cells.
func splitRow(line string) ([]string, bool) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 2 || trimmed[0] != '|' || trimmed[len(trimmed)-1] != '|' {
		return nil, false
	}
	inner := trimmed[1 : len(trimmed)-1]
	var cells []string
	var cur strings.Builder
	for i := 0; i < len(inner); i++ {
		switch {
		case inner[i] == '\\' && i+1 < len(inner) && inner[i+1] == '|':
			cur.WriteByte('|')
			i++
		case inner[i] == '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(inner[i])
		}
	}
	cells = append(cells, strings.TrimSpace(cur.String()))
	return cells, true
}

func tableRows(doc string) []row {
	lines := strings.Split(doc, "\n")
	_, start, end, ok := tableBounds(lines)
	if !ok {
		return nil
	}
	var rows []row
	for _, line := range lines[start:end] {
		cells, ok := splitRow(line)
		if !ok || len(cells) != columnCount || isSeparatorRow(cells) {
			continue
		}
		rows = append(rows, row{line: line, cells: cells})
	}
	return rows
}

func rowMinutes(cells []string) int {
	if minutes, ok := playlog.ParseClock(cells[colTime]); ok {
		return minutes
	}
	return unparsedMinutes
}

// insertRowChronological places newRow before the first existing row whose
// time-of-day key exceeds it, keeping equal keys in arrival order. It reports
// false when no row table can be located.
func insertRowChronological(doc, newRow string) (string, bool) {
	lines := strings.Split(doc, "\n")
	_, start, end, ok := tableBounds(lines)
	if !ok {
		return "", false
	}
	newCells, ok := splitRow(newRow)
	if !ok || len(newCells) != columnCount {
		return "", false
	}
	key := rowMinutes(newCells)

	insertAt := end
	for i := start; i < end; i++ {
		cells, ok := splitRow(lines[i])
		if !ok || len(cells) != columnCount || isSeparatorRow(cells) {
			continue
		}
		if rowMinutes(cells) > key {
			insertAt = i
			break
		}
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:insertAt]...)
	out = append(out, newRow)
	out = append(out, lines[insertAt:]...)
	return strings.Join(out, "\n"), true
}
