package ragprep

import (
	"fmt"
	"strings"
)

// renderMarkdownTable renders records as a pipe table: header row, separator
// row, uniform column count. Ragged rows are padded with empty cells, never
// dropped. Rows and columns beyond the caps are elided with a trailing note.
// Caps of zero mean unlimited.
func renderMarkdownTable(records [][]string, maxRows, maxCols int) string {
	if len(records) == 0 {
		return ""
	}

	numCols := 0
	for _, row := range records {
		if len(row) > numCols {
			numCols = len(row)
		}
	}
	if numCols == 0 {
		return ""
	}

	elidedCols := 0
	if maxCols > 0 && numCols > maxCols {
		elidedCols = numCols - maxCols
		numCols = maxCols
	}

	bodyRows := records[1:]
	elidedRows := 0
	if maxRows > 0 && len(bodyRows) > maxRows {
		elidedRows = len(bodyRows) - maxRows
		bodyRows = bodyRows[:maxRows]
	}

	var b strings.Builder
	writeRow := func(row []string) {
		b.WriteString("|")
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = sanitizeCell(row[i])
			}
			b.WriteString(" ")
			b.WriteString(cell)
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	writeRow(records[0])

	b.WriteString("|")
	for i := 0; i < numCols; i++ {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")

	for _, row := range bodyRows {
		writeRow(row)
	}

	if elidedRows > 0 || elidedCols > 0 {
		b.WriteString("\n")
		if elidedRows > 0 {
			fmt.Fprintf(&b, "*... %d more row(s) not shown*\n", elidedRows)
		}
		if elidedCols > 0 {
			fmt.Fprintf(&b, "*... %d more column(s) not shown*\n", elidedCols)
		}
	}

	return b.String()
}

// sanitizeCell keeps cell content on one line and escapes pipes so the table
// structure survives arbitrary input.
func sanitizeCell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.NewReplacer("\n", " ", "\r", " ", "|", "\\|").Replace(s)
	return strings.TrimSpace(s)
}

// reshapeMarkdownTables normalizes every pipe table in md to the well-formed
// shape renderMarkdownTable produces: one separator row after the header and
// a uniform column count with ragged rows padded. Non-table lines pass
// through untouched.
func reshapeMarkdownTables(md string) string {
	lines := strings.Split(md, "\n")
	var out []string

	for i := 0; i < len(lines); {
		if !isTableLine(lines[i]) {
			out = append(out, lines[i])
			i++
			continue
		}

		start := i
		for i < len(lines) && isTableLine(lines[i]) {
			i++
		}
		out = append(out, reshapeTableBlock(lines[start:i])...)
	}

	return strings.Join(out, "\n")
}

func isTableLine(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "|") && strings.Contains(t[1:], "|")
}

func isSeparatorLine(line string) bool {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, "|") {
		return false
	}
	for _, cell := range splitTableRow(t) {
		c := strings.TrimSpace(cell)
		if c == "" {
			continue
		}
		if strings.Trim(c, ":-") != "" {
			return false
		}
	}
	return true
}

// reshapeTableBlock rebuilds one contiguous run of pipe-table lines.
func reshapeTableBlock(block []string) []string {
	var rows [][]string
	for _, line := range block {
		if isSeparatorLine(line) {
			continue
		}
		rows = append(rows, splitTableRow(strings.TrimSpace(line)))
	}
	if len(rows) == 0 {
		return block
	}

	table := renderMarkdownTable(rows, 0, 0)
	return strings.Split(strings.TrimRight(table, "\n"), "\n")
}

// splitTableRow splits "| a | b |" into cells, honoring escaped pipes.
func splitTableRow(line string) []string {
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")

	var cells []string
	var cur strings.Builder
	escaped := false
	for _, r := range line {
		switch {
		case escaped:
			if r != '|' {
				cur.WriteByte('\\')
			}
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if escaped {
		cur.WriteByte('\\')
	}
	cells = append(cells, strings.TrimSpace(cur.String()))
	return cells
}
