package cmd

import (
	"fmt"
	"strings"
)

// formatTable renders rows as fixed-width columns joined by " | " with a
// dashed rule under the header. All table-producing verbs share it.
func formatTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		header := strings.Join(headers, " | ")
		return fmt.Sprintf("%s\n%s\n", header, strings.Repeat("-", len(header)))
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	pad := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		return strings.Join(parts, " | ")
	}

	lines := make([]string, 0, len(rows)+2)
	headerLine := pad(headers)
	lines = append(lines, headerLine, strings.Repeat("-", len(headerLine)))
	for _, row := range rows {
		lines = append(lines, pad(row))
	}
	return strings.Join(lines, "\n")
}
