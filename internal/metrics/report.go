package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Snapshot is the raw JSON artifact written next to the rendered outputs.
type Snapshot struct {
	GeneratedAt time.Time   `json:"generated_at"`
	DailyStats  []DailyStat `json:"daily_stats"`
	TotalPRs    int         `json:"total_prs"`
}

// WriteSnapshot writes the aggregated statistics as indented JSON.
func WriteSnapshot(path string, stats []DailyStat, totalPRs int, now time.Time) error {
	data, err := json.MarshalIndent(Snapshot{
		GeneratedAt: now,
		DailyStats:  stats,
		TotalPRs:    totalPRs,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// markdownTable renders the last seven days, newest first.
func markdownTable(stats []DailyStat) string {
	if len(stats) == 0 {
		return "| Day | PRs | P50 | P90 |\n|-----|-----|-----|-----|\n| No data | - | - | - |\n"
	}

	recent := stats
	if len(recent) > 7 {
		recent = recent[len(recent)-7:]
	}
	rows := []string{
		"| Day | PRs | P50 | P90 |",
		"|-----|-----|-----|-----|",
	}
	for i := len(recent) - 1; i >= 0; i-- {
		d := recent[i]
		rows = append(rows, fmt.Sprintf("| %s | %d | %.1fh | %.1fh |",
			d.Day, d.PRCount, d.P50Hours, d.P90Hours))
	}
	return strings.Join(rows, "\n") + "\n"
}

// WriteTable writes the markdown summary table artifact.
func WriteTable(path string, stats []DailyStat) error {
	return os.WriteFile(path, []byte(markdownTable(stats)), 0o644)
}
