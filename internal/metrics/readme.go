package metrics

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

// sectionRe matches the readme metrics section: everything between the
// literal heading marker and the next top-level boundary (or end of file).
// Only the middle is replaced; the marker and boundary bytes are kept.
var sectionRe = regexp.MustCompile(`(?s)(\*\*Recent Metrics\*\*\n\n).*?(\n\n---|\n\n## |\z)`)

func readmeSection(stats []DailyStat, now time.Time) string {
	if len(stats) == 0 {
		return markdownTable(nil) + "\n*Table will be populated when PRs are merged*"
	}
	table := strings.TrimSuffix(markdownTable(stats), "\n")
	return table + fmt.Sprintf("\n\n*Last updated: %s*", now.UTC().Format("2006-01-02 15:04 UTC"))
}

// UpdateReadme rewrites the metrics section of the readme at path, leaving
// every byte outside the section untouched. The write is skipped entirely
// when the rendered content is unchanged. Returns whether a write happened.
func UpdateReadme(path string, stats []DailyStat, now time.Time) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	// Splice the section in literally; a template replacement would expand
	// any $ sequences in the rendered content.
	section := readmeSection(stats, now)
	updated := sectionRe.ReplaceAllFunc(content, func(m []byte) []byte {
		sub := sectionRe.FindSubmatch(m)
		out := make([]byte, 0, len(sub[1])+len(section)+len(sub[2]))
		out = append(out, sub[1]...)
		out = append(out, section...)
		out = append(out, sub[2]...)
		return out
	})
	if bytes.Equal(updated, content) {
		return false, nil
	}
	if err := os.WriteFile(path, updated, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
