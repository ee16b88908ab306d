package metrics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"spin/internal/logging"
)

// Options configures one metrics run.
type Options struct {
	Token      string // GitHub API token, required
	Repository string // owner/repo
	Dir        string // output directory for the three artifacts
	ReadmePath string // readme to rewrite, empty to skip
}

// Artifact file names within Options.Dir.
const (
	SnapshotFile = "pr_lead_time_data.json"
	ChartFile    = "pr_lead_time_chart.svg"
	TableFile    = "pr_lead_time_table.md"
)

// Run executes the fetch → aggregate → render pipeline and writes the
// snapshot, chart and table artifacts, then rewrites the readme section.
func Run(ctx context.Context, opts Options) error {
	if opts.Token == "" {
		return fmt.Errorf("GITHUB_TOKEN environment variable required")
	}
	owner, repo, ok := strings.Cut(opts.Repository, "/")
	if !ok || owner == "" || repo == "" {
		return fmt.Errorf("invalid GITHUB_REPOSITORY format, expected 'owner/repo'")
	}

	log := logging.Logger()
	log.Info("fetching PR data", zap.String("owner", owner), zap.String("repo", repo))

	client := NewClient(opts.Token)
	prs, err := client.FetchMergedPRs(ctx, owner, repo)
	if err != nil {
		return err
	}
	log.Info("found merged PRs", zap.Int("count", len(prs)))

	stats := AggregateDaily(LeadTimes(prs))
	log.Info("calculated daily stats", zap.Int("days", len(stats)))

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := WriteSnapshot(filepath.Join(opts.Dir, SnapshotFile), stats, len(prs), now); err != nil {
		return fmt.Errorf("failed to write data snapshot: %w", err)
	}

	chartPath := filepath.Join(opts.Dir, ChartFile)
	f, err := os.Create(chartPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	if err := RenderChart(stats, f); err != nil {
		f.Close()
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := WriteTable(filepath.Join(opts.Dir, TableFile), stats); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}

	if opts.ReadmePath != "" {
		changed, err := UpdateReadme(opts.ReadmePath, stats, now)
		if err != nil {
			return fmt.Errorf("failed to update readme: %w", err)
		}
		if changed {
			log.Info("updated readme metrics table", zap.String("path", opts.ReadmePath))
		} else {
			log.Info("no changes needed for readme metrics table")
		}
	}

	log.Info("generated metrics outputs", zap.String("dir", opts.Dir))
	return nil
}
