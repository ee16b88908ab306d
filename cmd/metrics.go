package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"spin/internal/metrics"
)

var (
	metricsDir    string
	metricsReadme string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Generate PR lead-time metrics (chart, table, readme section)",
	Long: `Fetch merged pull requests via the GitHub GraphQL API, aggregate daily
lead-time statistics and write a JSON snapshot, an SVG chart and a Markdown
table, then refresh the Recent Metrics section of the readme.

Requires GITHUB_TOKEN; the repository is read from GITHUB_REPOSITORY.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := os.Getenv("GITHUB_REPOSITORY")
		if repo == "" {
			repo = "thenarfer/cloud-starter"
		}
		return metrics.Run(cmd.Context(), metrics.Options{
			Token:      os.Getenv("GITHUB_TOKEN"),
			Repository: repo,
			Dir:        metricsDir,
			ReadmePath: metricsReadme,
		})
	},
}

func init() {
	rootCmd.AddCommand(metricsCmd)

	metricsCmd.Flags().StringVar(&metricsDir, "dir", ".github/metrics", "Output directory for metrics artifacts")
	metricsCmd.Flags().StringVar(&metricsReadme, "readme", "README.md", "Readme file to update (empty to skip)")
}
