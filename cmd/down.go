package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"spin/internal/config"
	"spin/internal/gateway"
	"spin/internal/lifecycle"
)

var (
	downGroup string
	downApply bool
	downTable bool
)

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Terminate instances for a group (dry-run unless --apply; requires --group)",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load()
		if err != nil {
			return err
		}
		if downApply {
			settings.DryRun = false
		}

		mgr := lifecycle.NewManager(settings, gateway.NewAWSFactory(settings))
		res, err := mgr.Down(cmd.Context(), downGroup, downApply)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if downTable {
			rows := make([][]string, 0, len(res.Terminated))
			for _, id := range res.Terminated {
				rows = append(rows, []string{id, fmt.Sprintf("%t", res.Applied)})
			}
			fmt.Fprintln(w, formatTable([]string{"InstanceId", "Applied"}, rows))
			return nil
		}

		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downCmd)

	downCmd.Flags().StringVar(&downGroup, "group", "", "Group id (required unless override env set)")
	downCmd.Flags().BoolVar(&downApply, "apply", false, "Apply for real (requires SPIN_LIVE=1)")
	downCmd.Flags().BoolVar(&downTable, "table", false, "Output in table format instead of JSON")
}
