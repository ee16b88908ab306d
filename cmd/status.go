package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"spin/internal/config"
	"spin/internal/gateway"
	"spin/internal/lifecycle"
)

var (
	statusGroup string
	statusTable bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List instances for this owner (optionally by group)",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load()
		if err != nil {
			return err
		}

		mgr := lifecycle.NewManager(settings, gateway.NewAWSFactory(settings))
		summaries, err := mgr.Status(cmd.Context(), statusGroup)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if statusTable {
			headers := []string{"InstanceId", "PublicIp", "State", "Health", "UptimeMin", "SpinGroup"}
			rows := make([][]string, 0, len(summaries))
			for _, s := range summaries {
				ip := s.PublicIP
				if ip == "" {
					ip = "N/A"
				}
				group := s.Tags["SpinGroup"]
				if group == "" {
					group = "N/A"
				}
				rows = append(rows, []string{
					s.ID, ip, s.State, string(s.Health),
					strconv.FormatInt(s.UptimeMinutes, 10), group,
				})
			}
			fmt.Fprintln(w, formatTable(headers, rows))
			return nil
		}

		out, err := json.MarshalIndent(summaries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusGroup, "group", "", "Group id to filter")
	statusCmd.Flags().BoolVar(&statusTable, "table", false, "Output in table format instead of JSON")
}
