package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"spin/internal/config"
	"spin/internal/gateway"
	"spin/internal/lifecycle"
)

var (
	upCount int
	upType  string
	upGroup string
	upApply bool
	upTable bool
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Launch N instances (dry-run unless --apply)",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load()
		if err != nil {
			return err
		}
		if upApply {
			settings.DryRun = false
		}

		mgr := lifecycle.NewManager(settings, gateway.NewAWSFactory(settings))
		res, err := mgr.Up(cmd.Context(), upCount, upType, upGroup, upApply)
		if err != nil {
			return err
		}

		if upTable {
			if err := printUpTable(cmd, mgr, res); err != nil {
				return err
			}
		} else {
			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
		}

		if res.Warning != "" {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", res.Warning)
			return errLaunchWarning
		}
		return nil
	},
}

func printUpTable(cmd *cobra.Command, mgr *lifecycle.Manager, res *lifecycle.UpResult) error {
	headers := []string{"InstanceId", "PublicIp", "State", "SpinGroup"}
	w := cmd.OutOrStdout()

	if !res.Applied {
		rows := [][]string{{"(dry-run)", "N/A", "pending", res.Group}}
		fmt.Fprintln(w, formatTable(headers, rows))
		fmt.Fprintf(w, "\nDry-run: Would launch %d instance(s) of type %s\n", res.Count, res.Type)
		return nil
	}

	summaries, err := mgr.Status(cmd.Context(), res.Group)
	if err != nil {
		return err
	}
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
		rows = append(rows, []string{s.ID, ip, s.State, group})
	}
	fmt.Fprintln(w, formatTable(headers, rows))
	return nil
}

func init() {
	rootCmd.AddCommand(upCmd)

	upCmd.Flags().IntVar(&upCount, "count", 0, "Number of instances")
	upCmd.Flags().StringVar(&upType, "type", "", "EC2 instance type (default t3.micro)")
	upCmd.Flags().StringVar(&upGroup, "group", "", "Optional group id to reuse")
	upCmd.Flags().BoolVar(&upApply, "apply", false, "Apply for real (requires SPIN_LIVE=1)")
	upCmd.Flags().BoolVar(&upTable, "table", false, "Output in table format instead of JSON")
	if err := upCmd.MarkFlagRequired("count"); err != nil {
		panic(fmt.Sprintf("failed to mark flag as required: %v", err))
	}
}
