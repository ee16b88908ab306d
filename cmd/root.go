package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"spin/internal/faults"
)

// errLaunchWarning signals that up succeeded but could not confirm health;
// the warning text is already on stderr when Execute sees it.
var errLaunchWarning = errors.New("launch completed with warning")

var rootCmd = &cobra.Command{
	Use:   "spin",
	Short: "Tiny EC2 helper: launch, inspect and tear down tagged instances",
	Long: `spin launches small groups of tagged EC2 instances and tears them down
again. Every operation is a dry-run preview unless --apply is given AND the
SPIN_LIVE interlock is enabled.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and maps failures to process exit codes:
// 2 for safety-policy violations, 1 for everything else including the
// launched-but-unconfirmed warning.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	if errors.Is(err, errLaunchWarning) {
		return 1
	}
	var policyErr *faults.PolicyError
	if errors.As(err, &policyErr) {
		fmt.Fprintln(os.Stderr, policyErr.Error())
		return 2
	}
	fmt.Fprintln(os.Stderr, err)
	return 1
}
