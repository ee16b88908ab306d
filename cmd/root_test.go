package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func testEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SPIN_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("SPIN_OWNER", "dev@example.com")
	for _, name := range []string{"SPIN_DRY_RUN", "SPIN_LIVE", "SPIN_ALLOW_GLOBAL_DOWN"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func runSpin(t *testing.T, args ...string) (int, string) {
	t.Helper()
	downGroup, downApply, downTable = "", false, false
	upType, upGroup, upApply, upTable = "", "", false, false
	statusGroup, statusTable = "", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	code := Execute()
	return code, out.String()
}

func TestDownWithoutGroupExitsTwo(t *testing.T) {
	testEnv(t)
	code, _ := runSpin(t, "down")
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestDownWithGroupPreviewExitsZero(t *testing.T) {
	testEnv(t)
	code, out := runSpin(t, "down", "--group", "abcd1234")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0 (output: %s)", code, out)
	}
	if !strings.Contains(out, `"applied": false`) {
		t.Errorf("expected preview result, got %s", out)
	}
	if !strings.Contains(out, `"terminated": []`) {
		t.Errorf("expected empty terminated list, got %s", out)
	}
}

func TestDownGlobalOverrideAllowsMissingGroup(t *testing.T) {
	testEnv(t)
	t.Setenv("SPIN_ALLOW_GLOBAL_DOWN", "1")
	code, _ := runSpin(t, "down")
	if code != 0 {
		t.Errorf("exit code = %d, want 0 with override enabled", code)
	}
}

func TestUpPreviewOutput(t *testing.T) {
	testEnv(t)
	code, out := runSpin(t, "up", "--count", "2")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0 (output: %s)", code, out)
	}
	for _, want := range []string{`"applied": false`, `"count": 2`, `"type": "t3.micro"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
}

func TestUpPreviewTable(t *testing.T) {
	testEnv(t)
	code, out := runSpin(t, "up", "--count", "3", "--table")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0 (output: %s)", code, out)
	}
	if !strings.Contains(out, "(dry-run)") {
		t.Errorf("expected dry-run preview row:\n%s", out)
	}
	if !strings.Contains(out, "Would launch 3 instance(s) of type t3.micro") {
		t.Errorf("expected dry-run summary line:\n%s", out)
	}
}

func TestStatusDryRunIsEmptyList(t *testing.T) {
	testEnv(t)
	code, out := runSpin(t, "status")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0 (output: %s)", code, out)
	}
	if !strings.Contains(out, "[]") {
		t.Errorf("expected empty JSON list, got %s", out)
	}
}

func TestLaunchWarningMapsToExitOne(t *testing.T) {
	testEnv(t)
	warnCmd := &cobra.Command{
		Use: "warn",
		RunE: func(cmd *cobra.Command, args []string) error {
			return errLaunchWarning
		},
	}
	rootCmd.AddCommand(warnCmd)
	defer rootCmd.RemoveCommand(warnCmd)

	code, _ := runSpin(t, "warn")
	if code != 1 {
		t.Errorf("exit code = %d, want 1 for a launch that could not confirm health", code)
	}
}

func TestMissingOwnerExitsOne(t *testing.T) {
	testEnv(t)
	t.Setenv("SPIN_OWNER", "")
	os.Unsetenv("SPIN_OWNER")
	code, _ := runSpin(t, "status")
	if code != 1 {
		t.Errorf("exit code = %d, want 1 for configuration error", code)
	}
}
