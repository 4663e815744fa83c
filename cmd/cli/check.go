package cli

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/anstrom/portsweep/internal/config"
	"github.com/anstrom/portsweep/internal/scanning"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that nmap is installed and responding",
	Long: `Check runs the same nmap probe that precedes every scan: it resolves the
nmap executable, asks it for its version and compares that version with the
configured minimum.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return executeCheck(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func executeCheck(ctx context.Context, cfg *config.Config, out io.Writer) error {
	info, err := scanning.CheckNmap(ctx, cfg.Scanning.NmapPath, cfg.GetVersionCheckTimeout())
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(out, "Check interrupted by user.")
			return nil
		}
		return err
	}

	fmt.Fprintf(out, "nmap:    %s\n", info.Path)
	fmt.Fprintf(out, "version: %s\n", info.VersionLine)

	if !info.AtLeast(cfg.Scanning.MinNmapVersion) {
		fmt.Fprintf(out, "warning: nmap %s or newer is recommended\n", cfg.Scanning.MinNmapVersion)
		fmt.Fprintf(out, "hint:    %s\n", scanning.InstallHint(runtime.GOOS))
		return nil
	}

	fmt.Fprintln(out, "status:  ok")
	return nil
}
