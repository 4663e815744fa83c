package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anstrom/portsweep/internal/config"
	"github.com/anstrom/portsweep/internal/errors"
	"github.com/anstrom/portsweep/internal/logging"
	"github.com/anstrom/portsweep/internal/metrics"
	"github.com/anstrom/portsweep/internal/report"
	"github.com/anstrom/portsweep/internal/scanning"
	"github.com/anstrom/portsweep/internal/targets"
)

const bytesPerKB = 1024

var scanTargetFile string

// scanFlagKeys maps scan flags to their configuration keys.
var scanFlagKeys = map[string]string{
	"output":          "report.output",
	"json":            "report.json_output",
	"metrics-file":    "metrics.textfile",
	"ports":           "scanning.ports",
	"scan-type":       "scanning.profile",
	"service-version": "scanning.service_version",
	"os-detect":       "scanning.os_detection",
	"script-scan":     "scanning.script_scan",
	"aggressive":      "scanning.aggressive",
	"nmap-path":       "scanning.nmap_path",
}

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan every target in a file and write an HTML report",
	Long: `Scan reads targets (IP addresses, CIDR blocks or hostnames) from a file,
one per line, and runs nmap against each of them in turn. Blank lines and lines
starting with '#' are ignored.

A target that fails is logged and skipped; the report covers every host that
answered with at least one open port. Without --ports a built-in list of
well-known service ports is scanned.`,
	Example: `  portsweep scan -f targets.txt
  portsweep scan -f targets.txt -o lab.html --scan-type quick
  portsweep scan -f targets.txt -p 22,80,443 --service-version
  sudo portsweep scan -f targets.txt -A --json results.json`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	defaults := config.Default()

	// Define flags
	scanCmd.Flags().StringVarP(&scanTargetFile, "file", "f", "", "File with one target per line")
	scanCmd.Flags().StringP("output", "o", defaults.Report.Output, "HTML report path")
	scanCmd.Flags().String("json", "", "Also export results as JSON to this path")
	scanCmd.Flags().String("metrics-file", "", "Write Prometheus text-format run metrics to this path")
	scanCmd.Flags().StringP("ports", "p", "", "Port specification, e.g. '22,80,443' or '1-1024' (default: well-known ports)")
	scanCmd.Flags().String("scan-type", defaults.Scanning.Profile, "Scan profile: default, quick, full, stealth")
	scanCmd.Flags().Bool("service-version", false, "Probe open ports for service and version (-sV)")
	scanCmd.Flags().BoolP("os-detect", "O", false, "Enable OS detection (-O, requires root)")
	scanCmd.Flags().BoolP("script-scan", "C", false, "Run the default NSE scripts (-sC)")
	scanCmd.Flags().BoolP("aggressive", "A", false, "Aggressive scan (-A), implies version, OS and script detection")
	scanCmd.Flags().String("nmap-path", "", "nmap executable (default: nmap on PATH)")

	if err := scanCmd.MarkFlagRequired("file"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to mark file flag required: %v\n", err)
	}

	// Bind flags to viper
	for flag, key := range scanFlagKeys {
		if err := viper.BindPFlag(key, scanCmd.Flags().Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind %s flag: %v\n", flag, err)
		}
	}
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return executeScan(cmd.Context(), cfg, scanTargetFile, cmd.OutOrStdout())
}

// executeScan performs one complete run: startup checks, the scan loop and
// report output. Per-target and report-write failures are logged and do not
// fail the run; an interrupt ends it quietly without a report.
func executeScan(ctx context.Context, cfg *config.Config, targetFile string, out io.Writer) error {
	logger := logging.Default().WithComponent("scan")

	scanConfig := scanConfigFrom(cfg)
	if err := scanConfig.Validate(); err != nil {
		return errors.WrapConfigError(errors.CodeValidation, "invalid scan configuration", err)
	}

	info, err := scanning.CheckNmap(ctx, cfg.Scanning.NmapPath, cfg.GetVersionCheckTimeout())
	if err != nil {
		if ctx.Err() != nil {
			return interrupted(out, logger)
		}
		return err
	}
	logger.Info("Found nmap", "path", info.Path, "version", info.VersionLine)
	if !info.AtLeast(cfg.Scanning.MinNmapVersion) {
		logger.Warn("nmap is older than the minimum supported version; results may be incomplete",
			"version", info.VersionLine, "minimum", cfg.Scanning.MinNmapVersion)
	}

	targetList, err := targets.Load(targetFile)
	if err != nil {
		return err
	}
	if len(targetList) == 0 {
		logger.Warn("Target file contains no targets, nothing to scan", "file", targetFile)
		return nil
	}
	for _, target := range targets.Unrecognized(targetList) {
		logger.Warn("Target is not an IP address, CIDR block or hostname; passing it to nmap as is",
			"target", target)
	}

	if scanConfig.RequiresPrivileges() && !isPrivileged() {
		logger.Warn("OS detection and SYN scans need root privileges; nmap may fail for every target",
			"hint", "re-run with sudo")
	}

	var recorder metrics.Recorder = metrics.Noop{}
	var prom *metrics.PrometheusMetrics
	if cfg.Metrics.Textfile != "" {
		prom = metrics.NewPrometheusMetrics(string(scanConfig.Profile))
		recorder = prom
	}

	orchestrator := scanning.NewOrchestrator(scanConfig, info,
		scanning.WithExecutor(scanning.NewProcessRunner(out)),
		scanning.WithMetrics(recorder),
		scanning.WithLogger(logger))

	results, meta, err := orchestrator.Run(ctx, targetList)
	if err != nil {
		if errors.IsCode(err, errors.CodeCanceled) {
			return interrupted(out, logger)
		}
		return err
	}

	writeOutputs(cfg, results, meta, prom, out, logger)
	return nil
}

// interrupted reports a user interrupt, which ends the run without a report
// and without an error.
func interrupted(out io.Writer, logger *logging.Logger) error {
	logger.Warn("Scan interrupted, no report written")
	fmt.Fprintln(out, "Scan interrupted by user.")
	return nil
}

// writeOutputs writes the HTML report, the optional JSON export and metrics
// file, then prints the console summary. Failures are logged only.
func writeOutputs(
	cfg *config.Config,
	results scanning.ResultSet,
	meta scanning.RunMetadata,
	prom *metrics.PrometheusMetrics,
	out io.Writer,
	logger *logging.Logger,
) {
	fmt.Fprintln(out)
	if err := report.PrintSummary(out, results, meta); err != nil {
		logger.Error("Failed to print summary", "error", err)
	}

	size, err := report.WriteFile(cfg.Report.Output, results, meta, report.Options{Title: cfg.Report.Title})
	if err != nil {
		logger.Error("Failed to write HTML report", "path", cfg.Report.Output, "error", err)
	} else {
		fmt.Fprintf(out, "Report saved to %s (%.1f KB)\n", absPath(cfg.Report.Output), float64(size)/bytesPerKB)
	}

	if cfg.Report.JSONOutput != "" {
		if err := report.WriteJSON(cfg.Report.JSONOutput, results, meta); err != nil {
			logger.Error("Failed to write JSON results", "path", cfg.Report.JSONOutput, "error", err)
		} else {
			fmt.Fprintf(out, "Results exported to %s\n", absPath(cfg.Report.JSONOutput))
		}
	}

	if prom != nil {
		if err := prom.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Error("Failed to write metrics file", "path", cfg.Metrics.Textfile, "error", err)
		}
	}
}

func scanConfigFrom(cfg *config.Config) scanning.ScanConfig {
	return scanning.ScanConfig{
		Profile:        scanning.Profile(cfg.Scanning.Profile),
		Ports:          cfg.Scanning.Ports,
		ServiceVersion: cfg.Scanning.ServiceVersion,
		OSDetection:    cfg.Scanning.OSDetection,
		ScriptScan:     cfg.Scanning.ScriptScan,
		Aggressive:     cfg.Scanning.Aggressive,
	}
}

// isPrivileged reports whether raw socket scans are likely to work. Windows
// has no cheap equivalent of the effective uid check and is assumed to be.
func isPrivileged() bool {
	if runtime.GOOS == "windows" {
		return true
	}
	return os.Geteuid() == 0
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
