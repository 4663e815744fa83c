// Package cli provides the command-line interface of portsweep.
// It implements the Cobra command tree (scan, check, render) and layers
// configuration from the YAML file, PORTSWEEP_* environment variables and flags.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anstrom/portsweep/internal/config"
	"github.com/anstrom/portsweep/internal/errors"
	"github.com/anstrom/portsweep/internal/logging"
)

const envPrefix = "PORTSWEEP"

var (
	cfgFile string
	verbose bool
)

// Build information - these will be set by ldflags during build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "portsweep",
	Short: "Batch nmap port scanner with HTML reports",
	Long: `portsweep reads a list of targets from a file, runs nmap against each of
them in turn and merges the open ports it finds into a single self-contained
HTML report.`,
	Version:       getVersion(),
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). SIGINT and SIGTERM cancel the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logging.Default().Close()

	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./portsweep.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	if err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind verbose flag: %v\n", err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in current directory
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("portsweep")
	}

	// Read in environment variables that match, e.g. PORTSWEEP_SCANNING_PROFILE
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setConfigDefaults(config.Default())

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}

	// Initialize structured logging after config is loaded
	initLogging()
}

// setConfigDefaults registers every configuration key with viper so that
// environment variables resolve even when no config file is present.
func setConfigDefaults(cfg *config.Config) {
	// Scanning configuration
	viper.SetDefault("scanning.nmap_path", cfg.Scanning.NmapPath)
	viper.SetDefault("scanning.profile", cfg.Scanning.Profile)
	viper.SetDefault("scanning.ports", cfg.Scanning.Ports)
	viper.SetDefault("scanning.service_version", cfg.Scanning.ServiceVersion)
	viper.SetDefault("scanning.os_detection", cfg.Scanning.OSDetection)
	viper.SetDefault("scanning.script_scan", cfg.Scanning.ScriptScan)
	viper.SetDefault("scanning.aggressive", cfg.Scanning.Aggressive)
	viper.SetDefault("scanning.min_nmap_version", cfg.Scanning.MinNmapVersion)
	viper.SetDefault("scanning.version_check_timeout", cfg.Scanning.VersionCheckTimeout)

	// Report configuration
	viper.SetDefault("report.output", cfg.Report.Output)
	viper.SetDefault("report.json_output", cfg.Report.JSONOutput)
	viper.SetDefault("report.title", cfg.Report.Title)

	// Metrics configuration
	viper.SetDefault("metrics.textfile", cfg.Metrics.Textfile)

	// Logging configuration
	viper.SetDefault("logging.level", cfg.Logging.Level)
	viper.SetDefault("logging.format", cfg.Logging.Format)
	viper.SetDefault("logging.output", cfg.Logging.Output)
}

// loadConfig validates the config file, then applies environment and flag
// overrides resolved by viper on top of it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.ConfigFileUsed())
	if err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration, "failed to load configuration", err)
	}

	cfg.Scanning.NmapPath = viper.GetString("scanning.nmap_path")
	cfg.Scanning.Profile = viper.GetString("scanning.profile")
	cfg.Scanning.Ports = viper.GetString("scanning.ports")
	cfg.Scanning.ServiceVersion = viper.GetBool("scanning.service_version")
	cfg.Scanning.OSDetection = viper.GetBool("scanning.os_detection")
	cfg.Scanning.ScriptScan = viper.GetBool("scanning.script_scan")
	cfg.Scanning.Aggressive = viper.GetBool("scanning.aggressive")
	cfg.Scanning.MinNmapVersion = viper.GetString("scanning.min_nmap_version")
	cfg.Scanning.VersionCheckTimeout = viper.GetDuration("scanning.version_check_timeout")

	cfg.Report.Output = viper.GetString("report.output")
	cfg.Report.JSONOutput = viper.GetString("report.json_output")
	cfg.Report.Title = viper.GetString("report.title")
	cfg.Metrics.Textfile = viper.GetString("metrics.textfile")

	cfg.Logging.Level = viper.GetString("logging.level")
	cfg.Logging.Format = viper.GetString("logging.format")
	cfg.Logging.Output = viper.GetString("logging.output")

	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapConfigError(errors.CodeConfiguration, "invalid configuration", err)
	}
	return cfg, nil
}

// getVersion returns the version string.
func getVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime)
}

// SetVersion sets the version information (called from main).
func SetVersion(v, c, bt string) {
	version = v
	commit = c
	buildTime = bt
	rootCmd.Version = getVersion()
}

// initLogging initializes structured logging based on configuration.
func initLogging() {
	level := viper.GetString("logging.level")
	if verbose {
		level = string(logging.LevelDebug)
	}

	logConfig := logging.Config{
		Level:     logging.LogLevel(level),
		Format:    logging.LogFormat(viper.GetString("logging.format")),
		Output:    viper.GetString("logging.output"),
		AddSource: level == string(logging.LevelDebug),
	}

	logger, err := logging.New(logConfig)
	if err != nil {
		// Fall back to default if creation fails
		logger = logging.NewDefault()
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	logging.SetDefault(logger)

	if verbose {
		logging.Debug("Structured logging initialized", "level", level, "format", logConfig.Format)
	}
}

// printError writes an error and, for fatal startup conditions, the
// remediation hint attached to it.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	if !errors.IsFatal(err) {
		return
	}
	if hint := errors.Hint(err); hint != "" {
		fmt.Fprintf(w, "Hint: %s\n", hint)
	}
}
