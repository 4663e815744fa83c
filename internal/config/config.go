// Package config provides the portsweep configuration model: scan defaults,
// report destinations, metrics export and logging. Values are loaded from a
// YAML file and layered with environment and flag overrides by the CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/anstrom/portsweep/internal/logging"
)

const defaultVersionCheckTimeout = 5 * time.Second

// Config represents the complete portsweep configuration
type Config struct {
	// Scanning configuration
	Scanning ScanningConfig `yaml:"scanning" json:"scanning"`

	// Report configuration
	Report ReportConfig `yaml:"report" json:"report"`

	// Metrics configuration
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ScanningConfig holds the options applied to every nmap invocation of a run
type ScanningConfig struct {
	// Path or name of the nmap executable
	NmapPath string `yaml:"nmap_path" json:"nmap_path"`

	// Scan profile: default, quick, full, stealth
	Profile string `yaml:"profile" json:"profile"`

	// Explicit port specification; empty selects the well-known ports set
	Ports string `yaml:"ports" json:"ports"`

	ServiceVersion bool `yaml:"service_version" json:"service_version"`
	OSDetection    bool `yaml:"os_detection" json:"os_detection"`
	ScriptScan     bool `yaml:"script_scan" json:"script_scan"`

	// Aggressive supersedes the three detection toggles
	Aggressive bool `yaml:"aggressive" json:"aggressive"`

	// Lowest nmap version considered compatible
	MinNmapVersion string `yaml:"min_nmap_version" json:"min_nmap_version"`

	// Timeout of the startup `nmap --version` probe
	VersionCheckTimeout time.Duration `yaml:"version_check_timeout" json:"version_check_timeout"`
}

// ReportConfig holds report destinations
type ReportConfig struct {
	// HTML report path
	Output string `yaml:"output" json:"output"`

	// Optional JSON export path
	JSONOutput string `yaml:"json_output" json:"json_output"`

	// Document title
	Title string `yaml:"title" json:"title"`
}

// MetricsConfig holds run metrics export settings
type MetricsConfig struct {
	// Prometheus text-format file written after the run; empty disables export
	Textfile string `yaml:"textfile" json:"textfile"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level" json:"level"`

	// Log format (text, json)
	Format string `yaml:"format" json:"format"`

	// Log output (stdout, stderr, file path)
	Output string `yaml:"output" json:"output"`
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Scanning: ScanningConfig{
			NmapPath:            "",
			Profile:             "default",
			Ports:               "",
			ServiceVersion:      false,
			OSDetection:         false,
			ScriptScan:          false,
			Aggressive:          false,
			MinNmapVersion:      "7.0",
			VersionCheckTimeout: defaultVersionCheckTimeout,
		},
		Report: ReportConfig{
			Output:     "scan_report.html",
			JSONOutput: "",
			Title:      "Nmap Port Scan Report",
		},
		Metrics: MetricsConfig{
			Textfile: "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	// Start with defaults
	config := Default()

	if path == "" {
		return config, nil
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil // Return defaults if no config file
	}

	data, err := os.ReadFile(path) //nolint:gosec // config path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// JSON is a subset of YAML, so one decoder covers both extensions
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filepath.Base(path), err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validProfiles := map[string]bool{
		"default": true,
		"quick":   true,
		"full":    true,
		"stealth": true,
	}
	if !validProfiles[c.Scanning.Profile] {
		return fmt.Errorf("invalid scan profile: %s", c.Scanning.Profile)
	}

	if c.Scanning.VersionCheckTimeout < 0 {
		return fmt.Errorf("version check timeout must not be negative")
	}

	if c.Report.Output == "" {
		return fmt.Errorf("report output path is required")
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.Logging.Format); err != nil {
		return err
	}

	return nil
}

// GetVersionCheckTimeout returns the nmap probe timeout, falling back to the default.
func (c *Config) GetVersionCheckTimeout() time.Duration {
	if c.Scanning.VersionCheckTimeout <= 0 {
		return defaultVersionCheckTimeout
	}
	return c.Scanning.VersionCheckTimeout
}
