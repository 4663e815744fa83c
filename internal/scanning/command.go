package scanning

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Ullaakut/nmap/v3"
)

const xmlTempPattern = "portsweep-*.xml"

// Command is one fully built nmap invocation for a single target.
type Command struct {
	Path       string
	Args       []string
	Target     string
	OutputFile string
}

// String renders the command line the way it is shown to the operator.
func (c *Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Path)
	parts = append(parts, c.Args...)
	return strings.Join(parts, " ")
}

// Cleanup removes the XML output file. Errors are ignored.
func (c *Command) Cleanup() {
	if c.OutputFile != "" {
		_ = os.Remove(c.OutputFile)
	}
}

// BuildCommand assembles the nmap invocation for target and reserves the
// temporary file nmap writes its XML report to. Flags are emitted in a fixed
// order: profile flags, detection flags, port list, XML output, -n, target.
// The caller owns the returned OutputFile and must call Cleanup.
func BuildCommand(ctx context.Context, config ScanConfig, nmapPath, target string) (*Command, error) {
	tmp, err := os.CreateTemp("", xmlTempPattern)
	if err != nil {
		return nil, &ScanError{Op: "create xml output file", Target: target, Err: err}
	}
	outputFile := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(outputFile)
		return nil, &ScanError{Op: "create xml output file", Target: target, Err: err}
	}

	options := buildScanOptions(config, outputFile, target)
	if nmapPath != "" {
		options = append(options, nmap.WithBinaryPath(nmapPath))
	}

	scanner, err := nmap.NewScanner(ctx, options...)
	if err != nil {
		_ = os.Remove(outputFile)
		return nil, &ScanError{Op: "create scanner", Target: target, Err: err}
	}

	if nmapPath == "" {
		nmapPath = DefaultBinary()
	}

	return &Command{
		Path:       nmapPath,
		Args:       append([]string(nil), scanner.Args()...),
		Target:     target,
		OutputFile: outputFile,
	}, nil
}

// buildScanOptions creates nmap options based on scan configuration.
func buildScanOptions(config ScanConfig, outputFile, target string) []nmap.Option {
	options := profileOptions(config.Profile)
	options = append(options, detectionOptions(config)...)

	return append(options,
		nmap.WithPorts(config.PortSpec()),
		nmap.WithCustomArguments("-oX", outputFile),
		nmap.WithDisabledDNSResolution(),
		nmap.WithTargets(target),
	)
}

func profileOptions(profile Profile) []nmap.Option {
	switch profile {
	case ProfileFull:
		return []nmap.Option{
			nmap.WithTimingTemplate(nmap.TimingNormal),
			nmap.WithSkipHostDiscovery(),
		}
	case ProfileStealth:
		return []nmap.Option{
			nmap.WithSYNScan(),
			nmap.WithTimingTemplate(nmap.TimingPolite),
		}
	default:
		return []nmap.Option{nmap.WithTimingTemplate(nmap.TimingAggressive)}
	}
}

// detectionOptions returns -A alone when aggressive mode is on, otherwise
// whichever of -sV, -O and -sC are enabled.
func detectionOptions(config ScanConfig) []nmap.Option {
	if config.Aggressive {
		return []nmap.Option{nmap.WithAggressiveScan()}
	}

	var options []nmap.Option
	if config.ServiceVersion {
		options = append(options, nmap.WithServiceInfo())
	}
	if config.OSDetection {
		options = append(options, nmap.WithOSDetection())
	}
	if config.ScriptScan {
		options = append(options, nmap.WithDefaultScript())
	}
	return options
}

// describeProfile is used in the run banner.
func describeProfile(profile Profile) string {
	switch profile {
	case ProfileFull:
		return fmt.Sprintf("%s (normal timing, no host discovery)", profile)
	case ProfileStealth:
		return fmt.Sprintf("%s (SYN scan, polite timing)", profile)
	default:
		return fmt.Sprintf("%s (aggressive timing)", profile)
	}
}
