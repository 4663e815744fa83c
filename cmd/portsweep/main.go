// Command portsweep scans a file of targets with nmap and writes an HTML report.
package main

import (
	"github.com/anstrom/portsweep/cmd/cli"
)

// Build information - these will be set by ldflags during build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildTime)
	cli.Execute()
}
