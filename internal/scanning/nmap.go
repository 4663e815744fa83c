package scanning

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/hashicorp/go-version"

	"github.com/anstrom/portsweep/internal/errors"
)

const defaultVersionCheckTimeout = 5 * time.Second

var versionPattern = regexp.MustCompile(`(?i)nmap version\s+([0-9][0-9A-Za-z.\-]*)`)

// NmapInfo describes the nmap installation found at startup.
type NmapInfo struct {
	Path        string
	VersionLine string
	Version     *version.Version
}

// DefaultBinary is the executable name looked up on PATH.
func DefaultBinary() string {
	if runtime.GOOS == "windows" {
		return "nmap.exe"
	}
	return "nmap"
}

// CheckNmap verifies that binary resolves to an nmap that answers a version
// query within timeout. The first line of its output is kept for display.
func CheckNmap(ctx context.Context, binary string, timeout time.Duration) (*NmapInfo, error) {
	if binary == "" {
		binary = DefaultBinary()
	}
	if timeout <= 0 {
		timeout = defaultVersionCheckTimeout
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, errors.WrapScanError(errors.CodeToolNotFound, "nmap executable not found", err).
			WithContext("binary", binary).
			WithHint(InstallHint(runtime.GOOS))
	}

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := exec.CommandContext(checkCtx, path, "--version").Output() //nolint:gosec // path comes from LookPath
	if err != nil {
		return nil, errors.WrapScanError(errors.CodeToolUnresponsive, "nmap did not answer a version query", err).
			WithContext("path", path).
			WithHint(InstallHint(runtime.GOOS))
	}

	line := firstLine(out)
	if line == "" {
		return nil, errors.NewScanError(errors.CodeToolUnresponsive, "nmap returned no version information").
			WithContext("path", path)
	}

	info := &NmapInfo{Path: path, VersionLine: line}
	if m := versionPattern.FindStringSubmatch(line); m != nil {
		if v, err := version.NewVersion(m[1]); err == nil {
			info.Version = v
		}
	}
	return info, nil
}

// AtLeast reports whether the detected version satisfies minimum. An
// undetected version or an unparsable minimum is treated as satisfying it.
func (i *NmapInfo) AtLeast(minimum string) bool {
	if i == nil || i.Version == nil || minimum == "" {
		return true
	}
	m, err := version.NewVersion(minimum)
	if err != nil {
		return true
	}
	return i.Version.GreaterThanOrEqual(m)
}

// InstallHint returns the usual install instructions for goos.
func InstallHint(goos string) string {
	switch goos {
	case "darwin":
		return "install nmap with: brew install nmap"
	case "windows":
		return "download the nmap installer from https://nmap.org/download.html"
	case "linux":
		return "install nmap with your package manager, e.g. sudo apt install nmap or sudo dnf install nmap"
	default:
		return "see https://nmap.org/download.html for installation instructions"
	}
}

func firstLine(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line
		}
	}
	return ""
}
