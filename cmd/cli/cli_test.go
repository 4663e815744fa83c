package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/portsweep/internal/config"
	"github.com/anstrom/portsweep/internal/errors"
	"github.com/anstrom/portsweep/internal/logging"
	"github.com/anstrom/portsweep/internal/report"
	"github.com/anstrom/portsweep/internal/scanning"
)

// fakeNmapScript answers --version and writes a one-host XML report to the
// path following -oX.
const fakeNmapScript = `#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "Nmap version 7.94 ( https://nmap.org )"
  exit 0
fi
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-oX" ]; then
    out="$2"
    shift
  fi
  shift
done
cat > "$out" <<'XML'
<?xml version="1.0" encoding="UTF-8"?>
<nmaprun scanner="nmap">
  <host>
    <status state="up"/>
    <address addr="192.0.2.1" addrtype="ipv4"/>
    <ports>
      <port protocol="tcp" portid="22">
        <state state="open"/>
        <service name="ssh" product="OpenSSH" version="9.6"/>
      </port>
      <port protocol="tcp" portid="23">
        <state state="closed"/>
      </port>
    </ports>
  </host>
</nmaprun>
XML
echo "Nmap done: 1 IP address (1 host up) scanned"
`

type testEnv struct {
	dir     string
	cfg     *config.Config
	targets string
}

func newTestEnv(t *testing.T, nmapScript, targets string) *testEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}

	prev := logging.Default()
	logging.SetDefault(logging.Discard())
	t.Cleanup(func() { logging.SetDefault(prev) })

	dir := t.TempDir()
	nmapPath := filepath.Join(dir, "nmap")
	require.NoError(t, os.WriteFile(nmapPath, []byte(nmapScript), 0700)) //nolint:gosec // test script

	targetFile := filepath.Join(dir, "targets.txt")
	require.NoError(t, os.WriteFile(targetFile, []byte(targets), 0600))

	cfg := config.Default()
	cfg.Scanning.NmapPath = nmapPath
	cfg.Report.Output = filepath.Join(dir, "report.html")

	return &testEnv{dir: dir, cfg: cfg, targets: targetFile}
}

func (e *testEnv) path(name string) string {
	return filepath.Join(e.dir, name)
}

func TestExecuteScan_EndToEnd(t *testing.T) {
	env := newTestEnv(t, fakeNmapScript, "192.0.2.1\n# comment\n")
	env.cfg.Report.JSONOutput = env.path("results.json")
	env.cfg.Metrics.Textfile = env.path("portsweep.prom")

	var out bytes.Buffer
	require.NoError(t, executeScan(context.Background(), env.cfg, env.targets, &out))

	html, err := os.ReadFile(env.cfg.Report.Output)
	require.NoError(t, err)
	assert.Contains(t, string(html), `id="targets-attempted">1</div>`)
	assert.Contains(t, string(html), `id="alive-hosts">1</div>`)
	assert.Contains(t, string(html), `id="open-ports">1</div>`)
	assert.Contains(t, string(html), `<span class="port-number">22</span>`)
	assert.NotContains(t, string(html), `<span class="port-number">23</span>`)
	assert.Contains(t, string(html), "Nmap version 7.94")

	console := out.String()
	assert.Contains(t, console, "    Nmap done: 1 IP address (1 host up) scanned")
	assert.Contains(t, console, "Targets scanned: 1  Alive hosts: 1  Open ports: 1")
	assert.Contains(t, console, "Report saved to "+env.cfg.Report.Output)

	results, meta, err := report.ReadJSON(env.cfg.Report.JSONOutput)
	require.NoError(t, err)
	assert.Equal(t, []string{"192.0.2.1"}, results.Addresses())
	assert.Equal(t, 1, meta.TargetsAttempted)
	assert.NotEmpty(t, meta.RunID)

	prom, err := os.ReadFile(env.cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "portsweep_run_open_ports 1")
}

func TestExecuteScan_TargetFailuresStillProduceReport(t *testing.T) {
	script := `#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "Nmap version 7.94"
  exit 0
fi
echo "QUITTING!"
exit 1
`
	env := newTestEnv(t, script, "192.0.2.1\n192.0.2.2\n")

	var out bytes.Buffer
	require.NoError(t, executeScan(context.Background(), env.cfg, env.targets, &out))

	html, err := os.ReadFile(env.cfg.Report.Output)
	require.NoError(t, err)
	assert.Contains(t, string(html), `id="targets-attempted">2</div>`)
	assert.Contains(t, string(html), `<div class="no-results">`)
	assert.Contains(t, out.String(), "    QUITTING!")
}

func TestExecuteScan_EmptyTargetFile(t *testing.T) {
	env := newTestEnv(t, fakeNmapScript, "# nothing here\n\n")

	var out bytes.Buffer
	require.NoError(t, executeScan(context.Background(), env.cfg, env.targets, &out))

	_, err := os.Stat(env.cfg.Report.Output)
	assert.True(t, os.IsNotExist(err), "no report without targets")
}

func TestExecuteScan_FatalStartupErrors(t *testing.T) {
	t.Run("missing target file", func(t *testing.T) {
		env := newTestEnv(t, fakeNmapScript, "")
		err := executeScan(context.Background(), env.cfg, env.path("missing.txt"), &bytes.Buffer{})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeFileNotFound))
	})

	t.Run("nmap not installed", func(t *testing.T) {
		env := newTestEnv(t, fakeNmapScript, "192.0.2.1\n")
		env.cfg.Scanning.NmapPath = env.path("no-such-nmap")

		err := executeScan(context.Background(), env.cfg, env.targets, &bytes.Buffer{})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeToolNotFound))

		var buf bytes.Buffer
		printError(&buf, err)
		assert.Contains(t, buf.String(), "Hint: ")
	})

	t.Run("invalid port specification", func(t *testing.T) {
		env := newTestEnv(t, fakeNmapScript, "192.0.2.1\n")
		env.cfg.Scanning.Ports = "80,99999"

		err := executeScan(context.Background(), env.cfg, env.targets, &bytes.Buffer{})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeValidation))
		assert.Contains(t, err.Error(), "99999")
	})

	t.Run("invalid profile", func(t *testing.T) {
		env := newTestEnv(t, fakeNmapScript, "192.0.2.1\n")
		env.cfg.Scanning.Profile = "insane"

		err := executeScan(context.Background(), env.cfg, env.targets, &bytes.Buffer{})
		assert.True(t, errors.IsCode(err, errors.CodeValidation))
	})
}

func TestExecuteScan_Interrupted(t *testing.T) {
	script := `#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "Nmap version 7.94"
  exit 0
fi
exec sleep 30
`
	env := newTestEnv(t, script, "192.0.2.1\n192.0.2.2\n")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var out bytes.Buffer
	require.NoError(t, executeScan(ctx, env.cfg, env.targets, &out))

	assert.Contains(t, out.String(), "Scan interrupted by user.")
	_, err := os.Stat(env.cfg.Report.Output)
	assert.True(t, os.IsNotExist(err), "no report after an interrupt")
}

func TestExecuteScan_InterruptedDuringVersionCheck(t *testing.T) {
	script := `#!/bin/sh
exec sleep 30
`
	env := newTestEnv(t, script, "192.0.2.1\n")
	env.cfg.Scanning.VersionCheckTimeout = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var out bytes.Buffer
	require.NoError(t, executeScan(ctx, env.cfg, env.targets, &out))
	assert.Contains(t, out.String(), "Scan interrupted by user.")

	out.Reset()
	require.NoError(t, executeCheck(ctx, env.cfg, &out))
	assert.Contains(t, out.String(), "Check interrupted by user.")
}

func TestExecuteScan_VersionCheckTimeoutIsFatal(t *testing.T) {
	script := `#!/bin/sh
exec sleep 30
`
	env := newTestEnv(t, script, "192.0.2.1\n")
	env.cfg.Scanning.VersionCheckTimeout = 200 * time.Millisecond

	err := executeScan(context.Background(), env.cfg, env.targets, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeToolUnresponsive))
}

func TestPrintError(t *testing.T) {
	t.Run("fatal error shows hint", func(t *testing.T) {
		err := errors.NewScanError(errors.CodeToolNotFound, "nmap executable not found").
			WithHint("brew install nmap")

		var buf bytes.Buffer
		printError(&buf, err)
		assert.Equal(t, "Error: [TOOL_NOT_FOUND] nmap executable not found\nHint: brew install nmap\n", buf.String())
	})

	t.Run("non-fatal error omits hint", func(t *testing.T) {
		err := errors.NewScanError(errors.CodeReportWrite, "failed to write report").
			WithHint("check the output directory")

		var buf bytes.Buffer
		printError(&buf, err)
		assert.NotContains(t, buf.String(), "Hint:")
	})
}

func TestExecuteScan_ReportWriteFailureIsNotFatal(t *testing.T) {
	env := newTestEnv(t, fakeNmapScript, "192.0.2.1\n")
	env.cfg.Report.Output = env.path(filepath.Join("missing", "report.html"))

	var out bytes.Buffer
	require.NoError(t, executeScan(context.Background(), env.cfg, env.targets, &out))
	assert.NotContains(t, out.String(), "Report saved to")
}

func TestExecuteCheck(t *testing.T) {
	env := newTestEnv(t, fakeNmapScript, "")

	var out bytes.Buffer
	require.NoError(t, executeCheck(context.Background(), env.cfg, &out))
	assert.Contains(t, out.String(), "version: Nmap version 7.94 ( https://nmap.org )")
	assert.Contains(t, out.String(), "status:  ok")

	env.cfg.Scanning.MinNmapVersion = "8.0"
	out.Reset()
	require.NoError(t, executeCheck(context.Background(), env.cfg, &out))
	assert.Contains(t, out.String(), "warning: nmap 8.0 or newer is recommended")
}

func TestExecuteRender(t *testing.T) {
	env := newTestEnv(t, fakeNmapScript, "")
	input := env.path("results.json")
	output := env.path("rendered.html")

	results := scanning.ResultSet{"192.0.2.1": {
		Address: "192.0.2.1",
		Ports:   []scanning.PortRecord{{Port: 443, Protocol: "tcp", Service: "https"}},
	}}
	require.NoError(t, report.WriteJSON(input, results, scanning.RunMetadata{TargetsAttempted: 1}))

	var out bytes.Buffer
	require.NoError(t, executeRender(input, output, "Rendered", &out))
	assert.Contains(t, out.String(), "1 hosts")

	html, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<title>Rendered</title>")
	assert.Contains(t, string(html), `<span class="badge badge-https">https</span>`)

	err = executeRender(env.path("missing.json"), output, "", &out)
	assert.True(t, errors.IsCode(err, errors.CodeFileNotFound))
}

func TestScanConfigFrom(t *testing.T) {
	cfg := config.Default()
	cfg.Scanning.Profile = "stealth"
	cfg.Scanning.Ports = "1-1024"
	cfg.Scanning.OSDetection = true

	sc := scanConfigFrom(cfg)
	assert.Equal(t, scanning.ProfileStealth, sc.Profile)
	assert.Equal(t, "1-1024", sc.Ports)
	assert.True(t, sc.OSDetection)
	assert.False(t, sc.ServiceVersion)
	assert.NoError(t, sc.Validate())
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	initConfig()
	t.Cleanup(func() { logging.SetDefault(logging.NewDefault()) })

	t.Setenv("PORTSWEEP_SCANNING_PROFILE", "quick")
	t.Setenv("PORTSWEEP_SCANNING_PORTS", "22,80")
	t.Setenv("PORTSWEEP_REPORT_TITLE", "From env")

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "quick", cfg.Scanning.Profile)
	assert.Equal(t, "22,80", cfg.Scanning.Ports)
	assert.Equal(t, "From env", cfg.Report.Title)
	assert.Equal(t, "scan_report.html", cfg.Report.Output)

	t.Setenv("PORTSWEEP_LOGGING_LEVEL", "chatty")
	_, err = loadConfig()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConfiguration))
}

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	joined := strings.Join(names, ",")
	for _, want := range []string{"scan", "check", "render"} {
		assert.Contains(t, joined, want)
	}

	for _, flag := range []string{"file", "output", "ports", "scan-type", "service-version", "os-detect",
		"script-scan", "aggressive", "json", "metrics-file"} {
		assert.NotNil(t, scanCmd.Flags().Lookup(flag), flag)
	}
	assert.Equal(t, "O", scanCmd.Flags().Lookup("os-detect").Shorthand)
	assert.Equal(t, "C", scanCmd.Flags().Lookup("script-scan").Shorthand)
	assert.Equal(t, "A", scanCmd.Flags().Lookup("aggressive").Shorthand)
}
