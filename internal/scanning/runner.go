package scanning

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"
	"os/exec"
	"strings"
)

const (
	outputIndent = "    "
	maxLineSize  = 1024 * 1024
)

// Executor runs a built nmap command and reports its exit status.
// A non-nil error means the process could not be started or its output
// could not be read; a non-zero exit code with a nil error means nmap ran
// and failed.
//
//go:generate mockgen -destination=mocks/mock_executor.go -package=mocks github.com/anstrom/portsweep/internal/scanning Executor
type Executor interface {
	Execute(ctx context.Context, cmd *Command) (int, error)
}

// ProcessRunner executes nmap as a child process and echoes its standard
// output line by line, indented, to Output. Standard error is discarded.
// A line longer than maxLineSize or a failing write to Output stops nmap and
// fails the target.
type ProcessRunner struct {
	Output io.Writer
}

// NewProcessRunner creates a runner that echoes to out.
func NewProcessRunner(out io.Writer) *ProcessRunner {
	if out == nil {
		out = io.Discard
	}
	return &ProcessRunner{Output: out}
}

// Execute starts the command, streams its output and waits for it to exit.
func (r *ProcessRunner) Execute(ctx context.Context, cmd *Command) (int, error) {
	// A nil Stderr is the null device, so Wait never waits on a stderr copy.
	proc := exec.CommandContext(ctx, cmd.Path, cmd.Args...) //nolint:gosec // arguments are built by BuildCommand

	stdout, err := proc.StdoutPipe()
	if err != nil {
		return -1, &ScanError{Op: "attach to nmap output", Target: cmd.Target, Err: err}
	}

	if err := proc.Start(); err != nil {
		return -1, &ScanError{Op: "start nmap", Target: cmd.Target, Err: err}
	}

	if streamErr := r.stream(stdout); streamErr != nil {
		// nmap would block on the unread pipe; stop it before reaping.
		_ = proc.Process.Kill()
		_ = proc.Wait()
		return -1, &ScanError{Op: "read nmap output", Target: cmd.Target, Err: streamErr}
	}

	if waitErr := proc.Wait(); waitErr != nil {
		var exitErr *exec.ExitError
		if stderrors.As(waitErr, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, &ScanError{Op: "wait for nmap", Target: cmd.Target, Err: waitErr}
	}

	return 0, nil
}

func (r *ProcessRunner) stream(stdout io.Reader) error {
	out := r.Output
	if out == nil {
		out = io.Discard
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, err := io.WriteString(out, outputIndent+line+"\n"); err != nil {
			return err
		}
	}
	return scanner.Err()
}
