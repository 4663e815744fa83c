// Package targets loads scan targets from newline-delimited target files.
package targets

import (
	"bufio"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/anstrom/portsweep/internal/errors"
)

const commentPrefix = "#"

// Load reads the target file at path and returns its targets in file order.
// Blank lines and lines starting with '#' (after trimming) are skipped.
func Load(path string) ([]string, error) {
	file, err := os.Open(path) //nolint:gosec // target file path is operator input
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.ErrTargetFileNotFound(path, err)
		}
		return nil, errors.ErrTargetFileUnreadable(path, err)
	}
	defer func() { _ = file.Close() }()

	targets, err := Parse(file)
	if err != nil {
		return nil, errors.ErrTargetFileUnreadable(path, err)
	}
	return targets, nil
}

// Parse reads targets from r using the same rules as Load. Lines may be of
// any length.
func Parse(r io.Reader) ([]string, error) {
	var targets []string

	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, commentPrefix) {
			targets = append(targets, line)
		}
		if stderrors.Is(err, io.EOF) {
			return targets, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

var validate = validator.New()

// Kind describes how a target string is interpreted.
type Kind string

const (
	KindIP       Kind = "ip"
	KindCIDR     Kind = "cidr"
	KindHostname Kind = "hostname"
	KindUnknown  Kind = "unknown"
)

// Classify reports whether target looks like an IP address, a CIDR block or a
// hostname. Anything else is KindUnknown; such targets are still handed to
// nmap, which has the final say on target syntax.
func Classify(target string) Kind {
	switch {
	case validate.Var(target, "ip") == nil:
		return KindIP
	case validate.Var(target, "cidr") == nil:
		return KindCIDR
	case validate.Var(target, "hostname_rfc1123") == nil:
		return KindHostname
	default:
		return KindUnknown
	}
}

// Unrecognized returns the targets Classify cannot place, in input order.
func Unrecognized(targets []string) []string {
	var out []string
	for _, t := range targets {
		if Classify(t) == KindUnknown {
			out = append(out, t)
		}
	}
	return out
}
