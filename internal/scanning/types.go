package scanning

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// Port validation constants.
	expectedPortRangeParts = 2
	maxPort                = 65535
)

// ScanError represents error types for scan operations.
type ScanError struct {
	Op     string // Operation that failed
	Err    error  // Original error
	Target string // Target being scanned, if applicable
}

func (e *ScanError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Profile selects nmap's timing and host discovery behaviour.
type Profile string

const (
	ProfileDefault Profile = "default"
	ProfileQuick   Profile = "quick"
	ProfileFull    Profile = "full"
	ProfileStealth Profile = "stealth"
)

// Profiles lists every supported profile in display order.
var Profiles = []Profile{ProfileDefault, ProfileQuick, ProfileFull, ProfileStealth}

// WellKnownPorts is scanned when no explicit port specification is given.
var WellKnownPorts = []uint16{
	21, 22, 23, 25, 53, 80, 81, 110, 111, 135, 139, 143, 443, 445, 465, 587,
	993, 995, 1080, 1433, 1521, 2181, 2375, 3306, 3389, 4848, 5432, 5672,
	5984, 6379, 7001, 8000, 8001, 8080, 8081, 8443, 8888, 9000, 9090, 9200,
	9300, 11211, 27017, 50000, 50070,
}

// DefaultPortList returns WellKnownPorts as an ascending comma-joined list.
func DefaultPortList() string {
	ports := make([]int, len(WellKnownPorts))
	for i, p := range WellKnownPorts {
		ports[i] = int(p)
	}
	sort.Ints(ports)

	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

// ScanConfig holds the options governing every nmap invocation of a run.
// It is built once before the run and never mutated afterwards.
type ScanConfig struct {
	// Profile selects timing and discovery flags
	Profile Profile `validate:"required,oneof=default quick full stealth"`
	// Ports is an nmap port specification; empty selects WellKnownPorts
	Ports string `validate:"omitempty,portspec"`
	// ServiceVersion enables service/version probing (-sV)
	ServiceVersion bool
	// OSDetection enables OS fingerprinting (-O)
	OSDetection bool
	// ScriptScan runs the default NSE scripts (-sC)
	ScriptScan bool
	// Aggressive enables -A, which supersedes the three toggles above
	Aggressive bool
}

var configValidator = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("portspec", func(fl validator.FieldLevel) bool {
		return ValidatePortSpec(fl.Field().String()) == nil
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks if the scan configuration is valid.
func (c ScanConfig) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			if fe.Field() == "Ports" {
				return &ScanError{Op: "validate config", Err: ValidatePortSpec(c.Ports)}
			}
			return &ScanError{
				Op:  "validate config",
				Err: fmt.Errorf("invalid %s: %q", strings.ToLower(fe.Field()), fmt.Sprint(fe.Value())),
			}
		}
		return &ScanError{Op: "validate config", Err: err}
	}
	return nil
}

// PortSpec returns the port specification passed to nmap.
func (c ScanConfig) PortSpec() string {
	if c.Ports != "" {
		return c.Ports
	}
	return DefaultPortList()
}

// RequiresPrivileges reports whether nmap needs raw socket access for this configuration.
func (c ScanConfig) RequiresPrivileges() bool {
	return c.OSDetection || c.Aggressive || c.Profile == ProfileStealth
}

var portNamePattern = regexp.MustCompile(`^[A-Za-z*?][A-Za-z0-9*?_.\-]*$`)

// ValidatePortSpec validates an nmap port specification such as "22,80-90",
// "T:80,U:53" or "http,ssh". Numeric ports and ranges must be within 0-65535.
func ValidatePortSpec(spec string) error {
	if strings.TrimSpace(spec) == "" {
		return fmt.Errorf("empty port specification")
	}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return fmt.Errorf("empty entry in port specification: %q", spec)
		}
		if err := validatePortPart(stripProtocolPrefix(part)); err != nil {
			return err
		}
	}
	return nil
}

func stripProtocolPrefix(part string) string {
	for _, prefix := range []string{"T:", "U:", "S:", "P:"} {
		if strings.HasPrefix(part, prefix) {
			return part[len(prefix):]
		}
	}
	return part
}

// validatePortPart validates a single port, port range, or service name.
func validatePortPart(part string) error {
	if part == "" {
		return fmt.Errorf("missing port after protocol prefix")
	}
	if portNamePattern.MatchString(part) {
		return nil
	}
	if strings.Contains(part, "-") {
		return validatePortRange(part)
	}
	if _, err := parsePort(part); err != nil {
		return err
	}
	return nil
}

// validatePortRange validates a port range (e.g., "80-100"); either bound may be omitted.
func validatePortRange(part string) error {
	rangeParts := strings.Split(part, "-")
	if len(rangeParts) != expectedPortRangeParts {
		return fmt.Errorf("invalid port range format: %s", part)
	}

	start, end := 0, maxPort
	var err error
	if rangeParts[0] != "" {
		if start, err = parsePort(rangeParts[0]); err != nil {
			return err
		}
	}
	if rangeParts[1] != "" {
		if end, err = parsePort(rangeParts[1]); err != nil {
			return err
		}
	}
	if start > end {
		return fmt.Errorf("invalid port range %s: start port must not exceed end port", part)
	}
	return nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid port: %s", s)
	}
	if port < 0 || port > maxPort {
		return 0, fmt.Errorf("invalid port: %d (must be 0-65535)", port)
	}
	return port, nil
}

// ScriptResult is the output of one NSE script attached to a port.
type ScriptResult struct {
	ID     string `json:"id"`
	Output string `json:"output"`
}

// PortRecord is one open port on one host.
type PortRecord struct {
	Port      uint16         `json:"port"`
	Protocol  string         `json:"protocol"`
	Service   string         `json:"service"`
	Product   string         `json:"product,omitempty"`
	Version   string         `json:"version,omitempty"`
	ExtraInfo string         `json:"extra_info,omitempty"`
	Scripts   []ScriptResult `json:"scripts,omitempty"`
}

// OSMatch is nmap's best operating system guess for a host.
type OSMatch struct {
	Name     string `json:"name"`
	Accuracy int    `json:"accuracy"`
}

// HostResult is one live host with at least one open port.
type HostResult struct {
	Address   string       `json:"address"`
	Hostnames []string     `json:"hostnames,omitempty"`
	OS        *OSMatch     `json:"os,omitempty"`
	Ports     []PortRecord `json:"ports"`
}

// ResultSet maps host address to its result.
type ResultSet map[string]HostResult

// Addresses returns the host addresses in lexicographic order.
func (rs ResultSet) Addresses() []string {
	addrs := make([]string, 0, len(rs))
	for addr := range rs {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}

// TotalOpenPorts counts open ports across all hosts.
func (rs ResultSet) TotalOpenPorts() int {
	total := 0
	for _, host := range rs {
		total += len(host.Ports)
	}
	return total
}

// RunMetadata describes one run of the scan loop.
type RunMetadata struct {
	RunID            string    `json:"run_id"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	TargetsAttempted int       `json:"targets_attempted"`
	NmapVersion      string    `json:"nmap_version"`
}

// Duration returns the wall-clock time between start and end.
func (m RunMetadata) Duration() time.Duration {
	return m.EndTime.Sub(m.StartTime)
}
