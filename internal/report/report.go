// Package report renders scan results as a self-contained HTML document,
// a JSON export and a console summary table.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anstrom/portsweep/internal/errors"
	"github.com/anstrom/portsweep/internal/scanning"
)

const (
	// DefaultTitle heads the report when none is configured.
	DefaultTitle = "Nmap Port Scan Report"

	timestampLayout = "2006-01-02 15:04:05"
	reportFileMode  = 0o644
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(template.ParseFS(templateFS, "templates/report.html.tmpl"))

var databaseServices = []string{"mysql", "postgresql", "mongodb", "redis", "oracle"}

// Options controls report presentation.
type Options struct {
	Title string
	// Now returns the generation timestamp; defaults to time.Now.
	Now func() time.Time
}

type page struct {
	Title            string
	NmapVersion      string
	RunID            string
	TargetsAttempted int
	AliveHosts       int
	OpenPorts        int
	Duration         string
	StartTime        string
	EndTime          string
	GeneratedAt      string
	Hosts            []hostView
}

type hostView struct {
	Address   string
	Hostnames string
	OS        *scanning.OSMatch
	Ports     []portView
}

type portView struct {
	Index    int
	Port     uint16
	Protocol string
	Service  string
	Badge    string
	Detail   string
	Scripts  []scanning.ScriptResult
}

// Render writes the HTML report for results to w. Every host-supplied
// string is escaped by html/template before it reaches the document.
func Render(w io.Writer, results scanning.ResultSet, meta scanning.RunMetadata, opts Options) error {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, buildPage(results, meta, opts)); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	// Banners can carry arbitrary bytes; replace anything that is not UTF-8.
	_, err := io.WriteString(w, strings.ToValidUTF8(buf.String(), "\uFFFD"))
	return err
}

// WriteFile renders the report to path and returns the number of bytes written.
func WriteFile(path string, results scanning.ResultSet, meta scanning.RunMetadata, opts Options) (int64, error) {
	var buf bytes.Buffer
	if err := Render(&buf, results, meta, opts); err != nil {
		return 0, errors.WrapScanError(errors.CodeReportWrite, "failed to render report", err)
	}

	if err := os.WriteFile(filepath.Clean(path), buf.Bytes(), reportFileMode); err != nil { //nolint:gosec // report is meant to be shared
		return 0, errors.WrapScanError(errors.CodeReportWrite, "failed to write report", err).
			WithContext("path", path)
	}
	return int64(buf.Len()), nil
}

func buildPage(results scanning.ResultSet, meta scanning.RunMetadata, opts Options) page {
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	nmapVersion := meta.NmapVersion
	if nmapVersion == "" {
		nmapVersion = "Nmap"
	}

	p := page{
		Title:            title,
		NmapVersion:      nmapVersion,
		RunID:            meta.RunID,
		TargetsAttempted: meta.TargetsAttempted,
		AliveHosts:       len(results),
		OpenPorts:        results.TotalOpenPorts(),
		Duration:         fmt.Sprintf("%.2fs", meta.Duration().Seconds()),
		StartTime:        formatTime(meta.StartTime),
		EndTime:          formatTime(meta.EndTime),
		GeneratedAt:      formatTime(now()),
	}

	for _, addr := range results.Addresses() {
		p.Hosts = append(p.Hosts, buildHost(results[addr]))
	}
	return p
}

func buildHost(host scanning.HostResult) hostView {
	ports := append([]scanning.PortRecord(nil), host.Ports...)
	scanning.SortPorts(ports)

	view := hostView{
		Address:   host.Address,
		Hostnames: strings.Join(host.Hostnames, ", "),
		OS:        host.OS,
		Ports:     make([]portView, 0, len(ports)),
	}
	for i, port := range ports {
		view.Ports = append(view.Ports, portView{
			Index:    i + 1,
			Port:     port.Port,
			Protocol: port.Protocol,
			Service:  port.Service,
			Badge:    ServiceBadge(port.Service),
			Detail:   serviceDetail(port),
			Scripts:  port.Scripts,
		})
	}
	return view
}

// serviceDetail formats "service - product version (extra)", omitting empty parts.
func serviceDetail(port scanning.PortRecord) string {
	var b strings.Builder
	b.WriteString(port.Service)
	if port.Product != "" {
		b.WriteString(" - ")
		b.WriteString(port.Product)
	}
	if port.Version != "" {
		b.WriteString(" ")
		b.WriteString(port.Version)
	}
	if port.ExtraInfo != "" {
		b.WriteString(" (")
		b.WriteString(port.ExtraInfo)
		b.WriteString(")")
	}
	return b.String()
}

// ServiceBadge returns the CSS class for a service family, or "" when the
// service gets no badge.
func ServiceBadge(service string) string {
	s := strings.ToLower(service)
	switch {
	case strings.Contains(s, "https") || strings.Contains(s, "ssl"):
		return "badge-https"
	case strings.Contains(s, "http"):
		return "badge-http"
	case strings.Contains(s, "ssh"):
		return "badge-ssh"
	}
	for _, db := range databaseServices {
		if strings.Contains(s, db) {
			return "badge-database"
		}
	}
	return ""
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(timestampLayout)
}
