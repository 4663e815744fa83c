package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/anstrom/portsweep/internal/scanning"
)

const maxListedPorts = 8

// PrintSummary writes the end-of-run overview and a per-host table to w.
func PrintSummary(w io.Writer, results scanning.ResultSet, meta scanning.RunMetadata) error {
	if _, err := fmt.Fprintf(w, "Targets scanned: %d  Alive hosts: %d  Open ports: %d  Duration: %.2fs\n",
		meta.TargetsAttempted, len(results), results.TotalOpenPorts(), meta.Duration().Seconds()); err != nil {
		return err
	}

	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No live hosts with open ports were found.")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Host", "Hostnames", "Open Ports", "Ports", "OS")

	for _, addr := range results.Addresses() {
		host := results[addr]
		osName := "-"
		if host.OS != nil {
			osName = fmt.Sprintf("%s (%d%%)", host.OS.Name, host.OS.Accuracy)
		}
		if err := table.Append([]string{
			addr,
			strings.Join(host.Hostnames, ", "),
			strconv.Itoa(len(host.Ports)),
			portList(host.Ports),
			osName,
		}); err != nil {
			return err
		}
	}

	return table.Render()
}

// portList formats "22/tcp ssh, 80/tcp http", truncated after maxListedPorts.
func portList(ports []scanning.PortRecord) string {
	parts := make([]string, 0, maxListedPorts+1)
	for i, p := range ports {
		if i == maxListedPorts {
			parts = append(parts, fmt.Sprintf("+%d more", len(ports)-maxListedPorts))
			break
		}
		parts = append(parts, fmt.Sprintf("%d/%s %s", p.Port, p.Protocol, p.Service))
	}
	return strings.Join(parts, ", ")
}
