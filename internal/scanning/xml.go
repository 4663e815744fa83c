package scanning

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Ullaakut/nmap/v3"
)

const (
	stateUp        = "up"
	stateOpen      = "open"
	unknownService = "unknown"
)

// ParseFile reads and parses an nmap XML report.
func ParseFile(path string) (ResultSet, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, &ScanError{Op: "read nmap XML", Err: err}
	}
	return ParseXML(data)
}

// ParseXML extracts live hosts with open ports from an nmap XML report.
// Hosts that are not up, have no address, or have no open ports are skipped.
// Malformed or empty documents return an error.
func ParseXML(data []byte) (ResultSet, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, &ScanError{Op: "parse nmap XML", Err: fmt.Errorf("empty document")}
	}

	var run nmap.Run
	if err := nmap.Parse(data, &run); err != nil {
		return nil, &ScanError{Op: "parse nmap XML", Err: err}
	}

	results := make(ResultSet)
	for i := range run.Hosts {
		if host, ok := convertNmapHost(&run.Hosts[i]); ok {
			results[host.Address] = host
		}
	}
	return results, nil
}

// convertNmapHost converts a single nmap host to our format.
func convertNmapHost(h *nmap.Host) (HostResult, bool) {
	if h.Status.State != stateUp || len(h.Addresses) == 0 || h.Addresses[0].Addr == "" {
		return HostResult{}, false
	}

	host := HostResult{Address: h.Addresses[0].Addr}

	for _, hn := range h.Hostnames {
		if hn.Name != "" {
			host.Hostnames = append(host.Hostnames, hn.Name)
		}
	}

	if len(h.OS.Matches) > 0 {
		best := h.OS.Matches[0]
		host.OS = &OSMatch{Name: best.Name, Accuracy: best.Accuracy}
	}

	for j := range h.Ports {
		if port, ok := convertNmapPort(&h.Ports[j]); ok {
			host.Ports = append(host.Ports, port)
		}
	}

	if len(host.Ports) == 0 {
		return HostResult{}, false
	}
	SortPorts(host.Ports)
	return host, true
}

// SortPorts orders ports by number, then protocol.
func SortPorts(ports []PortRecord) {
	sort.SliceStable(ports, func(i, j int) bool {
		if ports[i].Port != ports[j].Port {
			return ports[i].Port < ports[j].Port
		}
		return ports[i].Protocol < ports[j].Protocol
	})
}

func convertNmapPort(p *nmap.Port) (PortRecord, bool) {
	if p.State.State != stateOpen {
		return PortRecord{}, false
	}

	service := p.Service.Name
	if service == "" {
		service = unknownService
	}

	port := PortRecord{
		Port:      p.ID,
		Protocol:  p.Protocol,
		Service:   service,
		Product:   p.Service.Product,
		Version:   p.Service.Version,
		ExtraInfo: p.Service.ExtraInfo,
	}

	for _, script := range p.Scripts {
		port.Scripts = append(port.Scripts, ScriptResult{ID: script.ID, Output: script.Output})
	}

	return port, true
}
