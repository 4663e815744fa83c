package report

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/anstrom/portsweep/internal/errors"
	"github.com/anstrom/portsweep/internal/scanning"
)

// Document is the JSON export of one run. Hosts are ordered by address.
type Document struct {
	Metadata scanning.RunMetadata  `json:"metadata"`
	Hosts    []scanning.HostResult `json:"hosts"`
}

// NewDocument builds the export document for a run.
func NewDocument(results scanning.ResultSet, meta scanning.RunMetadata) Document {
	doc := Document{Metadata: meta, Hosts: make([]scanning.HostResult, 0, len(results))}
	for _, addr := range results.Addresses() {
		doc.Hosts = append(doc.Hosts, results[addr])
	}
	return doc
}

// ResultSet rebuilds the address-keyed result set. Exports may be edited by
// hand, so hosts without an address or open ports are dropped and port lists
// are re-sorted.
func (d Document) ResultSet() scanning.ResultSet {
	results := make(scanning.ResultSet, len(d.Hosts))
	for _, host := range d.Hosts {
		if host.Address == "" || len(host.Ports) == 0 {
			continue
		}
		host.Ports = append([]scanning.PortRecord(nil), host.Ports...)
		scanning.SortPorts(host.Ports)
		results[host.Address] = host
	}
	return results
}

// WriteJSON exports results and meta to path.
func WriteJSON(path string, results scanning.ResultSet, meta scanning.RunMetadata) error {
	data, err := json.MarshalIndent(NewDocument(results, meta), "", "  ")
	if err != nil {
		return errors.WrapScanError(errors.CodeReportWrite, "failed to encode results", err)
	}

	if err := os.WriteFile(filepath.Clean(path), append(data, '\n'), reportFileMode); err != nil { //nolint:gosec // export is meant to be shared
		return errors.WrapScanError(errors.CodeReportWrite, "failed to write results", err).
			WithContext("path", path)
	}
	return nil
}

// ReadJSON loads a previous export.
func ReadJSON(path string) (scanning.ResultSet, scanning.RunMetadata, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, scanning.RunMetadata{}, errors.WrapScanError(errors.CodeFileNotFound, "results file not found", err).
				WithContext("path", path)
		}
		return nil, scanning.RunMetadata{}, errors.WrapScanError(errors.CodeFileUnreadable, "results file unreadable", err).
			WithContext("path", path)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, scanning.RunMetadata{}, errors.WrapScanError(errors.CodeParseFailed, "invalid results file", err).
			WithContext("path", path)
	}
	return doc.ResultSet(), doc.Metadata, nil
}
