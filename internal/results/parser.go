// Package results turns raw scan artifacts into the canonical audit
// model: greppable output is parsed into per-host service records,
// artifact pairs are merged across scan units, and records are
// deduplicated and grouped by network segment for reporting.
package results

import (
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/segaudit/segmenta/internal/errors"
	"github.com/segaudit/segmenta/internal/logging"
	"github.com/segaudit/segmenta/internal/netspec"
	"github.com/segaudit/segmenta/internal/scanning"
)

// ServiceRecord is one open port on a host. Service and Category come
// from the fixed audit port table, not from scanner guesses, so names
// are stable across nmap versions.
type ServiceRecord struct {
	Port     int
	Service  string
	Category scanning.ServiceCategory
}

// ScanRecord is one discovered host with its open services, attributed
// to its /24 segment.
type ScanRecord struct {
	IP       string
	Segment  string
	Services []ServiceRecord
	// Degraded is set when the record came from a fallback scan phase.
	Degraded bool
}

// portsLinePattern matches greppable host records that carry port state.
var portsLinePattern = regexp.MustCompile(`Host: (\S+) \(.*?\)\s+Ports: (.+)`)

// ParseGnmap extracts host records from greppable scanner output. Hosts
// appearing on multiple lines are merged; only open ports are kept.
// Records inherit the degraded flag of the artifact they came from.
func ParseGnmap(content string, degraded bool) []ScanRecord {
	byIP := make(map[string]map[int]struct{})
	var order []string

	for _, line := range strings.Split(content, "\n") {
		m := portsLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		ip := m[1]
		ports := openPorts(m[2])
		if len(ports) == 0 {
			continue
		}

		if _, seen := byIP[ip]; !seen {
			byIP[ip] = make(map[int]struct{})
			order = append(order, ip)
		}
		for _, p := range ports {
			byIP[ip][p] = struct{}{}
		}
	}

	records := make([]ScanRecord, 0, len(order))
	for _, ip := range order {
		records = append(records, ScanRecord{
			IP:       ip,
			Segment:  netspec.Segment(ip),
			Services: toServices(byIP[ip]),
			Degraded: degraded,
		})
	}
	return records
}

// ParseGnmapFile reads and parses a greppable artifact from disk.
func ParseGnmapFile(path string, degraded bool) ([]ScanRecord, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapScanError(errors.CodeParseFailed,
			"cannot read gnmap artifact", err)
	}
	return ParseGnmap(string(content), degraded), nil
}

// openPorts parses a greppable Ports field ("22/open/tcp//ssh///, ...")
// and returns the open port numbers. Malformed entries are skipped.
func openPorts(field string) []int {
	var ports []int
	for _, entry := range strings.Split(field, ",") {
		parts := strings.Split(strings.TrimSpace(entry), "/")
		if len(parts) < 2 || parts[1] != "open" {
			continue
		}
		port, err := strconv.Atoi(parts[0])
		if err != nil {
			logging.Warn("skipping malformed port entry", "entry", entry)
			continue
		}
		ports = append(ports, port)
	}
	return ports
}

// toServices resolves a port set into sorted service records.
func toServices(ports map[int]struct{}) []ServiceRecord {
	sorted := make([]int, 0, len(ports))
	for p := range ports {
		sorted = append(sorted, p)
	}
	sort.Ints(sorted)

	services := make([]ServiceRecord, len(sorted))
	for i, p := range sorted {
		info := scanning.LookupPort(p)
		services[i] = ServiceRecord{Port: p, Service: info.Service, Category: info.Category}
	}
	return services
}
