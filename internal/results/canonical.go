package results

import (
	"sort"
	"time"

	"github.com/segaudit/segmenta/internal/scanning"
)

// HostServices pairs a host with its services inside one category group.
type HostServices struct {
	IP       string
	Services []ServiceRecord
	Degraded bool
}

// CategoryGroup collects the hosts exposing services of one category
// within a segment.
type CategoryGroup struct {
	Category scanning.ServiceCategory
	Hosts    []HostServices
}

// SegmentGroup is every finding inside one /24 segment.
type SegmentGroup struct {
	Segment    string
	Categories []CategoryGroup
	HostCount  int
}

// AuditStats summarizes a completed run.
type AuditStats struct {
	ActiveHosts  int
	TotalScanned int
	OpenServices int
	// Segments counts segments with at least one active host;
	// TotalSegments counts every network unit the run targeted.
	Segments      int
	TotalSegments int
	Duration      time.Duration
	// Degraded is set when any record came from a fallback scan phase.
	Degraded bool
}

// ActivityRate is the percentage of targeted segments that showed at
// least one host with an open port. Zero when nothing was targeted.
func (s AuditStats) ActivityRate() float64 {
	if s.TotalSegments == 0 {
		return 0
	}
	return float64(s.Segments) / float64(s.TotalSegments) * 100
}

// CanonicalData is the deduplicated, segment-grouped audit model every
// exporter renders from.
type CanonicalData struct {
	// Records are the deduplicated hosts in first-seen order.
	Records  []ScanRecord
	Segments []SegmentGroup
	Stats    AuditStats
}

// Build deduplicates raw records and groups them by segment and service
// category. Duplicate hosts (the same IP seen by several scan units)
// are merged: their service sets union, and a degraded flag on any
// sighting marks the merged record. Grouping preserves first-seen order
// at every level.
func Build(records []ScanRecord, totalScanned, totalSegments int, duration time.Duration) *CanonicalData {
	deduped := dedupeRecords(records)

	data := &CanonicalData{
		Records:  deduped,
		Segments: groupBySegment(deduped),
	}

	openServices := 0
	degraded := false
	for _, r := range deduped {
		openServices += len(r.Services)
		degraded = degraded || r.Degraded
	}
	data.Stats = AuditStats{
		ActiveHosts:   len(deduped),
		TotalScanned:  totalScanned,
		OpenServices:  openServices,
		Segments:      len(data.Segments),
		TotalSegments: totalSegments,
		Duration:      duration,
		Degraded:      degraded,
	}
	return data
}

// dedupeRecords merges records sharing an IP, unioning service sets.
func dedupeRecords(records []ScanRecord) []ScanRecord {
	index := make(map[string]int)
	var deduped []ScanRecord

	for _, r := range records {
		i, seen := index[r.IP]
		if !seen {
			index[r.IP] = len(deduped)
			deduped = append(deduped, r)
			continue
		}

		existing := &deduped[i]
		existing.Degraded = existing.Degraded || r.Degraded
		existing.Services = unionServices(existing.Services, r.Services)
	}
	return deduped
}

// unionServices merges two sorted service lists, keeping port order.
func unionServices(a, b []ServiceRecord) []ServiceRecord {
	have := make(map[int]struct{}, len(a))
	for _, s := range a {
		have[s.Port] = struct{}{}
	}
	merged := a
	for _, s := range b {
		if _, ok := have[s.Port]; !ok {
			merged = append(merged, s)
		}
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Port < merged[j].Port })
	return merged
}

func groupBySegment(records []ScanRecord) []SegmentGroup {
	index := make(map[string]int)
	var groups []SegmentGroup

	for _, r := range records {
		i, seen := index[r.Segment]
		if !seen {
			i = len(groups)
			index[r.Segment] = i
			groups = append(groups, SegmentGroup{Segment: r.Segment})
		}
		groups[i].HostCount++
		groups[i].Categories = addToCategories(groups[i].Categories, r)
	}
	return groups
}

// addToCategories files each of the host's services under its category
// group, creating groups in first-seen order.
func addToCategories(categories []CategoryGroup, r ScanRecord) []CategoryGroup {
	byCategory := make(map[scanning.ServiceCategory][]ServiceRecord)
	var order []scanning.ServiceCategory
	for _, s := range r.Services {
		if _, ok := byCategory[s.Category]; !ok {
			order = append(order, s.Category)
		}
		byCategory[s.Category] = append(byCategory[s.Category], s)
	}

	for _, category := range order {
		i := -1
		for j := range categories {
			if categories[j].Category == category {
				i = j
				break
			}
		}
		if i < 0 {
			categories = append(categories, CategoryGroup{Category: category})
			i = len(categories) - 1
		}
		categories[i].Hosts = append(categories[i].Hosts, HostServices{
			IP:       r.IP,
			Services: byCategory[category],
			Degraded: r.Degraded,
		})
	}
	return categories
}
