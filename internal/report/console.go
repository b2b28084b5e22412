package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/segaudit/segmenta/internal/results"
)

// RenderConsole prints the audit results as terminal tables. Simple
// mode prints only the per-segment summary; detailed mode adds every
// host and service.
func RenderConsole(w io.Writer, data *results.CanonicalData, simple bool) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "NETWORK SEGMENTATION AUDIT")
	fmt.Fprintln(w, strings.Repeat("=", 60))

	renderSummary(w, data.Stats)

	if len(data.Segments) == 0 {
		fmt.Fprintln(w, "\nNo active hosts were found.")
		return
	}

	renderSegmentTable(w, data)
	if !simple {
		renderHostTable(w, data)
	}

	if data.Stats.Degraded {
		fmt.Fprintln(w, "\n(*) results from a degraded scan phase, may be incomplete")
	}
}

func renderSummary(w io.Writer, stats results.AuditStats) {
	fmt.Fprintf(w, "Active hosts:      %d\n", stats.ActiveHosts)
	fmt.Fprintf(w, "Addresses scanned: %d\n", stats.TotalScanned)
	fmt.Fprintf(w, "Active segments:   %d of %d (%.1f%%)\n",
		stats.Segments, stats.TotalSegments, stats.ActivityRate())
	fmt.Fprintf(w, "Open services:     %d\n", stats.OpenServices)
	fmt.Fprintf(w, "Duration:          %s\n", stats.Duration.Round(time.Second))
}

func renderSegmentTable(w io.Writer, data *results.CanonicalData) {
	fmt.Fprintln(w, "\nSegments:")
	table := tablewriter.NewWriter(w)
	table.Header("Segment", "Hosts", "Categories")

	for _, seg := range data.Segments {
		categories := make([]string, len(seg.Categories))
		for i, cat := range seg.Categories {
			categories[i] = string(cat.Category)
		}
		_ = table.Append([]string{
			seg.Segment,
			strconv.Itoa(seg.HostCount),
			strings.Join(categories, ", "),
		})
	}
	_ = table.Render()
}

func renderHostTable(w io.Writer, data *results.CanonicalData) {
	fmt.Fprintln(w, "\nHosts:")
	table := tablewriter.NewWriter(w)
	table.Header("IP", "Segment", "Port", "Service", "Category")

	for _, r := range data.Records {
		ip := r.IP
		if r.Degraded {
			ip += " *"
		}
		for _, s := range r.Services {
			_ = table.Append([]string{
				ip,
				r.Segment,
				strconv.Itoa(s.Port),
				s.Service,
				string(s.Category),
			})
		}
	}
	_ = table.Render()
}
