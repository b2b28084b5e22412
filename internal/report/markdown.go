package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/segaudit/segmenta/internal/results"
)

// WriteMarkdown renders the report as a Markdown document: a summary
// block followed by one section per segment with category tables.
func WriteMarkdown(w io.Writer, data *results.CanonicalData) error {
	var b strings.Builder

	b.WriteString("# Network Segmentation Audit\n\n")
	fmt.Fprintf(&b, "_Generated %s_\n\n", time.Now().Format("2006-01-02 15:04:05"))

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Active hosts | %d |\n", data.Stats.ActiveHosts)
	fmt.Fprintf(&b, "| Addresses scanned | %d |\n", data.Stats.TotalScanned)
	fmt.Fprintf(&b, "| Active segments | %d of %d (%.1f%%) |\n",
		data.Stats.Segments, data.Stats.TotalSegments, data.Stats.ActivityRate())
	fmt.Fprintf(&b, "| Open services | %d |\n", data.Stats.OpenServices)
	fmt.Fprintf(&b, "| Segments | %d |\n", data.Stats.Segments)
	fmt.Fprintf(&b, "| Duration | %s |\n", data.Stats.Duration.Round(time.Second))
	if data.Stats.Degraded {
		b.WriteString("\n> **Note:** some results come from a degraded scan phase " +
			"and may be incomplete.\n")
	}
	b.WriteString("\n")

	for _, seg := range data.Segments {
		fmt.Fprintf(&b, "## Segment %s\n\n", seg.Segment)
		fmt.Fprintf(&b, "%d active host(s)\n\n", seg.HostCount)

		for _, cat := range seg.Categories {
			fmt.Fprintf(&b, "### %s\n\n", cat.Category)
			b.WriteString("| IP | Port | Service |\n|---|---|---|\n")
			for _, host := range cat.Hosts {
				for _, s := range host.Services {
					ip := host.IP
					if host.Degraded {
						ip += " *"
					}
					fmt.Fprintf(&b, "| %s | %d | %s |\n", ip, s.Port, s.Service)
				}
			}
			b.WriteString("\n")
		}
	}

	if len(data.Segments) == 0 {
		b.WriteString("No active hosts were found.\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteMarkdownFile writes the Markdown report to path.
func WriteMarkdownFile(path string, data *results.CanonicalData) error {
	return writeFile(path, FormatMarkdown, func(f *os.File) error {
		return WriteMarkdown(f, data)
	})
}
