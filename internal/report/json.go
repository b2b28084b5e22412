package report

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/segaudit/segmenta/internal/results"
)

// jsonReport is the machine-readable report envelope.
type jsonReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Stats       jsonStats     `json:"stats"`
	Hosts       []jsonHost    `json:"hosts"`
	Segments    []jsonSegment `json:"segments"`
}

type jsonStats struct {
	ActiveHosts      int     `json:"active_hosts"`
	TotalScanned     int     `json:"total_scanned"`
	ActivityRate     float64 `json:"activity_rate_percent"`
	OpenServices     int     `json:"open_services"`
	Segments         int     `json:"segments"`
	SegmentsTargeted int     `json:"segments_targeted"`
	DurationSeconds  float64 `json:"duration_seconds"`
	Degraded         bool    `json:"degraded"`
}

type jsonHost struct {
	IP       string        `json:"ip"`
	Segment  string        `json:"segment"`
	Degraded bool          `json:"degraded,omitempty"`
	Services []jsonService `json:"services"`
}

type jsonService struct {
	Port     int    `json:"port"`
	Service  string `json:"service"`
	Category string `json:"category"`
}

type jsonSegment struct {
	Segment   string `json:"segment"`
	HostCount int    `json:"host_count"`
}

// WriteJSON renders the full report as indented JSON.
func WriteJSON(w io.Writer, data *results.CanonicalData) error {
	report := jsonReport{
		GeneratedAt: time.Now().UTC(),
		Stats: jsonStats{
			ActiveHosts:      data.Stats.ActiveHosts,
			TotalScanned:     data.Stats.TotalScanned,
			ActivityRate:     data.Stats.ActivityRate(),
			OpenServices:     data.Stats.OpenServices,
			Segments:         data.Stats.Segments,
			SegmentsTargeted: data.Stats.TotalSegments,
			DurationSeconds:  data.Stats.Duration.Seconds(),
			Degraded:         data.Stats.Degraded,
		},
		Hosts:    make([]jsonHost, 0, len(data.Records)),
		Segments: make([]jsonSegment, 0, len(data.Segments)),
	}

	for _, r := range data.Records {
		host := jsonHost{IP: r.IP, Segment: r.Segment, Degraded: r.Degraded}
		for _, s := range r.Services {
			host.Services = append(host.Services, jsonService{
				Port:     s.Port,
				Service:  s.Service,
				Category: string(s.Category),
			})
		}
		report.Hosts = append(report.Hosts, host)
	}
	for _, seg := range data.Segments {
		report.Segments = append(report.Segments, jsonSegment{
			Segment:   seg.Segment,
			HostCount: seg.HostCount,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// WriteJSONFile writes the JSON report to path.
func WriteJSONFile(path string, data *results.CanonicalData) error {
	return writeFile(path, FormatJSON, func(f *os.File) error {
		return WriteJSON(f, data)
	})
}
