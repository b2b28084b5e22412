package report

import (
	"html/template"
	"io"
	"os"
	"time"

	"github.com/segaudit/segmenta/internal/results"
	"github.com/segaudit/segmenta/internal/scanning"
)

// dashboardTemplate is a self-contained page: summary cards, a category
// distribution chart and per-segment tables. Chart.js comes from its
// CDN so the file needs no local assets.
var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Segmentation Audit Dashboard</title>
<script src="https://cdn.jsdelivr.net/npm/chart.js@4"></script>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem; color: #1f2430; }
h1 { margin-bottom: 0.25rem; }
.meta { color: #6a7184; margin-bottom: 1.5rem; }
.cards { display: flex; gap: 1rem; flex-wrap: wrap; margin-bottom: 2rem; }
.card { background: #f4f6fb; border-radius: 8px; padding: 1rem 1.5rem; min-width: 9rem; }
.card .value { font-size: 1.8rem; font-weight: 600; }
.card .label { color: #6a7184; font-size: 0.85rem; }
.degraded { background: #fff4e5; border: 1px solid #f0b963; padding: 0.75rem 1rem; border-radius: 8px; margin-bottom: 1.5rem; }
.chart { max-width: 480px; margin-bottom: 2rem; }
table { border-collapse: collapse; width: 100%; margin-bottom: 2rem; }
th, td { text-align: left; padding: 0.4rem 0.75rem; border-bottom: 1px solid #e3e7f0; }
th { background: #f4f6fb; }
</style>
</head>
<body>
<h1>Network Segmentation Audit</h1>
<p class="meta">Generated {{.GeneratedAt}}</p>

{{if .Stats.Degraded}}<div class="degraded">Some results come from a degraded scan phase and may be incomplete.</div>{{end}}

<div class="cards">
<div class="card"><div class="value">{{.Stats.ActiveHosts}}</div><div class="label">Active hosts</div></div>
<div class="card"><div class="value">{{.Stats.TotalScanned}}</div><div class="label">Addresses scanned</div></div>
<div class="card"><div class="value">{{printf "%.1f%%" .ActivityRate}}</div><div class="label">Activity rate</div></div>
<div class="card"><div class="value">{{.Stats.OpenServices}}</div><div class="label">Open services</div></div>
<div class="card"><div class="value">{{.Stats.Segments}}</div><div class="label">Segments</div></div>
</div>

<div class="chart"><canvas id="categories"></canvas></div>

{{range .Segments}}
<h2>Segment {{.Segment}}</h2>
<table>
<tr><th>IP</th><th>Port</th><th>Service</th><th>Category</th></tr>
{{range $cat := .Categories}}{{range $host := $cat.Hosts}}{{range $svc := $host.Services}}
<tr><td>{{$host.IP}}{{if $host.Degraded}} *{{end}}</td><td>{{$svc.Port}}</td><td>{{$svc.Service}}</td><td>{{$cat.Category}}</td></tr>
{{end}}{{end}}{{end}}
</table>
{{end}}

{{if not .Segments}}<p>No active hosts were found.</p>{{end}}

<script>
new Chart(document.getElementById("categories"), {
  type: "doughnut",
  data: {
    labels: {{.CategoryLabels}},
    datasets: [{ data: {{.CategoryCounts}} }]
  },
  options: { plugins: { title: { display: true, text: "Services by category" } } }
});
</script>
</body>
</html>
`))

type dashboardData struct {
	GeneratedAt    string
	Stats          results.AuditStats
	ActivityRate   float64
	Segments       []results.SegmentGroup
	CategoryLabels []string
	CategoryCounts []int
}

// WriteHTML renders the HTML dashboard.
func WriteHTML(w io.Writer, data *results.CanonicalData) error {
	labels, counts := categoryDistribution(data)
	return dashboardTemplate.Execute(w, dashboardData{
		GeneratedAt:    time.Now().Format("2006-01-02 15:04:05"),
		Stats:          data.Stats,
		ActivityRate:   data.Stats.ActivityRate(),
		Segments:       data.Segments,
		CategoryLabels: labels,
		CategoryCounts: counts,
	})
}

// WriteHTMLFile writes the dashboard to path.
func WriteHTMLFile(path string, data *results.CanonicalData) error {
	return writeFile(path, "html", func(f *os.File) error {
		return WriteHTML(f, data)
	})
}

// categoryDistribution counts open services per category across all
// hosts, in first-seen order.
func categoryDistribution(data *results.CanonicalData) ([]string, []int) {
	index := make(map[scanning.ServiceCategory]int)
	var labels []string
	var counts []int

	for _, r := range data.Records {
		for _, s := range r.Services {
			i, ok := index[s.Category]
			if !ok {
				i = len(labels)
				index[s.Category] = i
				labels = append(labels, string(s.Category))
				counts = append(counts, 0)
			}
			counts[i]++
		}
	}
	return labels, counts
}
