package results

import (
	"os"
	"strings"
	"time"

	"github.com/Ullaakut/nmap/v3"

	"github.com/segaudit/segmenta/internal/errors"
	"github.com/segaudit/segmenta/internal/logging"
	"github.com/segaudit/segmenta/internal/scanning"
)

// Merged is the combined output of all successful scan units: the
// concatenated greppable text the parser consumes, plus the merged XML
// model used for run statistics.
type Merged struct {
	// Gnmap is the concatenation of every readable greppable artifact,
	// in unit order.
	Gnmap string
	// Run is the merged XML model; an empty run when no XML artifact
	// parsed.
	Run *nmap.Run
	// Records are the parsed, per-pair host records with degraded
	// flags applied.
	Records []ScanRecord
}

// Merge combines the artifact pairs of a run. Unreadable or corrupt
// artifacts are logged and skipped; merging fails only when no pair
// contributes anything.
func Merge(pairs []scanning.ArtifactPair) (*Merged, error) {
	merged := &Merged{}
	contributed := 0

	var gnmap strings.Builder
	for _, pair := range pairs {
		content, err := os.ReadFile(pair.GnmapPath)
		if err != nil {
			logging.WarnNetwork("skipping unreadable gnmap artifact",
				pair.Network, "path", pair.GnmapPath, "error", err)
			continue
		}
		gnmap.Write(content)
		if !strings.HasSuffix(gnmap.String(), "\n") {
			gnmap.WriteByte('\n')
		}
		merged.Records = append(merged.Records,
			ParseGnmap(string(content), pair.Degraded)...)
		contributed++

		run, err := parseXMLFile(pair.XMLPath)
		if err != nil {
			logging.WarnNetwork("skipping unreadable xml artifact",
				pair.Network, "path", pair.XMLPath, "error", err)
			continue
		}
		mergeRun(merged, run)
	}

	if contributed == 0 {
		return nil, errors.NewScanError(errors.CodeMergeFailed,
			"no scan artifacts could be merged")
	}
	if merged.Run == nil {
		// Greppable output made it through but every XML artifact was
		// corrupt. Consumers still get a valid, empty run model.
		logging.Warn("no xml artifact parsed, emitting empty run model")
		merged.Run = &nmap.Run{Scanner: "nmap"}
	}
	merged.Gnmap = gnmap.String()
	return merged, nil
}

// parseXMLFile decodes one nmap XML artifact.
func parseXMLFile(path string) (*nmap.Run, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	run, err := nmap.Parse(content)
	if err != nil {
		return nil, errors.WrapScanError(errors.CodeParseFailed,
			"cannot parse xml artifact", err)
	}
	return run, nil
}

// mergeRun folds one parsed run into the merged model. The first run is
// kept as the base (its ScanInfo describes the whole audit, since every
// unit scans the same ports); later runs contribute hosts and counts.
func mergeRun(merged *Merged, run *nmap.Run) {
	if merged.Run == nil {
		merged.Run = run
		return
	}

	base := merged.Run
	base.Hosts = append(base.Hosts, run.Hosts...)
	base.Stats.Hosts.Up += run.Stats.Hosts.Up
	base.Stats.Hosts.Down += run.Stats.Hosts.Down
	base.Stats.Hosts.Total += run.Stats.Hosts.Total
	if time.Time(run.Stats.Finished.Time).After(time.Time(base.Stats.Finished.Time)) {
		base.Stats.Finished = run.Stats.Finished
	}
}

// TotalScanned returns the number of addresses the scanner covered, as
// reported by the merged XML. Zero when no XML was available.
func (m *Merged) TotalScanned() int {
	if m.Run == nil {
		return 0
	}
	return m.Run.Stats.Hosts.Total
}
