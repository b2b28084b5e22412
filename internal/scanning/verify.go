package scanning

import (
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/segaudit/segmenta/internal/logging"
)

// hostLinePattern extracts the address from a greppable host record.
var hostLinePattern = regexp.MustCompile(`Host: (\d+\.\d+\.\d+\.\d+)`)

// Verifier runs the two-phase discover-then-verify pipeline used for
// mid-latency networks: a fast pass finds hosts with open ports, then a
// slow, careful pass re-scans only those hosts. If the slow pass fails
// after retries, the fast pass results are kept and marked degraded.
type Verifier struct {
	executor *Executor
	log      *logging.Logger
}

// NewVerifier creates a verifier driving scans through executor.
func NewVerifier(executor *Executor) *Verifier {
	return &Verifier{
		executor: executor,
		log:      logging.Default().WithComponent("verifier"),
	}
}

// Run executes the verified scan for one network. Phase-one failure
// fails the unit; phase-two failure degrades it to phase-one results.
func (v *Verifier) Run(ctx context.Context, network string, targets []string) (ArtifactPair, error) {
	discovery, err := v.executor.Execute(ctx, network, targets, TierVerifiedFast)
	if err != nil {
		return discovery, err
	}

	active, err := ActiveHosts(discovery.GnmapPath)
	if err != nil {
		v.log.WarnNetwork("cannot extract active hosts, keeping discovery results",
			network, "error", err)
		discovery.Degraded = true
		return discovery, nil
	}
	if len(active) == 0 {
		v.log.WithNetwork(network).Debug("no active hosts found, skipping verification phase")
		return discovery, nil
	}

	verified, err := v.executor.Execute(ctx, network, active, TierVerifiedSlow)
	if err != nil {
		if ctx.Err() != nil {
			return verified, err
		}
		v.log.WarnNetwork("verification phase failed, keeping discovery results",
			network, "error", err, "active_hosts", len(active))
		discovery.Degraded = true
		return discovery, nil
	}

	v.discard(network, discovery)
	return verified, nil
}

// discard removes a superseded discovery pair. Removal is best effort:
// the registry cleans the whole directory at the end of the run anyway.
func (v *Verifier) discard(network string, pair ArtifactPair) {
	for _, path := range []string{pair.GnmapPath, pair.XMLPath} {
		if err := os.Remove(path); err != nil {
			v.log.WithNetwork(network).Debug("cannot remove discovery artifact",
				"path", path, "error", err)
		}
	}
}

// ActiveHosts extracts the addresses with at least one open port from a
// greppable artifact, deduplicated in file order.
func ActiveHosts(gnmapPath string) ([]string, error) {
	content, err := os.ReadFile(gnmapPath)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var hosts []string
	for _, line := range strings.Split(string(content), "\n") {
		if !strings.Contains(line, "open") {
			continue
		}
		m := hostLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		hosts = append(hosts, m[1])
	}
	return hosts, nil
}
