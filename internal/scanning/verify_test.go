package scanning

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveHosts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.gnmap")
	content := strings.Join([]string{
		"# Nmap 7.94 scan initiated",
		"Host: 10.0.0.1 ()\tStatus: Up",
		"Host: 10.0.0.1 ()\tPorts: 22/open/tcp//ssh///",
		"Host: 10.0.0.2 ()\tPorts: 80/closed/tcp//http///",
		"Host: 10.0.0.3 ()\tPorts: 443/open/tcp//https///, 80/open/tcp//http///",
		"Host: 10.0.0.3 ()\tPorts: 8080/open/tcp//http-alt///",
		"# Nmap done at ...",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	hosts, err := ActiveHosts(path)
	require.NoError(t, err)

	// Only hosts with an open port, deduplicated, in file order.
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.3"}, hosts)
}

func TestActiveHostsMissingFile(t *testing.T) {
	_, err := ActiveHosts(filepath.Join(t.TempDir(), "absent.gnmap"))
	assert.Error(t, err)
}

// verifyRunner distinguishes the two pipeline phases by timing profile:
// -T3 marks discovery, -T2 marks verification.
type verifyRunner struct {
	discoveryGnmap string
	failVerify     bool
	verifyCalls    int
	verifyTargets  string
}

func (r *verifyRunner) run(_ context.Context, _ string, args ...string) ([]byte, error) {
	gnmap := argAfter(args, "-oG")
	xml := argAfter(args, "-oX")
	argv := strings.Join(args, " ")

	if strings.Contains(argv, "-T2") {
		r.verifyCalls++
		if r.failVerify {
			return []byte("QUITTING!"), stderrors.New("exit status 1")
		}
		targets, err := os.ReadFile(argAfter(args, "-iL"))
		if err != nil {
			return nil, err
		}
		r.verifyTargets = string(targets)
	}

	content := r.discoveryGnmap
	if strings.Contains(argv, "-T2") {
		content = "Host: 10.0.0.1 ()\tPorts: 22/open/tcp//ssh///\n# Nmap done\n"
	}
	if err := os.WriteFile(gnmap, []byte(content), 0600); err != nil {
		return nil, err
	}
	return nil, os.WriteFile(xml, []byte("<nmaprun></nmaprun>"), 0600)
}

func TestVerifierTwoPhase(t *testing.T) {
	registry := newTestRegistry(t)
	runner := &verifyRunner{
		discoveryGnmap: "Host: 10.0.0.1 ()\tPorts: 22/open/tcp//ssh///\n" +
			"Host: 10.0.0.9 ()\tPorts: 443/open/tcp//https///\n# Nmap done\n",
	}
	executor := NewExecutor(registry, noSleepPolicy(), 0).WithRunner(runner.run)

	pair, err := NewVerifier(executor).Run(context.Background(),
		"10.0.0.0/24", []string{"10.0.0.0/24"})

	require.NoError(t, err)
	assert.False(t, pair.Degraded)
	assert.Equal(t, TierVerifiedSlow, pair.Tier)
	assert.Equal(t, 1, runner.verifyCalls)
	// Phase two scans only the hosts phase one found active.
	assert.Equal(t, "10.0.0.1\n10.0.0.9\n", runner.verifyTargets)

	// The superseded discovery artifacts are removed.
	gnmaps, err := filepath.Glob(filepath.Join(registry.Dir(), "*.gnmap"))
	require.NoError(t, err)
	assert.Equal(t, []string{pair.GnmapPath}, gnmaps)
}

func TestVerifierSkipsPhaseTwoWithoutActiveHosts(t *testing.T) {
	registry := newTestRegistry(t)
	runner := &verifyRunner{discoveryGnmap: "# Nmap done\n"}
	executor := NewExecutor(registry, noSleepPolicy(), 0).WithRunner(runner.run)

	pair, err := NewVerifier(executor).Run(context.Background(),
		"10.0.0.0/24", []string{"10.0.0.0/24"})

	require.NoError(t, err)
	assert.False(t, pair.Degraded)
	assert.Equal(t, TierVerifiedFast, pair.Tier)
	assert.Equal(t, 0, runner.verifyCalls)
}

func TestVerifierDegradesOnPhaseTwoFailure(t *testing.T) {
	registry := newTestRegistry(t)
	runner := &verifyRunner{
		discoveryGnmap: "Host: 10.0.0.1 ()\tPorts: 22/open/tcp//ssh///\n# Nmap done\n",
		failVerify:     true,
	}
	executor := NewExecutor(registry, noSleepPolicy(), 0).WithRunner(runner.run)

	pair, err := NewVerifier(executor).Run(context.Background(),
		"10.0.0.0/24", []string{"10.0.0.0/24"})

	// Discovery results survive, flagged as degraded.
	require.NoError(t, err)
	assert.True(t, pair.Degraded)
	assert.Equal(t, TierVerifiedFast, pair.Tier)
	assert.Greater(t, runner.verifyCalls, 1, "phase two should be retried before degrading")
}
