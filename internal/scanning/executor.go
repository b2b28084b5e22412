package scanning

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/segaudit/segmenta/internal/errors"
	"github.com/segaudit/segmenta/internal/logging"
	"github.com/segaudit/segmenta/internal/metrics"
	"github.com/segaudit/segmenta/internal/retry"
)

// DefaultScanTimeout bounds a single external scan invocation.
const DefaultScanTimeout = time.Hour

// nmapBinary is the external scanner segmenta shells out to.
const nmapBinary = "nmap"

// commandRunner executes an external command and returns its combined
// output. Tests substitute this to exercise the executor without nmap.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Executor runs tier-specific nmap scans and validates their artifacts.
// Transient failures (nonzero exit, timeout, truncated artifacts) are
// retried with exponential backoff; each retry overwrites the same
// artifact pair.
type Executor struct {
	registry *ArtifactRegistry
	policy   retry.Policy
	timeout  time.Duration
	run      commandRunner
	log      *logging.Logger
}

// NewExecutor creates an executor writing artifacts through registry.
func NewExecutor(registry *ArtifactRegistry, policy retry.Policy, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultScanTimeout
	}
	return &Executor{
		registry: registry,
		policy:   policy,
		timeout:  timeout,
		run:      runCommand,
		log:      logging.Default().WithComponent("executor"),
	}
}

// WithRunner substitutes the external command runner. Used by tests.
func (e *Executor) WithRunner(run commandRunner) *Executor {
	e.run = run
	return e
}

// Execute scans the given targets with the tier's timing profile and
// returns the validated artifact pair. The network label attributes the
// artifacts; targets are the literal nmap inputs (a CIDR, or expanded
// range addresses).
func (e *Executor) Execute(ctx context.Context, network string, targets []string, tier MethodTier) (ArtifactPair, error) {
	if len(targets) == 0 {
		return ArtifactPair{}, errors.NewScanErrorWithTarget(errors.CodeValidation,
			"no targets to scan", network)
	}

	targetFile, err := e.writeTargetFile(network, targets)
	if err != nil {
		return ArtifactPair{}, err
	}

	pair := e.registry.NewPair(network, tier)
	args := buildScanArgs(pair, targetFile, tier)

	timer := metrics.NewTimer(metrics.MetricScanDuration,
		map[string]string{metrics.LabelTier: string(tier), metrics.LabelTarget: network})
	defer timer.Stop()

	attempt := 0
	err = retry.Do(ctx, e.policy, fmt.Sprintf("scan %s", network), func() error {
		if attempt > 0 {
			metrics.Counter(metrics.MetricScanRetries,
				map[string]string{metrics.LabelTier: string(tier)})
		}
		attempt++
		return e.runOnce(ctx, pair, args)
	})
	if err != nil {
		metrics.IncrementScanTotal(string(tier), "failed")
		metrics.IncrementScanErrors(string(tier), string(errors.GetCode(err)))
		return pair, err
	}

	metrics.IncrementScanTotal(string(tier), "ok")
	e.log.InfoScan("scan completed", network, "tier", string(tier))
	return pair, nil
}

// runOnce performs a single bounded scan attempt and validates artifacts.
func (e *Executor) runOnce(ctx context.Context, pair ArtifactPair, args []string) error {
	attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	output, err := e.run(attemptCtx, nmapBinary, args...)
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded {
			return errors.ErrScanTimeout(pair.Network)
		}
		if ctx.Err() != nil {
			return errors.WrapScanErrorWithTarget(errors.CodeCanceled,
				"scan canceled", pair.Network, ctx.Err())
		}
		return errors.Retryable(
			fmt.Sprintf("nmap exited with error: %s", firstLine(output)), err)
	}
	return pair.Validate()
}

// writeTargetFile persists the scan targets for nmap's -iL input.
func (e *Executor) writeTargetFile(network string, targets []string) (string, error) {
	path := filepath.Join(e.registry.Dir(),
		fmt.Sprintf("targets_%s.txt", sanitizeLabel(network)))
	content := strings.Join(targets, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return "", errors.WrapScanErrorWithTarget(errors.CodeScanFailed,
			"cannot write target file", network, err)
	}
	e.registry.TrackFile(path)
	return path, nil
}

// buildScanArgs assembles the full nmap argument list for one attempt.
func buildScanArgs(pair ArtifactPair, targetFile string, tier MethodTier) []string {
	args := []string{
		"-n",
		"-sS",
		"-p", PortSpec(),
		"--open",
		"-iL", targetFile,
		"-oG", pair.GnmapPath,
		"-oX", pair.XMLPath,
	}
	return append(args, tier.Args()...)
}

func firstLine(output []byte) string {
	s := strings.TrimSpace(string(output))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
