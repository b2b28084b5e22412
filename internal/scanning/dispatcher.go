package scanning

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/segaudit/segmenta/internal/errors"
	"github.com/segaudit/segmenta/internal/logging"
	"github.com/segaudit/segmenta/internal/metrics"
	"github.com/segaudit/segmenta/internal/netspec"
)

// MaxJobs caps dispatcher concurrency regardless of configuration.
const MaxJobs = 10

// UnitResult is the outcome of one per-network scan unit. Err is nil for
// successful units; Pair is valid only when Err is nil.
type UnitResult struct {
	Network string
	Pair    ArtifactPair
	Err     error
}

// Dispatcher fans per-network scan units out across a bounded pool of
// workers. Unit failures are isolated: one network failing never stops
// the others, and a run fails only when every unit does.
type Dispatcher struct {
	executor     *Executor
	verifier     *Verifier
	jobs         int
	maxExpansion int
	limiter      *rate.Limiter
	log          *logging.Logger
}

// NewDispatcher creates a dispatcher running at most jobs units
// concurrently, clamped to [1, MaxJobs].
func NewDispatcher(executor *Executor, jobs, maxExpansion int) *Dispatcher {
	if jobs < 1 {
		jobs = 1
	}
	if jobs > MaxJobs {
		jobs = MaxJobs
	}
	if maxExpansion < 1 {
		maxExpansion = netspec.DefaultMaxExpansion
	}
	return &Dispatcher{
		executor:     executor,
		verifier:     NewVerifier(executor),
		jobs:         jobs,
		maxExpansion: maxExpansion,
		log:          logging.Default().WithComponent("dispatcher"),
	}
}

// WithLaunchRate throttles unit launches to r per second. Zero or
// negative r disables throttling.
func (d *Dispatcher) WithLaunchRate(r float64) *Dispatcher {
	if r > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(r), 1)
	} else {
		d.limiter = nil
	}
	return d
}

// Dispatch scans every network and returns one result per deduplicated
// network, in completion order. Each unit derives its own tier through
// selectTier. It returns an error only when no unit succeeds.
func (d *Dispatcher) Dispatch(ctx context.Context, networks []string, selectTier TierSelector) ([]UnitResult, error) {
	networks = netspec.Deduplicate(networks)
	if len(networks) == 0 {
		return nil, errors.NewValidationError("no networks to scan", "")
	}

	d.log.Info("dispatching scan units", "networks", len(networks), "jobs", d.jobs)

	sem := make(chan struct{}, d.jobs)
	results := make(chan UnitResult, len(networks))
	var wg sync.WaitGroup

	for _, network := range networks {
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				results <- UnitResult{Network: network, Err: errors.WrapScanErrorWithTarget(
					errors.CodeCanceled, "dispatch canceled", network, err)}
				continue
			}
		}

		wg.Add(1)
		go func(network string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results <- d.runUnit(ctx, network, selectTier)
		}(network)
	}

	wg.Wait()
	close(results)

	var collected []UnitResult
	succeeded := 0
	for res := range results {
		if res.Err != nil {
			metrics.IncrementUnitsFailed(res.Network)
			d.log.ErrorScan("scan unit failed", res.Network, res.Err)
		} else {
			succeeded++
		}
		collected = append(collected, res)
	}

	if succeeded == 0 {
		return collected, errors.NewScanError(errors.CodeScanFailed,
			"all scan units failed")
	}
	if failed := len(collected) - succeeded; failed > 0 {
		d.log.Warn("some scan units failed",
			"failed", failed, "succeeded", succeeded)
	}
	return collected, nil
}

// runUnit resolves a network spec into scan targets, derives the
// unit's tier and executes it.
func (d *Dispatcher) runUnit(ctx context.Context, network string, selectTier TierSelector) UnitResult {
	targets, err := d.resolveTargets(network)
	if err != nil {
		return UnitResult{Network: network, Err: err}
	}

	tier := selectTier(ctx)
	metrics.Counter(metrics.MetricUnitsDispatched,
		map[string]string{metrics.LabelTier: string(tier)})

	var pair ArtifactPair
	if tier.IsVerified() {
		pair, err = d.verifier.Run(ctx, network, targets)
	} else {
		pair, err = d.executor.Execute(ctx, network, targets, tier)
	}
	return UnitResult{Network: network, Pair: pair, Err: err}
}

// resolveTargets turns a network spec into literal nmap inputs: CIDR
// blocks pass through, ranges expand to individual addresses.
func (d *Dispatcher) resolveTargets(network string) ([]string, error) {
	switch {
	case netspec.ValidateCIDR(network):
		return []string{network}, nil
	case netspec.ValidateRange(network):
		return netspec.ExpandRange(network, d.maxExpansion)
	default:
		return nil, errors.NewValidationError("not a CIDR or address range", network)
	}
}
