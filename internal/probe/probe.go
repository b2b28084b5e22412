// Package probe measures network latency to a well-known address and
// classifies the path into a scan method tier. The probe is fail-safe:
// when latency cannot be measured the slowest, most careful tier is
// chosen rather than failing the run.
package probe

import (
	"context"
	"time"

	"github.com/go-ping/ping"

	"github.com/segaudit/segmenta/internal/errors"
	"github.com/segaudit/segmenta/internal/logging"
	"github.com/segaudit/segmenta/internal/metrics"
	"github.com/segaudit/segmenta/internal/retry"
	"github.com/segaudit/segmenta/internal/scanning"
)

// Defaults for the latency probe.
const (
	DefaultTarget  = "8.8.8.8"
	DefaultTimeout = 2 * time.Second
	probeRetries   = 2
)

// measureFunc returns the round-trip time to target. Tests substitute
// this to classify without network access.
type measureFunc func(ctx context.Context, target string, timeout time.Duration) (time.Duration, error)

// Result is the outcome of one latency classification.
type Result struct {
	Tier scanning.MethodTier
	// RTT is the measured round-trip time; zero when measurement failed.
	RTT time.Duration
	// Measured is false when the probe fell back to the conservative
	// tier without a usable measurement.
	Measured bool
}

// Prober classifies network latency into scan tiers.
type Prober struct {
	target  string
	timeout time.Duration
	measure measureFunc
	log     *logging.Logger
}

// New creates a prober against target. Empty target and zero timeout
// select the defaults.
func New(target string, timeout time.Duration) *Prober {
	if target == "" {
		target = DefaultTarget
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{
		target:  target,
		timeout: timeout,
		measure: measureICMP,
		log:     logging.Default().WithComponent("probe"),
	}
}

// WithMeasure substitutes the RTT measurement. Used by tests.
func (p *Prober) WithMeasure(measure measureFunc) *Prober {
	p.measure = measure
	return p
}

// Classify measures latency and maps it onto a scan tier. Measurement
// failures are retried briefly, then resolved to the conservative tier.
func (p *Prober) Classify(ctx context.Context) Result {
	policy := retry.Policy{
		MaxRetries:    probeRetries,
		BaseDelay:     200 * time.Millisecond,
		BackoffFactor: 2.0,
		Jitter:        false,
	}

	var rtt time.Duration
	err := retry.Do(ctx, policy, "latency probe", func() error {
		measured, err := p.measure(ctx, p.target, p.timeout)
		if err != nil {
			return errors.Retryable("latency probe failed", err)
		}
		rtt = measured
		return nil
	})
	if err != nil {
		metrics.Counter(metrics.MetricProbeErrors, nil)
		p.log.Warn("latency probe failed, falling back to conservative tier",
			"target", p.target, "error", err)
		return Result{Tier: scanning.TierConservative}
	}

	metrics.RecordProbeRTT(rtt)
	tier := scanning.ClassifyRTT(rtt)
	p.log.Info("latency classified",
		"target", p.target, "rtt", rtt, "tier", string(tier))
	return Result{Tier: tier, RTT: rtt, Measured: true}
}

// measureICMP sends a single ICMP echo and returns its round-trip time.
func measureICMP(ctx context.Context, target string, timeout time.Duration) (time.Duration, error) {
	pinger, err := ping.NewPinger(target)
	if err != nil {
		return 0, err
	}
	pinger.Count = 1
	pinger.Timeout = timeout
	pinger.SetPrivileged(true)

	done := make(chan error, 1)
	go func() { done <- pinger.Run() }()

	select {
	case <-ctx.Done():
		pinger.Stop()
		<-done
		return 0, ctx.Err()
	case err := <-done:
		if err != nil {
			return 0, err
		}
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return 0, errors.NewScanErrorWithTarget(errors.CodeTimeout,
			"no echo reply", target)
	}
	return stats.AvgRtt, nil
}
