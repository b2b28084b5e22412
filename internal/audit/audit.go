// Package audit orchestrates a full segmentation audit run: tool
// checks, network loading, latency classification, parallel scanning,
// result merging and report generation.
package audit

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/segaudit/segmenta/internal/config"
	"github.com/segaudit/segmenta/internal/errors"
	"github.com/segaudit/segmenta/internal/logging"
	"github.com/segaudit/segmenta/internal/netspec"
	"github.com/segaudit/segmenta/internal/probe"
	"github.com/segaudit/segmenta/internal/report"
	"github.com/segaudit/segmenta/internal/results"
	"github.com/segaudit/segmenta/internal/retry"
	"github.com/segaudit/segmenta/internal/scanning"
)

// Options are the per-run knobs set on the command line.
type Options struct {
	// NetworksFile lists target networks, one per line. Empty selects
	// the full RFC 1918 sweep.
	NetworksFile string
	// Networks overrides file loading when non-empty.
	Networks []string
	// Format selects exporters: csv, json, markdown, all or empty.
	Format string
	// Simple limits console output to the segment summary.
	Simple bool
	// Dashboard writes the HTML dashboard alongside other exports.
	Dashboard bool
}

// Runner executes audits against a fixed configuration.
type Runner struct {
	cfg *config.Config
	out io.Writer
	log *logging.Logger

	// checkTool, runCmd and fixedTier are injectable for tests.
	checkTool func(context.Context) error
	runCmd    func(context.Context, string, ...string) ([]byte, error)
	fixedTier scanning.MethodTier
}

// NewRunner creates a runner printing console output to out.
func NewRunner(cfg *config.Config, out io.Writer) *Runner {
	return &Runner{
		cfg:       cfg,
		out:       out,
		log:       logging.Default().WithComponent("audit"),
		checkTool: scanning.CheckTool,
	}
}

// Run performs one complete audit. Artifacts are cleaned up whatever
// the outcome; per-network failures are collected and summarized
// rather than aborting the run.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	started := time.Now()

	if err := r.checkTool(ctx); err != nil {
		return err
	}
	if os.Geteuid() != 0 {
		r.log.Warn("not running as root, SYN scans may be unavailable")
	}

	networks, err := r.loadNetworks(opts)
	if err != nil {
		return err
	}
	r.log.Info("audit starting", "networks", len(networks))

	registry, err := scanning.NewArtifactRegistry()
	if err != nil {
		return err
	}
	defer registry.Cleanup()

	pairs, collector, err := r.scan(ctx, registry, networks, r.tierSelector())
	if err != nil {
		return err
	}

	merged, err := results.Merge(pairs)
	if err != nil {
		return err
	}

	data := results.Build(merged.Records, merged.TotalScanned(), len(networks), time.Since(started))
	report.RenderConsole(r.out, data, opts.Simple)

	written, err := report.NewExporter(r.cfg.Export.OutputDir).
		Export(data, opts.Format, opts.Dashboard)
	if err != nil {
		return err
	}
	for _, path := range written {
		r.log.Info("export complete", "path", path)
	}

	if collector.Count() > 0 {
		r.log.Warn("audit finished with unit failures",
			"failed", collector.Count(), "errors", collector.Errors())
	}
	r.log.Info("audit complete",
		"active_hosts", data.Stats.ActiveHosts,
		"open_services", data.Stats.OpenServices,
		"duration", time.Since(started).Round(time.Second))
	return nil
}

// loadNetworks resolves the run's target list.
func (r *Runner) loadNetworks(opts Options) ([]string, error) {
	if len(opts.Networks) > 0 {
		networks := netspec.Deduplicate(opts.Networks)
		for _, n := range networks {
			if !netspec.ValidateCIDR(n) && !netspec.ValidateRange(n) {
				return nil, errors.NewValidationError("not a CIDR or address range", n)
			}
		}
		return networks, nil
	}
	if opts.NetworksFile != "" {
		return netspec.LoadFromFile(opts.NetworksFile)
	}

	r.log.Warn("no network file given, sweeping all RFC 1918 /24 blocks")
	return netspec.GenerateRFC1918(), nil
}

// tierSelector builds the per-unit tier selector. Each scan unit
// probes latency again before launching: sub-ranges of a large space
// can sit behind very different links.
func (r *Runner) tierSelector() scanning.TierSelector {
	if r.fixedTier != "" {
		return scanning.FixedTier(r.fixedTier)
	}
	prober := probe.New(r.cfg.Scanning.ProbeTarget, r.cfg.Scanning.ProbeTimeout)
	return func(ctx context.Context) scanning.MethodTier {
		result := prober.Classify(ctx)
		if !result.Measured {
			r.log.Warn("latency not measurable, using conservative scanning")
		}
		return result.Tier
	}
}

// scan dispatches every network and collects the successful artifact
// pairs plus a record of per-unit failures.
func (r *Runner) scan(ctx context.Context, registry *scanning.ArtifactRegistry,
	networks []string, selectTier scanning.TierSelector) ([]scanning.ArtifactPair, *logging.Collector, error) {

	retryCfg := r.cfg.Scanning.Retry
	policy := retry.Policy{
		MaxRetries:    retryCfg.MaxRetries,
		BaseDelay:     retryCfg.BaseDelay,
		BackoffFactor: retryCfg.BackoffFactor,
		Jitter:        true,
	}

	executor := scanning.NewExecutor(registry, policy, r.cfg.Scanning.ScanTimeout)
	if r.runCmd != nil {
		executor.WithRunner(r.runCmd)
	}
	dispatcher := scanning.NewDispatcher(executor, r.cfg.Scanning.Jobs, r.cfg.Scanning.MaxExpansion).
		WithLaunchRate(r.cfg.Scanning.LaunchRate)

	unitResults, err := dispatcher.Dispatch(ctx, networks, selectTier)
	if err != nil {
		return nil, nil, err
	}

	collector := logging.NewCollector()
	var pairs []scanning.ArtifactPair
	for _, res := range unitResults {
		if res.Err != nil {
			collector.Record(res.Network + ": " + res.Err.Error())
			continue
		}
		pairs = append(pairs, res.Pair)
	}
	return pairs, collector, nil
}
