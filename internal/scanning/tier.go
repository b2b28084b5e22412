package scanning

import (
	"context"
	"time"
)

// MethodTier selects the nmap timing profile applied to a scan. Tiers are
// derived from measured network latency: fast, clean paths earn the
// aggressive optimized profile, anything slow or unmeasurable falls back
// to conservative pacing.
type MethodTier string

const (
	// TierOptimized is used when measured RTT is under 50ms.
	TierOptimized MethodTier = "optimized"
	// TierVerifiedFast is the discovery phase of a verified scan,
	// used when RTT is under 200ms.
	TierVerifiedFast MethodTier = "verified_fast"
	// TierVerifiedSlow is the confirmation phase of a verified scan.
	TierVerifiedSlow MethodTier = "verified_slow"
	// TierConservative is the fail-safe profile for slow or
	// unmeasurable paths.
	TierConservative MethodTier = "conservative"
)

// Latency thresholds for tier classification.
const (
	OptimizedRTTCeiling = 50 * time.Millisecond
	VerifiedRTTCeiling  = 200 * time.Millisecond
)

// ClassifyRTT maps a measured round-trip time onto a scan tier.
func ClassifyRTT(rtt time.Duration) MethodTier {
	switch {
	case rtt < OptimizedRTTCeiling:
		return TierOptimized
	case rtt < VerifiedRTTCeiling:
		return TierVerifiedFast
	default:
		return TierConservative
	}
}

// TierSelector picks the tier for one scan unit. Units re-derive their
// tier independently: different sub-ranges of a large space can show
// different latency.
type TierSelector func(ctx context.Context) MethodTier

// FixedTier returns a selector that always picks t.
func FixedTier(t MethodTier) TierSelector {
	return func(context.Context) MethodTier { return t }
}

// IsVerified reports whether the tier triggers the two-phase
// discover-then-verify pipeline.
func (t MethodTier) IsVerified() bool {
	return t == TierVerifiedFast || t == TierVerifiedSlow
}

// tierArgs holds the timing portion of the nmap command line per tier.
var tierArgs = map[MethodTier][]string{
	TierOptimized: {
		"-T3",
		"--max-retries", "3",
		"--max-rtt-timeout", "3000ms",
		"--initial-rtt-timeout", "800ms",
		"--min-rate", "50",
		"--max-rate", "200",
		"--scan-delay", "10ms",
	},
	TierVerifiedFast: {
		"-T3",
		"--max-retries", "2",
		"--max-rtt-timeout", "2000ms",
		"--min-rate", "30",
		"--max-rate", "150",
	},
	TierVerifiedSlow: {
		"-T2",
		"--max-retries", "4",
		"--max-rtt-timeout", "4000ms",
		"--max-rate", "80",
		"--scan-delay", "20ms",
	},
	TierConservative: {
		"-T2",
		"--max-retries", "5",
		"--max-rtt-timeout", "5000ms",
		"--max-rate", "100",
		"--scan-delay", "50ms",
	},
}

// Args returns the timing arguments for the tier. Unknown tiers get the
// conservative profile.
func (t MethodTier) Args() []string {
	args, ok := tierArgs[t]
	if !ok {
		args = tierArgs[TierConservative]
	}
	out := make([]string, len(args))
	copy(out, args)
	return out
}
