// Package netspec validates, normalizes and expands network specifications.
// A spec is either a CIDR block ("10.0.0.0/24") or an inclusive IP range
// ("10.0.0.1-10.0.0.254"). Normalization is best-effort and never fails the
// caller; expansion is capped to avoid explosive fan-out.
package netspec

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"strings"

	"github.com/segaudit/segmenta/internal/errors"
)

// DefaultMaxExpansion caps how many addresses a range may expand to.
const DefaultMaxExpansion = 256

// ValidateCIDR reports whether spec is a strictly valid CIDR block.
// Prefixes with host bits set are rejected.
func ValidateCIDR(spec string) bool {
	prefix, err := netip.ParsePrefix(spec)
	if err != nil {
		return false
	}
	return prefix == prefix.Masked()
}

// ValidateRange reports whether spec is a valid "A-B" range where both
// endpoints parse as addresses of the same family.
func ValidateRange(spec string) bool {
	start, end, err := parseRange(spec)
	if err != nil {
		return false
	}
	return start.Is4() == end.Is4()
}

// Normalize returns the canonical form of a network spec: CIDR blocks are
// re-serialized with host bits masked, ranges as "start-end" with parsed
// endpoints. On any parse failure the input is returned unchanged.
func Normalize(spec string) string {
	if strings.Contains(spec, "-") {
		start, end, err := parseRange(spec)
		if err != nil {
			return spec
		}
		return fmt.Sprintf("%s-%s", start, end)
	}

	prefix, err := netip.ParsePrefix(spec)
	if err != nil {
		return spec
	}
	return prefix.Masked().String()
}

// ExpandRange expands an "A-B" range spec into an ascending list of
// individual addresses. It fails with a validation error when the start
// exceeds the end or the inclusive count exceeds maxAddresses.
func ExpandRange(spec string, maxAddresses int) ([]string, error) {
	start, end, err := parseRange(spec)
	if err != nil {
		return nil, errors.WrapValidationError("invalid range", spec, err)
	}
	if start.Is4() != end.Is4() {
		return nil, errors.NewValidationError("range endpoints are not the same address family", spec)
	}
	if start.Compare(end) > 0 {
		return nil, errors.NewValidationError("range start exceeds range end", spec)
	}

	if start.Is4() {
		count := rangeSize4(start, end)
		if count > uint64(maxAddresses) {
			return nil, errors.NewValidationError(
				fmt.Sprintf("range too large (%d addresses, max %d)", count, maxAddresses), spec)
		}
	}

	ips := make([]string, 0, maxAddresses)
	for current := start; current.Compare(end) <= 0; current = current.Next() {
		if len(ips) >= maxAddresses {
			return nil, errors.NewValidationError(
				fmt.Sprintf("range too large (max %d addresses)", maxAddresses), spec)
		}
		ips = append(ips, current.String())
	}
	return ips, nil
}

// Deduplicate normalizes each spec and drops exact duplicates of the
// normalized form, preserving first-seen order.
func Deduplicate(specs []string) []string {
	seen := make(map[string]struct{}, len(specs))
	result := make([]string, 0, len(specs))

	for _, spec := range specs {
		normalized := Normalize(spec)
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}
	return result
}

// Segment derives the /24 grouping key for an IPv4 address by masking.
// If the address does not parse, it falls back to string-splitting the
// first three octets; it never fails on malformed-but-plausible input.
func Segment(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err == nil && addr.Is4() {
		prefix, perr := addr.Prefix(24)
		if perr == nil {
			return prefix.String()
		}
	}

	parts := strings.Split(ip, ".")
	if len(parts) >= 3 {
		return fmt.Sprintf("%s.%s.%s.0/24", parts[0], parts[1], parts[2])
	}
	return ip + "/24"
}

// parseRange splits an "A-B" spec into its endpoint addresses.
func parseRange(spec string) (start, end netip.Addr, err error) {
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return netip.Addr{}, netip.Addr{}, fmt.Errorf("not an A-B range: %q", spec)
	}

	start, err = netip.ParseAddr(strings.TrimSpace(parts[0]))
	if err != nil {
		return netip.Addr{}, netip.Addr{}, err
	}
	end, err = netip.ParseAddr(strings.TrimSpace(parts[1]))
	if err != nil {
		return netip.Addr{}, netip.Addr{}, err
	}
	return start, end, nil
}

// rangeSize4 returns the inclusive address count of an IPv4 range.
func rangeSize4(start, end netip.Addr) uint64 {
	s := start.As4()
	e := end.As4()
	return uint64(binary.BigEndian.Uint32(e[:])) - uint64(binary.BigEndian.Uint32(s[:])) + 1
}
