package netspec

import (
	"bufio"
	"fmt"
	"net/netip"
	"os"
	"strings"

	"github.com/segaudit/segmenta/internal/errors"
	"github.com/segaudit/segmenta/internal/logging"
)

// LoadFromFile reads network specs from a text file, one per line. Blank
// lines and lines starting with '#' are skipped. Invalid specs are logged
// and dropped; the load fails only when no valid spec remains.
func LoadFromFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapValidationError("cannot open network file", path, err)
	}
	defer file.Close()

	var specs []string
	lineNo := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !parseableCIDR(line) && !ValidateRange(line) {
			logging.Warn("skipping invalid network spec",
				"file", path, "line", lineNo, "spec", line)
			continue
		}
		specs = append(specs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapValidationError("failed reading network file", path, err)
	}

	if len(specs) == 0 {
		return nil, errors.NewValidationError("no valid network specs in file", path)
	}
	return Deduplicate(specs), nil
}

// parseableCIDR accepts prefixes with host bits set; Deduplicate masks
// them during normalization. File input is forgiven what direct spec
// validation is not.
func parseableCIDR(spec string) bool {
	_, err := netip.ParsePrefix(spec)
	return err == nil
}

// GenerateRFC1918 produces the full set of RFC 1918 /24 blocks:
// 192.168.0.0/16 and 10.0.0.0/8 at /24 granularity, plus the first
// sixteen /24s of each 172.16.0.0/12 second octet.
func GenerateRFC1918() []string {
	networks := make([]string, 0, 512+256)

	for i := 0; i <= 255; i++ {
		networks = append(networks, fmt.Sprintf("192.168.%d.0/24", i))
	}
	for i := 0; i <= 255; i++ {
		networks = append(networks, fmt.Sprintf("10.0.%d.0/24", i))
	}
	for second := 16; second <= 31; second++ {
		for third := 0; third <= 15; third++ {
			networks = append(networks, fmt.Sprintf("172.%d.%d.0/24", second, third))
		}
	}
	return networks
}
