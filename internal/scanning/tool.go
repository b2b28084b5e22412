package scanning

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/segaudit/segmenta/internal/errors"
)

// Minimum supported nmap release. Older versions lack the rate-control
// flags the timing tiers rely on.
const (
	minNmapMajor = 7
	minNmapMinor = 0
)

var nmapVersionPattern = regexp.MustCompile(`Nmap version (\d+)\.(\d+)`)

// CheckTool verifies that nmap is installed and at least version 7.0.
func CheckTool(ctx context.Context) error {
	return checkTool(ctx, runCommand)
}

func checkTool(ctx context.Context, run commandRunner) error {
	output, err := run(ctx, nmapBinary, "--version")
	if err != nil {
		return errors.ErrToolMissing(nmapBinary)
	}

	m := nmapVersionPattern.FindSubmatch(output)
	if m == nil {
		return errors.NewScanError(errors.CodeToolMissing,
			"cannot determine nmap version")
	}
	major, _ := strconv.Atoi(string(m[1]))
	minor, _ := strconv.Atoi(string(m[2]))
	if major < minNmapMajor || (major == minNmapMajor && minor < minNmapMinor) {
		return errors.NewScanError(errors.CodeToolMissing,
			fmt.Sprintf("nmap %d.%d is too old, need at least %d.%d",
				major, minor, minNmapMajor, minNmapMinor))
	}
	return nil
}
