package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segaudit/segmenta/internal/config"
)

func resetFlags(t *testing.T) {
	t.Helper()
	auditFlags.networksFile = ""
	auditFlags.export = ""
	auditFlags.simple = false
	auditFlags.dashboard = false
	auditFlags.noDashboard = false
	auditFlags.jobs = 0
	auditFlags.noInteractive = false
	auditFlags.dumpConfig = false
	verbose = false
	quiet = false
	loadedConfig = config.Default()
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	return rootCmd.Execute()
}

func TestVerboseQuietConflict(t *testing.T) {
	resetFlags(t)
	err := execute(t, "--verbose", "--quiet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestDashboardFlagConflict(t *testing.T) {
	resetFlags(t)
	err := execute(t, "--dashboard", "--no-dashboard")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestInvalidExportFormat(t *testing.T) {
	resetFlags(t)
	err := execute(t, "-e", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export format")
}

func TestJobsOutOfRange(t *testing.T) {
	for _, jobs := range []string{"11", "-3"} {
		resetFlags(t)
		err := execute(t, "-j", jobs, "-f", "whatever.txt")
		require.Error(t, err, "jobs=%s", jobs)
		assert.Contains(t, err.Error(), "jobs must be between 1 and 10")
	}
}

func TestDumpConfig(t *testing.T) {
	resetFlags(t)
	var out bytes.Buffer
	rootCmd.SetArgs([]string{"--dump-config"})
	rootCmd.SetOut(&out)
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "jobs: 3")
}

func TestAbortsWithoutConfirmation(t *testing.T) {
	resetFlags(t)
	rootCmd.SetIn(bytes.NewBufferString("n\n"))
	err := execute(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aborted")
}
