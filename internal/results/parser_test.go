package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segaudit/segmenta/internal/scanning"
)

const sampleGnmap = `# Nmap 7.94 scan initiated
Host: 10.0.0.5 ()	Status: Up
Host: 10.0.0.5 ()	Ports: 443/open/tcp//https///, 22/open/tcp//ssh///
Host: 10.0.0.7 ()	Ports: 80/closed/tcp//http///
Host: 10.0.0.9 (gw.example)	Ports: 3306/open/tcp//mysql///, 31337/open/tcp//elite///
# Nmap done at Thu Aug 28 12:00:00 2026 -- 254 IP addresses (3 hosts up) scanned
`

func TestParseGnmap(t *testing.T) {
	records := ParseGnmap(sampleGnmap, false)

	require.Len(t, records, 2, "hosts without open ports are dropped")

	first := records[0]
	assert.Equal(t, "10.0.0.5", first.IP)
	assert.Equal(t, "10.0.0.0/24", first.Segment)
	require.Len(t, first.Services, 2)
	// Ports come out sorted regardless of line order.
	assert.Equal(t, 22, first.Services[0].Port)
	assert.Equal(t, "SSH", first.Services[0].Service)
	assert.Equal(t, scanning.CategoryAdministration, first.Services[0].Category)
	assert.Equal(t, 443, first.Services[1].Port)
	assert.Equal(t, "HTTPS", first.Services[1].Service)

	second := records[1]
	assert.Equal(t, "10.0.0.9", second.IP)
	require.Len(t, second.Services, 2)
	assert.Equal(t, "MySQL", second.Services[0].Service)
	assert.Equal(t, scanning.CategoryDatabase, second.Services[0].Category)
	// Ports outside the audit table are still reported, as unknown.
	assert.Equal(t, 31337, second.Services[1].Port)
	assert.Equal(t, "Unknown", second.Services[1].Service)
	assert.Equal(t, scanning.CategoryOther, second.Services[1].Category)
}

func TestParseGnmapMergesRepeatedHosts(t *testing.T) {
	content := "Host: 10.0.0.1 ()\tPorts: 22/open/tcp//ssh///\n" +
		"Host: 10.0.0.1 ()\tPorts: 80/open/tcp//http///, 22/open/tcp//ssh///\n"

	records := ParseGnmap(content, false)

	require.Len(t, records, 1)
	require.Len(t, records[0].Services, 2)
	assert.Equal(t, 22, records[0].Services[0].Port)
	assert.Equal(t, 80, records[0].Services[1].Port)
}

func TestParseGnmapDegradedFlag(t *testing.T) {
	content := "Host: 10.0.0.1 ()\tPorts: 22/open/tcp//ssh///\n"

	for _, degraded := range []bool{true, false} {
		records := ParseGnmap(content, degraded)
		require.Len(t, records, 1)
		assert.Equal(t, degraded, records[0].Degraded)
	}
}

func TestParseGnmapEmptyAndGarbage(t *testing.T) {
	assert.Empty(t, ParseGnmap("", false))
	assert.Empty(t, ParseGnmap("# comments only\nStatus: Up\n", false))
	// Malformed port entries are skipped, not fatal.
	records := ParseGnmap("Host: 10.0.0.1 ()\tPorts: garbage, 22/open/tcp//ssh///\n", false)
	require.Len(t, records, 1)
	require.Len(t, records[0].Services, 1)
	assert.Equal(t, 22, records[0].Services[0].Port)
}
