package results

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segaudit/segmenta/internal/scanning"
)

func rec(ip, segment string, degraded bool, ports ...int) ScanRecord {
	services := make([]ServiceRecord, len(ports))
	for i, p := range ports {
		info := scanning.LookupPort(p)
		services[i] = ServiceRecord{Port: p, Service: info.Service, Category: info.Category}
	}
	return ScanRecord{IP: ip, Segment: segment, Services: services, Degraded: degraded}
}

func TestBuildDeduplicatesHosts(t *testing.T) {
	records := []ScanRecord{
		rec("10.0.0.1", "10.0.0.0/24", false, 22),
		rec("10.0.0.2", "10.0.0.0/24", false, 80),
		rec("10.0.0.1", "10.0.0.0/24", true, 22, 443),
	}

	data := Build(records, 508, 2, time.Minute)

	require.Len(t, data.Records, 2)
	merged := data.Records[0]
	assert.Equal(t, "10.0.0.1", merged.IP)
	// Union of both sightings, sorted by port.
	require.Len(t, merged.Services, 2)
	assert.Equal(t, 22, merged.Services[0].Port)
	assert.Equal(t, 443, merged.Services[1].Port)
	// A degraded sighting marks the merged record.
	assert.True(t, merged.Degraded)

	assert.Equal(t, 2, data.Stats.ActiveHosts)
	assert.Equal(t, 3, data.Stats.OpenServices)
	assert.True(t, data.Stats.Degraded)
}

func TestBuildGroupsBySegmentAndCategory(t *testing.T) {
	records := []ScanRecord{
		rec("10.0.0.1", "10.0.0.0/24", false, 22, 80),
		rec("10.0.0.2", "10.0.0.0/24", false, 443),
		rec("192.168.1.1", "192.168.1.0/24", false, 3306),
	}

	data := Build(records, 0, 0, 0)

	require.Len(t, data.Segments, 2)

	first := data.Segments[0]
	assert.Equal(t, "10.0.0.0/24", first.Segment)
	assert.Equal(t, 2, first.HostCount)
	// Categories appear in first-seen order: SSH before HTTP.
	require.Len(t, first.Categories, 2)
	assert.Equal(t, scanning.CategoryAdministration, first.Categories[0].Category)
	assert.Equal(t, scanning.CategoryWebServices, first.Categories[1].Category)
	// 10.0.0.1's HTTP and 10.0.0.2's HTTPS land in the same group.
	require.Len(t, first.Categories[1].Hosts, 2)
	assert.Equal(t, "10.0.0.1", first.Categories[1].Hosts[0].IP)
	assert.Equal(t, "10.0.0.2", first.Categories[1].Hosts[1].IP)

	second := data.Segments[1]
	assert.Equal(t, "192.168.1.0/24", second.Segment)
	require.Len(t, second.Categories, 1)
	assert.Equal(t, scanning.CategoryDatabase, second.Categories[0].Category)
}

func TestActivityRate(t *testing.T) {
	assert.Zero(t, AuditStats{Segments: 0, TotalSegments: 0}.ActivityRate())
	assert.Zero(t, AuditStats{Segments: 5, TotalSegments: 0}.ActivityRate())
	assert.InDelta(t, 50.0, AuditStats{Segments: 3, TotalSegments: 6}.ActivityRate(), 0.001)
	assert.InDelta(t, 100.0, AuditStats{Segments: 4, TotalSegments: 4}.ActivityRate(), 0.001)
}

func TestBuildEmptyInput(t *testing.T) {
	data := Build(nil, 254, 1, time.Second)

	assert.Empty(t, data.Records)
	assert.Empty(t, data.Segments)
	assert.Zero(t, data.Stats.ActiveHosts)
	assert.Zero(t, data.Stats.ActivityRate())
	assert.False(t, data.Stats.Degraded)
}
