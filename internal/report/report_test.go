package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segaudit/segmenta/internal/results"
	"github.com/segaudit/segmenta/internal/scanning"
)

func testData(t *testing.T) *results.CanonicalData {
	t.Helper()
	records := []results.ScanRecord{
		{
			IP:      "10.0.0.5",
			Segment: "10.0.0.0/24",
			Services: []results.ServiceRecord{
				{Port: 22, Service: "SSH", Category: scanning.CategoryAdministration},
				{Port: 443, Service: "HTTPS", Category: scanning.CategoryWebServices},
			},
		},
		{
			IP:       "192.168.1.10",
			Segment:  "192.168.1.0/24",
			Degraded: true,
			Services: []results.ServiceRecord{
				{Port: 3306, Service: "MySQL", Category: scanning.CategoryDatabase},
			},
		},
	}
	return results.Build(records, 508, 4, 90*time.Second)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testData(t)))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "﻿"), "CSV starts with a UTF-8 BOM")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4, "header plus one row per service")
	assert.Equal(t, "﻿Segment,IP,Port,Service,Category,Degraded", lines[0])
	assert.Equal(t, "10.0.0.0/24,10.0.0.5,22,SSH,ADMINISTRATION,false", lines[1])
	assert.Equal(t, "192.168.1.0/24,192.168.1.10,3306,MySQL,DATABASE,true", lines[3])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, testData(t)))

	var report map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))

	stats := report["stats"].(map[string]any)
	assert.Equal(t, float64(2), stats["active_hosts"])
	assert.Equal(t, float64(508), stats["total_scanned"])
	assert.Equal(t, float64(3), stats["open_services"])
	assert.Equal(t, true, stats["degraded"])
	assert.InDelta(t, 50.0, stats["activity_rate_percent"].(float64), 0.001)

	hosts := report["hosts"].([]any)
	require.Len(t, hosts, 2)
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, testData(t)))

	out := buf.String()
	assert.Contains(t, out, "# Network Segmentation Audit")
	assert.Contains(t, out, "## Segment 10.0.0.0/24")
	assert.Contains(t, out, "## Segment 192.168.1.0/24")
	assert.Contains(t, out, "| 10.0.0.5 | 22 | SSH |")
	// Degraded hosts are starred and the note is present.
	assert.Contains(t, out, "| 192.168.1.10 * | 3306 | MySQL |")
	assert.Contains(t, out, "degraded scan phase")
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, testData(t)))

	out := buf.String()
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "chart.js")
	assert.Contains(t, out, "Segment 10.0.0.0/24")
	assert.Contains(t, out, "MySQL")
	assert.Contains(t, out, "degraded scan phase")
}

func TestRenderConsole(t *testing.T) {
	t.Run("detailed", func(t *testing.T) {
		var buf bytes.Buffer
		RenderConsole(&buf, testData(t), false)

		out := buf.String()
		assert.Contains(t, out, "Active hosts:      2")
		assert.Contains(t, out, "10.0.0.0/24")
		assert.Contains(t, out, "10.0.0.5")
		assert.Contains(t, out, "192.168.1.10 *")
		assert.Contains(t, out, "degraded scan phase")
	})

	t.Run("simple omits host table", func(t *testing.T) {
		var buf bytes.Buffer
		RenderConsole(&buf, testData(t), true)

		out := buf.String()
		assert.Contains(t, out, "10.0.0.0/24")
		assert.NotContains(t, out, "10.0.0.5")
	})

	t.Run("empty results", func(t *testing.T) {
		var buf bytes.Buffer
		RenderConsole(&buf, results.Build(nil, 0, 0, 0), false)
		assert.Contains(t, buf.String(), "No active hosts")
	})
}

func TestExporter(t *testing.T) {
	t.Run("all formats plus dashboard", func(t *testing.T) {
		dir := t.TempDir()
		paths, err := NewExporter(dir).Export(testData(t), FormatAll, true)
		require.NoError(t, err)
		require.Len(t, paths, 4)

		exts := make(map[string]bool)
		for _, p := range paths {
			exts[filepath.Ext(p)] = true
			_, err := os.Stat(p)
			assert.NoError(t, err)
		}
		assert.True(t, exts[".csv"] && exts[".json"] && exts[".md"] && exts[".html"])
	})

	t.Run("single format without dashboard", func(t *testing.T) {
		dir := t.TempDir()
		paths, err := NewExporter(dir).Export(testData(t), FormatJSON, false)
		require.NoError(t, err)
		require.Len(t, paths, 1)
		assert.Equal(t, ".json", filepath.Ext(paths[0]))
	})

	t.Run("no format no dashboard writes nothing", func(t *testing.T) {
		dir := t.TempDir()
		paths, err := NewExporter(dir).Export(testData(t), "", false)
		require.NoError(t, err)
		assert.Empty(t, paths)
	})

	t.Run("unknown format fails", func(t *testing.T) {
		_, err := NewExporter(t.TempDir()).Export(testData(t), "xml", false)
		assert.Error(t, err)
	})

	t.Run("creates missing output directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "reports")
		paths, err := NewExporter(dir).Export(testData(t), FormatCSV, false)
		require.NoError(t, err)
		require.Len(t, paths, 1)
	})
}
