// Package report renders the canonical audit model for humans and
// machines: console tables, CSV, JSON, Markdown and an HTML dashboard.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/segaudit/segmenta/internal/errors"
	"github.com/segaudit/segmenta/internal/logging"
	"github.com/segaudit/segmenta/internal/results"
)

// Export formats accepted on the command line.
const (
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatAll      = "all"
)

// Exporter writes report files into a target directory, one file per
// format, named with the run timestamp.
type Exporter struct {
	outputDir string
	now       func() time.Time
	log       *logging.Logger
}

// NewExporter creates an exporter writing into outputDir.
func NewExporter(outputDir string) *Exporter {
	if outputDir == "" {
		outputDir = "."
	}
	return &Exporter{
		outputDir: outputDir,
		now:       time.Now,
		log:       logging.Default().WithComponent("report"),
	}
}

// Export writes the requested format ("csv", "json", "markdown" or
// "all") and optionally the HTML dashboard. It returns the paths of
// every file written. An empty format with dashboard off is a no-op.
func (e *Exporter) Export(data *results.CanonicalData, format string, dashboard bool) ([]string, error) {
	if err := os.MkdirAll(e.outputDir, 0750); err != nil {
		return nil, errors.WrapExportError("cannot create output directory", format, err)
	}

	stamp := e.now().Format("20060102_150405")
	var written []string

	type job struct {
		format string
		write  func(path string, data *results.CanonicalData) error
		ext    string
	}
	var jobs []job
	switch format {
	case FormatCSV:
		jobs = append(jobs, job{FormatCSV, WriteCSVFile, "csv"})
	case FormatJSON:
		jobs = append(jobs, job{FormatJSON, WriteJSONFile, "json"})
	case FormatMarkdown:
		jobs = append(jobs, job{FormatMarkdown, WriteMarkdownFile, "md"})
	case FormatAll:
		jobs = append(jobs,
			job{FormatCSV, WriteCSVFile, "csv"},
			job{FormatJSON, WriteJSONFile, "json"},
			job{FormatMarkdown, WriteMarkdownFile, "md"})
	case "":
	default:
		return nil, errors.WrapExportError("unsupported export format", format, nil)
	}

	for _, j := range jobs {
		path := filepath.Join(e.outputDir, fmt.Sprintf("segmenta_report_%s.%s", stamp, j.ext))
		if err := j.write(path, data); err != nil {
			return written, err
		}
		e.log.Info("report written", "format", j.format, "path", path)
		written = append(written, path)
	}

	if dashboard {
		path := filepath.Join(e.outputDir, fmt.Sprintf("segmenta_dashboard_%s.html", stamp))
		if err := WriteHTMLFile(path, data); err != nil {
			return written, err
		}
		e.log.Info("dashboard written", "path", path)
		written = append(written, path)
	}
	return written, nil
}

// writeFile is the shared create-render-close step of file exporters.
func writeFile(path, format string, render func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapExportError("cannot create report file", format, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return errors.WrapExportError("cannot write report", format, err)
	}
	return f.Close()
}
