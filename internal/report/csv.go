package report

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/segaudit/segmenta/internal/results"
)

// utf8BOM lets spreadsheet tools detect the encoding of exported CSVs.
const utf8BOM = "﻿"

var csvHeader = []string{"Segment", "IP", "Port", "Service", "Category", "Degraded"}

// WriteCSV renders one row per open service, prefixed with a UTF-8 BOM.
func WriteCSV(w io.Writer, data *results.CanonicalData) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range data.Records {
		for _, s := range r.Services {
			row := []string{
				r.Segment,
				r.IP,
				strconv.Itoa(s.Port),
				s.Service,
				string(s.Category),
				strconv.FormatBool(r.Degraded),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the CSV report to path.
func WriteCSVFile(path string, data *results.CanonicalData) error {
	return writeFile(path, FormatCSV, func(f *os.File) error {
		return WriteCSV(f, data)
	})
}
