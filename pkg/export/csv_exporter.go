package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is a table of cells in header order. Highlight marks rows (by
// position) that renderers with styling should emphasise.
type Dataset struct {
	Headers   []string
	Rows      [][]string
	Highlight []bool
}

func (d Dataset) highlighted(i int) bool {
	return i < len(d.Highlight) && d.Highlight[i]
}

// validate checks there is a header and every row has one cell per header.
func (d Dataset) validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i+1, len(row), len(d.Headers))
		}
	}
	return nil
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.WriteAll(append([][]string{data.Headers}, data.Rows...)); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}
