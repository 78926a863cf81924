package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is a flattened table ready for rendering. Rows are positional
// and line up with Headers; short rows are padded, long rows truncated.
type Dataset struct {
	Headers []string
	Rows    [][]string
}

// normalize returns row adjusted to exactly width cells.
func normalize(row []string, width int) []string {
	if len(row) == width {
		return row
	}
	cells := make([]string, width)
	copy(cells, row)
	return cells
}

// CSVExporter renders a Dataset as RFC 4180 CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render encodes the dataset, headers first.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		if err := w.Write(normalize(row, len(data.Headers))); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
