package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Subject", "Chapter", "Title"},
		Rows: [][]string{
			{"Math", "Algebra", "Linear equations"},
			{"Math", "Geometry", "Triangles, squares"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()

	out, err := exporter.Render(sampleDataset())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Subject", "Chapter", "Title"}, records[0])
	assert.Equal(t, []string{"Math", "Geometry", "Triangles, squares"}, records[2])
}

func TestCSVExporterNormalizesRowWidth(t *testing.T) {
	exporter := NewCSVExporter()

	out, err := exporter.Render(Dataset{
		Headers: []string{"Subject", "Chapter"},
		Rows: [][]string{
			{"Math"},
			{"Math", "Algebra", "spilled over"},
		},
	})
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Math", ""}, records[1])
	assert.Equal(t, []string{"Math", "Algebra"}, records[2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()

	_, err := exporter.Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()

	out, err := exporter.Render(sampleDataset(), "Catalog")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterRequiresHeaders(t *testing.T) {
	exporter := NewPDFExporter()

	_, err := exporter.Render(Dataset{}, "Catalog")
	assert.Error(t, err)
}
