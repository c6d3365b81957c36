package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Course", "Days", "Time"},
		Rows: []map[string]string{
			{"Course": "CS101", "Days": "Sunday/Wednesday", "Time": "08:30-10:00"},
			{"Course": "CS102", "Days": "Monday/Thursday", "Time": "10:00-11:30"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	assert.Equal(t, "Course,Days,Time", lines[0])
	assert.Equal(t, "CS101,Sunday/Wednesday,08:30-10:00", lines[1])
}

func TestTableExporterAlignsColumns(t *testing.T) {
	out, err := NewTableExporter().Render(sampleDataset())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "------"))
	assert.Equal(t, strings.Index(lines[0], "Days"), strings.Index(lines[2], "Sunday"))
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Fall 2024")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset(), "")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Schedule")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"CS102", "Monday/Thursday", "10:00-11:30"}, rows[2])
}

func TestExportersRejectEmptyHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewTableExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{}, "")
	assert.Error(t, err)
	_, err = NewXLSXExporter().Render(Dataset{}, "")
	assert.Error(t, err)
}

func TestCSVExporterExcelVariant(t *testing.T) {
	exporter := &CSVExporter{Comma: ';', BOM: true}
	out, err := exporter.Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, utf8BOM))
	assert.Contains(t, string(out), "CS101;Sunday/Wednesday;08:30-10:00")
}

func TestDatasetRecordFillsMissingCells(t *testing.T) {
	data := Dataset{Headers: []string{"Time", "Sunday/Wednesday"}, Rows: []map[string]string{{"Time": "08:30"}}}
	assert.Equal(t, []string{"08:30", ""}, data.Record(0))
}
