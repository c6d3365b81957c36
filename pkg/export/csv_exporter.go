package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVExporter writes a Dataset as RFC 4180 CSV.
type CSVExporter struct {
	// Comma overrides the field separator, for spreadsheet locales that expect ';'.
	Comma rune
	// BOM prefixes the output so Excel detects UTF-8 instructor names.
	BOM bool
}

// NewCSVExporter returns a comma separated exporter without BOM.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{Comma: ','}
}

// Render encodes headers followed by every row.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	buf := &bytes.Buffer{}
	if e.BOM {
		buf.Write(utf8BOM)
	}
	w := csv.NewWriter(buf)
	if e.Comma != 0 {
		w.Comma = e.Comma
	}
	records := make([][]string, 0, len(data.Rows)+1)
	records = append(records, data.Headers)
	for i := range data.Rows {
		records = append(records, data.Record(i))
	}
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	return buf.Bytes(), nil
}
