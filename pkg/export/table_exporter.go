package export

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
)

// TableExporter renders datasets as aligned plain text for terminals.
type TableExporter struct{}

// NewTableExporter constructs a text table exporter.
func NewTableExporter() *TableExporter {
	return &TableExporter{}
}

// Render aligns columns with two spaces of padding and underlines the header.
func (e *TableExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}
	buf := &bytes.Buffer{}
	w := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(data.Headers, "\t"))
	rule := make([]string, len(data.Headers))
	for i, header := range data.Headers {
		rule[i] = strings.Repeat("-", len(header))
	}
	fmt.Fprintln(w, strings.Join(rule, "\t"))

	for i := range data.Rows {
		cells := data.Record(i)
		for j := range cells {
			cells[j] = strings.ReplaceAll(cells[j], "\t", " ")
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("flush table: %w", err)
	}
	return buf.Bytes(), nil
}
