package export

import "errors"

var errNoHeaders = errors.New("dataset has no headers")

// Dataset is tabular export content. Rows are keyed by header; missing keys render empty.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Record returns row i in header order.
func (d Dataset) Record(i int) []string {
	record := make([]string, len(d.Headers))
	row := d.Rows[i]
	for j, header := range d.Headers {
		record[j] = row[header]
	}
	return record
}

func (d Dataset) validate() error {
	if len(d.Headers) == 0 {
		return errNoHeaders
	}
	return nil
}
