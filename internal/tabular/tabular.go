// Package tabular parses delimited text with a header row into rows of
// named fields. There is no quoting or escaping: a delimiter character
// inside a value silently shifts every later column in that row. That
// limitation is acceptable for the quiz export format, where no field
// ever contains a comma.
package tabular

import "strings"

const delimiter = ","

// Row is one parsed data row mapping field names to raw values. Fields
// missing from a short row are absent, not empty.
type Row struct {
	fields map[string]string
}

// Field returns the raw value for the named column and whether the row
// carried that column at all.
func (r Row) Field(name string) (string, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Len returns the number of fields present in the row.
func (r Row) Len() int {
	return len(r.fields)
}

// Parse splits raw delimited text into data rows keyed by the header
// line. Every header and every value is whitespace-trimmed. A data row
// with fewer fields than headers yields absent trailing fields; extra
// fields beyond the header are dropped. Blank leading and trailing
// lines are excluded by trimming the whole text first.
func Parse(text string) []Row {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	headers := splitTrim(lines[0])

	rows := make([]Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := splitTrim(line)
		fields := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(values) {
				fields[h] = values[i]
			}
		}
		rows = append(rows, Row{fields: fields})
	}
	return rows
}

func splitTrim(line string) []string {
	parts := strings.Split(line, delimiter)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
