// Package sheet maps tables of string cells, whose first row is a header, to flat records.
package sheet

// Record is one table row keyed by header column name.
type Record map[string]string

// Get returns the value of field, or "" when absent.
func (r Record) Get(field string) string {
	return r[field]
}

// ID returns the value of the identifier column.
func (r Record) ID(header []string) string {
	if len(header) == 0 {
		return ""
	}
	return r[header[0]]
}

// Decode zips each row against header by position.
// Missing trailing cells decode as "" and cells beyond the header are dropped.
func Decode(header []string, rows [][]string) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := make(Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		records = append(records, rec)
	}
	return records
}

// Encode emits the record's values in header order, "" for absent fields.
// Fields not named in the header are not persisted.
func Encode(header []string, rec Record) []string {
	row := make([]string, len(header))
	for i, col := range header {
		row[i] = rec[col]
	}
	return row
}

// Merge returns a copy of rec with fields applied on top.
func Merge(rec Record, fields Record) Record {
	out := make(Record, len(rec)+len(fields))
	for k, v := range rec {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}
