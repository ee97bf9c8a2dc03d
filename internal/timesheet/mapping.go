package timesheet

import (
	"fmt"
	"strings"
)

// RequiredFields must be mapped before a table can be processed.
var RequiredFields = []string{FieldDescription, FieldStart, FieldEnd}

// Mapping assigns a source column to each target schema field.
type Mapping map[string]string

// ParseMapping reads a "field=Column,field=Column" string.
func ParseMapping(s string) (Mapping, error) {
	m := make(Mapping)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		field, column, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid mapping pair %q (expected field=column)", pair)
		}
		m[strings.ToLower(strings.TrimSpace(field))] = strings.TrimSpace(column)
	}
	return m, nil
}

// Validate checks that every required field is mapped onto an existing
// source column and that no unknown target field is used.
func (m Mapping) Validate(columns []string) error {
	for field := range m {
		if !containsString(SchemaFields, field) {
			return &FieldError{Field: field, Message: "unknown target field"}
		}
	}
	for _, field := range RequiredFields {
		if strings.TrimSpace(m[field]) == "" {
			return &FieldError{Field: field, Message: "must be mapped"}
		}
	}
	for field, column := range m {
		if column == "" {
			continue
		}
		if !containsString(columns, column) {
			return &FieldError{Field: field, Message: fmt.Sprintf("column %q not found", column)}
		}
	}
	return nil
}

// ApplyMapping builds a canonical table from raw rows. Output columns are the
// mapped schema fields in schema order; time values are normalised to HH:MM
// where possible. Rows shorter than the header read as empty cells.
func ApplyMapping(header []string, rows [][]string, m Mapping) (Table, error) {
	if err := m.Validate(header); err != nil {
		return Table{}, err
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	var columns []string
	for _, field := range SchemaFields {
		if m[field] != "" {
			columns = append(columns, field)
		}
	}

	table := Table{
		Columns: columns,
		Entries: make([]Entry, 0, len(rows)),
	}
	for _, row := range rows {
		fields := make(map[string]string, len(columns))
		for _, field := range columns {
			i := index[m[field]]
			value := ""
			if i < len(row) {
				value = strings.TrimSpace(row[i])
			}
			if field == FieldStart || field == FieldEnd {
				value = NormalizeClock(value)
			}
			fields[field] = value
		}
		table.Entries = append(table.Entries, NewEntry(fields))
	}

	return table, nil
}
