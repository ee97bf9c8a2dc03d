package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"timesheet-ai/internal/timesheet"
)

// WriteTable writes the table as CSV with a header row. When withFlags is
// set the is_generated, is_split and original_entry columns are appended.
func WriteTable(w io.Writer, table timesheet.Table, withFlags bool) error {
	cw := csv.NewWriter(w)

	header := append([]string{}, table.Columns...)
	if withFlags {
		header = append(header, timesheet.FlagColumns...)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, e := range table.Entries {
		record := make([]string, 0, len(header))
		for _, c := range table.Columns {
			record = append(record, e.Get(c))
		}
		if withFlags {
			record = append(record,
				strconv.FormatBool(e.IsGenerated),
				strconv.FormatBool(e.IsSplit),
				strconv.FormatBool(e.OriginalEntry),
			)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// FormatTable renders the table as CSV text.
func FormatTable(table timesheet.Table, withFlags bool) (string, error) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, table, withFlags); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// DecodeTable parses CSV text with a header row into a table. Header names
// are lower-cased; flag columns are read into the entry flags instead of
// fields. Rows with a different number of cells than the header are
// rejected.
func DecodeTable(r io.Reader) (timesheet.Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return timesheet.Table{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(records) == 0 {
		return timesheet.Table{}, ErrEmpty
	}

	header := make([]string, len(records[0]))
	flagIndex := make(map[string]int)
	var columns []string
	for i, h := range records[0] {
		name := strings.ToLower(strings.TrimSpace(h))
		header[i] = name
		if isFlag(name) {
			flagIndex[name] = i
			continue
		}
		columns = append(columns, name)
	}

	table := timesheet.Table{
		Columns: columns,
		Entries: make([]timesheet.Entry, 0, len(records)-1),
	}
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		fields := make(map[string]string, len(columns))
		for i, name := range header {
			if isFlag(name) {
				continue
			}
			fields[name] = strings.TrimSpace(rec[i])
		}
		e := timesheet.NewEntry(fields)
		e.IsGenerated = parseFlag(rec, flagIndex, timesheet.FlagGenerated)
		e.IsSplit = parseFlag(rec, flagIndex, timesheet.FlagSplit)
		e.OriginalEntry = parseFlag(rec, flagIndex, timesheet.FlagOriginal)
		table.Entries = append(table.Entries, e)
	}

	return table, nil
}

func isFlag(name string) bool {
	for _, f := range timesheet.FlagColumns {
		if f == name {
			return true
		}
	}
	return false
}

func parseFlag(rec []string, index map[string]int, name string) bool {
	i, ok := index[name]
	if !ok || i >= len(rec) {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(rec[i])) {
	case "true", "1", "yes", "y", "t":
		return true
	}
	return false
}
