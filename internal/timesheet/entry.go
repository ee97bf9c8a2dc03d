package timesheet

// Canonical field names of the target schema.
const (
	FieldProject     = "project"
	FieldTask        = "task"
	FieldDescription = "description"
	FieldStart       = "time_start"
	FieldEnd         = "time_end"
)

// Flag columns appended to processed output.
const (
	FlagGenerated = "is_generated"
	FlagSplit     = "is_split"
	FlagOriginal  = "original_entry"
)

// SchemaFields lists the target schema in output order.
var SchemaFields = []string{FieldProject, FieldTask, FieldDescription, FieldStart, FieldEnd}

// FlagColumns lists the boolean flag columns in output order.
var FlagColumns = []string{FlagGenerated, FlagSplit, FlagOriginal}

// Entry is one time-tracked work record.
// Fields holds every column value keyed by column name; the flags are kept
// outside of Fields so they never collide with source columns.
type Entry struct {
	Fields        map[string]string `json:"fields"`
	IsSplit       bool              `json:"is_split"`
	IsGenerated   bool              `json:"is_generated"`
	OriginalEntry bool              `json:"original_entry"`
}

// NewEntry creates an entry from field values.
func NewEntry(fields map[string]string) Entry {
	if fields == nil {
		fields = make(map[string]string)
	}
	return Entry{Fields: fields}
}

// Get returns the value of a field or "" when it is absent.
func (e Entry) Get(field string) string {
	if e.Fields == nil {
		return ""
	}
	return e.Fields[field]
}

// Description returns the description field.
func (e Entry) Description() string {
	return e.Get(FieldDescription)
}

// Minutes returns the entry duration in minutes (0 when unparseable).
func (e Entry) Minutes() int {
	return ParseDuration(e.Get(FieldStart), e.Get(FieldEnd))
}

// Clone returns a copy of the entry that shares no state with the original.
func (e Entry) Clone() Entry {
	fields := make(map[string]string, len(e.Fields))
	for k, v := range e.Fields {
		fields[k] = v
	}
	e.Fields = fields
	return e
}

// Table is an ordered sequence of entries with an ordered column set.
type Table struct {
	Columns []string `json:"columns"`
	Entries []Entry  `json:"entries"`
}

// Len returns the number of entries.
func (t Table) Len() int {
	return len(t.Entries)
}

// HasColumn reports whether the table carries the named column.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Slice returns the sub-table of entries [from, to).
// Entries are shared with the receiver.
func (t Table) Slice(from, to int) Table {
	return Table{
		Columns: t.Columns,
		Entries: t.Entries[from:to],
	}
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	columns := make([]string, len(t.Columns))
	copy(columns, t.Columns)
	entries := make([]Entry, len(t.Entries))
	for i, e := range t.Entries {
		entries[i] = e.Clone()
	}
	return Table{Columns: columns, Entries: entries}
}

// TotalMinutes sums the durations of all entries.
func (t Table) TotalMinutes() int {
	total := 0
	for _, e := range t.Entries {
		if m := e.Minutes(); m > 0 {
			total += m
		}
	}
	return total
}
