package batch

import (
	"fmt"
	"reflect"
	"testing"

	"timesheet-ai/internal/timesheet"
)

func makeTable(n int, start int, step int) timesheet.Table {
	table := timesheet.Table{
		Columns: []string{timesheet.FieldProject, timesheet.FieldDescription, timesheet.FieldStart, timesheet.FieldEnd},
	}
	for i := 0; i < n; i++ {
		table.Entries = append(table.Entries, timesheet.NewEntry(map[string]string{
			timesheet.FieldProject:     "Apollo",
			timesheet.FieldDescription: fmt.Sprintf("task %d", i),
			timesheet.FieldStart:       timesheet.FormatClock(start + i*step),
			timesheet.FieldEnd:         timesheet.FormatClock(start + (i+1)*step),
		}))
	}
	return table
}

func TestTimeColumns(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    []string
	}{
		{"schema", []string{"project", "task", "description", "time_start", "time_end"}, []string{"time_start", "time_end"}},
		{"czech headers", []string{"Projekt", "Čas od", "Čas do"}, []string{"Čas od", "Čas do"}},
		{"mixed case", []string{"START", "Finish", "End"}, []string{"START", "End"}},
		{"none", []string{"project", "task"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TimeColumns(tt.columns)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TimeColumns(%v) = %v, want %v", tt.columns, got, tt.want)
			}
		})
	}
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name      string
		rows      int
		size      int
		wantSizes []int
	}{
		{"empty", 0, 10, nil},
		{"exact multiple", 20, 10, []int{10, 10}},
		{"short last chunk", 23, 10, []int{10, 10, 3}},
		{"fewer than one chunk", 4, 10, []int{4}},
		{"default size", 12, 0, []int{10, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := makeTable(tt.rows, 9*60, 10)
			chunks := Partition(table, tt.size)

			if len(chunks) != len(tt.wantSizes) {
				t.Fatalf("Partition() returned %d chunks, want %d", len(chunks), len(tt.wantSizes))
			}

			offset := 0
			for i, c := range chunks {
				if c.Index != i {
					t.Errorf("chunk %d Index = %d", i, c.Index)
				}
				if c.Offset != offset {
					t.Errorf("chunk %d Offset = %d, want %d", i, c.Offset, offset)
				}
				if c.Table.Len() != tt.wantSizes[i] {
					t.Errorf("chunk %d size = %d, want %d", i, c.Table.Len(), tt.wantSizes[i])
				}
				if c.Table.Entries[0].Description() != fmt.Sprintf("task %d", offset) {
					t.Errorf("chunk %d starts with %q", i, c.Table.Entries[0].Description())
				}
				offset += c.Table.Len()
			}
		})
	}
}

func TestPartition_Envelope(t *testing.T) {
	table := makeTable(12, 9*60, 15)
	chunks := Partition(table, 10)

	want := []Envelope{
		{Min: 9 * 60, Max: 9*60 + 150, Valid: true},
		{Min: 9*60 + 150, Max: 9*60 + 180, Valid: true},
	}
	for i, c := range chunks {
		if c.Envelope != want[i] {
			t.Errorf("chunk %d envelope = %+v, want %+v", i, c.Envelope, want[i])
		}
	}
	if chunks[0].Envelope.String() != "09:00-11:30" {
		t.Errorf("Envelope.String() = %q", chunks[0].Envelope.String())
	}
}

func TestEnvelopeOf(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		rows    [][]string
		want    Envelope
	}{
		{
			name:    "normalizes spreadsheet times",
			columns: []string{"time_start", "time_end"},
			rows:    [][]string{{"9:30:00", "10:00"}, {"1:15 PM", "13:45"}},
			want:    Envelope{Min: 9*60 + 30, Max: 13*60 + 45, Valid: true},
		},
		{
			name:    "blank cells skipped",
			columns: []string{"time_start", "time_end"},
			rows:    [][]string{{"08:00", ""}, {"", "08:30"}},
			want:    Envelope{Min: 8 * 60, Max: 8*60 + 30, Valid: true},
		},
		{
			name:    "unreadable value leaves envelope unset",
			columns: []string{"time_start", "time_end"},
			rows:    [][]string{{"08:00", "soon"}},
			want:    Envelope{},
		},
		{
			name:    "no time columns",
			columns: nil,
			rows:    [][]string{{"08:00", "09:00"}},
			want:    Envelope{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := timesheet.Table{Columns: []string{"time_start", "time_end"}}
			for _, r := range tt.rows {
				table.Entries = append(table.Entries, timesheet.NewEntry(map[string]string{
					"time_start": r[0],
					"time_end":   r[1],
				}))
			}
			got := envelopeOf(table, tt.columns)
			if got != tt.want {
				t.Errorf("envelopeOf() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEnvelope_Contains(t *testing.T) {
	env := Envelope{Min: 540, Max: 600, Valid: true}
	for m, want := range map[int]bool{539: false, 540: true, 570: true, 600: true, 601: false} {
		if got := env.Contains(m); got != want {
			t.Errorf("Contains(%d) = %v, want %v", m, got, want)
		}
	}
	if !(Envelope{}).Contains(0) {
		t.Error("unset envelope should contain everything")
	}
}
