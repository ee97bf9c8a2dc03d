package batch

import (
	"strings"

	"timesheet-ai/internal/timesheet"
)

// DefaultChunkSize is the number of rows sent to the model per request.
const DefaultChunkSize = 10

// timeColumnKeywords mark a column as holding clock times when they appear
// anywhere in its lower-cased name ("od"/"do" cover Czech headers such as
// "Čas od" and "Čas do").
var timeColumnKeywords = []string{"od", "start", "do", "end"}

// Envelope is the [Min, Max] clock range observed in a chunk, in minutes
// since midnight. Rows produced for the chunk must stay inside it.
type Envelope struct {
	Min   int  `json:"min"`
	Max   int  `json:"max"`
	Valid bool `json:"valid"`
}

// Contains reports whether minutes lies inside the envelope. An invalid
// envelope contains everything.
func (e Envelope) Contains(minutes int) bool {
	if !e.Valid {
		return true
	}
	return minutes >= e.Min && minutes <= e.Max
}

// String renders the envelope as "HH:MM-HH:MM", or "unknown".
func (e Envelope) String() string {
	if !e.Valid {
		return "unknown"
	}
	return timesheet.FormatClock(e.Min) + "-" + timesheet.FormatClock(e.Max)
}

// Chunk is a contiguous slice of the working table processed in one request.
type Chunk struct {
	// Index is the 0-based position of the chunk in the batch.
	Index int
	// Offset is the table index of the chunk's first row.
	Offset int
	// Table holds the chunk's rows; entries are shared with the source table.
	Table timesheet.Table
	// TimeColumns are the columns the envelope was derived from.
	TimeColumns []string
	// Envelope bounds the times of rows returned for this chunk.
	Envelope Envelope
}

// TimeColumns returns the columns whose names contain a time keyword, in
// column order.
func TimeColumns(columns []string) []string {
	var out []string
	for _, c := range columns {
		name := strings.ToLower(c)
		for _, kw := range timeColumnKeywords {
			if strings.Contains(name, kw) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Partition splits the table into chunks of at most size rows, keeping row
// order. A non-positive size selects DefaultChunkSize.
func Partition(table timesheet.Table, size int) []Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}

	timeColumns := TimeColumns(table.Columns)
	chunks := make([]Chunk, 0, (table.Len()+size-1)/size)
	for offset := 0; offset < table.Len(); offset += size {
		end := min(offset+size, table.Len())
		sub := table.Slice(offset, end)
		chunks = append(chunks, Chunk{
			Index:       len(chunks),
			Offset:      offset,
			Table:       sub,
			TimeColumns: timeColumns,
			Envelope:    envelopeOf(sub, timeColumns),
		})
	}
	return chunks
}

// envelopeOf computes the min and max clock value across the time columns.
// Blank cells are skipped; a single unreadable value leaves the envelope
// unset so the chunk is not filtered at all.
func envelopeOf(table timesheet.Table, timeColumns []string) Envelope {
	env := Envelope{}
	for _, e := range table.Entries {
		for _, c := range timeColumns {
			v := strings.TrimSpace(e.Get(c))
			if v == "" {
				continue
			}
			m, ok := parseTime(v)
			if !ok {
				return Envelope{}
			}
			if !env.Valid {
				env = Envelope{Min: m, Max: m, Valid: true}
				continue
			}
			env.Min = min(env.Min, m)
			env.Max = max(env.Max, m)
		}
	}
	return env
}

func parseTime(v string) (int, bool) {
	return timesheet.ParseClock(timesheet.NormalizeClock(v))
}
