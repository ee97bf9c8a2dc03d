package timesheet

import (
	"fmt"
	"sort"
)

// Gap is an interval of unaccounted time inside the work day.
type Gap struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Minutes int    `json:"minutes"`
	// Before is the index of the entry the gap precedes, or the table
	// length for a gap after the last entry.
	Before int `json:"before"`
}

type interval struct {
	index      int
	start, end int
}

// FindGaps lists the unaccounted intervals between entries, and before the
// first and after the last one, clipped to [workStart, workEnd]. Entries
// whose times cannot be parsed are ignored. Without valid work-day bounds the
// first start and last end recorded are used instead.
func FindGaps(table Table, workStart, workEnd string) []Gap {
	intervals := make([]interval, 0, len(table.Entries))
	for i, e := range table.Entries {
		s, ok := ParseClock(e.Get(FieldStart))
		if !ok {
			continue
		}
		end, ok := ParseClock(e.Get(FieldEnd))
		if !ok || end <= s {
			continue
		}
		intervals = append(intervals, interval{index: i, start: s, end: end})
	}
	if len(intervals) == 0 {
		return nil
	}

	sort.SliceStable(intervals, func(a, b int) bool {
		return intervals[a].start < intervals[b].start
	})

	dayStart, okStart := ParseClock(workStart)
	dayEnd, okEnd := ParseClock(workEnd)
	if !okStart || !okEnd || dayEnd <= dayStart {
		dayStart = intervals[0].start
		dayEnd = intervals[0].end
		for _, iv := range intervals {
			dayEnd = max(dayEnd, iv.end)
		}
	}

	var gaps []Gap
	cursor := dayStart
	for _, iv := range intervals {
		gapEnd := min(iv.start, dayEnd)
		if gapEnd > cursor {
			gaps = append(gaps, Gap{
				Start:   FormatClock(cursor),
				End:     FormatClock(gapEnd),
				Minutes: gapEnd - cursor,
				Before:  iv.index,
			})
		}
		cursor = max(cursor, iv.end)
	}
	if dayEnd > cursor {
		gaps = append(gaps, Gap{
			Start:   FormatClock(cursor),
			End:     FormatClock(dayEnd),
			Minutes: dayEnd - cursor,
			Before:  len(table.Entries),
		})
	}

	return gaps
}

var (
	shortActivities  = []string{"Email communication", "Quick consultation", "Administration"}
	mediumActivities = []string{"Task planning", "Documentation", "Code review"}
	longActivities   = []string{"Team sync", "Requirements analysis", "Presentation preparation"}
)

// SuggestActivity picks a filler description for a gap of the given length.
// The n-th gap of a run rotates through the candidates so results stay
// reproducible.
func SuggestActivity(minutes, n int) string {
	candidates := longActivities
	switch {
	case minutes <= 15:
		candidates = shortActivities
	case minutes <= 30:
		candidates = mediumActivities
	}
	if n < 0 {
		n = -n
	}
	return fmt.Sprintf("%s (%d min)", candidates[n%len(candidates)], minutes)
}

// FillGaps inserts a generated entry for every gap found inside the work
// day. Generated entries inherit project and task from the entry they precede
// (or the last entry for a trailing gap).
func FillGaps(table Table, settings Settings) Table {
	gaps := FindGaps(table, settings.WorkStart, settings.WorkEnd)
	if len(gaps) == 0 {
		return table
	}

	byPosition := make(map[int][]Gap)
	for _, g := range gaps {
		byPosition[g.Before] = append(byPosition[g.Before], g)
	}

	out := Table{
		Columns: table.Columns,
		Entries: make([]Entry, 0, len(table.Entries)+len(gaps)),
	}
	n := 0
	emit := func(pos int) {
		for _, g := range byPosition[pos] {
			var neighbour Entry
			if pos < len(table.Entries) {
				neighbour = table.Entries[pos]
			} else if len(table.Entries) > 0 {
				neighbour = table.Entries[len(table.Entries)-1]
			}
			out.Entries = append(out.Entries, generatedEntry(table.Columns, neighbour, g, n))
			n++
		}
	}
	for i, e := range table.Entries {
		emit(i)
		out.Entries = append(out.Entries, e)
	}
	emit(len(table.Entries))

	return out
}

func generatedEntry(columns []string, neighbour Entry, g Gap, n int) Entry {
	fields := make(map[string]string, len(columns))
	for _, c := range columns {
		fields[c] = ""
	}
	fields[FieldProject] = neighbour.Get(FieldProject)
	fields[FieldTask] = neighbour.Get(FieldTask)
	fields[FieldDescription] = SuggestActivity(g.Minutes, n)
	fields[FieldStart] = g.Start
	fields[FieldEnd] = g.End
	for k := range fields {
		if !containsString(columns, k) {
			delete(fields, k)
		}
	}
	return Entry{Fields: fields, IsGenerated: true}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
