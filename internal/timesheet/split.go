package timesheet

import (
	"fmt"
	"strings"
)

// MeetingKeyword marks descriptions that are never split when meetings are ignored.
const MeetingKeyword = "meeting"

// IsMeeting reports whether a description mentions the meeting keyword.
func IsMeeting(description string) bool {
	return strings.Contains(strings.ToLower(description), MeetingKeyword)
}

// Split breaks a long, verbose entry into consecutive blocks of at most
// maxMinutes each. The entry is returned unchanged when its description has
// fewer than minWords words, when it is a meeting and ignoreMeetings is set,
// or when it already fits in one block.
//
// Children tile the parent's time range exactly; the last one absorbs the
// remainder of both the minutes and the words.
func Split(entry Entry, maxMinutes, minWords int, ignoreMeetings bool) []Entry {
	description := entry.Description()
	words := strings.Fields(description)

	if len(words) < minWords {
		return []Entry{entry}
	}

	if ignoreMeetings && IsMeeting(description) {
		return []Entry{entry}
	}

	duration := ParseDuration(entry.Get(FieldStart), entry.Get(FieldEnd))
	if maxMinutes <= 0 || duration <= maxMinutes {
		return []Entry{entry}
	}

	numChunks := duration / maxMinutes
	if duration%maxMinutes > 0 {
		numChunks++
	}
	wordsPerChunk := max(1, len(words)/numChunks)

	// duration > 0 guarantees the start time parsed
	cursor, _ := ParseClock(entry.Get(FieldStart))

	children := make([]Entry, 0, numChunks)
	for i := 0; i < numChunks; i++ {
		from := min(i*wordsPerChunk, len(words))
		to := min((i+1)*wordsPerChunk, len(words))
		if i == numChunks-1 {
			to = len(words)
		}

		text := strings.Join(words[from:to], " ")
		if numChunks > 1 {
			suffix := fmt.Sprintf("(part %d/%d)", i+1, numChunks)
			if text == "" {
				text = suffix
			} else {
				text += " " + suffix
			}
		}

		minutes := min(maxMinutes, duration-i*maxMinutes)

		child := entry.Clone()
		child.Fields[FieldStart] = FormatClock(cursor)
		child.Fields[FieldEnd] = FormatClock(cursor + minutes)
		child.Fields[FieldDescription] = text
		child.IsSplit = true
		child.OriginalEntry = i == 0

		children = append(children, child)
		cursor += minutes
	}

	return children
}

// SplitTable applies Split to every entry, replacing each parent in place
// with its children.
func SplitTable(table Table, settings Settings) Table {
	out := Table{
		Columns: table.Columns,
		Entries: make([]Entry, 0, len(table.Entries)),
	}
	for _, e := range table.Entries {
		out.Entries = append(out.Entries, Split(e, settings.MaxChunkMinutes, settings.MinWordsSplit, settings.IgnoreMeetings)...)
	}
	return out
}

// StripPartSuffix removes a trailing "(part i/n)" marker added by Split.
func StripPartSuffix(description string) string {
	d := strings.TrimSpace(description)
	if !strings.HasSuffix(d, ")") {
		return d
	}
	idx := strings.LastIndex(d, "(part ")
	if idx < 0 {
		return d
	}
	var i, n int
	if _, err := fmt.Sscanf(d[idx:], "(part %d/%d)", &i, &n); err != nil {
		return d
	}
	return strings.TrimSpace(d[:idx])
}
