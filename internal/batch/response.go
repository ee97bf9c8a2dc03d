package batch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"timesheet-ai/internal/tabular"
	"timesheet-ai/internal/timesheet"
)

// ErrMalformedResponse is returned when a model reply is not a usable table.
var ErrMalformedResponse = errors.New("malformed model response")

var markdown = goldmark.New()

// ExtractCSV returns the CSV payload of a model reply. Replies usually wrap
// the table in a fenced code block; the first fenced block is preferred,
// then any indented code block, then the whole reply.
func ExtractCSV(reply string) string {
	source := []byte(reply)
	doc := markdown.Parser().Parse(text.NewReader(source))

	var block string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.FencedCodeBlock:
			block = linesOf(node, source)
			return ast.WalkStop, nil
		case *ast.CodeBlock:
			if block == "" {
				block = linesOf(node, source)
			}
		}
		return ast.WalkContinue, nil
	})

	if strings.TrimSpace(block) != "" {
		return block
	}
	return strings.TrimSpace(reply)
}

func linesOf(n ast.Node, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(source))
	}
	return b.String()
}

// ParseResponse decodes a model reply into a table. Every column of the
// input must be present in the reply; extra columns are dropped and the
// result carries the input column order.
func ParseResponse(reply string, columns []string) (timesheet.Table, error) {
	payload := ExtractCSV(reply)
	if payload == "" {
		return timesheet.Table{}, fmt.Errorf("%w: empty reply", ErrMalformedResponse)
	}

	table, err := tabular.DecodeTable(strings.NewReader(payload))
	if err != nil {
		return timesheet.Table{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	for _, c := range columns {
		if !table.HasColumn(strings.ToLower(c)) {
			return timesheet.Table{}, fmt.Errorf("%w: missing column %q", ErrMalformedResponse, c)
		}
	}

	// DecodeTable lower-cases the header; map values back onto the input
	// column names.
	out := timesheet.Table{
		Columns: columns,
		Entries: make([]timesheet.Entry, 0, table.Len()),
	}
	for _, e := range table.Entries {
		fields := make(map[string]string, len(columns))
		for _, c := range columns {
			fields[c] = e.Get(strings.ToLower(c))
		}
		ne := timesheet.NewEntry(fields)
		ne.IsGenerated = e.IsGenerated
		ne.IsSplit = e.IsSplit
		ne.OriginalEntry = e.OriginalEntry
		out.Entries = append(out.Entries, ne)
	}

	return out, nil
}
