package server

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/grafana/jbehave-language-server/pkg/story"
	"github.com/grafana/jbehave-language-server/pkg/utils"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
)

func (s *Server) Formatting(ctx context.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	doc, err := s.cache.Get(params.TextDocument.URI)
	if err != nil {
		return nil, utils.LogErrorf("Formatting: %s: %w", errorRetrievingDocument, err)
	}

	return getTextEdits(doc.Item.Text, format(doc.Story)), nil
}

// format aligns the columns of every table and trims trailing whitespace.
func format(doc *story.Document) string {
	rows := map[int]string{}
	for _, table := range doc.Tables {
		for line, row := range formatTable(table) {
			rows[line] = row
		}
	}

	lines := strings.Split(doc.Text, "\n")
	for i, line := range lines {
		cr := strings.HasSuffix(line, "\r")
		line = strings.TrimSuffix(line, "\r")
		if row, ok := rows[i]; ok {
			line = row
		}
		line = strings.TrimRight(line, " \t")
		if cr {
			line += "\r"
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// formatTable returns the aligned rows of table by line.
func formatTable(table story.Table) map[int]string {
	var widths []int
	for _, row := range table.Rows {
		for i, cell := range row.Cells {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			if n := utf8.RuneCountInString(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	out := make(map[int]string, len(table.Rows))
	for _, row := range table.Rows {
		var b strings.Builder
		b.WriteString(row.Indent)
		b.WriteString("|")
		for i, cell := range row.Cells {
			b.WriteString(" ")
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell)))
			b.WriteString(" |")
		}
		out[row.Line] = b.String()
	}
	return out
}

func getTextEdits(before, after string) []protocol.TextEdit {
	edits := myers.ComputeEdits(span.URI("any"), before, after)

	var result []protocol.TextEdit
	for _, edit := range edits {
		result = append(result, protocol.TextEdit{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(edit.Span.Start().Line()) - 1, Character: uint32(edit.Span.Start().Column()) - 1},
				End:   protocol.Position{Line: uint32(edit.Span.End().Line()) - 1, Character: uint32(edit.Span.End().Column()) - 1},
			},
			NewText: edit.NewText,
		})
	}

	return result
}
