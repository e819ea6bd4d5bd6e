package server

import (
	"context"
	"strings"

	"github.com/grafana/jbehave-language-server/pkg/position"
	"github.com/grafana/jbehave-language-server/pkg/story"
	"github.com/grafana/jbehave-language-server/pkg/utils"
	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
)

func (s *Server) DocumentSymbol(_ context.Context, params *protocol.DocumentSymbolParams) ([]interface{}, error) {
	doc, err := s.cache.Get(params.TextDocument.URI)
	if err != nil {
		return nil, utils.LogErrorf("DocumentSymbol: %s: %w", errorRetrievingDocument, err)
	}

	symbols := buildDocumentSymbols(doc.Story)

	result := make([]interface{}, len(symbols))
	for i, symbol := range symbols {
		result[i] = symbol
	}

	return result, nil
}

// buildDocumentSymbols lists the scenarios of a story with their steps as
// children. Steps before the first scenario are listed at the top level.
func buildDocumentSymbols(doc *story.Document) []protocol.DocumentSymbol {
	var symbols []protocol.DocumentSymbol
	scenario := -1

	for _, step := range doc.Steps {
		for scenario+1 < len(doc.Scenarios) && doc.Scenarios[scenario+1].Start < step.Start {
			scenario++
			symbols = append(symbols, scenarioSymbol(doc, doc.Scenarios[scenario]))
		}

		symbol := stepSymbol(doc, step)
		if scenario < 0 {
			symbols = append(symbols, symbol)
			continue
		}

		parent := &symbols[len(symbols)-1]
		parent.Children = append(parent.Children, symbol)
		parent.Range.End = symbol.Range.End
	}
	for scenario+1 < len(doc.Scenarios) {
		scenario++
		symbols = append(symbols, scenarioSymbol(doc, doc.Scenarios[scenario]))
	}

	return symbols
}

func scenarioSymbol(doc *story.Document, scenario story.Scenario) protocol.DocumentSymbol {
	rang := position.RangeFromOffsets(doc.Text, scenario.Start, scenario.End)
	name := scenario.Title
	if name == "" {
		name = strings.TrimSuffix(doc.Keywords.Scenario, ":")
	}
	return protocol.DocumentSymbol{
		Name:           name,
		Kind:           protocol.Namespace,
		Range:          rang,
		SelectionRange: rang,
	}
}

func stepSymbol(doc *story.Document, step story.Step) protocol.DocumentSymbol {
	rang := position.RangeFromOffsets(doc.Text, step.Start, step.End)
	name, _, _ := strings.Cut(step.Text, "\n")
	return protocol.DocumentSymbol{
		Name:           step.Prefix + " " + name,
		Detail:         step.Kind.String(),
		Kind:           protocol.Method,
		Range:          rang,
		SelectionRange: position.RangeFromOffsets(doc.Text, step.Start, step.Start+len(step.Prefix)),
	}
}
