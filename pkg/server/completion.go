package server

import (
	"context"
	"fmt"
	"sort"

	"github.com/grafana/jbehave-language-server/pkg/catalog"
	"github.com/grafana/jbehave-language-server/pkg/completion"
	"github.com/grafana/jbehave-language-server/pkg/position"
	"github.com/grafana/jbehave-language-server/pkg/utils"
	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
)

func (s *Server) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	doc, err := s.cache.Get(params.TextDocument.URI)
	if err != nil {
		return nil, utils.LogErrorf("Completion: %s: %w", errorRetrievingDocument, err)
	}

	_, _, cat, completer := s.state()
	offset := position.ToOffset(doc.Item.Text, params.Position)
	scope := s.scopeOf(doc)

	sink := &completionSink{seen: map[candidateKey]bool{}}
	completer.Fill(ctx, completion.Request{
		Document: doc.Story,
		Offset:   offset,
		Scope:    scope,
	}, sink)

	priorities := map[catalog.ID]int{}
	if scope != "" {
		_ = cat.WithReadAccess(func() error {
			for _, t := range cat.All(scope) {
				if t.Priority > priorities[t.ID] {
					priorities[t.ID] = t.Priority
				}
			}
			return nil
		})
	}

	return &protocol.CompletionList{IsIncomplete: false, Items: sink.items(doc.Item.Text, offset, priorities)}, nil
}

type candidateKey struct {
	id     catalog.ID
	insert string
}

// completionSink keeps the first of every candidate with the same
// declaration and insert text.
type completionSink struct {
	seen       map[candidateKey]bool
	candidates []completion.Candidate
}

func (c *completionSink) Accept(candidate completion.Candidate) {
	key := candidateKey{candidate.ID, candidate.Insert}
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.candidates = append(c.candidates, candidate)
}

// items turns the candidates into completion items replacing the typed
// prefix. Keywords come first, then steps by descending priority and label.
func (c *completionSink) items(text string, offset int, priorities map[catalog.ID]int) []protocol.CompletionItem {
	candidates := append([]completion.Candidate(nil), c.candidates...)
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Keyword != b.Keyword {
			return a.Keyword
		}
		if pa, pb := priorities[a.ID], priorities[b.ID]; pa != pb {
			return pa > pb
		}
		return a.Display < b.Display
	})

	items := make([]protocol.CompletionItem, 0, len(candidates))
	for i, candidate := range candidates {
		item := protocol.CompletionItem{
			Label:    candidate.Display,
			SortText: fmt.Sprintf("%05d", i),
			// Clients filter on the typed prefix, which spans the whole step.
			FilterText:       candidate.Insert,
			InsertTextFormat: protocol.PlainTextTextFormat,
			TextEdit: &protocol.TextEdit{
				Range:   position.RangeFromOffsets(text, offset-len(candidate.Prefix), offset),
				NewText: candidate.Insert,
			},
		}
		if candidate.Keyword {
			item.Kind = protocol.KeywordCompletion
		} else {
			item.Kind = protocol.TextCompletion
			item.Detail = candidate.Template
		}
		items = append(items, item)
	}
	return items
}
