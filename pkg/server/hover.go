package server

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/grafana/jbehave-language-server/pkg/position"
	"github.com/grafana/jbehave-language-server/pkg/utils"
	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
	log "github.com/sirupsen/logrus"
)

func (s *Server) Hover(_ context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, err := s.cache.Get(params.TextDocument.URI)
	if err != nil {
		return nil, utils.LogErrorf("Hover: %s: %w", errorRetrievingDocument, err)
	}

	step := doc.Story.StepAt(position.ToOffset(doc.Item.Text, params.Position))
	if step == nil {
		log.Debug("Hover: no step at position")
		return nil, nil
	}

	_, _, cat, _ := s.state()
	scope := s.scopeOf(doc)
	resolved := resolveStep(cat, scope, *step)
	if len(resolved) == 0 {
		// Hover triggers often. Undefined steps are reported by diagnostics
		return nil, nil
	}

	// Other patterns of the same declaration.
	var aliases []string
	_ = cat.WithReadAccess(func() error {
		for _, t := range cat.Lookup(scope, resolved[0].template.ID) {
			if t.Text != resolved[0].template.Text {
				aliases = append(aliases, t.Text)
			}
		}
		return nil
	})

	return &protocol.Hover{
		Range: position.RangeFromOffsets(doc.Item.Text, step.Start, step.End),
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: hoverMarkdown(step.Prefix, resolved[0], aliases),
		},
	}, nil
}

func hoverMarkdown(prefix string, r resolvedStep, aliases []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "`%s %s`", prefix, r.template.Text)

	if r.template.Doc != "" {
		converter := md.NewConverter("", true, nil)
		description, err := converter.ConvertString(r.template.Doc)
		if err != nil {
			log.Warnf("Hover: unable to convert the documentation of %s: %v", r.template.ID, err)
			description = r.template.Doc
		}
		b.WriteString("\n\n")
		b.WriteString(description)
	}

	if names := r.template.Pattern.Placeholders(); len(names) > 0 {
		b.WriteString("\n")
		for i, name := range names {
			fmt.Fprintf(&b, "\n* `%s`: %s", name, r.values[i])
		}
	}

	if len(aliases) > 0 {
		b.WriteString("\n\nAliases:")
		for _, alias := range aliases {
			fmt.Fprintf(&b, "\n* `%s %s`", prefix, alias)
		}
	}

	if r.template.Source != "" {
		fmt.Fprintf(&b, "\n\n%s:%d", filepath.Base(r.template.Source), r.template.Line+1)
	}
	return b.String()
}
