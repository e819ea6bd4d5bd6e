package server

import (
	"context"
	"fmt"

	"github.com/grafana/jbehave-language-server/pkg/position"
	"github.com/grafana/jbehave-language-server/pkg/utils"
	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

func (s *Server) Definition(_ context.Context, params *protocol.DefinitionParams) (protocol.Definition, error) {
	response, err := s.findDefinition(params)
	if err != nil {
		// Returning an error too often can lead to the client killing the language server
		// Logging the errors is sufficient
		log.WithError(err).Error("Definition: error finding definition")
		return nil, nil
	}
	return response, nil
}

func (s *Server) findDefinition(params *protocol.DefinitionParams) (protocol.Definition, error) {
	doc, err := s.cache.Get(params.TextDocument.URI)
	if err != nil {
		return nil, utils.LogErrorf("Definition: %s: %w", errorRetrievingDocument, err)
	}

	step := doc.Story.StepAt(position.ToOffset(doc.Item.Text, params.Position))
	if step == nil {
		return nil, fmt.Errorf("no step at line %d", params.Position.Line)
	}

	_, _, cat, _ := s.state()
	resolved := resolveStep(cat, s.scopeOf(doc), *step)
	if len(resolved) == 0 {
		return nil, fmt.Errorf("no step template matches %q", step.Text)
	}

	var response protocol.Definition
	for _, r := range lo.UniqBy(resolved, func(r resolvedStep) string {
		return fmt.Sprintf("%s:%d", r.template.Source, r.template.Line)
	}) {
		if r.template.Source == "" {
			log.Debugf("Definition: %s has no source", r.template.ID)
			continue
		}
		response = append(response, protocol.Location{
			URI:   protocol.URIFromPath(r.template.Source),
			Range: position.NewProtocolRange(r.template.Line, 0, r.template.Line, 0),
		})
	}
	return response, nil
}
