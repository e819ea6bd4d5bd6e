package server

import (
	"context"
	"fmt"
	"time"

	"github.com/grafana/jbehave-language-server/pkg/cache"
	"github.com/grafana/jbehave-language-server/pkg/position"
	"github.com/grafana/jbehave-language-server/pkg/story"
	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
	log "github.com/sirupsen/logrus"
)

const diagnosticsSource = "jbehave"

func (s *Server) queueDiagnostics(uri protocol.DocumentURI) {
	s.diagMutex.Lock()
	defer s.diagMutex.Unlock()
	s.diagQueue[uri] = struct{}{}
}

func (s *Server) diagnosticsLoop() {
	go func() {
		for {
			s.diagMutex.Lock()
			for uri := range s.diagQueue {
				if _, ok := s.diagRunning.Load(uri); ok {
					continue
				}

				s.diagRunning.Store(uri, true)
				go func() {
					defer s.diagRunning.Delete(uri)
					s.publishDiagnostics(uri)
				}()
				delete(s.diagQueue, uri)
			}
			s.diagMutex.Unlock()

			select {
			case <-s.done:
				return
			case <-time.After(1 * time.Second):
			}
		}
	}()
}

func (s *Server) publishDiagnostics(uri protocol.DocumentURI) {
	log.Debug("Publishing diagnostics for ", uri)
	doc, err := s.cache.Get(uri)
	if err != nil {
		// Closed before its turn came.
		log.Debugf("publishDiagnostics: %s: %v", errorRetrievingDocument, err)
		return
	}

	diags := s.getDiagnostics(doc)
	err = s.client.PublishDiagnostics(context.Background(), &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Version:     doc.Item.Version,
		Diagnostics: diags,
	})
	if err != nil {
		log.Errorf("publishDiagnostics: unable to publish diagnostics: %v\n", err)
	}

	log.Debug("Done publishing diagnostics for ", uri)
}

// getDiagnostics reports And steps with no step to take their kind from and,
// when enabled, steps no template of the scope matches.
func (s *Server) getDiagnostics(doc *cache.Document) []protocol.Diagnostic {
	config, _, cat, _ := s.state()

	scope := ""
	if config.EnableUndefinedStepDiagnostics {
		scope = s.scopeOf(doc)
	}

	diags := []protocol.Diagnostic{}
	for _, step := range doc.Story.Steps {
		diag := protocol.Diagnostic{
			Range:  position.RangeFromOffsets(doc.Item.Text, step.Start, step.End),
			Source: diagnosticsSource,
		}

		switch {
		case step.Kind == story.Unresolved:
			diag.Severity = protocol.SeverityError
			diag.Message = fmt.Sprintf("%q step without a preceding %s, %s or %s step",
				step.Prefix, doc.Story.Keywords.Given, doc.Story.Keywords.When, doc.Story.Keywords.Then)
		case scope == "" || step.Text == "":
			continue
		case len(resolveStep(cat, scope, step)) == 0:
			diag.Severity = protocol.SeverityWarning
			diag.Message = fmt.Sprintf("undefined %s step: %s", step.Kind, step.Text)
		default:
			continue
		}
		diags = append(diags, diag)
	}
	return diags
}
