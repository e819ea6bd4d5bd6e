package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/grafana/jbehave-language-server/pkg/catalog"
	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
	"github.com/samber/lo"
)

// StepInfo describes one step template, as listed by jbehave.listSteps.
type StepInfo struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Pattern  string `json:"pattern"`
	Source   string `json:"source,omitempty"`
	Line     int    `json:"line"`
	Priority int    `json:"priority,omitempty"`
}

func (s *Server) ExecuteCommand(_ context.Context, params *protocol.ExecuteCommandParams) (interface{}, error) {
	switch params.Command {
	case CommandReloadSteps:
		return nil, s.reloadSteps()
	case CommandListSteps:
		return s.listSteps(params)
	}

	return nil, fmt.Errorf("unknown command: %s", params.Command)
}

// reloadSteps reads every loaded manifest again and refreshes the
// diagnostics of the open stories.
func (s *Server) reloadSteps() error {
	_, _, cat, _ := s.state()
	err := cat.ReloadAll()
	for _, uri := range s.cache.URIs() {
		s.queueDiagnostics(uri)
	}
	return err
}

// listSteps returns the step templates in scope of the story file given as
// the only argument.
func (s *Server) listSteps(params *protocol.ExecuteCommandParams) ([]StepInfo, error) {
	args := params.Arguments
	if len(args) != 1 {
		return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
	}

	var fileName string
	if err := json.Unmarshal(args[0], &fileName); err != nil {
		return nil, fmt.Errorf("failed to unmarshal file name: %v", err)
	}

	_, _, cat, _ := s.state()
	scope, err := cat.ScopeFor(fileName)
	if err != nil {
		return nil, err
	}

	var steps []StepInfo
	err = cat.WithReadAccess(func() error {
		steps = lo.Map(cat.All(scope), func(t catalog.Template, _ int) StepInfo {
			return StepInfo{
				ID:       string(t.ID),
				Kind:     t.Kind.String(),
				Pattern:  t.Text,
				Source:   t.Source,
				Line:     t.Line,
				Priority: t.Priority,
			}
		})
		return nil
	})
	return steps, err
}
