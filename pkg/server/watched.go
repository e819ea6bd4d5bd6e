package server

import (
	"context"
	"path/filepath"

	"github.com/grafana/jbehave-language-server/pkg/catalog"
	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
	log "github.com/sirupsen/logrus"
)

// DidChangeWatchedFiles reloads the scopes whose manifest the client saw
// change. It complements the server side watcher for clients that watch
// files themselves.
func (s *Server) DidChangeWatchedFiles(_ context.Context, params *protocol.DidChangeWatchedFilesParams) error {
	_, _, cat, _ := s.state()

	reloaded := map[string]bool{}
	for _, change := range params.Changes {
		path := change.URI.SpanURI().Filename()
		scope := filepath.Dir(path)
		if !catalog.IsManifest(path) || reloaded[scope] || !cat.Loaded(scope) {
			continue
		}
		reloaded[scope] = true
		if err := cat.Reload(scope); err != nil {
			log.Errorf("DidChangeWatchedFiles: reloading steps of %s: %v", scope, err)
		}
	}

	if len(reloaded) > 0 {
		for _, uri := range s.cache.URIs() {
			s.queueDiagnostics(uri)
		}
	}
	return nil
}
