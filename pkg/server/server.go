package server

import (
	"context"
	"errors"
	"sync"

	"github.com/grafana/jbehave-language-server/pkg/cache"
	"github.com/grafana/jbehave-language-server/pkg/catalog"
	"github.com/grafana/jbehave-language-server/pkg/completion"
	"github.com/grafana/jbehave-language-server/pkg/keywords"
	"github.com/grafana/jbehave-language-server/pkg/utils"
	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
	log "github.com/sirupsen/logrus"
)

const (
	errorRetrievingDocument = "unable to retrieve document from the cache"
)

// Commands handled by ExecuteCommand.
const (
	CommandReloadSteps = "jbehave.reloadSteps"
	CommandListSteps   = "jbehave.listSteps"
)

// New returns a new language server.
func NewServer(name, version string, client protocol.ClientCloser, configuration Configuration) *Server {
	server := &Server{
		name:          name,
		version:       version,
		cache:         cache.New(),
		client:        client,
		configuration: configuration,
		diagQueue:     make(map[protocol.DocumentURI]struct{}),
		done:          make(chan struct{}),
	}

	return server
}

// Server is the JBehave language server.
type Server struct {
	name, version string

	cache  *cache.Cache
	client protocol.ClientCloser

	// mu guards the configuration and everything built from it.
	mu            sync.RWMutex
	configuration Configuration
	keywords      *keywords.Table
	catalog       *catalog.Catalog
	completer     *completion.Completer

	diagMutex   sync.RWMutex
	diagQueue   map[protocol.DocumentURI]struct{}
	diagRunning sync.Map

	loopOnce sync.Once
	stopOnce sync.Once
	done     chan struct{}
}

// configure builds the keyword table, the catalog and the completer for
// config and swaps them in. The catalog is only replaced when the way
// manifests are watched changes.
func (s *Server) configure(config Configuration) error {
	table := keywords.Default
	if config.DefaultLocale != "" {
		var err error
		if table, err = keywords.Default.WithDefault(config.DefaultLocale); err != nil {
			return err
		}
	}

	newMatcher, err := completion.NewMatcherFactory(config.Matcher)
	if err != nil {
		return err
	}

	loader := catalog.Loader{JPaths: config.JPaths, ExtraManifests: config.ExtraManifests}

	if config.LogLevel != "" {
		level, err := log.ParseLevel(config.LogLevel)
		if err != nil {
			return err
		}
		log.SetLevel(level)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cat := s.catalog
	if cat == nil || s.configuration.WatchManifests != config.WatchManifests {
		if cat, err = catalog.New(loader, config.WatchManifests); err != nil {
			return err
		}
		if s.catalog != nil {
			if err := s.catalog.Close(); err != nil {
				log.Warnf("Closing the previous step catalog: %v", err)
			}
		}
	} else {
		cat.SetLoader(loader)
	}

	s.configuration = config
	s.keywords = table
	s.catalog = cat
	s.completer = completion.New(table, cat, cat.WithReadAccess, newMatcher)
	return nil
}

// state returns the components built from the current configuration.
func (s *Server) state() (Configuration, *keywords.Table, *catalog.Catalog, *completion.Completer) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.configuration, s.keywords, s.catalog, s.completer
}

// scopeOf returns the step scope of a document, empty when it has none.
func (s *Server) scopeOf(doc *cache.Document) string {
	_, _, cat, _ := s.state()
	scope, err := cat.ScopeFor(doc.Path())
	if err != nil {
		if errors.Is(err, catalog.ErrNoScope) {
			log.Debugf("No step manifest for %s", doc.Item.URI)
		} else {
			log.Errorf("Loading the steps of %s: %v", doc.Item.URI, err)
		}
		return ""
	}
	return scope
}

func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	defer s.queueDiagnostics(params.TextDocument.URI)

	doc, err := s.cache.Get(params.TextDocument.URI)
	if err != nil {
		return utils.LogErrorf("DidChange: %s: %w", errorRetrievingDocument, err)
	}

	if params.TextDocument.Version > doc.Item.Version && len(params.ContentChanges) != 0 {
		item := doc.Item
		item.Version = params.TextDocument.Version
		item.Text = params.ContentChanges[len(params.ContentChanges)-1].Text

		_, table, _, _ := s.state()
		return s.cache.Put(cache.NewDocument(item, table))
	}
	return nil
}

func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) (err error) {
	defer s.queueDiagnostics(params.TextDocument.URI)

	_, table, _, _ := s.state()
	return s.cache.Put(cache.NewDocument(params.TextDocument, table))
}

func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.cache.Delete(params.TextDocument.URI)

	// Clear what was published for the closed document.
	return s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
}

func (s *Server) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.queueDiagnostics(params.TextDocument.URI)
	return nil
}

func (s *Server) Initialize(ctx context.Context, params *protocol.ParamInitialize) (*protocol.InitializeResult, error) {
	log.Infof("Initializing %s version %s", s.name, s.version)

	config, _, _, _ := s.state()
	if params.InitializationOptions != nil {
		var err error
		if config, err = config.withSettings(params.InitializationOptions); err != nil {
			return nil, err
		}
	}
	if err := s.configure(config); err != nil {
		return nil, utils.LogErrorf("Initialize: %w", err)
	}

	s.loopOnce.Do(s.diagnosticsLoop)

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			CompletionProvider:         protocol.CompletionOptions{TriggerCharacters: []string{" "}},
			HoverProvider:              true,
			DefinitionProvider:         true,
			DocumentFormattingProvider: true,
			DocumentSymbolProvider:     true,
			ExecuteCommandProvider:     protocol.ExecuteCommandOptions{Commands: []string{CommandReloadSteps, CommandListSteps}},
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				Change:    protocol.Full,
				OpenClose: true,
				Save: protocol.SaveOptions{
					IncludeText: false,
				},
			},
		},
		ServerInfo: struct {
			Name    string `json:"name"`
			Version string `json:"version,omitempty"`
		}{
			Name:    s.name,
			Version: s.version,
		},
	}, nil
}

func (s *Server) Initialized(context.Context, *protocol.InitializedParams) error {
	return nil
}

func (s *Server) Shutdown(context.Context) error {
	s.stopOnce.Do(func() { close(s.done) })

	_, _, cat, _ := s.state()
	if cat == nil {
		return nil
	}
	return cat.Close()
}

func (s *Server) Exit(context.Context) error {
	return nil
}
