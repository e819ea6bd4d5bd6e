package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/grafana/jbehave-language-server/pkg/completion"
	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	server := testServer(t, Configuration{})

	result, err := server.Initialize(context.Background(), &protocol.ParamInitialize{})
	require.NoError(t, err)
	assert.Equal(t, "jbehave-language-server", result.ServerInfo.Name)
	assert.Equal(t, protocol.ExecuteCommandOptions{Commands: []string{CommandReloadSteps, CommandListSteps}}, result.Capabilities.ExecuteCommandProvider)
	assert.Equal(t, protocol.CompletionOptions{TriggerCharacters: []string{" "}}, result.Capabilities.CompletionProvider)
}

func TestInitializeWithOptions(t *testing.T) {
	server := testServer(t, Configuration{})

	params := &protocol.ParamInitialize{}
	params.InitializationOptions = map[string]interface{}{"matcher": completion.MatcherFuzzy}
	_, err := server.Initialize(context.Background(), params)
	require.NoError(t, err)

	config, _, _, _ := server.state()
	assert.Equal(t, completion.MatcherFuzzy, config.Matcher)

	params.InitializationOptions = map[string]interface{}{"matcher": "psychic"}
	_, err = server.Initialize(context.Background(), params)
	assert.ErrorContains(t, err, "unknown matcher")
}

func TestDocumentLifecycle(t *testing.T) {
	server, uri := testServerWithFile(t, Configuration{}, "Scenario: x\nGiven a user\n")

	err := server.DidChange(context.Background(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: "Scenario: x\nGiven a user\nWhen it runs\n"}},
	})
	require.NoError(t, err)

	doc, err := server.cache.Get(uri)
	require.NoError(t, err)
	assert.Equal(t, int32(2), doc.Item.Version)
	assert.Len(t, doc.Story.Steps, 2)

	// Stale changes are ignored.
	err = server.DidChange(context.Background(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                1,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: ""}},
	})
	require.NoError(t, err)
	doc, err = server.cache.Get(uri)
	require.NoError(t, err)
	assert.Len(t, doc.Story.Steps, 2)

	require.NoError(t, server.DidSave(context.Background(), &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))

	require.NoError(t, server.DidClose(context.Background(), &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}))
	_, err = server.cache.Get(uri)
	assert.Error(t, err)

	err = server.DidChange(context.Background(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                3,
		},
	})
	assert.Error(t, err)
}

func TestDidChangeWatchedFiles(t *testing.T) {
	text := "Scenario: x\nWhen Bob pays"
	server, uri := testServerWithFile(t, Configuration{}, text)
	pos := protocol.Position{Line: 1, Character: uint32(len("When Bob"))}

	assert.Equal(t, []string{"When Bob opens the shop"}, labels(completeAt(t, server, uri, pos)))

	manifest := filepath.Join(filepath.Dir(uri.SpanURI().Filename()), "jbehave-steps.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("steps:\n  - kind: when\n    pattern: \"{user} pays\"\n"), 0o600))

	require.NoError(t, server.DidChangeWatchedFiles(context.Background(), &protocol.DidChangeWatchedFilesParams{
		Changes: []protocol.FileEvent{
			{URI: protocol.URIFromPath(manifest), Type: protocol.Changed},
			{URI: protocol.URIFromPath(filepath.Join(t.TempDir(), "Other.java")), Type: protocol.Changed},
		},
	}))
	assert.Equal(t, []string{"When Bob pays"}, labels(completeAt(t, server, uri, pos)))
}
