package server

import (
	"context"
	"testing"

	"github.com/grafana/jbehave-language-server/pkg/position"
	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbols(t *testing.T) {
	server := testServer(t, Configuration{})
	uri := serverOpenTestFile(t, server, absPath(t, "testdata/stories/login.story"))

	result, err := server.DocumentSymbol(context.Background(), &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)
	require.Len(t, result, 2)

	login := result[0].(protocol.DocumentSymbol)
	assert.Equal(t, "successful login", login.Name)
	assert.Equal(t, protocol.Namespace, login.Kind)
	assert.Equal(t, position.NewProtocolRange(5, 0, 10, 22), login.Range)
	assert.Equal(t, position.NewProtocolRange(5, 0, 5, 26), login.SelectionRange)
	require.Len(t, login.Children, 5)
	assert.Equal(t, protocol.DocumentSymbol{
		Name:           "And Alice is logged in",
		Detail:         "given",
		Kind:           protocol.Method,
		Range:          position.NewProtocolRange(7, 0, 7, 22),
		SelectionRange: position.NewProtocolRange(7, 0, 7, 3),
	}, login.Children[1])

	dangling := result[1].(protocol.DocumentSymbol)
	assert.Equal(t, "dangling", dangling.Name)
	require.Len(t, dangling.Children, 2)
	assert.Equal(t, "unresolved", dangling.Children[0].Detail)
}

func TestSymbolsOutsideScenarios(t *testing.T) {
	server, uri := testServerWithFile(t, Configuration{}, "Given a lonely step\nthat goes on\n\nScenario:\n")

	result, err := server.DocumentSymbol(context.Background(), &protocol.DocumentSymbolParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
	require.NoError(t, err)
	require.Len(t, result, 2)

	step := result[0].(protocol.DocumentSymbol)
	assert.Equal(t, "Given a lonely step", step.Name)
	assert.Equal(t, position.NewProtocolRange(0, 0, 1, 12), step.Range)

	scenario := result[1].(protocol.DocumentSymbol)
	assert.Equal(t, "Scenario", scenario.Name)
	assert.Empty(t, scenario.Children)
}
