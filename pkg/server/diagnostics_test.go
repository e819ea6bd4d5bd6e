package server

import (
	"sync"
	"testing"

	"github.com/grafana/jbehave-language-server/pkg/position"
	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDiagnostics(t *testing.T) {
	unresolved := protocol.Diagnostic{
		Range:    position.NewProtocolRange(13, 0, 13, 29),
		Severity: protocol.SeverityError,
		Source:   "jbehave",
		Message:  `"And" step without a preceding Given, When or Then step`,
	}
	undefined := protocol.Diagnostic{
		Range:    position.NewProtocolRange(10, 0, 10, 22),
		Severity: protocol.SeverityWarning,
		Source:   "jbehave",
		Message:  "undefined then step: the basket is full",
	}

	testCases := []struct {
		name     string
		config   Configuration
		expected []protocol.Diagnostic
	}{
		{
			name:     "undefined steps not reported",
			expected: []protocol.Diagnostic{unresolved},
		},
		{
			name:     "undefined steps reported",
			config:   Configuration{EnableUndefinedStepDiagnostics: true},
			expected: []protocol.Diagnostic{undefined, unresolved},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := testServer(t, tc.config)
			uri := serverOpenTestFile(t, server, absPath(t, "testdata/stories/login.story"))
			doc, err := server.cache.Get(uri)
			require.NoError(t, err)

			assert.Equal(t, tc.expected, server.getDiagnostics(doc))
		})
	}
}

func TestGetDiagnosticsWithoutManifest(t *testing.T) {
	server, uri := testServerWithFile(t, Configuration{EnableUndefinedStepDiagnostics: true}, "Scenario: x\nGiven something unknown\n")
	doc, err := server.cache.Get(uri)
	require.NoError(t, err)
	assert.Len(t, server.getDiagnostics(doc), 1)

	// Outside of any scope nothing can be undefined.
	server = testServer(t, Configuration{EnableUndefinedStepDiagnostics: true})
	uri = serverOpenText(t, server, "/nowhere/at/all.story", "Scenario: x\nGiven something unknown\n")
	doc, err = server.cache.Get(uri)
	require.NoError(t, err)
	assert.Empty(t, server.getDiagnostics(doc))
}

func TestPublishDiagnosticsDuringRescan(t *testing.T) {
	server, uri := testServerWithFile(t, Configuration{}, "Scenario: x\nAnd what\n")
	_, table, _, _ := server.state()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			server.publishDiagnostics(uri)
		}()
		go func() {
			defer wg.Done()
			server.cache.Rescan(table)
		}()
	}
	wg.Wait()

	doc, err := server.cache.Get(uri)
	require.NoError(t, err)
	diags := server.getDiagnostics(doc)
	require.Len(t, diags, 1)
	assert.Equal(t, protocol.SeverityError, diags[0].Severity)
}
