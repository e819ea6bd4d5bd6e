package server

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/grafana/jbehave-language-server/pkg/utils"
	"github.com/jdbaldry/go-language-server-protocol/jsonrpc2"
	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type fakeWriterCloser struct {
	io.Writer
}

func (fakeWriterCloser) Close() error {
	return nil
}

func init() {
	logrus.SetLevel(logrus.WarnLevel)
}

func absPath(t *testing.T, path string) string {
	t.Helper()

	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	return abs
}

func testServer(t *testing.T, config Configuration) (server *Server) {
	t.Helper()

	stream := jsonrpc2.NewHeaderStream(utils.NewStdio(nil, fakeWriterCloser{io.Discard}))
	conn := jsonrpc2.NewConn(stream)
	client := protocol.ClientDispatcher(conn)
	server = NewServer("jbehave-language-server", "dev", client, config)
	_, err := server.Initialize(context.Background(), &protocol.ParamInitialize{})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, server.Shutdown(context.Background()))
	})

	return server
}

func serverOpenTestFile(t require.TestingT, server *Server, filename string) protocol.DocumentURI {
	fileContent, err := os.ReadFile(filename)
	require.NoError(t, err)

	return serverOpenText(t, server, filename, string(fileContent))
}

func serverOpenText(t require.TestingT, server *Server, filename, text string) protocol.DocumentURI {
	uri := protocol.URIFromPath(filename)
	err := server.DidOpen(context.Background(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			Text:       text,
			Version:    1,
			LanguageID: "jbehave",
		},
	})
	require.NoError(t, err)

	return uri
}

// testServerWithFile opens fileContent as a story next to the test step
// manifest.
func testServerWithFile(t *testing.T, config Configuration, fileContent string) (server *Server, fileURI protocol.DocumentURI) {
	t.Helper()

	server = testServer(t, config)

	dir := t.TempDir()
	manifest, err := os.ReadFile("testdata/jbehave-steps.yaml")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jbehave-steps.yaml"), manifest, 0o600))

	filename := filepath.Join(dir, "test.story")
	require.NoError(t, os.WriteFile(filename, []byte(fileContent), 0o600))

	return server, serverOpenTestFile(t, server, filename)
}
