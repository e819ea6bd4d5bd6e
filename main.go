// jbehave-language-server: A Language Server Protocol server for JBehave stories.
// Copyright (C) 2021 Jack Baldry

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/grafana/jbehave-language-server/pkg/server"
	"github.com/grafana/jbehave-language-server/pkg/utils"
	"github.com/jdbaldry/go-language-server-protocol/jsonrpc2"
	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	name = "jbehave-language-server"
)

// version is replaced at build time.
var version = "dev"

func newRootCmd(run func(context.Context, server.Configuration) error) *cobra.Command {
	config := server.Configuration{}

	cmd := &cobra.Command{
		Use:           name,
		Short:         "A Language Server Protocol server for JBehave stories",
		Long:          "Serves completion, hover, definition, diagnostics and formatting of JBehave stories over stdio.",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level, err := log.ParseLevel(config.LogLevel)
			if err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			log.SetLevel(level)
			return run(cmd.Context(), config)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&config.LogLevel, "log-level", "l", log.InfoLevel.String(), "Log level: trace, debug, info, warn, error, fatal or panic")
	flags.StringVarP(&config.Matcher, "matcher", "m", "prefix", "Completion matcher: prefix, case_sensitive or fuzzy")
	flags.StringArrayVar(&config.ExtraManifests, "manifest", nil, "Step manifest added to every scope, may be repeated")
	flags.StringArrayVarP(&config.JPaths, "jpath", "J", nil, "Library path of Jsonnet step manifests, may be repeated")
	flags.StringVar(&config.DefaultLocale, "locale", "", "Locale of stories without a language comment")
	flags.BoolVar(&config.WatchManifests, "watch", true, "Reload steps when a manifest changes on disk")
	flags.BoolVar(&config.EnableUndefinedStepDiagnostics, "undefined-steps", false, "Warn about steps no template matches")

	return cmd
}

func serve(ctx context.Context, config server.Configuration) error {
	log.Infoln("Starting the language server")

	stream := jsonrpc2.NewHeaderStream(utils.NewStdio(nil, nil))
	conn := jsonrpc2.NewConn(stream)
	client := protocol.ClientDispatcher(conn)

	s := server.NewServer(name, version, client, config)

	conn.Go(ctx, protocol.Handlers(
		protocol.ServerHandler(s, jsonrpc2.MethodNotFound)))
	<-conn.Done()
	if err := conn.Err(); err != nil {
		return fmt.Errorf("connection closed: %w", err)
	}
	log.Infoln("Stopped the language server")
	return nil
}

func main() {
	log.SetOutput(os.Stderr)

	if err := newRootCmd(serve).ExecuteContext(context.Background()); err != nil {
		log.Fatalln(err.Error())
	}
}
