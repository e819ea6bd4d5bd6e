package main

import (
	"context"
	"testing"

	"github.com/grafana/jbehave-language-server/pkg/server"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmdFlags(t *testing.T) {
	defer logrus.SetLevel(logrus.GetLevel())

	testCases := []struct {
		name     string
		args     []string
		expected server.Configuration
	}{
		{
			name: "defaults",
			expected: server.Configuration{
				LogLevel:       "info",
				Matcher:        "prefix",
				WatchManifests: true,
			},
		},
		{
			name: "everything",
			args: []string{
				"-l", "debug",
				"--matcher", "fuzzy",
				"--manifest", "/shared/jbehave-steps.yaml",
				"--manifest", "/other/jbehave-steps.json",
				"-J", "vendor",
				"--locale", "de",
				"--watch=false",
				"--undefined-steps",
			},
			expected: server.Configuration{
				LogLevel:                       "debug",
				Matcher:                        "fuzzy",
				ExtraManifests:                 []string{"/shared/jbehave-steps.yaml", "/other/jbehave-steps.json"},
				JPaths:                         []string{"vendor"},
				DefaultLocale:                  "de",
				EnableUndefinedStepDiagnostics: true,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got server.Configuration
			cmd := newRootCmd(func(_ context.Context, config server.Configuration) error {
				got = config
				return nil
			})
			cmd.SetArgs(tc.args)
			require.NoError(t, cmd.Execute())
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestRootCmdRejectsBadInput(t *testing.T) {
	run := func(context.Context, server.Configuration) error {
		t.Fatal("server must not start")
		return nil
	}

	for _, args := range [][]string{
		{"--log-level", "loud"},
		{"story.story"},
	} {
		cmd := newRootCmd(run)
		cmd.SetArgs(args)
		assert.Error(t, cmd.Execute(), args)
	}
}
