package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/grafana/jbehave-language-server/pkg/keywords"
	"github.com/jdbaldry/go-language-server-protocol/jsonrpc2"
	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
	"github.com/mitchellh/mapstructure"
	log "github.com/sirupsen/logrus"
)

// Configuration is set from the command line and updated by the client
// through initializationOptions and workspace/didChangeConfiguration.
type Configuration struct {
	// LogLevel is a logrus level name. Empty leaves the level alone.
	LogLevel string
	// Matcher names the prefix matcher, see completion.NewMatcherFactory.
	Matcher string
	// ExtraManifests are step manifests added to every scope.
	ExtraManifests []string
	// JPaths are the library paths of Jsonnet manifests.
	JPaths []string
	// DefaultLocale is used for stories without a language comment.
	DefaultLocale string

	EnableUndefinedStepDiagnostics bool
	WatchManifests                 bool
}

// settings is the client side view of Configuration. Absent keys stay nil and
// leave the configuration unchanged.
type settings struct {
	LogLevel                       *string   `mapstructure:"log_level"`
	Matcher                        *string   `mapstructure:"matcher"`
	ExtraManifests                 *[]string `mapstructure:"extra_manifests"`
	JPaths                         *[]string `mapstructure:"jpath"`
	DefaultLocale                  *string   `mapstructure:"default_locale"`
	EnableUndefinedStepDiagnostics *bool     `mapstructure:"enable_undefined_step_diagnostics"`
	WatchManifests                 *bool     `mapstructure:"watch_manifests"`
}

func (s *Server) DidChangeConfiguration(ctx context.Context, params *protocol.DidChangeConfigurationParams) error {
	config, _, _, _ := s.state()
	config, err := config.withSettings(params.Settings)
	if err != nil {
		return err
	}
	if err := s.configure(config); err != nil {
		return fmt.Errorf("%w: %v", jsonrpc2.ErrInvalidParams, err)
	}

	_, table, cat, _ := s.state()
	s.cache.Rescan(table)
	if err := cat.ReloadAll(); err != nil {
		log.Warnf("DidChangeConfiguration: some steps could not be reloaded: %v", err)
	}
	for _, uri := range s.cache.URIs() {
		s.queueDiagnostics(uri)
	}
	return nil
}

// withSettings returns c updated with a settings object sent by the client.
func (c Configuration) withSettings(payload interface{}) (Configuration, error) {
	if _, ok := payload.(map[string]interface{}); !ok {
		return c, fmt.Errorf("%w: unsupported settings payload. expected json object, got: %T", jsonrpc2.ErrInvalidParams, payload)
	}

	var parsed settings
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &parsed,
		ErrorUnused: true,
	})
	if err != nil {
		return c, err
	}
	if err := decoder.Decode(payload); err != nil {
		return c, fmt.Errorf("%w: %v", jsonrpc2.ErrInvalidParams, err)
	}

	if parsed.LogLevel != nil {
		if _, err := log.ParseLevel(*parsed.LogLevel); err != nil {
			return c, fmt.Errorf("%w: %v", jsonrpc2.ErrInvalidParams, err)
		}
		c.LogLevel = *parsed.LogLevel
	}
	if parsed.Matcher != nil {
		c.Matcher = *parsed.Matcher
	}
	if parsed.ExtraManifests != nil {
		c.ExtraManifests = *parsed.ExtraManifests
	}
	if parsed.JPaths != nil {
		c.JPaths = *parsed.JPaths
	}
	if parsed.DefaultLocale != nil {
		if locale := *parsed.DefaultLocale; locale != "" && !keywords.Default.Has(locale) {
			return c, fmt.Errorf("%w: unknown locale %q, expected one of %s",
				jsonrpc2.ErrInvalidParams, locale, strings.Join(keywords.Default.Locales(), ", "))
		}
		c.DefaultLocale = *parsed.DefaultLocale
	}
	if parsed.EnableUndefinedStepDiagnostics != nil {
		c.EnableUndefinedStepDiagnostics = *parsed.EnableUndefinedStepDiagnostics
	}
	if parsed.WatchManifests != nil {
		c.WatchManifests = *parsed.WatchManifests
	}
	return c, nil
}
