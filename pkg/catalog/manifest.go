package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/google/go-jsonnet"
	"github.com/grafana/jbehave-language-server/pkg/story"
	"gopkg.in/yaml.v3"
)

// ManifestNames are the file names a step manifest can have, in lookup order.
var ManifestNames = []string{
	"jbehave-steps.yaml",
	"jbehave-steps.yml",
	"jbehave-steps.json",
	"jbehave-steps.jsonnet",
}

// ErrNoScope is returned when no step manifest is found above a story.
var ErrNoScope = errors.New("no step manifest found")

var validate = validator.New()

type manifest struct {
	Steps []entry `yaml:"steps" validate:"dive"`
}

type entry struct {
	ID       string   `yaml:"id"`
	Kind     string   `yaml:"kind" validate:"required,oneof=given when then Given When Then"`
	Pattern  string   `yaml:"pattern" validate:"required"`
	Aliases  []string `yaml:"aliases" validate:"dive,required"`
	Doc      string   `yaml:"doc"`
	Source   string   `yaml:"source"`
	Line     int      `yaml:"line" validate:"gte=0"`
	Priority int      `yaml:"priority"`
}

// Loader reads step manifests.
type Loader struct {
	// JPaths are the library search paths for Jsonnet manifests.
	JPaths []string
	// ExtraManifests are loaded into every scope, after the scope's own
	// manifest. They hold steps of shared libraries.
	ExtraManifests []string
}

// FindScope walks up from a story file to the nearest directory holding a
// step manifest and returns that directory.
func FindScope(path string) (string, error) {
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return "", err
	}

	for {
		if manifestIn(dir) != "" {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w above %s", ErrNoScope, path)
		}
		dir = parent
	}
}

func manifestIn(dir string) string {
	for _, name := range ManifestNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// IsManifest reports whether path names a step manifest.
func IsManifest(path string) bool {
	base := filepath.Base(path)
	for _, name := range ManifestNames {
		if base == name {
			return true
		}
	}
	return false
}

// LoadScope loads the manifest of a scope followed by the extra manifests.
func (l Loader) LoadScope(scope string) ([]Template, error) {
	path := manifestIn(scope)
	if path == "" {
		return nil, fmt.Errorf("%w in %s", ErrNoScope, scope)
	}

	templates, err := l.LoadManifest(path)
	if err != nil {
		return nil, err
	}
	for _, extra := range l.ExtraManifests {
		more, err := l.LoadManifest(extra)
		if err != nil {
			return nil, err
		}
		templates = append(templates, more...)
	}
	return templates, nil
}

// LoadManifest reads one manifest file. Jsonnet manifests are evaluated first.
func (l Loader) LoadManifest(path string) ([]Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	if filepath.Ext(path) == ".jsonnet" {
		vm := jsonnet.MakeVM()
		// nolint: gocritic
		vm.Importer(&jsonnet.FileImporter{JPaths: append(l.JPaths, filepath.Dir(path))})
		evaluated, err := vm.EvaluateAnonymousSnippet(path, string(data))
		if err != nil {
			return nil, fmt.Errorf("evaluating manifest %s: %w", path, err)
		}
		data = []byte(evaluated)
	}

	var m manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if err := validate.Struct(m); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	return m.templates(path)
}

func (m manifest) templates(path string) ([]Template, error) {
	dir := filepath.Dir(path)

	var templates []Template
	for i, e := range m.Steps {
		kind, err := story.ParseKind(e.Kind)
		if err != nil {
			return nil, fmt.Errorf("manifest %s, step %d: %w", path, i, err)
		}

		source := e.Source
		if source != "" && !filepath.IsAbs(source) {
			source = filepath.Join(dir, source)
		}

		id := ID(e.ID)
		switch {
		case id != "":
		case source != "":
			id = ID(fmt.Sprintf("%s:%d", source, e.Line))
		default:
			id = ID(fmt.Sprintf("%s#%d", path, i))
		}

		for _, text := range append([]string{e.Pattern}, e.Aliases...) {
			t := NewTemplate(id, kind, text)
			t.Doc = e.Doc
			t.Source = source
			t.Line = e.Line
			t.Priority = e.Priority
			templates = append(templates, t)
		}
	}
	return templates, nil
}
