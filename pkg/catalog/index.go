package catalog

import (
	"sort"
	"sync"

	"github.com/grafana/jbehave-language-server/pkg/story"
	"github.com/grafana/jbehave-language-server/pkg/template"
	"github.com/samber/lo"
)

// ID identifies the declaration a template comes from. Aliases of one
// declaration share its ID.
type ID string

// Template is a step pattern declared for one step kind.
type Template struct {
	ID      ID
	Kind    story.Kind
	Text    string
	Pattern template.Template

	// Doc is the declaration's documentation, usually Javadoc HTML.
	Doc string
	// Source is the absolute path of the file holding the declaration, Line
	// its zero based line.
	Source   string
	Line     int
	Priority int
}

// NewTemplate parses text and returns the template for it.
func NewTemplate(id ID, kind story.Kind, text string) Template {
	return Template{ID: id, Kind: kind, Text: text, Pattern: template.Parse(text)}
}

// Index holds the templates of every loaded scope. A scope is the directory
// of a step manifest.
//
// Reads go through WithReadAccess so that a reload never swaps a scope while
// a request is looking at it.
type Index struct {
	mu     sync.RWMutex
	scopes map[string][]Template
}

func NewIndex() *Index {
	return &Index{scopes: make(map[string][]Template)}
}

// WithReadAccess runs fn while holding the read lock. The lock is released
// however fn returns, panics included.
func (i *Index) WithReadAccess(fn func() error) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return fn()
}

// TemplatesFor returns the templates of a scope declared for kind, in
// declaration order. Unknown scopes have no templates. It must be called from
// within WithReadAccess.
func (i *Index) TemplatesFor(scope string, kind story.Kind) ([]Template, error) {
	return lo.Filter(i.scopes[scope], func(t Template, _ int) bool {
		return t.Kind == kind
	}), nil
}

// All returns every template of a scope. It must be called from within
// WithReadAccess.
func (i *Index) All(scope string) []Template {
	return i.scopes[scope]
}

// Lookup returns the templates of a scope carrying id. It must be called from
// within WithReadAccess.
func (i *Index) Lookup(scope string, id ID) []Template {
	return lo.Filter(i.scopes[scope], func(t Template, _ int) bool {
		return t.ID == id
	})
}

// Replace sets the templates of a scope.
func (i *Index) Replace(scope string, templates []Template) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.scopes[scope] = templates
}

// Drop forgets a scope.
func (i *Index) Drop(scope string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.scopes, scope)
}

// Loaded reports whether a scope is known.
func (i *Index) Loaded(scope string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.scopes[scope]
	return ok
}

// Scopes lists the known scopes.
func (i *Index) Scopes() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	scopes := lo.Keys(i.scopes)
	sort.Strings(scopes)
	return scopes
}
