// Package completion computes what to offer while a story is being typed:
// the localized keywords of the story grammar and the step phrases of the
// step templates in scope.
package completion

import (
	"context"
	"fmt"
	"strings"

	"github.com/grafana/jbehave-language-server/pkg/catalog"
	"github.com/grafana/jbehave-language-server/pkg/keywords"
	"github.com/grafana/jbehave-language-server/pkg/story"
	"github.com/grafana/jbehave-language-server/pkg/template"
	log "github.com/sirupsen/logrus"
)

// Candidate is one proposed completion.
type Candidate struct {
	Display string
	Insert  string
	// Prefix is the typed text Insert replaces.
	Prefix string
	// ID is the declaration behind a step candidate. Keywords have none.
	ID catalog.ID
	// Template is the raw step pattern of a step candidate.
	Template string
	Keyword  bool
}

// Sink receives candidates. It must tolerate duplicates.
type Sink interface {
	Accept(Candidate)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Candidate)

func (f SinkFunc) Accept(c Candidate) { f(c) }

// Provider returns the step templates of a scope for one step kind. An empty
// result is not an error.
type Provider interface {
	TemplatesFor(scope string, kind story.Kind) ([]catalog.Template, error)
}

// ReadAccess runs fn with read access to the provider's data and releases it
// however fn returns.
type ReadAccess func(fn func() error) error

// Request is one completion request.
type Request struct {
	Document *story.Document
	// Offset is the byte offset of the caret in Document.Text.
	Offset int
	// Scope is the step scope of the document, empty when it has none.
	Scope string
}

// Completer turns completion requests into candidates.
type Completer struct {
	keywords   *keywords.Table
	provider   Provider
	readAccess ReadAccess
	newMatcher MatcherFactory
}

// New returns a Completer. Stories without a known locale use the default set
// of table.
func New(table *keywords.Table, provider Provider, readAccess ReadAccess, newMatcher MatcherFactory) *Completer {
	return &Completer{
		keywords:   table,
		provider:   provider,
		readAccess: readAccess,
		newMatcher: newMatcher,
	}
}

// Fill sends the candidates for req to sink: first the matching keywords, then
// the step phrases. Nothing is ever retracted from sink, so a cancelled ctx
// only cuts the step phrases short.
func (c *Completer) Fill(ctx context.Context, req Request, sink Sink) {
	kw := c.keywords.Lookup(req.Document.Locale)
	typed, _ := story.PrefixAt(req.Document, req.Offset)
	matcher := c.newMatcher(typed)

	for _, word := range kw.All() {
		if matcher.Matches(word) {
			sink.Accept(Candidate{Display: word, Insert: word, Prefix: typed, Keyword: true})
		}
	}

	c.fillSteps(ctx, req, kw, typed, matcher, sink)
}

func (c *Completer) fillSteps(ctx context.Context, req Request, kw keywords.Set, typed string, matcher PrefixMatcher, sink Sink) {
	step := req.Document.StepAt(req.Offset)
	if step == nil || step.Kind == story.Unresolved {
		return
	}
	// Step phrases only once the step keyword itself is typed.
	if !isStepTypeComplete(kw, typed) {
		return
	}
	if req.Scope == "" {
		log.Debug("Completion: document has no step scope")
		return
	}

	templates, err := c.fetch(req.Scope, step.Kind)
	if err != nil {
		log.Errorf("Completion: unable to load step templates: %v", err)
		return
	}

	for _, t := range templates {
		if ctx.Err() != nil {
			return
		}
		if t.Kind != step.Kind {
			continue
		}

		candidateText := step.Prefix + " " + t.Text
		if suffix, _ := template.Parse(candidateText).Complete(typed); suffix != "" {
			insert := typed + suffix
			sink.Accept(Candidate{Display: insert, Insert: insert, Prefix: typed, ID: t.ID, Template: t.Text})
		} else if matcher.Matches(candidateText) {
			sink.Accept(Candidate{Display: candidateText, Insert: candidateText, Prefix: typed, ID: t.ID, Template: t.Text})
		}
	}
}

// fetch reads the templates inside one read access region. Failures of the
// provider, panics included, come back as errors.
func (c *Completer) fetch(scope string, kind story.Kind) (templates []catalog.Template, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step provider panicked: %v", r)
		}
	}()

	err = c.readAccess(func() error {
		var err error
		templates, err = c.provider.TemplatesFor(scope, kind)
		return err
	})
	return templates, err
}

// isStepTypeComplete reports whether the last line of typed starts with a step
// keyword.
func isStepTypeComplete(kw keywords.Set, typed string) bool {
	if i := strings.LastIndexByte(typed, '\n'); i >= 0 {
		typed = typed[i+1:]
	}
	for _, word := range kw.StepStarters() {
		if strings.HasPrefix(typed, word) {
			return true
		}
	}
	return false
}
