package server

import (
	"github.com/grafana/jbehave-language-server/pkg/catalog"
	"github.com/grafana/jbehave-language-server/pkg/story"
)

// resolvedStep is a template matching a whole step, with the placeholder
// values it takes.
type resolvedStep struct {
	template catalog.Template
	values   []string
}

// resolveStep returns the templates of scope matching step, in declaration
// order.
func resolveStep(cat *catalog.Catalog, scope string, step story.Step) []resolvedStep {
	if scope == "" || step.Kind == story.Unresolved {
		return nil
	}

	var resolved []resolvedStep
	_ = cat.WithReadAccess(func() error {
		templates, err := cat.TemplatesFor(scope, step.Kind)
		if err != nil {
			return err
		}
		for _, t := range templates {
			if values, ok := t.Pattern.Match(step.Text); ok {
				resolved = append(resolved, resolvedStep{template: t, values: values})
			}
		}
		return nil
	})
	return resolved
}
