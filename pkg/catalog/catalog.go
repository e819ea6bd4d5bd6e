// Package catalog holds the step templates the language server completes
// against. Templates come from step manifests; a manifest and the stories
// below it form a scope.
package catalog

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Catalog resolves stories to scopes and keeps the index of every scope
// loaded so far up to date.
type Catalog struct {
	*Index

	loaderMu sync.RWMutex
	loader   Loader

	watcher *Watcher
}

// New returns a catalog. With watch set, manifests are reloaded as they
// change on disk.
func New(loader Loader, watch bool) (*Catalog, error) {
	c := &Catalog{Index: NewIndex(), loader: loader}
	if watch {
		w, err := NewWatcher(func(scope string) {
			if err := c.Reload(scope); err != nil {
				log.Errorf("Reloading steps of %s: %v", scope, err)
			}
		})
		if err != nil {
			return nil, err
		}
		c.watcher = w
	}
	return c, nil
}

// ScopeFor returns the scope of a story file, loading it on first use.
func (c *Catalog) ScopeFor(path string) (string, error) {
	scope, err := FindScope(path)
	if err != nil {
		return "", err
	}
	if c.Loaded(scope) {
		return scope, nil
	}

	if err := c.Reload(scope); err != nil {
		return "", err
	}
	if c.watcher != nil {
		if err := c.watcher.Watch(scope); err != nil {
			log.Warnf("Unable to watch %s for manifest changes: %v", scope, err)
		}
	}
	return scope, nil
}

// Reload reads the manifests of a scope again. A scope whose manifest is gone
// is dropped. On any other error the scope keeps its previous templates.
func (c *Catalog) Reload(scope string) error {
	c.loaderMu.RLock()
	loader := c.loader
	c.loaderMu.RUnlock()

	if manifestIn(scope) == "" {
		log.Infof("No step manifest left in %s, dropping its steps", scope)
		c.Drop(scope)
		return nil
	}

	templates, err := loader.LoadScope(scope)
	if err != nil {
		return err
	}
	log.Infof("Loaded %d step templates for %s", len(templates), scope)
	c.Replace(scope, templates)
	return nil
}

// ReloadAll reloads every known scope and returns the first error.
func (c *Catalog) ReloadAll() error {
	var firstErr error
	for _, scope := range c.Scopes() {
		if err := c.Reload(scope); err != nil {
			log.Errorf("Reloading steps of %s: %v", scope, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// SetLoader replaces the loader used by later reloads.
func (c *Catalog) SetLoader(loader Loader) {
	c.loaderMu.Lock()
	defer c.loaderMu.Unlock()
	c.loader = loader
}

// Close stops watching manifests.
func (c *Catalog) Close() error {
	if c.watcher == nil {
		return nil
	}
	return c.watcher.Close()
}
