package cache

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/grafana/jbehave-language-server/pkg/keywords"
	"github.com/grafana/jbehave-language-server/pkg/story"
	"github.com/jdbaldry/go-language-server-protocol/lsp/protocol"
)

type Document struct {
	// From DidOpen and DidChange
	Item protocol.TextDocumentItem

	// Story is the scanned text of Item.
	Story *story.Document
}

// NewDocument scans item with the keywords of its locale.
func NewDocument(item protocol.TextDocumentItem, table *keywords.Table) *Document {
	return &Document{
		Item:  item,
		Story: story.ParseWithTable(item.Text, table),
	}
}

// Path is the file system path of the document.
func (d *Document) Path() string {
	return d.Item.URI.SpanURI().Filename()
}

// Cache caches documents.
type Cache struct {
	mu   sync.RWMutex
	docs map[protocol.DocumentURI]*Document
}

// New returns a document cache.
func New() *Cache {
	return &Cache{
		mu:   sync.RWMutex{},
		docs: make(map[protocol.DocumentURI]*Document),
	}
}

// Put adds or replaces a document in the cache.
func (c *Cache) Put(doc *Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	uri := doc.Item.URI
	if old, ok := c.docs[uri]; ok {
		if old.Item.Version > doc.Item.Version {
			return errors.New("newer version of the document is already in the cache")
		}
	}
	c.docs[uri] = doc

	return nil
}

// Get retrieves a document from the cache.
func (c *Cache) Get(uri protocol.DocumentURI) (*Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.docs[uri]
	if !ok {
		return nil, fmt.Errorf("document %s not found in cache", uri)
	}

	return doc, nil
}

// Delete forgets a document.
func (c *Cache) Delete(uri protocol.DocumentURI) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.docs, uri)
}

// URIs returns the URIs of all cached documents, sorted.
func (c *Cache) URIs() []protocol.DocumentURI {
	c.mu.RLock()
	defer c.mu.RUnlock()

	uris := make([]protocol.DocumentURI, 0, len(c.docs))
	for uri := range c.docs {
		uris = append(uris, uri)
	}
	sort.Slice(uris, func(i, j int) bool { return uris[i] < uris[j] })
	return uris
}

// Rescan scans every cached document again with table, after the keyword
// configuration changed.
func (c *Cache) Rescan(table *keywords.Table) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for uri, doc := range c.docs {
		c.docs[uri] = NewDocument(doc.Item, table)
	}
}
