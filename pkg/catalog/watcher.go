package catalog

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watcher reports changes to the step manifests of watched scopes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	onChange func(scope string)

	mu      sync.Mutex
	watched map[string]bool

	wg sync.WaitGroup
}

// NewWatcher starts watching. onChange is called with the scope directory
// whenever a manifest in it is written, created, renamed or removed.
func NewWatcher(onChange func(scope string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fsw,
		onChange: onChange,
		watched:  make(map[string]bool),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Watch adds a scope directory. Watching a scope twice is a no-op.
func (w *Watcher) Watch(scope string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watched[scope] {
		return nil
	}
	if err := w.watcher.Add(scope); err != nil {
		return err
	}
	w.watched[scope] = true
	return nil
}

// Close stops the watcher and waits for its goroutine to return.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !IsManifest(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			log.Debugf("Manifest changed: %s (%s)", event.Name, event.Op)
			w.onChange(filepath.Dir(event.Name))

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("Watching step manifests: %v", err)
		}
	}
}
