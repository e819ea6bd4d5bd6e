package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grafana/jbehave-language-server/pkg/story"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func init() {
	logrus.SetLevel(logrus.WarnLevel)
}

func TestIndexTemplatesFor(t *testing.T) {
	index := NewIndex()
	index.Replace("/project", []Template{
		NewTemplate("a", story.Given, "a user"),
		NewTemplate("b", story.When, "it runs"),
		NewTemplate("c", story.Given, "{n} items"),
	})

	var given, then, unknown []Template
	err := index.WithReadAccess(func() error {
		var err error
		if given, err = index.TemplatesFor("/project", story.Given); err != nil {
			return err
		}
		if then, err = index.TemplatesFor("/project", story.Then); err != nil {
			return err
		}
		unknown, err = index.TemplatesFor("/elsewhere", story.Given)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a user", "{n} items"}, []string{given[0].Text, given[1].Text})
	assert.Empty(t, then)
	assert.Empty(t, unknown)
}

func TestIndexReadAccessReleasesLock(t *testing.T) {
	index := NewIndex()

	boom := errors.New("boom")
	assert.ErrorIs(t, index.WithReadAccess(func() error { return boom }), boom)

	assert.Panics(t, func() {
		_ = index.WithReadAccess(func() error { panic("collaborator failure") })
	})

	done := make(chan struct{})
	go func() {
		index.Replace("/project", nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("write lock could not be acquired after read access")
	}
	assert.Equal(t, []string{"/project"}, index.Scopes())
}

func TestIndexLookupAndDrop(t *testing.T) {
	index := NewIndex()
	index.Replace("/p", []Template{
		NewTemplate("login", story.Given, "{u} is logged in"),
		NewTemplate("login", story.Given, "{u} has logged in"),
		NewTemplate("other", story.Then, "done"),
	})

	_ = index.WithReadAccess(func() error {
		assert.Len(t, index.Lookup("/p", "login"), 2)
		assert.Len(t, index.All("/p"), 3)
		return nil
	})

	assert.True(t, index.Loaded("/p"))
	index.Drop("/p")
	assert.False(t, index.Loaded("/p"))
}

func copyManifest(t *testing.T, from, to string) {
	t.Helper()
	data, err := os.ReadFile(from)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(to, data, 0o600))
}

func TestCatalogScopeFor(t *testing.T) {
	dir := t.TempDir()
	copyManifest(t, absTestdata(t, "yaml/jbehave-steps.yaml"), filepath.Join(dir, "jbehave-steps.yaml"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "stories"), 0o700))

	c, err := New(Loader{}, false)
	require.NoError(t, err)
	defer c.Close()

	scope, err := c.ScopeFor(filepath.Join(dir, "stories", "a.story"))
	require.NoError(t, err)
	assert.Equal(t, dir, scope)
	assert.True(t, c.Loaded(scope))

	_, err = c.ScopeFor(filepath.Join(t.TempDir(), "b.story"))
	assert.ErrorIs(t, err, ErrNoScope)
}

func TestCatalogReload(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "jbehave-steps.yaml")
	copyManifest(t, absTestdata(t, "yaml/jbehave-steps.yaml"), manifest)

	c, err := New(Loader{}, false)
	require.NoError(t, err)
	defer c.Close()

	scope, err := c.ScopeFor(filepath.Join(dir, "a.story"))
	require.NoError(t, err)

	// A broken manifest keeps the previous steps.
	require.NoError(t, os.WriteFile(manifest, []byte("steps: [{kind: never}]"), 0o600))
	assert.Error(t, c.ReloadAll())
	_ = c.WithReadAccess(func() error {
		assert.Len(t, c.All(scope), 4)
		return nil
	})

	// A removed manifest drops the scope.
	require.NoError(t, os.Remove(manifest))
	require.NoError(t, c.Reload(scope))
	assert.False(t, c.Loaded(scope))
}

func TestCatalogWatchesManifests(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	manifest := filepath.Join(dir, "jbehave-steps.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("steps:\n  - kind: given\n    pattern: one\n"), 0o600))

	c, err := New(Loader{}, true)
	require.NoError(t, err)

	scope, err := c.ScopeFor(filepath.Join(dir, "a.story"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(manifest, []byte("steps:\n  - kind: given\n    pattern: one\n  - kind: then\n    pattern: two\n"), 0o600))

	assert.Eventually(t, func() bool {
		count := 0
		_ = c.WithReadAccess(func() error {
			count = len(c.All(scope))
			return nil
		})
		return count == 2
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, c.Close())
}
