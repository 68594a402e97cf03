package repository_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/carrick/repository"
)

func TestWorkspaceRepositoriesGroupsByProjectRoot(t *testing.T) {
	root := t.TempDir()

	backend := filepath.Join(root, "backend")
	frontend := filepath.Join(root, "frontend")
	require.NoError(t, os.MkdirAll(backend, 0755))
	require.NoError(t, os.MkdirAll(frontend, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(backend, "package.json"), []byte(`{"name":"backend"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(frontend, "package.json"), []byte(`{"name":"frontend"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(backend, "app.js"), []byte("1"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(frontend, "client.ts"), []byte("1"), 0644))

	nodeModules := filepath.Join(frontend, "node_modules", "dep")
	require.NoError(t, os.MkdirAll(nodeModules, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(nodeModules, "index.js"), []byte("1"), 0644))

	ws := repository.NewWorkspace(root)
	groups, err := ws.Repositories()
	require.NoError(t, err)

	require.Contains(t, groups, backend)
	require.Contains(t, groups, frontend)
	assert.Equal(t, []string{filepath.Join(backend, "app.js")}, groups[backend])
	assert.Equal(t, []string{filepath.Join(frontend, "client.ts")}, groups[frontend])
}

func TestWorkspaceRepositoriesSkipsNonJSFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(`{"name":"x"}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("hi"), 0644))

	ws := repository.NewWorkspace(root)
	groups, err := ws.Repositories()
	require.NoError(t, err)

	for _, files := range groups {
		for _, f := range files {
			assert.NotEqual(t, "README.md", filepath.Base(f))
		}
	}
}
