package repository_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/carrick/repository"
)

func TestDetectProjectFindsNearestPackageJSON(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(`{"name":"backend-svc"}`), 0644))
	nested := filepath.Join(root, "src", "routes")
	require.NoError(t, os.MkdirAll(nested, 0755))
	file := filepath.Join(nested, "users.js")
	require.NoError(t, os.WriteFile(file, []byte("module.exports = {}"), 0644))

	d := repository.New()
	project, err := d.DetectProject(file)
	require.NoError(t, err)
	assert.Equal(t, "node", project.Type)
	assert.Equal(t, "backend-svc", project.Name)
	assert.Equal(t, filepath.ToSlash(filepath.Join("src", "routes", "users.js")), project.RelativePath)
}

func TestDetectProjectFindsGoModule(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module github.com/acme/svc\n\ngo 1.21\n"), 0644))
	file := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(file, []byte("package main"), 0644))

	d := repository.New()
	project, err := d.DetectProject(file)
	require.NoError(t, err)
	assert.Equal(t, "go", project.Type)
	assert.Equal(t, "github.com/acme/svc", project.Name)
}

func TestDetectNodeProjectRejectsNonNodeRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/x\n"), 0644))

	d := repository.New()
	_, ok := d.DetectNodeProject(root)
	assert.False(t, ok)
}

func TestDetectProjectUnknownWhenNoMarkerFound(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "orphan.js")
	require.NoError(t, os.WriteFile(file, []byte("1"), 0644))

	d := repository.New()
	project, err := d.DetectProject(file, root)
	require.NoError(t, err)
	assert.Equal(t, "unknown", project.Type)
	assert.Equal(t, root, project.RootPath)
}
