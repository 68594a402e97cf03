package carrick_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/carrick"
	"github.com/viant/carrick/model"
	"github.com/viant/carrick/testkit"
)

func TestLoadSourceUnitReadsAndParses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.js")
	require.NoError(t, os.WriteFile(path, []byte(`const app = express();`), 0644))

	unit, err := carrick.LoadSourceUnit(context.Background(), nil, "backend", path, func(src []byte) (any, error) {
		return testkit.MustParse(src), nil
	})
	require.NoError(t, err)
	assert.Equal(t, model.RepoID("backend"), unit.Repo)
	assert.NotNil(t, unit.Tree)
	assert.Contains(t, string(unit.Source), "express")
}

func TestLoadSourceUnitWrapsReadError(t *testing.T) {
	_, err := carrick.LoadSourceUnit(context.Background(), nil, "backend", "/no/such/file.js", func(src []byte) (any, error) {
		return testkit.MustParse(src), nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read source unit")
}
