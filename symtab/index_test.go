package symtab_test

import (
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/carrick/model"
	"github.com/viant/carrick/symtab"
	"github.com/viant/carrick/testkit"
)

func TestIndexDeclaresTopLevelVariable(t *testing.T) {
	src := `const app = express();`
	root := testkit.MustParse([]byte(src))
	table := symtab.Index("u1", "app.js", root, []byte(src))

	sym, _ := table.Root.Lookup("app")
	require.NotNil(t, sym)
	assert.Equal(t, model.SymbolVariable, sym.Kind)
	assert.Equal(t, "app.js", sym.Span.File)
}

func TestIndexDefaultExportOfExistingBinding(t *testing.T) {
	src := `
const router = express.Router();
export default router;
`
	root := testkit.MustParse([]byte(src))
	table := symtab.Index("u1", "router.js", root, []byte(src))

	exported, ok := table.Exports["default"]
	require.True(t, ok)
	assert.Equal(t, "router", exported.Name)
}

func TestIndexNamedReExport(t *testing.T) {
	src := `export { router } from "./router";`
	root := testkit.MustParse([]byte(src))
	table := symtab.Index("u1", "index.js", root, []byte(src))

	exported, ok := table.Exports["router"]
	require.True(t, ok)
	assert.Equal(t, model.SymbolReExport, exported.Kind)
	assert.Equal(t, "./router", exported.ModuleSpecifier)
	assert.Equal(t, "router", exported.OriginName)
}

func TestIndexImportDeclaresSymbol(t *testing.T) {
	src := `import express from "express";`
	root := testkit.MustParse([]byte(src))
	table := symtab.Index("u1", "app.js", root, []byte(src))

	sym, _ := table.Root.Lookup("express")
	require.NotNil(t, sym)
	assert.Equal(t, model.SymbolImport, sym.Kind)
	assert.Equal(t, "express", sym.ModuleSpecifier)
	assert.Equal(t, "default", sym.OriginName)
}

func TestWalkHookObservesCallExpressions(t *testing.T) {
	src := `const app = express();`
	root := testkit.MustParse([]byte(src))

	var calls int
	symtab.Walk("u1", "app.js", root, []byte(src), func(n *sitter.Node, scope *model.Scope) {
		if n.Type() == "call_expression" {
			calls++
		}
	})
	assert.Equal(t, 1, calls)
}
