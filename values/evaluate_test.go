package values_test

import (
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/carrick/model"
	"github.com/viant/carrick/symtab"
	"github.com/viant/carrick/testkit"
	"github.com/viant/carrick/values"
)

// firstDeclaratorValue returns the value node of the first top-level
// `const <name> = <expr>;` found in src.
func firstDeclaratorValue(root *sitter.Node) *sitter.Node {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		decl := root.NamedChild(i)
		if decl.Type() != "lexical_declaration" {
			continue
		}
		for j := 0; j < int(decl.NamedChildCount()); j++ {
			declarator := decl.NamedChild(j)
			if declarator.Type() != "variable_declarator" {
				continue
			}
			if declarator.ChildByFieldName("name") != nil {
				return declarator.ChildByFieldName("value")
			}
		}
	}
	return nil
}

func TestEvaluateTemplateStringWithEnvVar(t *testing.T) {
	src := `const url = ` + "`${process.env.API_BASE}/users/${id}`" + `;`
	root := testkit.MustParse([]byte(src))
	table := symtab.Index("u1", "app.js", root, []byte(src))
	ev := values.NewEvaluator()

	expr := firstDeclaratorValue(root)
	require.NotNil(t, expr)
	got := ev.Evaluate(expr, table.Root, []byte(src))

	assert.True(t, model.HasEnvVar(got))
	assert.Contains(t, got.String(), "API_BASE")
}

func TestEvaluateLiteralConcatenation(t *testing.T) {
	src := `const url = "/users/" + "123";`
	root := testkit.MustParse([]byte(src))
	table := symtab.Index("u1", "app.js", root, []byte(src))
	ev := values.NewEvaluator()

	expr := firstDeclaratorValue(root)
	require.NotNil(t, expr)
	got := ev.Evaluate(expr, table.Root, []byte(src))

	lit, ok := model.IsLiteral(got)
	require.True(t, ok)
	assert.Equal(t, "/users/123", string(lit))
}

func TestEvaluateUnresolvedIdentifierIsUnknown(t *testing.T) {
	src := `const url = somethingUndeclared;`
	root := testkit.MustParse([]byte(src))
	table := symtab.Index("u1", "app.js", root, []byte(src))
	ev := values.NewEvaluator()

	expr := firstDeclaratorValue(root)
	require.NotNil(t, expr)
	got := ev.Evaluate(expr, table.Root, []byte(src))
	assert.True(t, model.IsUnknown(got))
}
