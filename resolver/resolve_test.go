package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/carrick/framework"
	"github.com/viant/carrick/model"
	"github.com/viant/carrick/resolver"
	"github.com/viant/carrick/routergraph"
	"github.com/viant/carrick/symtab"
	"github.com/viant/carrick/testkit"
	"github.com/viant/carrick/values"
)

func buildUnit(t *testing.T, repo model.RepoID, path, src string) (*model.SourceUnit, *model.RouterGraph) {
	t.Helper()
	unitID := model.NewUnitID(repo, path)
	root := testkit.MustParse([]byte(src))
	source := []byte(src)
	table := symtab.Index(string(unitID), path, root, source)
	r := framework.NewRecognizer()
	sites := r.Recognize(unitID, path, root, source, table, values.NewEvaluator())
	graph := routergraph.Build(sites)
	unit := &model.SourceUnit{ID: unitID, Repo: repo, Path: path, Tree: root, Source: source, Symbols: table}
	return unit, graph
}

func TestResolveCrossFileImportedRouter(t *testing.T) {
	appUnit, appGraph := buildUnit(t, "repoA", "/app.js", `
import express from "express";
import users from "./users";
const app = express();
app.use("/users", users);
`)
	usersUnit, usersGraph := buildUnit(t, "repoA", "/users.js", `
import express from "express";
const router = express.Router();
router.get("/:id", (req, res) => res.send(1));
export default router;
`)

	units := []*model.SourceUnit{appUnit, usersUnit}
	graphs := map[model.UnitID]*model.RouterGraph{appUnit.ID: appGraph, usersUnit.ID: usersGraph}

	resolve := func(from model.UnitID, specifier string) (model.UnitID, bool) {
		if specifier == "./users" {
			return usersUnit.ID, true
		}
		return "", false
	}

	resolved := resolver.Resolve(units, graphs, resolve)
	require.Len(t, resolved, 1)

	var ref model.RouterRef
	for _, v := range resolved {
		ref = v
	}
	bound, ok := ref.(model.ResolvedRef)
	require.True(t, ok)
	_, exists := usersGraph.Nodes[bound.Node]
	assert.True(t, exists)
}

func TestResolveModuleNotFoundReason(t *testing.T) {
	appUnit, appGraph := buildUnit(t, "repoA", "/app.js", `
import express from "express";
import users from "./users";
const app = express();
app.use("/users", users);
`)
	units := []*model.SourceUnit{appUnit}
	graphs := map[model.UnitID]*model.RouterGraph{appUnit.ID: appGraph}

	resolve := func(from model.UnitID, specifier string) (model.UnitID, bool) { return "", false }
	resolved := resolver.Resolve(units, graphs, resolve)
	require.Len(t, resolved, 1)
	for _, v := range resolved {
		ref, ok := v.(model.UnresolvedRef)
		require.True(t, ok)
		assert.Equal(t, model.ReasonModuleNotFound, ref.Reason)
	}
}

func TestRelativeResolverProbesExtensions(t *testing.T) {
	appUnit := &model.SourceUnit{ID: "repoA:/app.js", Repo: "repoA", Path: "/app.js"}
	usersUnit := &model.SourceUnit{ID: "repoA:/users.js", Repo: "repoA", Path: "/users.js"}
	rr := resolver.NewRelativeResolver([]*model.SourceUnit{appUnit, usersUnit})

	got, ok := rr.Resolve(appUnit.ID, "./users")
	require.True(t, ok)
	assert.Equal(t, usersUnit.ID, got)

	_, ok = rr.Resolve(appUnit.ID, "express")
	assert.False(t, ok)
}
