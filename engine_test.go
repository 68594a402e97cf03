package carrick_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/viant/carrick"
	"github.com/viant/carrick/model"
	"github.com/viant/carrick/resolver"
	"github.com/viant/carrick/testkit"
)

func unit(repo model.RepoID, path, src string) *model.SourceUnit {
	source := []byte(src)
	var tree *sitter.Node
	if src != "" {
		tree = testkit.MustParse(source)
	}
	return &model.SourceUnit{
		ID:     model.NewUnitID(repo, path),
		Repo:   repo,
		Path:   path,
		Tree:   tree,
		Source: source,
	}
}

func TestEngineAnalyzeAcrossRepos(t *testing.T) {
	backend := model.Repository{
		ID: "backend",
		Units: []*model.SourceUnit{
			unit("backend", "/app.js", `
import express from "express";
import users from "./users";
const app = express();
app.use("/users", users);
`),
			unit("backend", "/users.js", `
import express from "express";
const router = express.Router();
router.get("/:id", (req, res) => res.send(1));
export default router;
`),
		},
	}
	frontend := model.Repository{
		ID: "frontend",
		Units: []*model.SourceUnit{
			unit("frontend", "/client.js", `
fetch("/users/42");
fetch("/orders/1", { method: "POST" });
`),
		},
	}

	allUnits := append(append([]*model.SourceUnit{}, backend.Units...), frontend.Units...)
	engine := carrick.NewEngine(carrick.WithModuleResolver(resolver.NewRelativeResolver(allUnits).Resolve))

	result, err := engine.Analyze(context.Background(), []model.Repository{backend, frontend})
	require.NoError(t, err)

	require.Len(t, result.Endpoints, 1)
	assert.Equal(t, "/users/:id", result.Endpoints[0].PathText)
	assert.Equal(t, model.RepoID("backend"), result.Endpoints[0].RepoID)

	require.Len(t, result.Calls, 2)

	var missing int
	for _, issue := range result.Issues {
		if issue.Kind == model.IssueMissingEndpoint {
			missing++
		}
	}
	assert.Equal(t, 1, missing) // the /orders/1 call has no registered endpoint
}

func TestEngineSkipsUnitWithNoParsedTree(t *testing.T) {
	repo := model.Repository{
		ID: "svc",
		Units: []*model.SourceUnit{
			{ID: model.NewUnitID("svc", "/broken.js"), Repo: "svc", Path: "/broken.js"},
		},
	}
	engine := carrick.NewEngine()
	result, err := engine.Analyze(context.Background(), []model.Repository{repo})
	require.NoError(t, err)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, model.IssueParseMissing, result.Issues[0].Kind)
}
