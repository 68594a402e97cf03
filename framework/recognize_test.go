package framework_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/carrick/framework"
	"github.com/viant/carrick/model"
	"github.com/viant/carrick/symtab"
	"github.com/viant/carrick/testkit"
	"github.com/viant/carrick/values"
)

func recognize(t *testing.T, src string) *framework.RecognizedSites {
	t.Helper()
	root := testkit.MustParse([]byte(src))
	table := symtab.Index("u1", "app.js", root, []byte(src))
	r := framework.NewRecognizer()
	return r.Recognize("u1", "app.js", root, []byte(src), table, values.NewEvaluator())
}

func TestRecognizeAppWithSingleEndpoint(t *testing.T) {
	src := `
const express = require("express");
const app = express();
app.get("/users", (req, res) => res.send(users));
`
	sites := recognize(t, src)
	require.Len(t, sites.Creations, 1)
	require.Len(t, sites.Endpoints, 1)
	ep := sites.Endpoints[0]
	assert.Equal(t, sites.Creations[0].NodeID, ep.Router)
	assert.Equal(t, model.GET, ep.Leaf.Method)
	assert.Equal(t, "/users", ep.Leaf.SubpathText)
}

func TestRecognizeNestedRouterMount(t *testing.T) {
	src := `
const express = require("express");
const app = express();
const users = express.Router();
users.get("/:id", (req, res) => res.send(1));
app.use("/users", users);
`
	sites := recognize(t, src)
	require.Len(t, sites.Creations, 2)
	require.Len(t, sites.Mounts, 1)
	mount := sites.Mounts[0]
	assert.Equal(t, "/users", mount.PrefixText)
	assert.NotEqual(t, model.NodeID(""), mount.Child.Node)
}

func TestRecognizeImportedMountIsPendingSymbol(t *testing.T) {
	src := `
import express from "express";
import users from "./users";
const app = express();
app.use("/users", users);
`
	sites := recognize(t, src)
	require.Len(t, sites.Mounts, 1)
	mount := sites.Mounts[0]
	assert.Equal(t, model.NodeID(""), mount.Child.Node)
	require.NotNil(t, mount.Child.Symbol)
	assert.Equal(t, model.SymbolImport, mount.Child.Symbol.Kind)
	assert.Equal(t, "./users", mount.Child.Symbol.ModuleSpecifier)
}

func TestRecognizeUseLastRouterWins(t *testing.T) {
	src := `
const express = require("express");
const app = express();
const a = express.Router();
const b = express.Router();
app.use(logger, a, b);
`
	sites := recognize(t, src)
	require.Len(t, sites.Mounts, 1)
	// "b" is declared on line 5 (the source starts with a blank line 1);
	// the last router-like argument wins, so the mounted child must be the
	// creation site on that line, not "a"'s (line 4).
	var bLine int
	for _, creation := range sites.Creations {
		if creation.Span.StartLine == 5 {
			bLine = creation.Span.StartLine
		}
	}
	require.Equal(t, 5, bLine)

	var mountedLine int
	for _, creation := range sites.Creations {
		if creation.NodeID == sites.Mounts[0].Child.Node {
			mountedLine = creation.Span.StartLine
		}
	}
	assert.Equal(t, 5, mountedLine)
}

func TestRecognizeFetchCall(t *testing.T) {
	src := `
fetch("/api/orders", { method: "POST" });
`
	sites := recognize(t, src)
	require.Len(t, sites.Calls, 1)
	call := sites.Calls[0]
	assert.Equal(t, model.POST, call.Method)
	assert.Equal(t, "/api/orders", call.URLText)
}

func TestRecognizeAxiosVerbCall(t *testing.T) {
	src := `
axios.get("/api/orders");
`
	sites := recognize(t, src)
	require.Len(t, sites.Calls, 1)
	assert.Equal(t, model.GET, sites.Calls[0].Method)
	assert.Equal(t, "/api/orders", sites.Calls[0].URLText)
}
