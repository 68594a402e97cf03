package carrick

import "github.com/viant/carrick/model"

// Result is the core's output (spec §6): every AbsoluteEndpoint and Call
// materialized across all analyzed repositories, plus every Issue raised
// at any stage, from a parse-missing skip to a cross-repo mismatch.
type Result struct {
	Endpoints []model.AbsoluteEndpoint
	Calls     []model.Call
	Issues    []model.Issue
}
