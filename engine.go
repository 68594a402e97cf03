// Package carrick orchestrates the full analysis pipeline described in
// spec §4: per-SourceUnit symbol indexing, constant folding, framework
// recognition and router-graph construction (stages A-D, parallel per
// unit), per-repository cross-file import resolution and absolute-path
// materialization (stages E-F, sequential per repository since
// resolution needs every graph in a repository at once), and finally
// the cross-repo matcher once over the combined output (stage G).
package carrick

import (
	"context"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/viant/carrick/framework"
	"github.com/viant/carrick/match"
	"github.com/viant/carrick/model"
	"github.com/viant/carrick/resolver"
	"github.com/viant/carrick/routergraph"
	"github.com/viant/carrick/symtab"
	"github.com/viant/carrick/values"
)

// Engine runs the pipeline over a set of Repositories. Collaborators are
// injected via Option rather than constructed internally, so the core
// never reaches for a concrete parser, transport, or AI service itself
// (spec §6).
type Engine struct {
	moduleResolver resolver.ModuleResolver
	envMap         map[string]model.RepoID
	signatures     []framework.Signature
	oracle         match.TypeOracle
	logger         *zap.Logger
}

// NewEngine builds an Engine, defaulting the signature table to
// framework.DefaultSignatures() and the logger to a no-op one.
func NewEngine(options ...Option) *Engine {
	e := &Engine{
		signatures: framework.DefaultSignatures(),
		logger:     zap.NewNop(),
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// unitResult is one SourceUnit's stage A-D output.
type unitResult struct {
	unit  *model.SourceUnit
	graph *model.RouterGraph
	calls []model.Call
	issue *model.Issue
}

// Analyze runs the full pipeline over repos and returns the merged
// Result. No cancellation semantics beyond "drop the in-progress run"
// (spec §5): the errgroup's context cancellation on the first stage A-D
// error is the Go-idiomatic expression of that sentence.
func (e *Engine) Analyze(ctx context.Context, repos []model.Repository) (*Result, error) {
	recognizer := &framework.Recognizer{Signatures: e.signatures}
	matcher := match.NewMatcher(e.envMap, e.oracle)

	result := &Result{}

	for _, repo := range repos {
		results := make([]unitResult, len(repo.Units))

		g, gctx := errgroup.WithContext(ctx)
		for i, unit := range repo.Units {
			i, unit := i, unit
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = e.analyzeUnit(recognizer, unit)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		graphs := make(map[model.UnitID]*model.RouterGraph, len(repo.Units))
		var allUnits []*model.SourceUnit
		for _, r := range results {
			if r.issue != nil {
				result.Issues = append(result.Issues, *r.issue)
				continue
			}
			graphs[r.unit.ID] = r.graph
			allUnits = append(allUnits, r.unit)
			result.Calls = append(result.Calls, r.calls...)
		}

		resolved := map[string]model.RouterRef{}
		if e.moduleResolver != nil {
			resolved = resolver.Resolve(allUnits, graphs, e.moduleResolver)
		}

		endpoints, issues := routergraph.Materialize(repo.ID, graphs, resolved)
		result.Endpoints = append(result.Endpoints, endpoints...)
		result.Issues = append(result.Issues, issues...)
	}

	matchIssues := matcher.Classify(ctx, result.Endpoints, result.Calls)
	result.Issues = append(result.Issues, matchIssues...)

	sort.Slice(result.Endpoints, func(i, j int) bool {
		return result.Endpoints[i].HandlerSpan.Less(result.Endpoints[j].HandlerSpan)
	})
	sort.Slice(result.Calls, func(i, j int) bool {
		return result.Calls[i].CallSpan.Less(result.Calls[j].CallSpan)
	})
	sort.Slice(result.Issues, func(i, j int) bool {
		if result.Issues[i].RepoID != result.Issues[j].RepoID {
			return result.Issues[i].RepoID < result.Issues[j].RepoID
		}
		return result.Issues[i].Span.Less(result.Issues[j].Span)
	})

	return result, nil
}

// analyzeUnit runs stages A-D for one SourceUnit: symbol-table indexing,
// framework recognition (which itself folds constants via values.Evaluator
// as it classifies each call), and router-graph construction. A unit
// whose Tree was never produced by the external parser collaborator
// (spec §1) is skipped with a ParseMissing Issue rather than aborting
// the whole run (spec §7).
func (e *Engine) analyzeUnit(recognizer *framework.Recognizer, unit *model.SourceUnit) unitResult {
	tree, ok := unit.Tree.(*sitter.Node)
	if !ok || tree == nil {
		issue := model.NewIssue(model.IssueParseMissing, unit.Repo, model.Span{File: unit.Path},
			"source unit has no parsed syntax tree")
		return unitResult{unit: unit, issue: &issue}
	}

	table := symtab.Index(string(unit.ID), unit.Path, tree, unit.Source)
	unit.Symbols = table

	evaluator := values.NewEvaluator()
	sites := recognizer.Recognize(unit.ID, unit.Path, tree, unit.Source, table, evaluator)
	graph := routergraph.Build(sites)

	calls := make([]model.Call, 0, len(sites.Calls))
	for _, c := range sites.Calls {
		calls = append(calls, model.Call{
			RepoID:       unit.Repo,
			Method:       c.Method,
			URL:          c.URL,
			URLText:      c.URLText,
			CallSpan:     c.Span,
			RequestType:  c.RequestType,
			ResponseType: c.ResponseType,
			Fingerprint:  model.Fingerprint(c.Span, c.URLText),
		})
	}

	return unitResult{unit: unit, graph: graph, calls: calls}
}
