// Package routergraph implements the Router Graph Builder (spec §4.4)
// and the Absolute-path Materializer (spec §4.6): assembling, per
// SourceUnit, the directed multigraph rooted at AppNodes, then
// flattening each root into AbsoluteEndpoints.
package routergraph

import (
	"strconv"

	"github.com/viant/carrick/framework"
	"github.com/viant/carrick/model"
)

// Build assembles unit's RouterGraph from its recognized sites (spec
// §4.4's contract): the RouterNodes declared in this unit plus their
// MountEdges (possibly UnresolvedRef, pending the resolver package) and
// EndpointLeaves. A creation site with no mounts and no incoming mount
// anywhere in the unit is still registered as a node; whether it ends up
// an AppNode or an orphaned SubRouter is decided once cross-unit mounts
// are known, so every node is provisionally tagged AppNode here and then
// demoted by DemoteMounted when a MountEdge in this unit targets it; a
// node mounted from another unit is left out of the roots by Materialize.
func Build(sites *framework.RecognizedSites) *model.RouterGraph {
	graph := model.NewRouterGraph(sites.Unit)

	for _, creation := range sites.Creations {
		graph.AddNode(&model.RouterNode{
			ID:   creation.NodeID,
			Kind: model.AppNode,
			Unit: sites.Unit,
			Span: creation.Span,
		})
	}

	for _, ep := range sites.Endpoints {
		node, ok := graph.Nodes[ep.Router]
		if !ok {
			continue
		}
		leaf := ep.Leaf
		node.Leaves = append(node.Leaves, &leaf)
	}

	seq := 0
	for _, mount := range sites.Mounts {
		node, ok := graph.Nodes[mount.Router]
		if !ok {
			continue
		}
		seq++
		edge := &model.MountEdge{
			ID:     string(sites.Unit) + "#mount" + strconv.Itoa(seq),
			Parent: mount.Router,
			Prefix: mount.Prefix,
			Span:   mount.Span,
		}
		edge.Child = mountChildRef(mount.Child, sites, graph, mount.Span)
		node.Mounts = append(node.Mounts, edge)
	}

	DemoteMounted(graph)
	return graph
}

// mountChildRef resolves a MountSite's child to a RouterRef. A child
// that is a router created in this same unit resolves immediately
// (ResolvedRef); a router identifier used before its creation site in
// source order still resolves structurally here (creation order doesn't
// gate same-unit resolution — only cross-unit import resolution is
// deferred), so the only UnresolvedRef this stage produces is for a
// child bound to an import/unbound Symbol (spec §4.4: "order within a
// file is source order" governs traversal, not resolvability).
func mountChildRef(child framework.MountChild, sites *framework.RecognizedSites, graph *model.RouterGraph, span model.Span) model.RouterRef {
	if child.Node != "" {
		if _, ok := graph.Nodes[child.Node]; ok {
			return model.ResolvedRef{Node: child.Node}
		}
	}
	if child.Symbol != nil {
		reason := model.ReasonNotARouter
		if child.Symbol.Kind == model.SymbolImport {
			reason = model.ReasonUnboundSymbol
		}
		return model.UnresolvedRef{Symbol: child.Symbol, Reason: reason}
	}
	return model.UnresolvedRef{Reason: model.ReasonNotARouter}
}

// DemoteMounted retags every RouterNode that is the target of at least
// one same-unit MountEdge as a SubRouter; nodes nobody mounts locally
// stay AppNode candidates (cross-unit demotion, when some other unit
// mounts this node via an import, is applied by the caller once the
// resolver has run — see Materialize's root selection).
func DemoteMounted(graph *model.RouterGraph) {
	for _, node := range graph.Nodes {
		for _, edge := range node.Mounts {
			if ref, ok := edge.Child.(model.ResolvedRef); ok {
				if target, ok := graph.Nodes[ref.Node]; ok {
					target.Kind = model.SubRouter
				}
			}
		}
	}
}
