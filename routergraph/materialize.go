package routergraph

import (
	"sort"

	"github.com/viant/carrick/model"
)

// Materialize flattens every AppNode across graphs into AbsoluteEndpoints
// (spec §4.6). resolved carries the cross-unit bindings the resolver
// package (§4.5) produced for MountEdges whose child was an
// UnresolvedRef at Build time; a MountEdge id absent from resolved keeps
// whatever RouterRef Build already gave it.
func Materialize(repo model.RepoID, graphs map[model.UnitID]*model.RouterGraph, resolved map[string]model.RouterRef) ([]model.AbsoluteEndpoint, []model.Issue) {
	nodeIndex, ownerGraph := indexNodes(graphs)
	roots := appRoots(graphs, nodeIndex, resolved)

	var endpoints []model.AbsoluteEndpoint
	var issues []model.Issue

	for _, root := range roots {
		d := &dfs{
			repo:       repo,
			nodeIndex:  nodeIndex,
			ownerGraph: ownerGraph,
			resolved:   resolved,
			onStack:    map[model.NodeID]bool{},
		}
		d.walk(root, model.Literal(""), nil)
		endpoints = append(endpoints, d.endpoints...)
		issues = append(issues, d.issues...)
	}

	sort.Slice(endpoints, func(i, j int) bool {
		return endpoints[i].HandlerSpan.Less(endpoints[j].HandlerSpan)
	})
	sort.Slice(issues, func(i, j int) bool {
		return issues[i].Span.Less(issues[j].Span)
	})
	return endpoints, issues
}

func indexNodes(graphs map[model.UnitID]*model.RouterGraph) (map[model.NodeID]*model.RouterNode, map[model.NodeID]model.UnitID) {
	nodeIndex := map[model.NodeID]*model.RouterNode{}
	owner := map[model.NodeID]model.UnitID{}
	for unitID, g := range graphs {
		for id, n := range g.Nodes {
			nodeIndex[id] = n
			owner[id] = unitID
		}
	}
	return nodeIndex, owner
}

// appRoots returns every node still tagged AppNode after DemoteMounted's
// same-unit pass and after the cross-unit resolver has run: a node
// mounted from another unit is demoted here too, since only the
// resolver knows about that edge.
func appRoots(graphs map[model.UnitID]*model.RouterGraph, nodeIndex map[model.NodeID]*model.RouterNode, resolved map[string]model.RouterRef) []model.NodeID {
	mounted := map[model.NodeID]bool{}
	for _, g := range graphs {
		for _, n := range g.Nodes {
			for _, edge := range n.Mounts {
				child := edge.Child
				if r, ok := resolved[edge.ID]; ok {
					child = r
				}
				if ref, ok := child.(model.ResolvedRef); ok {
					mounted[ref.Node] = true
				}
			}
		}
	}
	var roots []model.NodeID
	ids := make([]model.NodeID, 0, len(nodeIndex))
	for id := range nodeIndex {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if nodeIndex[id].Kind == model.AppNode && !mounted[id] {
			roots = append(roots, id)
		}
	}
	return roots
}

type dfs struct {
	repo       model.RepoID
	nodeIndex  map[model.NodeID]*model.RouterNode
	ownerGraph map[model.NodeID]model.UnitID
	resolved   map[string]model.RouterRef
	onStack    map[model.NodeID]bool

	endpoints []model.AbsoluteEndpoint
	issues    []model.Issue
}

// walk implements spec §4.6's traversal: DFS over outgoing MountEdges,
// accumulating a prefix PartialValue, emitting one AbsoluteEndpoint per
// EndpointLeaf at each node before recursing into children.
func (d *dfs) walk(id model.NodeID, prefix model.PartialValue, chain []model.Span) {
	node := d.nodeIndex[id]
	if node == nil {
		return
	}
	if d.onStack[id] {
		d.issues = append(d.issues, model.NewIssue(model.IssueRouterCycle, d.repo, node.Span,
			"router cycle detected re-entering an already-visited node"))
		return
	}
	d.onStack[id] = true
	defer delete(d.onStack, id)

	nodeChain := append(append([]model.Span{}, chain...), node.Span)

	for _, leaf := range node.Leaves {
		path := concatPath(prefix, leaf.Subpath)
		endpoint := toAbsoluteEndpoint(d.repo, leaf, path, nodeChain)
		d.endpoints = append(d.endpoints, endpoint)
		if endpoint.PathUnknown {
			d.issues = append(d.issues, model.NewIssue(model.IssueUnknownPath, d.repo, leaf.HandlerSpan,
				"endpoint path is not a literal path: "+endpoint.PathText))
		}
	}

	for _, edge := range node.Mounts {
		child := edge.Child
		if ref, ok := d.resolved[edge.ID]; ok {
			child = ref
		}
		switch ref := child.(type) {
		case model.ResolvedRef:
			childPrefix := concatPath(prefix, edge.Prefix)
			d.walk(ref.Node, childPrefix, nodeChain)
		case model.UnresolvedRef:
			d.issues = append(d.issues, model.NewIssue(model.IssueOrphanMount, d.repo, edge.Span,
				"mount target could not be resolved: "+string(ref.Reason)))
		}
	}
}

// concatPath implements spec §4.6's path concatenation rules: adjacent
// literals merge via model.Concat (itself merging Templates); Unknown in
// either operand makes the result Unknown, while an EnvVar operand keeps
// the result a symbolic Template (so the endpoint is marked PathUnknown).
func concatPath(parent, child model.PartialValue) model.PartialValue {
	if model.IsUnknown(parent) || model.IsUnknown(child) {
		return model.Unknown{Reason: "path-component-unknown"}
	}
	parentLit, parentIsLit := model.IsLiteral(parent)
	childLit, childIsLit := model.IsLiteral(child)
	if parentIsLit && childIsLit {
		return model.Literal(joinSlash(string(parentLit), string(childLit)))
	}
	return model.Concat(parent, child)
}

// joinSlash collapses a trailing "/" on parent with a leading "/" on
// child into one, and inserts a "/" when child lacks one (spec §4.6).
func joinSlash(parent, child string) string {
	if child == "" {
		return parent
	}
	parentHasSlash := len(parent) > 0 && parent[len(parent)-1] == '/'
	childHasSlash := len(child) > 0 && child[0] == '/'
	switch {
	case parentHasSlash && childHasSlash:
		return parent + child[1:]
	case !parentHasSlash && !childHasSlash:
		return parent + "/" + child
	default:
		return parent + child
	}
}

func toAbsoluteEndpoint(repo model.RepoID, leaf *model.EndpointLeaf, path model.PartialValue, chain []model.Span) model.AbsoluteEndpoint {
	endpoint := model.AbsoluteEndpoint{
		RepoID:       repo,
		Method:       leaf.Method,
		HandlerSpan:  leaf.HandlerSpan,
		OriginChain:  chain,
		RequestType:  model.TypeRef(leaf.RequestType),
		ResponseType: model.TypeRef(leaf.ResponseType),
		Fingerprint:  model.Fingerprint(leaf.HandlerSpan, leaf.SubpathText),
		PathValue:    path,
	}
	if lit, ok := model.IsLiteral(path); ok {
		norm, ok := model.NormalizePath(string(lit))
		if ok {
			endpoint.Path = norm
			endpoint.PathText = norm.String()
			return endpoint
		}
	}
	endpoint.PathUnknown = true
	endpoint.PathText = path.String()
	return endpoint
}
