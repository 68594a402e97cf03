package model

// NodeKind distinguishes the two RouterNode subtypes named in spec §3.1
// (AppNode, SubRouter). Modeled as a tag on a single struct, following
// the teacher's Type.Kind reflect.Kind convention, since both subtypes
// share every field and only differ in traversal root-ness.
type NodeKind string

const (
	AppNode   NodeKind = "app"
	SubRouter NodeKind = "subrouter"
)

// EndpointLeaf is (method, subpath, handler_span) registered directly on
// a router (spec §3.1).
type EndpointLeaf struct {
	Method      HttpMethod   `json:"method" yaml:"method"`
	Subpath     PartialValue `json:"-" yaml:"-"`
	SubpathText string       `json:"subpath" yaml:"subpath"`
	HandlerSpan Span         `json:"handlerSpan" yaml:"handlerSpan"`

	RequestType  string `json:"requestType,omitempty" yaml:"requestType,omitempty"`
	ResponseType string `json:"responseType,omitempty" yaml:"responseType,omitempty"`
}

// RouterRef is either a resolved RouterNode id or a pending UnresolvedRef
// (spec §3.1). Implemented as an interface since the two variants carry
// different payloads.
type RouterRef interface {
	routerRef()
}

// ResolvedRef points at a concrete RouterNode, identified by id rather
// than an owning pointer (spec §9: "id-based indirection rather than
// shared owning references").
type ResolvedRef struct {
	Node NodeID
}

func (ResolvedRef) routerRef() {}

// UnresolvedReason enumerates why a mount could not be resolved (spec §4.5).
type UnresolvedReason string

const (
	ReasonNotARouter     UnresolvedReason = "not-a-router"
	ReasonModuleNotFound UnresolvedReason = "module-not-found"
	ReasonExportNotFound UnresolvedReason = "export-not-found"
	ReasonCycle          UnresolvedReason = "cycle"
	ReasonUnboundSymbol  UnresolvedReason = "unbound-symbol"
)

// UnresolvedRef marks a MountEdge's child as pending (or permanently
// failed) resolution, carrying a diagnostic reason once resolution has
// been attempted.
type UnresolvedRef struct {
	Symbol *Symbol
	Reason UnresolvedReason
}

func (UnresolvedRef) routerRef() {}

// MountEdge is "parent router mounts child router at prefix" (spec §3.1).
type MountEdge struct {
	ID     string
	Parent NodeID
	Prefix PartialValue
	Child  RouterRef
	Span   Span
}

// RouterNode is a node in the router graph (spec §3.1).
type RouterNode struct {
	ID     NodeID
	Kind   NodeKind
	Unit   UnitID
	Span   Span
	Mounts []*MountEdge
	Leaves []*EndpointLeaf
}

// RouterGraph is the per-SourceUnit output of the router graph builder
// (spec §4.4): the RouterNodes declared in one unit plus their mounts
// and leaves.
type RouterGraph struct {
	Unit  UnitID
	Nodes map[NodeID]*RouterNode
}

// NewRouterGraph creates an empty graph for a unit.
func NewRouterGraph(unit UnitID) *RouterGraph {
	return &RouterGraph{Unit: unit, Nodes: make(map[NodeID]*RouterNode)}
}

// AddNode registers a RouterNode in the graph.
func (g *RouterGraph) AddNode(n *RouterNode) {
	g.Nodes[n.ID] = n
}
