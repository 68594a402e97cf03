package framework

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/viant/carrick/model"
	"github.com/viant/carrick/symtab"
	"github.com/viant/carrick/values"
)

// RouterCreationSite is a Symbol bound to a call recognized as a router
// factory (spec §4.3: "binds the resulting router identity to the
// receiving Symbol"). NodeID is synthesized here and carried through
// routergraph/resolver purely as an internal correlation key; it never
// appears in a materialized result.
type RouterCreationSite struct {
	NodeID    model.NodeID
	Signature string
	Span      model.Span
}

// EndpointSite is `router.<verb>(pathExpr, ...handlers)` or
// `router.all(...)` (spec §4.3).
type EndpointSite struct {
	Router model.NodeID
	Leaf   model.EndpointLeaf
}

// MountChild is the argument to router.use(...) that resolved (in this
// unit) to another recognized router, or a bare Symbol pending cross-file
// resolution by the resolver package (spec §4.5).
type MountChild struct {
	Node   model.NodeID
	Symbol *model.Symbol
}

// MountSite is a `router.use(...)` call, in any of its three forms
// (spec §4.3): `use(pathExpr, child)`, `use(child)` (prefix defaults to
// the empty literal), and `use(middleware)` (no router-like argument;
// never produced as a MountSite).
type MountSite struct {
	Router     model.NodeID
	Prefix     model.PartialValue
	PrefixText string
	Child      MountChild
	Span       model.Span
}

// CallSite is a recognized HTTP client invocation (spec §4.3).
type CallSite struct {
	Method       model.HttpMethod
	URL          model.PartialValue
	URLText      string
	Span         model.Span
	RequestType  model.TypeRef
	ResponseType model.TypeRef
}

// RecognizedSites is the per-SourceUnit output of Recognize, consumed by
// routergraph.Build (spec §4.4).
type RecognizedSites struct {
	Unit      model.UnitID
	Creations []RouterCreationSite
	Endpoints []EndpointSite
	Mounts    []MountSite
	Calls     []CallSite
}

// Recognizer holds the signature table the recognizer classifies calls
// against (spec §9: extending support means adding a Signature, not a
// code path).
type Recognizer struct {
	Signatures []Signature
}

// NewRecognizer builds a Recognizer over the default signature set.
func NewRecognizer() *Recognizer {
	return &Recognizer{Signatures: DefaultSignatures()}
}

func (r *Recognizer) factorySignature(callee string) (Signature, bool) {
	for _, sig := range r.Signatures {
		if sig.Kind == SiteRouterFactory && sig.Callee == callee {
			return sig, true
		}
	}
	return Signature{}, false
}

// Recognize walks unit's syntax tree (reusing symtab's traversal via its
// Hook mechanism so every call site is observed with correct lexical
// scope, per symtab's Walk contract) and produces RecognizedSites.
func (r *Recognizer) Recognize(unitID model.UnitID, file string, tree *sitter.Node, src []byte, table *model.SymbolTable, ev *values.Evaluator) *RecognizedSites {
	sites := &RecognizedSites{Unit: unitID}
	routers := map[*model.Symbol]model.NodeID{}

	// Pass 1: tag every Symbol whose initializer is a recognized router
	// factory call, across every scope symtab indexed.
	for _, scope := range table.Scopes {
		for _, sym := range scope.Names {
			node, ok := sym.Init.(*sitter.Node)
			if !ok || node == nil || node.Type() != "call_expression" && node.Type() != "new_expression" {
				continue
			}
			callee := calleeText(node, src)
			if sig, ok := r.factorySignature(callee); ok {
				id := model.NewNodeID()
				routers[sym] = id
				sites.Creations = append(sites.Creations, RouterCreationSite{
					NodeID:    id,
					Signature: sig.Name,
					Span:      spanOf(node, file),
				})
			}
		}
	}

	// Pass 2: walk every node, classifying call_expressions into
	// endpoint/mount/call sites. Reuses symtab.Walk's traversal+scope
	// threading rather than re-deriving it.
	symtab.Walk(string(unitID), file, tree, src, func(n *sitter.Node, scope *model.Scope) {
		if n.Type() != "call_expression" {
			return
		}
		fn := n.ChildByFieldName("function")
		if fn == nil {
			return
		}
		if fn.Type() == "member_expression" {
			obj := fn.ChildByFieldName("object")
			prop := fn.ChildByFieldName("property")
			if obj != nil && prop != nil && obj.Type() == "identifier" {
				if sym, _ := scope.Lookup(text(obj, src)); sym != nil {
					if routerID, isRouter := routers[sym]; isRouter {
						r.classifyRouterCall(sites, routerID, routers, n, prop, scope, src, file, ev)
						return
					}
				}
			}
		}
		r.classifyClientCall(sites, n, fn, scope, src, file, ev)
	})

	return sites
}

// classifyRouterCall handles a call whose receiver resolved to a
// recognized router Symbol: verb methods, `all`, and `use` (spec §4.3's
// three `use` forms plus the open question's last-router-like-arg rule).
func (r *Recognizer) classifyRouterCall(sites *RecognizedSites, routerID model.NodeID, routers map[*model.Symbol]model.NodeID, call, prop *sitter.Node, scope *model.Scope, src []byte, file string, ev *values.Evaluator) {
	verb := text(prop, src)
	args := argList(call)

	switch verb {
	case "use":
		r.classifyUse(sites, routerID, routers, call, args, scope, src, file, ev)
	case "all":
		if len(args) == 0 {
			return
		}
		pathVal := ev.Evaluate(args[0], scope, src)
		sites.Endpoints = append(sites.Endpoints, EndpointSite{
			Router: routerID,
			Leaf: model.EndpointLeaf{
				Method:      model.ANY,
				Subpath:     pathVal,
				SubpathText: pathVal.String(),
				HandlerSpan: spanOf(call, file),
			},
		})
	default:
		method, ok := routerVerbs[verb]
		if !ok || len(args) == 0 {
			return
		}
		pathVal := ev.Evaluate(args[0], scope, src)
		leaf := model.EndpointLeaf{
			Method:      method,
			Subpath:     pathVal,
			SubpathText: pathVal.String(),
			HandlerSpan: spanOf(call, file),
		}
		if len(args) > 1 {
			reqType, respType := captureTypeRefs(args[len(args)-1], src)
			leaf.RequestType, leaf.ResponseType = string(reqType), string(respType)
		}
		sites.Endpoints = append(sites.Endpoints, EndpointSite{Router: routerID, Leaf: leaf})
	}
}

// classifyUse implements the `router.use(...)` forms of spec §4.3: a
// leading path expression is optional, and among the remaining arguments
// only router-like ones matter. Per spec §9's open question, when more
// than one router-like argument is present ("mixed middleware and
// sub-router"), only the LAST router-like argument is treated as the
// mounted child; earlier ones are treated as plain middleware and
// ignored, matching the documented-but-unconfirmed source behavior.
func (r *Recognizer) classifyUse(sites *RecognizedSites, routerID model.NodeID, routers map[*model.Symbol]model.NodeID, call *sitter.Node, args []*sitter.Node, scope *model.Scope, src []byte, file string, ev *values.Evaluator) {
	if len(args) == 0 {
		return
	}

	prefix := model.PartialValue(model.Literal(""))
	rest := args
	if args[0].Type() == "string" || args[0].Type() == "template_string" {
		prefix = ev.Evaluate(args[0], scope, src)
		rest = args[1:]
	} else if len(args) > 1 {
		// Any other leading expression that folds to a path value (a
		// constant, process.env.X, ...) is the mount prefix too.
		if v := ev.Evaluate(args[0], scope, src); !model.IsUnknown(v) {
			prefix = v
			rest = args[1:]
		}
	}

	var child *MountChild
	for _, arg := range rest {
		if arg.Type() != "identifier" {
			continue
		}
		sym, _ := scope.Lookup(text(arg, src))
		if sym == nil {
			continue
		}
		if childID, isRouter := routers[sym]; isRouter {
			// OPEN QUESTION (spec §9, DESIGN.md): router.use(pathExpr,
			// middleware, child) semantics with more than one router-like
			// argument. Keeping only the last one as the mounted child.
			child = &MountChild{Node: childID}
			continue
		}
		// An import is not a recognized router in this unit but may still
		// resolve to one across files. Record it as a pending Symbol
		// reference; a later router-like argument in this same call still
		// overrides it. Any other local binding is plain middleware.
		if sym.Kind != model.SymbolImport {
			continue
		}
		child = &MountChild{Symbol: sym}
	}
	if child == nil {
		// router.use(middleware_not_router): ignored per spec §4.3.
		return
	}
	sites.Mounts = append(sites.Mounts, MountSite{
		Router:     routerID,
		Prefix:     prefix,
		PrefixText: prefix.String(),
		Child:      *child,
		Span:       spanOf(call, file),
	})
}

// classifyClientCall matches a call against the HTTP-client signatures
// (spec §4.3's "Call sites").
func (r *Recognizer) classifyClientCall(sites *RecognizedSites, call, fn *sitter.Node, scope *model.Scope, src []byte, file string, ev *values.Evaluator) {
	var sig Signature
	var verb string
	var matched bool

	switch fn.Type() {
	case "identifier":
		name := text(fn, src)
		for _, s := range r.Signatures {
			if s.Kind == SiteHTTPClient && s.Callee == name && len(s.Verbs) == 0 {
				sig, matched = s, true
				break
			}
		}
	case "member_expression":
		obj := fn.ChildByFieldName("object")
		prop := fn.ChildByFieldName("property")
		if obj == nil || prop == nil || obj.Type() != "identifier" {
			return
		}
		objName := text(obj, src)
		propName := text(prop, src)
		for _, s := range r.Signatures {
			if s.Kind != SiteHTTPClient || s.Callee != objName || len(s.Verbs) == 0 {
				continue
			}
			for _, v := range s.Verbs {
				if v == propName {
					sig, verb, matched = s, propName, true
					break
				}
			}
			if matched {
				break
			}
		}
	}
	if !matched {
		return
	}

	args := argList(call)
	method := sig.DefaultMethod
	if verb != "" {
		method = model.ParseMethod(verb)
	}

	var urlVal model.PartialValue = model.Unknown{Reason: "no-url-argument"}
	for _, shape := range sig.Args {
		if shape.Position >= len(args) {
			continue
		}
		switch shape.Kind {
		case ArgPath:
			urlVal = ev.Evaluate(args[shape.Position], scope, src)
		case ArgInit:
			if m, ok := readObjectField(args[shape.Position], "method", src); ok {
				method = model.ParseMethod(unquoteTextOrIdent(m, src))
			}
		case ArgConfig:
			cfg := args[shape.Position]
			if u, ok := readObjectField(cfg, "url", src); ok {
				urlVal = ev.Evaluate(u, scope, src)
			}
			if m, ok := readObjectField(cfg, "method", src); ok {
				method = model.ParseMethod(unquoteTextOrIdent(m, src))
			}
		}
	}

	reqType, respType := captureTypeRefs(call, src)
	sites.Calls = append(sites.Calls, CallSite{
		Method:       method,
		URL:          urlVal,
		URLText:      urlVal.String(),
		Span:         spanOf(call, file),
		RequestType:  reqType,
		ResponseType: respType,
	})
}

func argList(call *sitter.Node) []*sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, args.NamedChildCount())
	for i := 0; i < int(args.NamedChildCount()); i++ {
		out = append(out, args.NamedChild(i))
	}
	return out
}

// calleeText renders a call/new expression's callee as a dotted string
// ("express", "Router.create") for matching against Signature.Callee.
func calleeText(n *sitter.Node, src []byte) string {
	field := "function"
	if n.Type() == "new_expression" {
		field = "constructor"
	}
	fn := n.ChildByFieldName(field)
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "identifier":
		return text(fn, src)
	case "member_expression":
		obj := fn.ChildByFieldName("object")
		prop := fn.ChildByFieldName("property")
		if obj == nil || prop == nil {
			return ""
		}
		return text(obj, src) + "." + text(prop, src)
	}
	return ""
}

func text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return string(src[n.StartByte():n.EndByte()])
}

func spanOf(n *sitter.Node, file string) model.Span {
	start := n.StartPoint()
	end := n.EndPoint()
	return model.Span{
		File:      file,
		StartLine: int(start.Row) + 1,
		StartCol:  int(start.Column),
		EndLine:   int(end.Row) + 1,
		EndCol:    int(end.Column),
	}
}

// readObjectField reads a literal/identifier field off an object literal
// argument (e.g. `{ method: "POST" }`), used for fetch/got's init object
// and axios's config object. Only a direct object-literal argument is
// supported; a non-literal init/config argument yields (_, false) and the
// call keeps its signature default.
func readObjectField(n *sitter.Node, key string, src []byte) (*sitter.Node, bool) {
	if n == nil || n.Type() != "object" {
		return nil, false
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		pair := n.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}
		keyNode := pair.ChildByFieldName("key")
		valNode := pair.ChildByFieldName("value")
		if keyNode == nil || valNode == nil {
			continue
		}
		if unquoteTextOrIdent(keyNode, src) == key {
			return valNode, true
		}
	}
	return nil, false
}

func unquoteTextOrIdent(n *sitter.Node, src []byte) string {
	s := text(n, src)
	if len(s) >= 2 {
		f, l := s[0], s[len(s)-1]
		if (f == '"' && l == '"') || (f == '\'' && l == '\'') || (f == '`' && l == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// captureTypeRefs reads TypeScript type annotations surrounding a
// recognized site, per spec §4.3's closing paragraph. For a handler
// function (endpoint sites) that means its final parameter's type
// annotation (request type) and its return type (response type). For a
// bare call expression (client call sites) that means explicit generic
// type arguments (`axios.get<User>(url)`), first argument treated as the
// response type and second as the request type, matching axios's own
// `<Response, Request>` generic order. Plain JavaScript carries neither,
// in which case both fields come back empty and the caller still
// records the site.
func captureTypeRefs(n *sitter.Node, src []byte) (model.TypeRef, model.TypeRef) {
	if n == nil {
		return "", ""
	}
	switch n.Type() {
	case "call_expression":
		targs := n.ChildByFieldName("type_arguments")
		if targs == nil || targs.NamedChildCount() == 0 {
			return "", ""
		}
		var resp, req model.TypeRef
		resp = model.TypeRef(text(targs.NamedChild(0), src))
		if targs.NamedChildCount() > 1 {
			req = model.TypeRef(text(targs.NamedChild(1), src))
		}
		return req, resp
	default:
		var req, resp model.TypeRef
		params := n.ChildByFieldName("parameters")
		if params != nil && params.NamedChildCount() > 0 {
			last := params.NamedChild(int(params.NamedChildCount()) - 1)
			if ann := last.ChildByFieldName("type"); ann != nil {
				req = model.TypeRef(text(ann, src))
			}
		}
		if ret := n.ChildByFieldName("return_type"); ret != nil {
			resp = model.TypeRef(text(ret, src))
		}
		return req, resp
	}
}
