// Package values implements the Value Tracker (spec §4.2): it folds an
// expression, in the context of a scope chain, into a model.PartialValue.
// Evaluate is pure and never fails; it is memoized on (expr, scope) and
// guarantees termination via cycle detection on back-edges.
package values

import (
	"fmt"
	"strconv"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/viant/carrick/model"
	"golang.org/x/sync/singleflight"
)

// Evaluator holds the per-run memoization cache. A zero Evaluator is
// ready to use; construct one per analysis run (spec §5: "Memoization
// caches are scoped to a single run and discarded at its end").
type Evaluator struct {
	mu    sync.Mutex
	memo  map[string]model.PartialValue
	group singleflight.Group

	visiting sync.Map // key -> struct{}, guards against recursive folds
}

// NewEvaluator creates an empty, run-scoped Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{memo: make(map[string]model.PartialValue)}
}

func memoKey(n *sitter.Node, scope *model.Scope) string {
	scopeID := ""
	if scope != nil {
		scopeID = scope.ID
	}
	if n == nil {
		return "nil@" + scopeID
	}
	return fmt.Sprintf("%d:%d@%s", n.StartByte(), n.EndByte(), scopeID)
}

// Evaluate folds expr into a PartialValue, per spec §4.2's contract.
func (e *Evaluator) Evaluate(expr *sitter.Node, scope *model.Scope, src []byte) model.PartialValue {
	if expr == nil {
		return model.Unknown{Reason: "nil-expr"}
	}
	key := memoKey(expr, scope)

	e.mu.Lock()
	if v, ok := e.memo[key]; ok {
		e.mu.Unlock()
		return v
	}
	e.mu.Unlock()

	v, _, _ := e.group.Do(key, func() (interface{}, error) {
		if _, inflight := e.visiting.LoadOrStore(key, struct{}{}); inflight {
			return model.Unknown{Reason: "recursive"}, nil
		}
		defer e.visiting.Delete(key)

		result := e.fold(expr, scope, src)

		e.mu.Lock()
		if e.memo == nil {
			e.memo = make(map[string]model.PartialValue)
		}
		e.memo[key] = result
		e.mu.Unlock()
		return result, nil
	})
	return v.(model.PartialValue)
}

// fold applies the eight folding rules of spec §4.2 in priority order.
func (e *Evaluator) fold(n *sitter.Node, scope *model.Scope, src []byte) model.PartialValue {
	switch n.Type() {
	case "string":
		return model.Literal(unquoteJS(text(n, src)))
	case "number":
		return model.Literal(canonicalNumber(text(n, src)))
	case "true":
		return model.Literal("true")
	case "false":
		return model.Literal("false")
	case "template_string":
		return e.foldTemplateString(n, scope, src)
	case "identifier":
		return e.foldIdentifier(n, scope, src)
	case "member_expression":
		if env, ok := e.foldEnvAccess(n, scope, src); ok {
			return env
		}
		return e.foldMemberAccess(n, scope, src)
	case "subscript_expression":
		return e.foldSubscript(n, scope, src)
	case "binary_expression":
		return e.foldBinary(n, scope, src)
	case "call_expression":
		if env, ok := e.foldEnvGetCall(n, scope, src); ok {
			return env
		}
		return e.foldCall(n, scope, src)
	case "parenthesized_expression":
		if n.NamedChildCount() > 0 {
			return e.Evaluate(n.NamedChild(0), scope, src)
		}
		return model.Unknown{Reason: "empty-paren"}
	case "ternary_expression":
		// Neither branch is statically selectable; joining both is
		// unsound for a lattice that must remain total, so this folds
		// to Unknown unless both branches agree.
		cons := n.ChildByFieldName("consequence")
		alt := n.ChildByFieldName("alternative")
		if cons != nil && alt != nil {
			cv := e.Evaluate(cons, scope, src)
			av := e.Evaluate(alt, scope, src)
			if model.Equal(cv, av) {
				return cv
			}
		}
		return model.Unknown{Reason: "ternary"}
	default:
		return model.Unknown{Reason: kindTag(n.Type())}
	}
}

func kindTag(nodeType string) string {
	return "kind:" + nodeType
}

func text(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return string(src[n.StartByte():n.EndByte()])
}

func unquoteJS(s string) string {
	if len(s) >= 2 {
		f, l := s[0], s[len(s)-1]
		if (f == '"' && l == '"') || (f == '\'' && l == '\'') || (f == '`' && l == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// canonicalNumber renders a numeric literal as a canonical decimal string
// per spec §4.2 rule 1.
func canonicalNumber(raw string) string {
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		if f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return raw
}

// foldTemplateString folds a template literal into a canonicalized
// Template (spec §4.2 rule 2).
func (e *Evaluator) foldTemplateString(n *sitter.Node, scope *model.Scope, src []byte) model.PartialValue {
	var parts []model.PartialValue
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "string_fragment":
			parts = append(parts, model.Literal(text(child, src)))
		case "template_substitution":
			if child.NamedChildCount() > 0 {
				parts = append(parts, e.Evaluate(child.NamedChild(0), scope, src))
			}
		}
	}
	return model.NewTemplate(parts...)
}

// foldIdentifier implements spec §4.2 rule 4: look up in the scope
// chain; if the Symbol's initializer is known, recurse; else Unknown.
func (e *Evaluator) foldIdentifier(n *sitter.Node, scope *model.Scope, src []byte) model.PartialValue {
	name := text(n, src)
	if scope == nil {
		return model.Unknown{Reason: "unbound:" + name}
	}
	sym, _ := scope.Lookup(name)
	if sym == nil {
		return model.Unknown{Reason: "unbound:" + name}
	}
	return e.foldSymbolInit(sym, scope, src)
}

func (e *Evaluator) foldSymbolInit(sym *model.Symbol, scope *model.Scope, src []byte) model.PartialValue {
	if sym.Init == nil {
		if sym.Kind == model.SymbolImport {
			return model.Unknown{Reason: "unresolved-import:" + sym.Name}
		}
		return model.Unknown{Reason: "unbound:" + sym.Name}
	}
	switch init := sym.Init.(type) {
	case *sitter.Node:
		return e.Evaluate(init, scope, src)
	case *model.Projection:
		return e.foldProjection(init, scope, src)
	default:
		return model.Unknown{Reason: "unsupported-init"}
	}
}

// foldProjection resolves a destructured binding against the object/array
// literal its base expression folds to (spec §4.2 rule 6, generalized to
// destructuring as spec §4.1 requires).
func (e *Evaluator) foldProjection(p *model.Projection, scope *model.Scope, src []byte) model.PartialValue {
	baseNode, _ := p.Base.(*sitter.Node)
	if baseNode == nil {
		return model.Unknown{Reason: "unbound:destructured"}
	}
	if baseNode.Type() != "object" && baseNode.Type() != "array" {
		return model.Unknown{Reason: "destructure-non-literal"}
	}
	if p.HasIndex {
		if baseNode.Type() != "array" {
			return model.Unknown{Reason: "destructure-index"}
		}
		idx := 0
		for i := 0; i < int(baseNode.NamedChildCount()); i++ {
			if idx == p.Index {
				return e.Evaluate(baseNode.NamedChild(i), scope, src)
			}
			idx++
		}
		return model.Unknown{Reason: "destructure-index-oob"}
	}
	for i := 0; i < int(baseNode.NamedChildCount()); i++ {
		pair := baseNode.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}
		keyNode := pair.ChildByFieldName("key")
		valNode := pair.ChildByFieldName("value")
		if keyNode == nil || valNode == nil {
			continue
		}
		key := unquoteJS(text(keyNode, src))
		if key == p.Key {
			return e.Evaluate(valNode, scope, src)
		}
	}
	return model.Unknown{Reason: "destructure-key-not-found:" + p.Key}
}

// foldEnvAccess recognizes `process.env.X` (and similar member-access
// forms) per spec §4.2 rule 3.
func (e *Evaluator) foldEnvAccess(n *sitter.Node, scope *model.Scope, src []byte) (model.PartialValue, bool) {
	// member_expression: object.property, where object is itself
	// `process.env` (another member_expression) and property is the
	// identifier naming the variable.
	obj := n.ChildByFieldName("object")
	prop := n.ChildByFieldName("property")
	if obj == nil || prop == nil {
		return nil, false
	}
	if obj.Type() != "member_expression" {
		return nil, false
	}
	innerObj := obj.ChildByFieldName("object")
	innerProp := obj.ChildByFieldName("property")
	if innerObj == nil || innerProp == nil {
		return nil, false
	}
	objText := text(innerObj, src)
	propText := text(innerProp, src)
	if (objText == "process" && propText == "env") || (objText == "import.meta" && propText == "env") {
		return model.EnvVar{Name: text(prop, src)}, true
	}
	return nil, false
}

// foldEnvGetCall recognizes `Deno.env.get("X")`-shaped calls.
func (e *Evaluator) foldEnvGetCall(n *sitter.Node, scope *model.Scope, src []byte) (model.PartialValue, bool) {
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != "member_expression" {
		return nil, false
	}
	obj := fn.ChildByFieldName("object")
	prop := fn.ChildByFieldName("property")
	if obj == nil || prop == nil || text(prop, src) != "get" {
		return nil, false
	}
	if obj.Type() != "member_expression" {
		return nil, false
	}
	innerObj := obj.ChildByFieldName("object")
	innerProp := obj.ChildByFieldName("property")
	if innerObj == nil || innerProp == nil || text(innerObj, src) != "Deno" || text(innerProp, src) != "env" {
		return nil, false
	}
	args := n.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return nil, false
	}
	arg := args.NamedChild(0)
	if arg.Type() != "string" {
		return nil, false
	}
	return model.EnvVar{Name: unquoteJS(text(arg, src))}, true
}

// foldMemberAccess implements spec §4.2 rule 6: member access o.p when o
// folds to an object literal whose key p is known.
func (e *Evaluator) foldMemberAccess(n *sitter.Node, scope *model.Scope, src []byte) model.PartialValue {
	obj := n.ChildByFieldName("object")
	prop := n.ChildByFieldName("property")
	if obj == nil || prop == nil {
		return model.Unknown{Reason: kindTag("member_expression")}
	}
	if obj.Type() == "object" {
		key := text(prop, src)
		for i := 0; i < int(obj.NamedChildCount()); i++ {
			pair := obj.NamedChild(i)
			if pair.Type() != "pair" {
				continue
			}
			keyNode := pair.ChildByFieldName("key")
			valNode := pair.ChildByFieldName("value")
			if keyNode == nil || valNode == nil {
				continue
			}
			if unquoteJS(text(keyNode, src)) == key {
				return e.Evaluate(valNode, scope, src)
			}
		}
		return model.Unknown{Reason: "member-key-not-found:" + key}
	}
	return model.Unknown{Reason: kindTag("member_expression")}
}

func (e *Evaluator) foldSubscript(n *sitter.Node, scope *model.Scope, src []byte) model.PartialValue {
	// Same as member access but o["p"]; only string-literal indices are
	// statically known.
	obj := n.ChildByFieldName("object")
	idx := n.ChildByFieldName("index")
	if obj == nil || idx == nil || idx.Type() != "string" {
		return model.Unknown{Reason: kindTag("subscript_expression")}
	}
	key := unquoteJS(text(idx, src))
	if obj.Type() == "object" {
		for i := 0; i < int(obj.NamedChildCount()); i++ {
			pair := obj.NamedChild(i)
			if pair.Type() != "pair" {
				continue
			}
			keyNode := pair.ChildByFieldName("key")
			valNode := pair.ChildByFieldName("value")
			if keyNode == nil || valNode == nil {
				continue
			}
			if unquoteJS(text(keyNode, src)) == key {
				return e.Evaluate(valNode, scope, src)
			}
		}
	}
	return model.Unknown{Reason: kindTag("subscript_expression")}
}

// foldBinary implements spec §4.2 rule 5: `a + b` where both sides fold
// to strings concatenates as a Template.
func (e *Evaluator) foldBinary(n *sitter.Node, scope *model.Scope, src []byte) model.PartialValue {
	opNode := n.ChildByFieldName("operator")
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if opNode == nil || left == nil || right == nil {
		return model.Unknown{Reason: kindTag("binary_expression")}
	}
	if text(opNode, src) != "+" {
		return model.Unknown{Reason: "non-string-binary"}
	}
	lv := e.Evaluate(left, scope, src)
	rv := e.Evaluate(right, scope, src)
	if model.IsUnknown(lv) || model.IsUnknown(rv) {
		return model.Unknown{Reason: "binary-operand-unknown"}
	}
	return model.Concat(lv, rv)
}

// foldCall implements spec §4.2 rule 7: calls are Unknown("call") except
// for the whitelist String(x) and x.toString().
func (e *Evaluator) foldCall(n *sitter.Node, scope *model.Scope, src []byte) model.PartialValue {
	fn := n.ChildByFieldName("function")
	args := n.ChildByFieldName("arguments")
	if fn == nil {
		return model.Unknown{Reason: "call"}
	}
	if fn.Type() == "identifier" && text(fn, src) == "String" {
		if args != nil && args.NamedChildCount() > 0 {
			return e.Evaluate(args.NamedChild(0), scope, src)
		}
		return model.Unknown{Reason: "call"}
	}
	if fn.Type() == "member_expression" {
		prop := fn.ChildByFieldName("property")
		obj := fn.ChildByFieldName("object")
		if prop != nil && obj != nil && text(prop, src) == "toString" {
			return e.Evaluate(obj, scope, src)
		}
	}
	return model.Unknown{Reason: "call"}
}
