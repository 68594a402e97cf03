// Package symtab implements the Symbol Indexer (spec §4.1): it walks the
// syntax tree of one SourceUnit and produces its symbol table. No
// cross-file resolution happens here; imports remain symbolic until the
// resolver package runs (spec §4.5).
package symtab

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/viant/carrick/model"
)

// Hook is invoked for every AST node as the indexer descends, with the
// lexical scope active at that node. The framework recognizer (§4.3)
// reuses this to observe call/assignment sites with correct scope
// context without re-implementing scope construction.
type Hook func(n *sitter.Node, scope *model.Scope)

// Index walks tree and builds the SymbolTable for one SourceUnit, per
// spec §4.1's contract: input a syntax tree, output a scope-keyed symbol
// table plus the flat exports/imports lists.
func Index(unitID string, file string, tree *sitter.Node, src []byte) *model.SymbolTable {
	return Walk(unitID, file, tree, src, nil)
}

// Walk performs the same traversal as Index but additionally invokes hook
// for every node visited, passing the scope active there. Passing a nil
// hook is equivalent to Index.
func Walk(unitID string, file string, tree *sitter.Node, src []byte, hook Hook) *model.SymbolTable {
	table := model.NewSymbolTable(unitID + "#module")
	w := &walker{table: table, src: src, unit: unitID, file: file, hook: hook}
	w.walkChildren(tree, table.Root)
	return table
}

type walker struct {
	table *model.SymbolTable
	src   []byte
	unit  string
	file  string
	seq   int
	hook  Hook
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(w.src[n.StartByte():n.EndByte()])
}

func (w *walker) span(n *sitter.Node) model.Span {
	start := n.StartPoint()
	end := n.EndPoint()
	return model.Span{
		File:      w.file,
		StartLine: int(start.Row) + 1,
		StartCol:  int(start.Column),
		EndLine:   int(end.Row) + 1,
		EndCol:    int(end.Column),
	}
}

func (w *walker) nextScopeID(kind string) string {
	w.seq++
	return fmt.Sprintf("%s#%s%d", w.unit, kind, w.seq)
}

// walkChildren dispatches declaration forms at any nesting depth,
// threading the current lexical scope, mirroring the teacher's
// analyzer/node.go `walk` switch-on-node-type dispatcher.
func (w *walker) walkChildren(n *sitter.Node, scope *model.Scope) {
	if n == nil {
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		w.walkNode(child, scope)
	}
}

func (w *walker) walkNode(n *sitter.Node, scope *model.Scope) {
	if w.hook != nil {
		w.hook(n, scope)
	}
	switch n.Type() {
	case "import_statement":
		w.handleImport(n, scope)
	case "export_statement":
		w.handleExport(n, scope)
	case "lexical_declaration", "variable_declaration":
		w.handleVariableDeclaration(n, scope)
	case "function_declaration", "generator_function_declaration":
		w.handleFunctionDeclaration(n, scope)
	case "class_declaration":
		w.handleClassDeclaration(n, scope)
	case "expression_statement":
		w.handleExpressionStatement(n, scope)
	case "statement_block":
		child := w.table.NewChildScope(w.nextScopeID("block"), "block", scope)
		w.walkChildren(n, child)
	case "arrow_function", "function_expression", "generator_function":
		w.walkFunctionLikeValue(n, scope)
	default:
		// Functions nested in expressions (arrow functions passed as
		// arguments, IIFEs, etc.) still need their bodies walked so
		// mount/endpoint call sites inside them are reachable; recurse
		// without opening a new declaration scope for anything else.
		w.walkChildren(n, scope)
	}
}

// handleImport records import_statement's default/named/namespace forms
// as import Symbols carrying the raw module specifier (spec §4.1: "imports
// remain symbolic").
func (w *walker) handleImport(n *sitter.Node, scope *model.Scope) {
	var modulePath string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "string" {
			modulePath = unquote(w.text(child))
		}
	}
	if modulePath == "" {
		return
	}

	declare := func(localName, importedName string, span model.Span) {
		sym := &model.Symbol{
			Name:            localName,
			Kind:            model.SymbolImport,
			Span:            span,
			ModuleSpecifier: modulePath,
			OriginName:      importedName,
		}
		scope.Declare(sym)
		w.table.Imports = append(w.table.Imports, sym)
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "identifier":
			// default import: import Foo from "./foo"
			declare(w.text(child), "default", w.span(child))
		case "import_clause":
			w.walkImportClause(child, declare)
		}
	}
}

func (w *walker) walkImportClause(n *sitter.Node, declare func(local, imported string, span model.Span)) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "identifier":
			declare(w.text(child), "default", w.span(child))
		case "namespace_import":
			// import * as foo from "./foo"
			for j := 0; j < int(child.NamedChildCount()); j++ {
				id := child.NamedChild(j)
				if id.Type() == "identifier" {
					declare(w.text(id), "*", w.span(id))
				}
			}
		case "named_imports":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				spec := child.NamedChild(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				w.walkImportSpecifier(spec, declare)
			}
		}
	}
}

func (w *walker) walkImportSpecifier(n *sitter.Node, declare func(local, imported string, span model.Span)) {
	nameNode := n.ChildByFieldName("name")
	aliasNode := n.ChildByFieldName("alias")
	if nameNode == nil {
		return
	}
	imported := w.text(nameNode)
	local := imported
	if aliasNode != nil {
		local = w.text(aliasNode)
	}
	declare(local, imported, w.span(n))
}

// handleExport processes `export default <identifier>`, exported
// declarations (`export const ...`, `export default function ...`), and
// named re-exports (`export { x } from "./mod"`), which flatten to
// pass-through Symbols per spec §4.1. `export { x }` without a from
// clause and `export * from "./mod"` record no exports.
func (w *walker) handleExport(n *sitter.Node, scope *model.Scope) {
	var fromModule string
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if n.NamedChild(i).Type() == "string" {
			fromModule = unquote(w.text(n.NamedChild(i)))
		}
	}

	if fromModule != "" {
		// Re-export form: export {a, b as c} from "./mod"
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "export_clause" {
				for j := 0; j < int(child.NamedChildCount()); j++ {
					spec := child.NamedChild(j)
					if spec.Type() != "export_specifier" {
						continue
					}
					nameNode := spec.ChildByFieldName("name")
					aliasNode := spec.ChildByFieldName("alias")
					if nameNode == nil {
						continue
					}
					exported := w.text(nameNode)
					localAlias := exported
					if aliasNode != nil {
						localAlias = w.text(aliasNode)
					}
					sym := &model.Symbol{
						Name:            localAlias,
						Kind:            model.SymbolReExport,
						Span:            w.span(spec),
						ModuleSpecifier: fromModule,
						OriginName:      exported,
					}
					scope.Declare(sym)
					w.table.Exports[localAlias] = sym
				}
			}
		}
		return
	}

	// `export default <identifier>` referencing an existing binding
	// (as opposed to `export default function/class ...`, a declaration
	// handled by the generic path below): record it under "default"
	// directly, since nothing new is declared for collectDeclaredNames
	// to find.
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child.Type() == "identifier" {
			if sym, _ := scope.Lookup(w.text(child)); sym != nil {
				w.table.Exports["default"] = sym
				return
			}
		}
	}

	// Plain export: descend so the underlying declaration is still
	// indexed, then mark it exported under its declared name(s).
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		w.walkNode(child, scope)
	}
	w.markLastDeclarationsExported(n, scope)
}

// markLastDeclarationsExported finds the names declared directly under an
// export_statement's inner declaration and copies them into Exports.
func (w *walker) markLastDeclarationsExported(n *sitter.Node, scope *model.Scope) {
	var names []string
	collectDeclaredNames(n, w.src, &names)
	if len(names) == 0 {
		// `export default <expr>` with no bound name declares nothing, so
		// an export is recorded only if a binding named "default" is in
		// scope.
		if sym, _ := scope.Lookup("default"); sym != nil {
			w.table.Exports["default"] = sym
			return
		}
		return
	}
	for _, name := range names {
		if sym, _ := scope.Lookup(name); sym != nil {
			w.table.Exports[name] = sym
		}
	}
}

func collectDeclaredNames(n *sitter.Node, src []byte, out *[]string) {
	switch n.Type() {
	case "function_declaration", "class_declaration", "generator_function_declaration":
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			*out = append(*out, string(src[nameNode.StartByte():nameNode.EndByte()]))
		}
		return
	case "variable_declarator":
		if nameNode := n.ChildByFieldName("name"); nameNode != nil && nameNode.Type() == "identifier" {
			*out = append(*out, string(src[nameNode.StartByte():nameNode.EndByte()]))
		}
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		collectDeclaredNames(n.NamedChild(i), src, out)
	}
}

// handleVariableDeclaration expands const/let/var declarators, including
// destructuring patterns, to one Symbol per bound name (spec §4.1).
func (w *walker) handleVariableDeclaration(n *sitter.Node, scope *model.Scope) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		decl := n.NamedChild(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		valueNode := decl.ChildByFieldName("value")
		if nameNode == nil {
			continue
		}
		switch nameNode.Type() {
		case "identifier":
			sym := &model.Symbol{
				Name: w.text(nameNode),
				Kind: model.SymbolVariable,
				Span: w.span(decl),
				Init: valueNode,
			}
			scope.Declare(sym)
		case "object_pattern":
			w.declareObjectPattern(nameNode, valueNode, scope)
		case "array_pattern":
			w.declareArrayPattern(nameNode, valueNode, scope)
		}
		// Walk the initializer generically: function/arrow values get
		// a new function scope via walkNode's dispatch, and call
		// expressions (e.g. router-factory calls like express()) still
		// reach the hook so the framework recognizer can observe them.
		if valueNode != nil {
			w.walkNode(valueNode, scope)
		}
	}
}

// declareObjectPattern expands `const {a, b: c} = rhs` into Symbols whose
// initializer is the structural projection of rhs (spec §4.1).
func (w *walker) declareObjectPattern(pattern, rhs *sitter.Node, scope *model.Scope) {
	for i := 0; i < int(pattern.NamedChildCount()); i++ {
		prop := pattern.NamedChild(i)
		switch prop.Type() {
		case "shorthand_property_identifier_pattern", "identifier":
			name := w.text(prop)
			scope.Declare(&model.Symbol{
				Name: name,
				Kind: model.SymbolVariable,
				Span: w.span(prop),
				Init: &model.Projection{Base: rhs, Key: name},
			})
		case "pair_pattern":
			keyNode := prop.ChildByFieldName("key")
			valueNode := prop.ChildByFieldName("value")
			if keyNode == nil || valueNode == nil {
				continue
			}
			key := w.text(keyNode)
			if valueNode.Type() == "identifier" {
				scope.Declare(&model.Symbol{
					Name: w.text(valueNode),
					Kind: model.SymbolVariable,
					Span: w.span(prop),
					Init: &model.Projection{Base: rhs, Key: key},
				})
			}
		case "rest_pattern":
			// Rest bindings collect the remainder; not statically
			// projectable, so they fall to Unknown at fold time by
			// having no Init.
			for j := 0; j < int(prop.NamedChildCount()); j++ {
				id := prop.NamedChild(j)
				if id.Type() == "identifier" {
					scope.Declare(&model.Symbol{Name: w.text(id), Kind: model.SymbolVariable, Span: w.span(id)})
				}
			}
		}
	}
}

// declareArrayPattern expands `const [a, b] = rhs` into Symbols.
func (w *walker) declareArrayPattern(pattern, rhs *sitter.Node, scope *model.Scope) {
	idx := 0
	for i := 0; i < int(pattern.NamedChildCount()); i++ {
		el := pattern.NamedChild(i)
		if el.Type() == "identifier" {
			scope.Declare(&model.Symbol{
				Name: w.text(el),
				Kind: model.SymbolVariable,
				Span: w.span(el),
				Init: &model.Projection{Base: rhs, Index: idx, HasIndex: true},
			})
		}
		idx++
	}
}

// walkFunctionLikeValue opens a nested function scope for arrow
// functions/function expressions assigned to a variable, so call sites
// inside them are still indexed.
func (w *walker) walkFunctionLikeValue(n *sitter.Node, parent *model.Scope) {
	switch n.Type() {
	case "arrow_function", "function_expression", "generator_function":
		fnScope := w.table.NewChildScope(w.nextScopeID("fn"), "function", parent)
		w.declareParameters(n, fnScope)
		if body := n.ChildByFieldName("body"); body != nil {
			if body.Type() == "statement_block" {
				w.walkChildren(body, fnScope)
			} else {
				// concise arrow body (expression, not a block)
				w.walkNode(body, fnScope)
			}
		}
	}
}

func (w *walker) handleFunctionDeclaration(n *sitter.Node, scope *model.Scope) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	scope.Declare(&model.Symbol{Name: name, Kind: model.SymbolFunction, Span: w.span(n), Init: n})

	fnScope := w.table.NewChildScope(w.nextScopeID("fn"), "function", scope)
	w.declareParameters(n, fnScope)
	if body := n.ChildByFieldName("body"); body != nil {
		w.walkChildren(body, fnScope)
	}
}

func (w *walker) declareParameters(n *sitter.Node, fnScope *model.Scope) {
	params := n.ChildByFieldName("parameters")
	if params == nil {
		return
	}
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "identifier":
			fnScope.Declare(&model.Symbol{Name: w.text(p), Kind: model.SymbolParam, Span: w.span(p)})
		case "required_parameter", "optional_parameter":
			if pat := p.ChildByFieldName("pattern"); pat != nil && pat.Type() == "identifier" {
				fnScope.Declare(&model.Symbol{Name: w.text(pat), Kind: model.SymbolParam, Span: w.span(pat)})
			}
		case "object_pattern":
			w.declareObjectPattern(p, nil, fnScope)
		case "array_pattern":
			w.declareArrayPattern(p, nil, fnScope)
		case "assignment_pattern":
			if left := p.ChildByFieldName("left"); left != nil && left.Type() == "identifier" {
				right := p.ChildByFieldName("right")
				fnScope.Declare(&model.Symbol{Name: w.text(left), Kind: model.SymbolParam, Span: w.span(left), Init: right})
			}
		}
	}
}

func (w *walker) handleClassDeclaration(n *sitter.Node, scope *model.Scope) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	scope.Declare(&model.Symbol{Name: w.text(nameNode), Kind: model.SymbolVariable, Span: w.span(n), Init: n})
	// class bodies are out of scope for router recognition; not recursed.
}

// handleExpressionStatement catches reassignments (`x = expr`) so the
// symbol's "last known initializer" is updated only when the RHS is
// itself statically traceable, per spec §4.1's closing rule.
func (w *walker) handleExpressionStatement(n *sitter.Node, scope *model.Scope) {
	if n.NamedChildCount() == 0 {
		return
	}
	expr := n.NamedChild(0)
	if expr.Type() == "assignment_expression" {
		left := expr.ChildByFieldName("left")
		right := expr.ChildByFieldName("right")
		if left != nil && left.Type() == "identifier" && right != nil {
			if sym, declScope := scope.Lookup(w.text(left)); sym != nil {
				if isStaticallyTraceable(right) {
					sym.Init = right
				} else {
					sym.Init = nil // folds to Unknown at evaluate time
				}
				_ = declScope
			}
		}
		w.walkNode(right, scope)
		return
	}
	w.walkNode(expr, scope)
}

// isStaticallyTraceable reports whether a right-hand side is a literal,
// call, or identifier reference — the three forms spec §4.1 allows to
// update a symbol's cached initializer on reassignment.
func isStaticallyTraceable(n *sitter.Node) bool {
	switch n.Type() {
	case "string", "number", "true", "false", "template_string",
		"call_expression", "identifier":
		return true
	default:
		return false
	}
}

func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
