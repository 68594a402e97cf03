package model

// SymbolKind classifies a Symbol per spec §3.1.
type SymbolKind string

const (
	SymbolVariable SymbolKind = "variable"
	SymbolFunction SymbolKind = "function"
	SymbolParam    SymbolKind = "parameter"
	SymbolImport   SymbolKind = "import"
	SymbolReExport SymbolKind = "re-export"
)

// Symbol is a named binding in a SourceUnit (spec §3.1).
type Symbol struct {
	Name string     `json:"name" yaml:"name"`
	Kind SymbolKind `json:"kind" yaml:"kind"`

	// Init is the symbol's initializer expression node, opaque to the
	// model package (it is whatever the host's tree-sitter binding
	// produces); the value tracker folds it via the scope chain. Nil
	// when the symbol has no statically traceable initializer.
	Init any `json:"-" yaml:"-"`

	Span Span `json:"span" yaml:"span"`

	// OriginUnit/OriginName are populated for imports: the unit and
	// exported name the import specifier resolves to, once resolved.
	// Unresolved imports retain only ModuleSpecifier.
	OriginUnit      UnitID `json:"originUnit,omitempty" yaml:"originUnit,omitempty"`
	OriginName      string `json:"originName,omitempty" yaml:"originName,omitempty"`
	ModuleSpecifier string `json:"moduleSpecifier,omitempty" yaml:"moduleSpecifier,omitempty"`
}

// Projection is a lazy structural projection of a destructured
// initializer: either a property-key lookup (object destructuring) or a
// positional index (array destructuring). Base is the opaque
// right-hand-side expression node; the value tracker resolves it against
// whatever object/array literal Base folds to (spec §4.1, §4.2 rule 6).
type Projection struct {
	Base     any
	Key      string
	Index    int
	HasIndex bool
}

// Scope is a lexical scope in the symbol table: a chain from a block up
// through its enclosing function/module scope, mirroring the teacher's
// linage.Scope{Parent *Scope} chain.
type Scope struct {
	ID     string
	Kind   string // "module", "function", "block"
	Parent *Scope
	Names  map[string]*Symbol
}

// NewScope creates a child scope of parent (nil for the module's root scope).
func NewScope(id, kind string, parent *Scope) *Scope {
	return &Scope{ID: id, Kind: kind, Parent: parent, Names: make(map[string]*Symbol)}
}

// Declare registers a symbol in this scope, per invariant 1 (names unique
// within a scope's own lexical declaration). Re-declaration in the same
// scope overwrites, matching ordinary JS/TS shadowing-by-reassignment
// semantics within one scope.
func (s *Scope) Declare(sym *Symbol) {
	s.Names[sym.Name] = sym
}

// Lookup walks the scope chain outward looking for name.
func (s *Scope) Lookup(name string) (*Symbol, *Scope) {
	for cur := s; cur != nil; cur = cur.Parent {
		if sym, ok := cur.Names[name]; ok {
			return sym, cur
		}
	}
	return nil, nil
}

// SymbolTable is the per-SourceUnit output of the symbol indexer (spec
// §4.1): a map of scope id to its symbols, plus the flat top-level
// exports and imports.
type SymbolTable struct {
	Root    *Scope
	Scopes  map[string]*Scope
	Exports map[string]*Symbol // top-level export name -> Symbol
	Imports []*Symbol          // flat list of import Symbols
}

// NewSymbolTable creates an empty table rooted at a fresh module scope.
func NewSymbolTable(moduleScopeID string) *SymbolTable {
	root := NewScope(moduleScopeID, "module", nil)
	return &SymbolTable{
		Root:    root,
		Scopes:  map[string]*Scope{moduleScopeID: root},
		Exports: make(map[string]*Symbol),
	}
}

// NewChildScope creates and registers a child scope of parent.
func (t *SymbolTable) NewChildScope(id, kind string, parent *Scope) *Scope {
	s := NewScope(id, kind, parent)
	t.Scopes[id] = s
	return s
}
