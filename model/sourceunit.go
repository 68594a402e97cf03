package model

// SourceUnit is one file (spec §3.1). Tree is the opaque syntax tree
// produced by the external parser collaborator (spec §1); the model
// package never inspects it. Symbols is filled in once by the engine's
// indexing stage; the other fields are not modified after construction.
type SourceUnit struct {
	ID     UnitID
	Repo   RepoID
	Path   string
	Tree   any // *sitter.Node, opaque to this package
	Source []byte

	Symbols *SymbolTable
}

// Repository groups the SourceUnits belonging to one analyzed repository
// (spec §6, "a list of repositories; for each, a list of SourceUnits").
type Repository struct {
	ID    RepoID
	Units []*SourceUnit
}
