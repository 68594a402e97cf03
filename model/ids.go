package model

import "github.com/google/uuid"

// RepoID identifies a repository within a multi-repo analysis run.
type RepoID string

// UnitID identifies a SourceUnit uniquely within a run.
type UnitID string

// NodeID identifies a RouterNode uniquely within a run.
type NodeID string

// NewNodeID synthesizes a stable-enough RouterNode id when the caller
// does not provide one explicitly (e.g. anonymous router literals).
func NewNodeID() NodeID {
	return NodeID(uuid.NewString())
}

// NewUnitID synthesizes a SourceUnit id from a repo and file path when the
// embedding host does not supply one.
func NewUnitID(repo RepoID, path string) UnitID {
	return UnitID(string(repo) + ":" + path)
}
