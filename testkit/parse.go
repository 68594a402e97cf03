// Package testkit parses JS/TS fixtures for this module's package tests,
// mirroring the teacher's inspector/jsx.Inspector parse call
// (sitter.NewParser + javascript.GetLanguage + ParseCtx).
package testkit

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// MustParse parses src as JavaScript and returns the root node, panicking
// on a parse failure (test fixtures are expected to always be valid).
func MustParse(src []byte) *sitter.Node {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		panic(err)
	}
	return tree.RootNode()
}
