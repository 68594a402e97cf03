// Package resolver implements the Cross-file Import Resolver (spec
// §4.5): it connects the per-unit router graphs by resolving every
// MountEdge whose child is a pending import Symbol to a concrete
// RouterNode elsewhere, or marks it permanently unresolved.
package resolver

import "github.com/viant/carrick/model"

// ModuleResolver is the embedding host's injected callback (spec §6):
// given the unit doing the importing and the raw module specifier, it
// returns the UnitID the import resolves to, or ok=false if it cannot
// resolve the specifier at all (a bare-specifier/node_modules import,
// out of scope per spec.md).
type ModuleResolver func(from model.UnitID, specifier string) (model.UnitID, bool)

// Resolve implements §4.5's algorithm for every MountEdge across every
// graph whose child is an UnresolvedRef carrying a pending import
// Symbol: chase the import to its target unit, look up the exported
// name, follow re-exports transitively with cycle detection, then bind
// to the RouterNode the terminal symbol's initializer created, or record
// one of the four diagnostic reasons. The result is keyed by MountEdge
// id; edges absent from it were already resolved (or were never an
// import in the first place) at routergraph.Build time.
func Resolve(units []*model.SourceUnit, graphs map[model.UnitID]*model.RouterGraph, resolve ModuleResolver) map[string]model.RouterRef {
	unitsByID := make(map[model.UnitID]*model.SourceUnit, len(units))
	for _, u := range units {
		unitsByID[u.ID] = u
	}

	result := make(map[string]model.RouterRef)
	for unitID, graph := range graphs {
		for _, node := range graph.Nodes {
			for _, edge := range node.Mounts {
				ref, ok := edge.Child.(model.UnresolvedRef)
				if !ok || ref.Symbol == nil || ref.Symbol.Kind != model.SymbolImport {
					continue
				}
				visiting := make(map[string]bool)
				result[edge.ID] = resolveSymbol(unitID, ref.Symbol, resolve, unitsByID, graphs, visiting)
			}
		}
	}
	return result
}

// resolveSymbol implements the three resolution steps of spec §4.5 for
// one pending import Symbol, recursing through re-export chains.
func resolveSymbol(fromUnit model.UnitID, sym *model.Symbol, resolve ModuleResolver, unitsByID map[model.UnitID]*model.SourceUnit, graphs map[model.UnitID]*model.RouterGraph, visiting map[string]bool) model.RouterRef {
	targetUnit, ok := resolve(fromUnit, sym.ModuleSpecifier)
	if !ok {
		return model.UnresolvedRef{Symbol: sym, Reason: model.ReasonModuleNotFound}
	}
	targetSrc, ok := unitsByID[targetUnit]
	if !ok || targetSrc.Symbols == nil {
		return model.UnresolvedRef{Symbol: sym, Reason: model.ReasonModuleNotFound}
	}

	originName := sym.OriginName
	if originName == "*" {
		// namespace import mounted directly (`import * as r from "./r"`,
		// `router.use(r)`): not a single exported symbol, so it can never
		// resolve to one router.
		return model.UnresolvedRef{Symbol: sym, Reason: model.ReasonNotARouter}
	}

	exported, ok := targetSrc.Symbols.Exports[originName]
	if !ok {
		return model.UnresolvedRef{Symbol: sym, Reason: model.ReasonExportNotFound}
	}

	cycleKey := string(targetUnit) + "#" + originName
	if visiting[cycleKey] {
		return model.UnresolvedRef{Symbol: sym, Reason: model.ReasonCycle}
	}
	visiting[cycleKey] = true
	defer delete(visiting, cycleKey)

	if exported.Kind == model.SymbolReExport {
		reexport := &model.Symbol{
			Kind:            model.SymbolImport,
			Name:            exported.Name,
			ModuleSpecifier: exported.ModuleSpecifier,
			OriginName:      exported.OriginName,
		}
		return resolveSymbol(targetUnit, reexport, resolve, unitsByID, graphs, visiting)
	}

	graph, ok := graphs[targetUnit]
	if !ok {
		return model.UnresolvedRef{Symbol: sym, Reason: model.ReasonNotARouter}
	}
	if nodeID, ok := routerNodeFor(graph, exported); ok {
		return model.ResolvedRef{Node: nodeID}
	}
	return model.UnresolvedRef{Symbol: sym, Reason: model.ReasonNotARouter}
}

// routerNodeFor finds the RouterNode the target unit's graph built for
// sym's initializer. The resolver package deliberately has no dependency
// on framework's internal Symbol->NodeID bookkeeping (it only sees
// SourceUnits and RouterGraphs, per spec §4.5's contract), so the link
// is re-derived structurally: a creation site's span is the call
// expression itself, nested inside the declarator span symtab recorded
// on the Symbol.
func routerNodeFor(graph *model.RouterGraph, sym *model.Symbol) (model.NodeID, bool) {
	for id, node := range graph.Nodes {
		if spanWithin(node.Span, sym.Span) {
			return id, true
		}
	}
	return "", false
}

func spanWithin(inner, outer model.Span) bool {
	if inner.File != outer.File {
		return false
	}
	afterStart := inner.StartLine > outer.StartLine || (inner.StartLine == outer.StartLine && inner.StartCol >= outer.StartCol)
	beforeEnd := inner.EndLine < outer.EndLine || (inner.EndLine == outer.EndLine && inner.EndCol <= outer.EndCol)
	return afterStart && beforeEnd
}
