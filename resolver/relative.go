package resolver

import (
	"path"
	"strings"

	"github.com/viant/carrick/model"
)

// tsExtensions is the probe order for extension-less relative specifiers,
// matching the common bundler convention (and mirroring the other
// retrieved resolver's own probe order for the same resolution problem).
var tsExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs"}

// RelativeResolver resolves "./"/"../" module specifiers against a
// unit-id-keyed path index built from a known set of SourceUnits; it is
// the bare-minimum ModuleResolver a test suite or embedding host can
// start from (spec.md §6 leaves bare-specifier/node_modules resolution to
// the host, explicitly out of scope here).
type RelativeResolver struct {
	byPath map[string]model.UnitID
	pathOf map[model.UnitID]string
}

// NewRelativeResolver indexes units by their file path.
func NewRelativeResolver(units []*model.SourceUnit) *RelativeResolver {
	r := &RelativeResolver{
		byPath: make(map[string]model.UnitID, len(units)),
		pathOf: make(map[model.UnitID]string, len(units)),
	}
	for _, u := range units {
		r.byPath[u.Path] = u.ID
		r.pathOf[u.ID] = u.Path
	}
	return r
}

// Resolve implements ModuleResolver for relative specifiers only; a bare
// specifier (no leading "./" or "../") returns ok=false.
func (r *RelativeResolver) Resolve(from model.UnitID, specifier string) (model.UnitID, bool) {
	if !strings.HasPrefix(specifier, "./") && !strings.HasPrefix(specifier, "../") {
		return "", false
	}
	fromPath, ok := r.pathOf[from]
	if !ok {
		return "", false
	}
	joined := path.Join(path.Dir(fromPath), specifier)

	if id, ok := r.byPath[joined]; ok {
		return id, true
	}
	for _, ext := range tsExtensions {
		if id, ok := r.byPath[joined+ext]; ok {
			return id, true
		}
	}
	for _, ext := range tsExtensions {
		if id, ok := r.byPath[path.Join(joined, "index"+ext)]; ok {
			return id, true
		}
	}
	return "", false
}
