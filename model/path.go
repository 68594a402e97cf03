package model

import (
	"regexp"
	"strings"
)

// PathSegment is one component of a NormalizedPath: either a literal
// segment or a named/positional parameter (spec §3.1).
type PathSegment struct {
	Literal string `json:"literal,omitempty" yaml:"literal,omitempty"`
	IsParam bool   `json:"isParam,omitempty" yaml:"isParam,omitempty"`
	Param   string `json:"param,omitempty" yaml:"param,omitempty"`
}

// NormalizedPath is an ordered sequence of segments (spec §3.1).
// Equality ignores parameter names (invariant 6).
type NormalizedPath struct {
	Segments []PathSegment `json:"segments" yaml:"segments"`
}

var (
	colonParam = regexp.MustCompile(`^:([A-Za-z_][A-Za-z0-9_]*)$`)
	braceParam = regexp.MustCompile(`^\{([A-Za-z_][A-Za-z0-9_]*)\}$`)
	angleParam = regexp.MustCompile(`^<([A-Za-z_][A-Za-z0-9_]*)>$`)
)

// NormalizePath parses a fully-literal path string into a NormalizedPath,
// applying invariant 4 (begins with "/", no empty segments, no trailing
// slash except root) and invariant 6's parameter-name canonicalization.
// Returns ok=false if raw cannot be normalized into a valid path shape
// (raw is empty, or a segment is empty, "." or ".."). A raw string made
// only of slashes normalizes to the root path.
func NormalizePath(raw string) (NormalizedPath, bool) {
	if raw == "" {
		return NormalizedPath{}, false
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		// root path
		return NormalizedPath{Segments: nil}, true
	}
	parts := strings.Split(trimmed, "/")
	segs := make([]PathSegment, 0, len(parts))
	for _, part := range parts {
		if part == "" || part == ".." || part == "." {
			return NormalizedPath{}, false
		}
		segs = append(segs, normalizeSegment(part))
	}
	return NormalizedPath{Segments: segs}, true
}

func normalizeSegment(part string) PathSegment {
	if m := colonParam.FindStringSubmatch(part); m != nil {
		return PathSegment{IsParam: true, Param: m[1]}
	}
	if m := braceParam.FindStringSubmatch(part); m != nil {
		return PathSegment{IsParam: true, Param: m[1]}
	}
	if m := angleParam.FindStringSubmatch(part); m != nil {
		return PathSegment{IsParam: true, Param: m[1]}
	}
	if part == "*" || part == ":" || part == "{}" {
		return PathSegment{IsParam: true, Param: "_"}
	}
	return PathSegment{Literal: part}
}

// Equal reports structural equality ignoring parameter names: two
// segments are compatible if either is a param (a param accepts any
// value at that position, concrete or itself parameterized) or both
// are the same literal. This makes a registered route like
// "/users/:id" equal to a concrete call path like "/users/123", which
// is what invariant 6's "ignoring parameter names" is for — matching a
// route against the instances that hit it, not just deduplicating two
// routes against each other.
func (p NormalizedPath) Equal(other NormalizedPath) bool {
	if len(p.Segments) != len(other.Segments) {
		return false
	}
	for i := range p.Segments {
		a, b := p.Segments[i], other.Segments[i]
		if a.IsParam || b.IsParam {
			continue
		}
		if a.Literal != b.Literal {
			return false
		}
	}
	return true
}

// MatchesCall reports whether call (a concrete path taken from a call
// site's URL) satisfies p as a registered route. Equal is already
// symmetric under the param-accepts-anything rule, so this is just a
// named alias for the direction §4.7's matcher actually uses: p is the
// route, call is the instance.
func (p NormalizedPath) MatchesCall(call NormalizedPath) bool {
	return p.Equal(call)
}

// Key returns a canonical string usable as a map key for Equal-equivalence
// grouping (i.e. two paths with Key() equal are Equal).
func (p NormalizedPath) Key() string {
	var b strings.Builder
	for _, s := range p.Segments {
		b.WriteByte('/')
		if s.IsParam {
			b.WriteByte(':')
		} else {
			b.WriteString(s.Literal)
		}
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// String renders the path with canonical parameter names, e.g. "/users/:id".
func (p NormalizedPath) String() string {
	if len(p.Segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range p.Segments {
		b.WriteByte('/')
		if s.IsParam {
			b.WriteByte(':')
			if s.Param != "" {
				b.WriteString(s.Param)
			} else {
				b.WriteString("_")
			}
		} else {
			b.WriteString(s.Literal)
		}
	}
	return b.String()
}
